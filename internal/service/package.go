package service

import (
	"Go_Share/internal/apperr"
	"Go_Share/model"
	"context"
	"strings"

	"gorm.io/gorm"
)

// CreatePackage creates an empty package.
func CreatePackage(ctx context.Context, name string, description *string) (*model.Package, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.BadRequest("name is required")
	}
	pkg := &model.Package{Name: name, Description: description}
	if err := db(ctx).Create(pkg).Error; err != nil {
		return nil, err
	}
	return pkg, nil
}

// ListPackages returns all packages with their files, newest first.
func ListPackages(ctx context.Context) ([]model.Package, error) {
	var pkgs []model.Package
	if err := db(ctx).Order("created_at DESC, id DESC").Find(&pkgs).Error; err != nil {
		return nil, err
	}
	if len(pkgs) == 0 {
		return pkgs, nil
	}
	ids := make([]uint64, 0, len(pkgs))
	byID := make(map[uint64]int, len(pkgs))
	for i, p := range pkgs {
		ids = append(ids, p.ID)
		byID[p.ID] = i
	}
	var files []model.File
	if err := db(ctx).Where("package_id IN ?", ids).Order("id").Find(&files).Error; err != nil {
		return nil, err
	}
	for _, f := range files {
		i := byID[*f.PackageID]
		pkgs[i].Files = append(pkgs[i].Files, f)
	}
	return pkgs, nil
}

// GetPackage returns a package with its files.
func GetPackage(ctx context.Context, id uint64) (*model.Package, error) {
	var pkg model.Package
	if err := db(ctx).Where("id = ?", id).First(&pkg).Error; err != nil {
		return nil, notFound(err, apperr.MsgPackageNotFound)
	}
	if err := db(ctx).Where("package_id = ?", pkg.ID).Order("id").Find(&pkg.Files).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

// AddFileToPackage moves a file into a package.
func AddFileToPackage(ctx context.Context, r Requester, packageID, fileID uint64) (*model.Package, error) {
	if err := packageExists(ctx, packageID); err != nil {
		return nil, err
	}
	file, err := GetFile(ctx, r, fileID)
	if err != nil {
		return nil, err
	}
	if err := db(ctx).Model(&model.File{}).Where("id = ?", file.ID).
		UpdateColumn("package_id", packageID).Error; err != nil {
		return nil, err
	}
	return GetPackage(ctx, packageID)
}

// RemoveFileFromPackage detaches a file from a package.
func RemoveFileFromPackage(ctx context.Context, r Requester, packageID, fileID uint64) (*model.Package, error) {
	if err := packageExists(ctx, packageID); err != nil {
		return nil, err
	}
	file, err := GetFile(ctx, r, fileID)
	if err != nil {
		return nil, err
	}
	if err := db(ctx).Model(&model.File{}).
		Where("id = ? AND package_id = ?", file.ID, packageID).
		UpdateColumn("package_id", nil).Error; err != nil {
		return nil, err
	}
	return GetPackage(ctx, packageID)
}

// DeletePackage deletes a package. Its files are detached, not deleted.
func DeletePackage(ctx context.Context, id uint64) error {
	if err := packageExists(ctx, id); err != nil {
		return err
	}
	return db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.File{}).Where("package_id = ?", id).
			UpdateColumn("package_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Package{}, id).Error
	})
}

func packageExists(ctx context.Context, id uint64) error {
	var count int64
	if err := db(ctx).Model(&model.Package{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.NotFound(apperr.MsgPackageNotFound)
	}
	return nil
}
