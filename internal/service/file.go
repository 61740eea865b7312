package service

import (
	"Go_Share/config"
	"Go_Share/internal/apperr"
	"Go_Share/internal/dto"
	"Go_Share/internal/logger"
	"Go_Share/internal/storage"
	"Go_Share/model"
	"Go_Share/utils"
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListFiles returns the requester's files, newest first.
func ListFiles(ctx context.Context, r Requester) ([]model.File, error) {
	var files []model.File
	err := db(ctx).Scopes(ownedFiles(r)).
		Order("created_at DESC, id DESC").
		Find(&files).Error
	return files, err
}

// GetFile returns one file visible to the requester.
func GetFile(ctx context.Context, r Requester, id uint64) (*model.File, error) {
	var file model.File
	if err := db(ctx).Scopes(ownedFiles(r)).Where("id = ?", id).First(&file).Error; err != nil {
		return nil, notFound(err, apperr.MsgFileNotFound)
	}
	return &file, nil
}

// FileDownloadURL presigns a download of a completed file for its owner.
func FileDownloadURL(ctx context.Context, r Requester, id uint64) (*dto.DownloadResponse, error) {
	file, err := GetFile(ctx, r, id)
	if err != nil {
		return nil, err
	}
	if file.UploadState != model.UploadStateComplete {
		return nil, apperr.NotFound(apperr.MsgFileNotFound)
	}
	url, err := storage.Default.PresignGetObject(ctx, file.StorageKey, config.Storage().PresignTTL, map[string]string{
		storage.ParamContentDisposition: utils.AttachmentDisposition(file.OriginalName),
		storage.ParamContentType:        file.MimeType,
	})
	if err != nil {
		return nil, apperr.Upstream("Failed to generate download URL", err)
	}
	return &dto.DownloadResponse{DownloadURL: url, FileName: file.OriginalName, MimeType: file.MimeType}, nil
}

// DeleteFile removes the stored object (or open upload) and the file with
// its links and access logs.
func DeleteFile(ctx context.Context, r Requester, id uint64) error {
	file, err := GetFile(ctx, r, id)
	if err != nil {
		return err
	}
	switch {
	case file.UploadState == model.UploadStateComplete:
		if err := storage.Default.RemoveObject(ctx, file.StorageKey); err != nil {
			return apperr.Upstream("Failed to delete stored object", err)
		}
	case file.UploadID != "":
		abortQuietly(ctx, file.StorageKey, file.UploadID)
	}
	if err := deleteFileRecords(ctx, file.ID); err != nil {
		return err
	}
	logger.L().Info("file deleted", zap.Uint64("file_id", file.ID), zap.Uint64("by", r.UserID))
	return nil
}

// deleteFileRecords deletes access logs, links and the file in one
// transaction, independent of backend foreign key support.
func deleteFileRecords(ctx context.Context, fileID uint64) error {
	return db(ctx).Transaction(func(tx *gorm.DB) error {
		linkIDs := tx.Model(&model.ShareLink{}).Select("id").Where("file_id = ?", fileID)
		if err := tx.Where("link_id IN (?)", linkIDs).Delete(&model.AccessLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("file_id = ?", fileID).Delete(&model.ShareLink{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.File{}, fileID).Error
	})
}
