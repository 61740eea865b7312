package handler

import (
	"Go_Share/internal/dto"
	"Go_Share/internal/service"
	"Go_Share/utils"

	"github.com/gin-gonic/gin"
)

func CreatePackage(c *gin.Context) {
	var req dto.CreatePackageRequest
	if !bindJSON(c, &req) {
		return
	}
	pkg, err := service.CreatePackage(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, pkg)
}

func ListPackages(c *gin.Context) {
	pkgs, err := service.ListPackages(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, pkgs)
}

func GetPackage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	pkg, err := service.GetPackage(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, pkg)
}

// AddPackageFile moves one of the caller's files into a package.
func AddPackageFile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.PackageFileRequest
	if !bindJSON(c, &req) {
		return
	}
	pkg, err := service.AddFileToPackage(c.Request.Context(), requester(c), id, req.FileID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, pkg)
}

func RemovePackageFile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fileID, ok := paramID(c, "fileId")
	if !ok {
		return
	}
	pkg, err := service.RemoveFileFromPackage(c.Request.Context(), requester(c), id, fileID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, pkg)
}

// DeletePackage deletes a package and leaves its files in place.
func DeletePackage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := service.DeletePackage(c.Request.Context(), id); err != nil {
		utils.Fail(c, err)
		return
	}
	success(c)
}
