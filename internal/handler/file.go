package handler

import (
	"Go_Share/internal/service"
	"Go_Share/utils"

	"github.com/gin-gonic/gin"
)

func ListFiles(c *gin.Context) {
	files, err := service.ListFiles(c.Request.Context(), requester(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, files)
}

func GetFile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	file, err := service.GetFile(c.Request.Context(), requester(c), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, file)
}

// FileDownloadURL returns a presigned URL for the owner's own download.
func FileDownloadURL(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := service.FileDownloadURL(c.Request.Context(), requester(c), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, resp)
}

// DeleteFile removes a file, its stored object and every link to it.
func DeleteFile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := service.DeleteFile(c.Request.Context(), requester(c), id); err != nil {
		utils.Fail(c, err)
		return
	}
	success(c)
}
