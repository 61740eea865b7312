package handler

import (
	"Go_Share/internal/dto"
	"Go_Share/internal/service"
	"Go_Share/utils"

	"github.com/gin-gonic/gin"
)

// InitUpload opens a multipart upload and returns presigned part URLs.
func InitUpload(c *gin.Context) {
	var req dto.InitUploadRequest
	if !bindJSON(c, &req) {
		return
	}
	in := service.InitUploadInput{
		FileName:   req.FileName,
		MimeType:   req.MimeType,
		FileSize:   req.FileSize,
		TotalParts: req.TotalParts,
	}
	if id := utils.CurrentUserID(c); id != 0 {
		in.UploaderID = &id
	}
	resp, err := service.InitUpload(c.Request.Context(), in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, resp)
}

// CompleteUpload finalizes a multipart upload with the client's part manifest.
func CompleteUpload(c *gin.Context) {
	var req dto.CompleteUploadRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := service.CompleteUpload(c.Request.Context(), requester(c), req.FileID, req.UploadID, req.Parts)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, resp)
}

func AbortUpload(c *gin.Context) {
	var req dto.AbortUploadRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := service.AbortUpload(c.Request.Context(), requester(c), req.FileID, req.UploadID); err != nil {
		utils.Fail(c, err)
		return
	}
	success(c)
}

// UploadProgress relays part progress to event subscribers.
func UploadProgress(c *gin.Context) {
	var req dto.UploadProgressRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := service.ReportProgress(c.Request.Context(), requester(c), req.FileID, req.PartNumber, req.TotalParts); err != nil {
		utils.Fail(c, err)
		return
	}
	success(c)
}
