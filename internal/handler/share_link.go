package handler

import (
	"Go_Share/internal/dto"
	"Go_Share/internal/service"
	"Go_Share/utils"

	"github.com/gin-gonic/gin"
)

// CreateLink issues a share link for one of the caller's files.
func CreateLink(c *gin.Context) {
	var req dto.CreateLinkRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := service.CreateLink(c.Request.Context(), requester(c), service.CreateLinkInput{
		FileID:        req.FileID,
		Password:      req.Password,
		ExpireAt:      req.ExpireAt,
		DownloadLimit: req.DownloadLimit,
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, resp)
}

func ListLinks(c *gin.Context) {
	links, err := service.ListLinks(c.Request.Context(), requester(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, links)
}

// VerifyLink checks a link and its password without consuming a download.
func VerifyLink(c *gin.Context) {
	var req dto.VerifyLinkRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	resp, err := service.VerifyLink(c.Request.Context(), c.Param("token"), req.Password, client(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, resp)
}

// DownloadLink consumes one download and returns a presigned URL.
func DownloadLink(c *gin.Context) {
	resp, err := service.DownloadLink(c.Request.Context(), c.Param("token"), client(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, resp)
}

func DeleteLink(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := service.DeactivateLink(c.Request.Context(), requester(c), id); err != nil {
		utils.Fail(c, err)
		return
	}
	success(c)
}
