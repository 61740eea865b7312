package handler

import (
	"Go_Share/internal/apperr"
	"Go_Share/internal/service"
	"Go_Share/utils"
	"strconv"

	"github.com/gin-gonic/gin"
)

func requester(c *gin.Context) service.Requester {
	return service.Requester{UserID: utils.CurrentUserID(c), Role: c.GetString(utils.CtxRole)}
}

func client(c *gin.Context) service.Client {
	return service.Client{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

// paramID parses a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.Fail(c, apperr.BadRequest("invalid "+name))
		return 0, false
	}
	return id, true
}

// bindJSON binds the body into req and writes a 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.Fail(c, apperr.BadRequest("invalid request: "+err.Error()))
		return false
	}
	return true
}

func success(c *gin.Context) {
	utils.Success(c, gin.H{"success": true})
}
