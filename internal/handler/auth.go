package handler

import (
	"Go_Share/internal/dto"
	"Go_Share/internal/service"
	"Go_Share/utils"

	"github.com/gin-gonic/gin"
)

// Register creates a user account and returns a token.
func Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := service.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, resp)
}

// Login authenticates a user and returns a token.
func Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, resp)
}
