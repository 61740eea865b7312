package utils

import (
	"Go_Share/internal/apperr"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

// AuthMiddleware verifies JWT and sets user context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			Fail(c, apperr.Unauthorized("unauthorized"))
			return
		}
		claims, err := VerifyToken(tokenParts[1])
		if err != nil {
			Fail(c, apperr.Unauthorized("unauthorized"))
			return
		}
		c.Set(CtxUserID, claims.UserId)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// RequireRole rejects authenticated users without the given role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxRole) != role {
			Fail(c, apperr.Forbidden("forbidden"))
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id, 0 when anonymous.
func CurrentUserID(c *gin.Context) uint64 {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return 0
	}
	id, _ := v.(uint64)
	return id
}
