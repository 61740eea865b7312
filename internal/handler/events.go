package handler

import (
	"Go_Share/config"
	"Go_Share/internal/apperr"
	"Go_Share/internal/events"
	"Go_Share/internal/logger"
	"Go_Share/model"
	"Go_Share/utils"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	allowed := strings.TrimSpace(config.AppConfig.CORSOrigin)
	if origin == "" || allowed == "" || allowed == "*" {
		return true
	}
	for _, o := range strings.Split(allowed, ",") {
		if strings.TrimSpace(o) == origin {
			return true
		}
	}
	return false
}

// Events upgrades to a websocket bound to a room. Browsers cannot set
// headers on the handshake, so the token may come in the query string.
// The admin room requires an ADMIN token; the upload room any valid token.
func Events(hub *events.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		claims, err := utils.VerifyToken(token)
		if err != nil {
			utils.Fail(c, apperr.Unauthorized("unauthorized"))
			return
		}

		room := c.DefaultQuery("room", events.RoomAdmin)
		var fileID uint64
		switch room {
		case events.RoomAdmin:
			if claims.Role != model.RoleAdmin {
				utils.Fail(c, apperr.Forbidden("forbidden"))
				return
			}
		case events.RoomUpload:
			fileID, err = strconv.ParseUint(c.Query("file_id"), 10, 64)
			if err != nil || fileID == 0 {
				utils.Fail(c, apperr.BadRequest("file_id is required"))
				return
			}
		default:
			utils.Fail(c, apperr.BadRequest("unknown room"))
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.L().Warn("websocket upgrade fail", zap.Error(err))
			return
		}
		defer conn.Close()
		hub.Serve(conn, events.NewClient(room, fileID))
	}
}
