package router

import (
	"Go_Share/config"
	"Go_Share/internal/events"
	"Go_Share/internal/handler"
	"Go_Share/internal/logger"
	"Go_Share/model"
	"Go_Share/utils"

	"github.com/gin-gonic/gin"
)

// InitRouter builds API routes. limiter may be nil to disable throttling.
func InitRouter(hub *events.Hub, limiter *utils.IPRateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(utils.CORSMiddleware(config.AppConfig.CORSOrigin))
	if limiter != nil {
		r.Use(limiter.Middleware())
	}

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", handler.Register)
			authGroup.POST("/login", handler.Login)
		}

		links := api.Group("/links")
		{
			links.POST("/:token/verify", handler.VerifyLink)
			links.GET("/:token/download", handler.DownloadLink)
		}
		api.GET("/events/ws", handler.Events(hub))

		auth := api.Group("")
		auth.Use(utils.AuthMiddleware())

		files := auth.Group("/files")
		{
			files.POST("/init-upload", handler.InitUpload)
			files.POST("/complete-upload", handler.CompleteUpload)
			files.POST("/abort-upload", handler.AbortUpload)
			files.POST("/upload-progress", handler.UploadProgress)
			files.GET("", handler.ListFiles)
			files.GET("/:id", handler.GetFile)
			files.GET("/:id/download-url", handler.FileDownloadURL)
			files.DELETE("/:id", handler.DeleteFile)
		}

		owned := auth.Group("/links")
		{
			owned.POST("", handler.CreateLink)
			owned.GET("", handler.ListLinks)
			owned.DELETE("/:id", handler.DeleteLink)
		}

		packages := auth.Group("/packages")
		{
			packages.POST("", handler.CreatePackage)
			packages.GET("", handler.ListPackages)
			packages.GET("/:id", handler.GetPackage)
			packages.POST("/:id/files", handler.AddPackageFile)
			packages.DELETE("/:id/files/:fileId", handler.RemovePackageFile)
			packages.DELETE("/:id", handler.DeletePackage)
		}

		admin := auth.Group("/admin")
		admin.Use(utils.RequireRole(model.RoleAdmin))
		{
			admin.GET("/files", handler.AdminListFiles)
			admin.DELETE("/files/:id", handler.DeleteFile)
			admin.GET("/stats", handler.AdminStats)
			admin.GET("/logs", handler.AdminLogs)
			admin.GET("/links", handler.ListLinks)
			admin.POST("/sweep/:job", handler.AdminSweep)
		}
	}
	return r
}
