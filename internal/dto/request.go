package dto

import (
	"Go_Share/internal/storage"
	"time"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type InitUploadRequest struct {
	FileName   string `json:"fileName" binding:"required,max=255"`
	MimeType   string `json:"mimeType"`
	FileSize   int64  `json:"fileSize"`
	TotalParts *int   `json:"totalParts"`
}

type CompleteUploadRequest struct {
	FileID   uint64                  `json:"fileId" binding:"required"`
	UploadID string                  `json:"uploadId" binding:"required"`
	Parts    []storage.CompletedPart `json:"parts"`
}

type AbortUploadRequest struct {
	FileID   uint64 `json:"fileId" binding:"required"`
	UploadID string `json:"uploadId" binding:"required"`
}

type UploadProgressRequest struct {
	FileID     uint64 `json:"fileId" binding:"required"`
	PartNumber int    `json:"partNumber" binding:"required,min=1"`
	TotalParts int    `json:"totalParts" binding:"required,min=1"`
}

type CreateLinkRequest struct {
	FileID        uint64     `json:"fileId" binding:"required"`
	Password      *string    `json:"password"`
	ExpireAt      *time.Time `json:"expireAt"`
	DownloadLimit *int       `json:"downloadLimit" binding:"omitempty,min=1"`
}

type VerifyLinkRequest struct {
	Password *string `json:"password"`
}

type CreatePackageRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description"`
}

type PackageFileRequest struct {
	FileID uint64 `json:"fileId" binding:"required"`
}

// PageQuery is the skip/take pagination used by admin listings.
type PageQuery struct {
	Skip   int    `form:"skip"`
	Take   int    `form:"take"`
	Search string `form:"search"`
}

type LogQuery struct {
	Skip      int        `form:"skip"`
	Take      int        `form:"take"`
	LinkID    *uint64    `form:"linkId"`
	Action    string     `form:"action"`
	StartDate *time.Time `form:"startDate" time_format:"2006-01-02T15:04:05Z07:00"`
	EndDate   *time.Time `form:"endDate" time_format:"2006-01-02T15:04:05Z07:00"`
}
