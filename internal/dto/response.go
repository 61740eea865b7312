package dto

import "time"

type AuthUser struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	User        AuthUser `json:"user"`
}

type PartURL struct {
	PartNumber int    `json:"partNumber"`
	URL        string `json:"url"`
}

type InitUploadResponse struct {
	FileID     uint64    `json:"fileId"`
	UploadID   string    `json:"uploadId"`
	StorageKey string    `json:"key"`
	PartSize   int64     `json:"partSize"`
	Parts      []PartURL `json:"parts"`
}

type CompleteUploadResponse struct {
	Success  bool   `json:"success"`
	FileID   uint64 `json:"fileId"`
	FileName string `json:"fileName"`
}

type FileSummary struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size,string"`
	MimeType string `json:"mimeType,omitempty"`
}

// LinkResponse never carries the password hash, only whether one is set.
type LinkResponse struct {
	ID                   uint64      `json:"id"`
	Token                string      `json:"token"`
	HasPassword          bool        `json:"hasPassword"`
	ExpireAt             *time.Time  `json:"expireAt"`
	DownloadLimit        *int        `json:"downloadLimit"`
	CurrentDownloadCount int         `json:"currentDownloadCount"`
	IsActive             bool        `json:"isActive"`
	CreatedAt            time.Time   `json:"createdAt"`
	File                 FileSummary `json:"file"`
	AccessCount          int64       `json:"accessCount"`
}

type VerifyLinkResponse struct {
	Valid bool        `json:"valid"`
	File  FileSummary `json:"file"`
}

type DownloadResponse struct {
	DownloadURL string `json:"downloadUrl"`
	FileName    string `json:"fileName"`
	MimeType    string `json:"mimeType"`
}

type AdminFile struct {
	ID              uint64    `json:"id"`
	OriginalName    string    `json:"originalName"`
	MimeType        string    `json:"mimeType"`
	Size            int64     `json:"size,string"`
	UploadState     string    `json:"uploadState"`
	UploaderEmail   string    `json:"uploaderEmail,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	ShareLinksCount int64     `json:"shareLinksCount"`
	TotalDownloads  int64     `json:"totalDownloads"`
}

type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Skip  int   `json:"skip"`
	Take  int   `json:"take"`
}

type Stats struct {
	TotalFiles     int64  `json:"totalFiles"`
	TotalUsers     int64  `json:"totalUsers"`
	TotalDownloads int64  `json:"totalDownloads"`
	ActiveLinks    int64  `json:"activeLinks"`
	TotalStorage   string `json:"totalStorage"`
}

type AccessLogEntry struct {
	ID        uint64    `json:"id"`
	Action    string    `json:"action"`
	IP        *string   `json:"ip"`
	UserAgent *string   `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
	LinkID    uint64    `json:"linkId"`
	Token     string    `json:"token"`
	FileID    uint64    `json:"fileId"`
	FileName  string    `json:"fileName"`
}

type SweepResult struct {
	Affected int64 `json:"affected"`
}
