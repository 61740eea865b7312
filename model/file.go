package model

import "time"

const (
	UploadStatePending  = "pending"
	UploadStateComplete = "complete"
	UploadStateAborted  = "aborted"
)

type File struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	OriginalName string `gorm:"column:original_name;size:255;not null" json:"original_name"`
	MimeType     string `gorm:"column:mime_type;size:255;not null" json:"mime_type"`

	// int64 keeps byte sizes exact past 2^53; JSON carries it as a string.
	Size int64 `gorm:"column:size;not null" json:"size,string"`

	StorageKey  string `gorm:"column:storage_key;size:512;not null;uniqueIndex" json:"storage_key"`
	UploadID    string `gorm:"column:upload_id;size:1024" json:"-"`
	UploadState string `gorm:"column:upload_state;size:16;not null;default:'pending';index" json:"upload_state"`

	UploaderID *uint64 `gorm:"column:uploader_id;index" json:"uploader_id,omitempty"`
	Uploader   *User   `gorm:"foreignKey:UploaderID;references:ID;constraint:OnDelete:SET NULL" json:"uploader,omitempty"`

	PackageID *uint64  `gorm:"column:package_id;index" json:"package_id,omitempty"`
	Package   *Package `gorm:"foreignKey:PackageID;references:ID;constraint:OnDelete:SET NULL" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (File) TableName() string {
	return "file"
}
