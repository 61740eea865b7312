package model

import "time"

type ShareLink struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	Token string `gorm:"column:token;size:64;uniqueIndex;not null" json:"token"`

	FileID uint64 `gorm:"column:file_id;not null;index" json:"file_id"`
	File   File   `gorm:"foreignKey:FileID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	Password *string `gorm:"column:password;size:255" json:"-"` // bcrypt hash

	ExpireAt             *time.Time `gorm:"column:expire_at;index" json:"expire_at"`
	DownloadLimit        *int       `gorm:"column:download_limit" json:"download_limit"`
	CurrentDownloadCount int        `gorm:"column:current_download_count;not null;default:0" json:"current_download_count"`
	IsActive             bool       `gorm:"column:is_active;not null;default:true;index" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (ShareLink) TableName() string {
	return "share_link"
}

// HasPassword reports whether the link is password protected.
func (l *ShareLink) HasPassword() bool {
	return l.Password != nil && *l.Password != ""
}
