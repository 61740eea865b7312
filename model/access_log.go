package model

import "time"

const (
	AccessActionView     = "VIEW"
	AccessActionDownload = "DOWNLOAD"
)

// AccessLog is an append-only record of a successful link access.
type AccessLog struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	LinkID uint64    `gorm:"column:link_id;not null;index" json:"link_id"`
	Link   ShareLink `gorm:"foreignKey:LinkID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	Action    string  `gorm:"column:action;size:16;not null;index" json:"action"`
	IP        *string `gorm:"column:ip;size:64" json:"ip"`
	UserAgent *string `gorm:"column:user_agent;type:text" json:"user_agent"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName returns the database table name.
func (AccessLog) TableName() string {
	return "access_log"
}
