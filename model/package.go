package model

import "time"

type Package struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	Name        string  `gorm:"column:name;size:255;not null" json:"name"`
	Description *string `gorm:"column:description;type:text" json:"description,omitempty"`

	Files []File `gorm:"-" json:"files,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (Package) TableName() string {
	return "package"
}
