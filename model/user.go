package model

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	Email string `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`

	Password string `gorm:"column:password;type:varchar(255);not null" json:"-"`

	Role string `gorm:"column:role;type:varchar(16);not null;default:'USER'" json:"role"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (User) TableName() string {
	return "user_db"
}
