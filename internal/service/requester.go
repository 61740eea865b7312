package service

import (
	"Go_Share/model"

	"gorm.io/gorm"
)

// Requester is the authenticated caller of an owner-scoped operation.
type Requester struct {
	UserID uint64
	Role   string
}

func (r Requester) IsAdmin() bool { return r.Role == model.RoleAdmin }

// ownedFiles limits a File query to what r may see. Admins see everything.
func ownedFiles(r Requester) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if r.IsAdmin() {
			return q
		}
		return q.Where("file.uploader_id = ?", r.UserID)
	}
}
