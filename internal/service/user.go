package service

import (
	"Go_Share/internal/apperr"
	"Go_Share/internal/dto"
	"Go_Share/internal/logger"
	"Go_Share/model"
	"Go_Share/utils"
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func authResponse(u *model.User) (*dto.AuthResponse, error) {
	token, err := utils.GenerateToken(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		AccessToken: token,
		User:        dto.AuthUser{ID: u.ID, Email: u.Email, Role: u.Role},
	}, nil
}

// Register creates a USER account and signs it in.
func Register(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	email = normalizeEmail(email)
	var count int64
	if err := db(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperr.Conflict(apperr.MsgEmailExists)
	}
	hash, err := utils.HashPwd(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Email: email, Password: hash, Role: model.RoleUser}
	if err := db(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict(apperr.MsgEmailExists)
		}
		return nil, err
	}
	logger.L().Info("user registered", zap.Uint64("user_id", user.ID))
	return authResponse(user)
}

// Login checks credentials and issues a token.
func Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	var user model.User
	err := db(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized(apperr.MsgBadCredentials)
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPwd(password, user.Password) {
		return nil, apperr.Unauthorized(apperr.MsgBadCredentials)
	}
	return authResponse(&user)
}

// EnsureAdmin creates the configured admin account once. Existing accounts
// are left untouched.
func EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	var count int64
	if err := db(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := utils.HashPwd(password)
	if err != nil {
		return err
	}
	if err := db(ctx).Create(&model.User{Email: email, Password: hash, Role: model.RoleAdmin}).Error; err != nil {
		return err
	}
	logger.L().Info("admin user seeded", zap.String("email", email))
	return nil
}
