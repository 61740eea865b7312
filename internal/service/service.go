package service

import (
	"Go_Share/internal/apperr"
	"Go_Share/internal/repo"
	"Go_Share/internal/task"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Client describes the caller of a public link endpoint.
type Client struct {
	IP        string
	UserAgent string
}

// now is the service clock; tests pin it.
var now = func() time.Time { return time.Now().UTC() }

// notifyDownload queues the owner notification for a download.
var notifyDownload = task.EnqueueDownloadNotice

func db(ctx context.Context) *gorm.DB {
	return repo.Db.WithContext(ctx)
}

// notFound maps gorm.ErrRecordNotFound to a NotFound error with msg.
func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
