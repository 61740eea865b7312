package storage

import (
	"Go_Share/config"
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoSuchUpload is returned when the store no longer knows a multipart
// session: it was completed, aborted, or expired by a bucket lifecycle rule.
var ErrNoSuchUpload = errors.New("no such upload")

// CompletedPart is one entry of a multipart manifest.
type CompletedPart struct {
	PartNumber int    `json:"PartNumber"`
	ETag       string `json:"ETag"`
}

// Response header overrides accepted by PresignGetObject.
const (
	ParamContentDisposition = "response-content-disposition"
	ParamContentType        = "response-content-type"
)

// Store abstracts the object store operations used by uploads and downloads.
// Implementations are bound to a single bucket.
type Store interface {
	InitiateMultipartUpload(ctx context.Context, key, contentType string) (string, error)
	PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int, ttl time.Duration) (string, error)
	// CompleteMultipartUpload fails if the manifest does not describe exactly
	// the parts uploaded under uploadID.
	CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []CompletedPart) error
	AbortMultipartUpload(ctx context.Context, key, uploadID string) error
	PresignGetObject(ctx context.Context, key string, ttl time.Duration, params map[string]string) (string, error)
	RemoveObject(ctx context.Context, key string) error
}

// Default is the process-wide object store.
var Default Store

// InitStorage builds Default from STORAGE_DRIVER.
func InitStorage(ctx context.Context) error {
	cfg := config.Storage()
	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case config.StorageDriverMinio:
		store, err = NewMinioStore(ctx, cfg)
	case config.StorageDriverS3:
		store, err = NewS3Store(ctx, cfg)
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.Driver)
	}
	if err != nil {
		return err
	}
	Default = store
	return nil
}
