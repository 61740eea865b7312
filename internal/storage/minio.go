package storage

import (
	"Go_Share/config"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements Store with a MinIO client.
type MinioStore struct {
	core   *minio.Core
	bucket string
}

// NewMinioStore connects to MinIO and creates the bucket when missing.
func NewMinioStore(ctx context.Context, cfg *config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(fmt.Sprintf("%s:%s", cfg.Minio.Host, cfg.Minio.Port), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.Username, cfg.Minio.Password, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioStore{core: &minio.Core{Client: client}, bucket: cfg.Bucket}, nil
}

// InitiateMultipartUpload opens a multipart session and returns its id.
func (s *MinioStore) InitiateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	return s.core.NewMultipartUpload(ctx, s.bucket, key, minio.PutObjectOptions{
		ContentType: contentType,
	})
}

// PresignUploadPart returns a PUT URL for one part of the session.
func (s *MinioStore) PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int, ttl time.Duration) (string, error) {
	params := url.Values{}
	params.Set("partNumber", strconv.Itoa(partNumber))
	params.Set("uploadId", uploadID)
	u, err := s.core.Presign(ctx, http.MethodPut, s.bucket, key, ttl, params)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// CompleteMultipartUpload assembles the object from the manifest.
func (s *MinioStore) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []CompletedPart) error {
	completed := make([]minio.CompletePart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, minio.CompletePart{
			PartNumber: p.PartNumber,
			ETag:       p.ETag,
		})
	}
	_, err := s.core.CompleteMultipartUpload(ctx, s.bucket, key, uploadID, completed, minio.PutObjectOptions{})
	return minioUploadErr(err)
}

// AbortMultipartUpload discards the session and its uploaded parts.
func (s *MinioStore) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	return minioUploadErr(s.core.AbortMultipartUpload(ctx, s.bucket, key, uploadID))
}

func minioUploadErr(err error) error {
	if err != nil && minio.ToErrorResponse(err).Code == "NoSuchUpload" {
		return fmt.Errorf("%w: %v", ErrNoSuchUpload, err)
	}
	return err
}

// PresignGetObject returns a presigned download URL with optional response headers.
func (s *MinioStore) PresignGetObject(ctx context.Context, key string, ttl time.Duration, params map[string]string) (string, error) {
	values := url.Values{}
	for k, v := range params {
		if v == "" {
			continue
		}
		values.Set(k, v)
	}
	u, err := s.core.PresignedGetObject(ctx, s.bucket, key, ttl, values)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// RemoveObject deletes an object from MinIO.
func (s *MinioStore) RemoveObject(ctx context.Context, key string) error {
	return s.core.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
