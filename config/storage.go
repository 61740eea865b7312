package config

import (
	"strings"
	"sync"
	"time"
)

const (
	StorageDriverMinio = "minio"
	StorageDriverS3    = "s3"
)

// StorageConfig holds object storage and multipart upload settings.
type StorageConfig struct {
	Driver     string        `json:"driver"` // minio or s3
	Bucket     string        `json:"bucket"`
	PartSize   int64         `json:"part_size"`   // 5MiB, S3 minimum for all but the last part
	MaxParts   int           `json:"max_parts"`   // S3 hard limit
	PresignTTL time.Duration `json:"presign_ttl"` // upload-part and download URLs

	Minio MinioConfig `json:"minio"`
	S3    S3Config    `json:"s3"`
}

// MinioConfig describes the MinIO endpoint.
type MinioConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	UseSSL   bool   `json:"use_ssl"`
}

// S3Config describes an AWS S3 (or S3-compatible) endpoint.
type S3Config struct {
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Endpoint        string `json:"endpoint"` // empty for AWS
	UsePathStyle    bool   `json:"use_path_style"`
}

var StorageConfigInstance *StorageConfig
var storageConfigOnce sync.Once

// InitStorageConfig initializes storage config.
func InitStorageConfig() {
	storageConfigOnce.Do(func() {
		StorageConfigInstance = &StorageConfig{
			Driver:     strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverMinio)),
			Bucket:     getEnv("BUCKET_NAME", getEnv("S3_BUCKET_NAME", "secure-file-share")),
			PartSize:   getEnvInt64("UPLOAD_PART_SIZE", 5*1024*1024),
			MaxParts:   10000,
			PresignTTL: getEnvDuration("PRESIGN_TTL", time.Hour),
			Minio: MinioConfig{
				Host:     getEnv("MINIO_HOST", "localhost"),
				Port:     getEnv("MINIO_PORT", "9000"),
				Username: getEnv("MINIO_USERNAME", "minioadmin"),
				Password: getEnv("MINIO_PASSWORD", "minioadmin"),
				UseSSL:   getEnvBool("MINIO_USE_SSL", false),
			},
			S3: S3Config{
				Region:          getEnv("AWS_REGION", "eu-central-1"),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
				UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", false),
			},
		}
	})
}

// Storage returns the storage config, initializing defaults on first use.
func Storage() *StorageConfig {
	InitStorageConfig()
	return StorageConfigInstance
}
