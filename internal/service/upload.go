package service

import (
	"Go_Share/config"
	"Go_Share/internal/apperr"
	"Go_Share/internal/dto"
	"Go_Share/internal/events"
	"Go_Share/internal/logger"
	"Go_Share/internal/storage"
	"Go_Share/model"
	"Go_Share/utils"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"
)

const defaultMimeType = "application/octet-stream"

// InitUploadInput describes a new multipart upload.
type InitUploadInput struct {
	FileName   string
	MimeType   string
	FileSize   int64
	TotalParts *int
	UploaderID *uint64
}

// partCount returns the number of parts for size, honoring an explicit count.
func partCount(size, partSize int64, requested *int, maxParts int) (int, error) {
	if requested != nil {
		if *requested < 1 || *requested > maxParts {
			return 0, apperr.BadRequest(fmt.Sprintf("totalParts must be between 1 and %d", maxParts))
		}
		return *requested, nil
	}
	n := (size + partSize - 1) / partSize
	if n > int64(maxParts) {
		return 0, apperr.BadRequest(fmt.Sprintf("file needs more than %d parts", maxParts))
	}
	return int(n), nil
}

// InitUpload creates a pending File, opens the remote multipart session and
// presigns one PUT URL per part.
func InitUpload(ctx context.Context, in InitUploadInput) (*dto.InitUploadResponse, error) {
	name := strings.TrimSpace(in.FileName)
	if name == "" {
		return nil, apperr.BadRequest("fileName is required")
	}
	if in.FileSize <= 0 {
		return nil, apperr.BadRequest("fileSize must be a positive integer")
	}
	cfg := config.Storage()
	partSize := cfg.PartSize
	if partSize <= 0 {
		partSize = 5 * 1024 * 1024
	}
	parts, err := partCount(in.FileSize, partSize, in.TotalParts, cfg.MaxParts)
	if err != nil {
		return nil, err
	}
	mimeType := strings.TrimSpace(in.MimeType)
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	file := &model.File{
		OriginalName: name,
		MimeType:     mimeType,
		Size:         in.FileSize,
		StorageKey:   utils.StorageKey(name, now()),
		UploadState:  model.UploadStatePending,
		UploaderID:   in.UploaderID,
	}
	if err := db(ctx).Omit(clause.Associations).Create(file).Error; err != nil {
		return nil, err
	}

	uploadID, err := storage.Default.InitiateMultipartUpload(ctx, file.StorageKey, mimeType)
	if err != nil || uploadID == "" {
		dropPendingFile(ctx, file.ID)
		if err != nil {
			return nil, apperr.Upstream(apperr.MsgUploadNotOpened, err)
		}
		return nil, apperr.NotFound(apperr.MsgUploadNotOpened)
	}
	if err := db(ctx).Model(file).Update("upload_id", uploadID).Error; err != nil {
		abortQuietly(ctx, file.StorageKey, uploadID)
		dropPendingFile(ctx, file.ID)
		return nil, err
	}

	ttl := cfg.PresignTTL
	urls := make([]dto.PartURL, 0, parts)
	for n := 1; n <= parts; n++ {
		u, err := storage.Default.PresignUploadPart(ctx, file.StorageKey, uploadID, n, ttl)
		if err != nil {
			abortQuietly(ctx, file.StorageKey, uploadID)
			dropPendingFile(ctx, file.ID)
			return nil, apperr.Upstream("Failed to presign upload part", err)
		}
		urls = append(urls, dto.PartURL{PartNumber: n, URL: u})
	}

	logger.L().Info("upload initiated",
		zap.Uint64("file_id", file.ID),
		zap.Int64("size", file.Size),
		zap.Int("parts", parts),
	)
	return &dto.InitUploadResponse{
		FileID:     file.ID,
		UploadID:   uploadID,
		StorageKey: file.StorageKey,
		PartSize:   partSize,
		Parts:      urls,
	}, nil
}

// sortedManifest orders parts by number and rejects duplicates.
func sortedManifest(parts []storage.CompletedPart) ([]storage.CompletedPart, error) {
	if len(parts) == 0 {
		return nil, apperr.BadRequest("parts are required")
	}
	out := make([]storage.CompletedPart, len(parts))
	copy(out, parts)
	sort.Slice(out, func(i, j int) bool { return out[i].PartNumber < out[j].PartNumber })
	for i, p := range out {
		if p.PartNumber < 1 || strings.TrimSpace(p.ETag) == "" {
			return nil, apperr.BadRequest("each part needs a positive PartNumber and an ETag")
		}
		if i > 0 && out[i-1].PartNumber == p.PartNumber {
			return nil, apperr.BadRequest(fmt.Sprintf("duplicate part number %d", p.PartNumber))
		}
	}
	return out, nil
}

// loadUpload fetches the File of an upload session visible to r.
func loadUpload(ctx context.Context, r Requester, fileID uint64, uploadID string) (*model.File, error) {
	var file model.File
	if err := db(ctx).Scopes(ownedFiles(r)).Where("id = ?", fileID).First(&file).Error; err != nil {
		return nil, notFound(err, apperr.MsgFileNotFound)
	}
	if file.UploadState == model.UploadStateComplete {
		return nil, apperr.Conflict(apperr.MsgUploadCompleted)
	}
	if file.UploadID != uploadID {
		return nil, apperr.BadRequest("uploadId does not match file")
	}
	return &file, nil
}

// CompleteUpload finalizes the remote session with the caller's manifest.
// On store failure the File stays pending so the caller can retry.
func CompleteUpload(ctx context.Context, r Requester, fileID uint64, uploadID string, parts []storage.CompletedPart) (*dto.CompleteUploadResponse, error) {
	manifest, err := sortedManifest(parts)
	if err != nil {
		return nil, err
	}
	file, err := loadUpload(ctx, r, fileID, uploadID)
	if err != nil {
		return nil, err
	}
	if file.UploadState == model.UploadStateAborted {
		return nil, apperr.Conflict(apperr.MsgUploadAborted)
	}
	if err := storage.Default.CompleteMultipartUpload(ctx, file.StorageKey, uploadID, manifest); err != nil {
		logger.L().Warn("complete multipart upload fail", zap.Uint64("file_id", file.ID), zap.Error(err))
		return nil, apperr.Upstream("Failed to complete multipart upload", err)
	}
	res := db(ctx).Model(&model.File{}).
		Where("id = ? AND upload_state = ?", file.ID, model.UploadStatePending).
		Update("upload_state", model.UploadStateComplete)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// The reaper claimed the row between load and update.
		return nil, apperr.Conflict(apperr.MsgUploadAborted)
	}
	logger.L().Info("upload completed", zap.Uint64("file_id", file.ID), zap.Int("parts", len(manifest)))
	events.Emit(ctx, events.Event{
		Type:   events.TypeAdminLog,
		FileID: file.ID,
		Data:   map[string]interface{}{"action": "UPLOAD", "fileId": file.ID, "fileName": file.OriginalName},
	})
	return &dto.CompleteUploadResponse{Success: true, FileID: file.ID, FileName: file.OriginalName}, nil
}

// AbortUpload aborts the remote session and deletes the File record. A
// session the store no longer knows counts as aborted.
func AbortUpload(ctx context.Context, r Requester, fileID uint64, uploadID string) error {
	file, err := loadUpload(ctx, r, fileID, uploadID)
	if err != nil {
		return err
	}
	if err := abortSession(ctx, file.StorageKey, uploadID); err != nil {
		return apperr.Upstream("Failed to abort multipart upload", err)
	}
	if err := deleteFileRecords(ctx, file.ID); err != nil {
		return err
	}
	logger.L().Info("upload aborted", zap.Uint64("file_id", file.ID))
	return nil
}

// ReportProgress relays client-side part progress to subscribers of the file.
func ReportProgress(ctx context.Context, r Requester, fileID uint64, partNumber, totalParts int) error {
	if totalParts < 1 || partNumber < 1 || partNumber > totalParts {
		return apperr.BadRequest("partNumber must be between 1 and totalParts")
	}
	var count int64
	if err := db(ctx).Model(&model.File{}).Scopes(ownedFiles(r)).Where("id = ?", fileID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.NotFound(apperr.MsgFileNotFound)
	}
	events.Emit(ctx, events.Event{
		Type:   events.TypeUploadProgress,
		FileID: fileID,
		Data: events.UploadProgress{
			FileID:     fileID,
			PartNumber: partNumber,
			TotalParts: totalParts,
			Percent:    float64(partNumber) * 100 / float64(totalParts),
		},
	})
	return nil
}

const reapBatch = 100

// ReapStaleUploads collects pending uploads older than grace. Each row is
// first claimed by moving it to aborted, then its remote session is aborted
// and the row deleted. Rows whose remote abort fails stay aborted and are
// retried on the next run.
func ReapStaleUploads(ctx context.Context, grace time.Duration) (int64, error) {
	cutoff := now().Add(-grace)
	var (
		reaped int64
		lastID uint64
	)
	for {
		var batch []model.File
		err := db(ctx).
			Where("upload_state IN ? AND created_at < ? AND id > ?",
				[]string{model.UploadStatePending, model.UploadStateAborted}, cutoff, lastID).
			Order("id").
			Limit(reapBatch).
			Find(&batch).Error
		if err != nil {
			return reaped, err
		}
		for _, f := range batch {
			lastID = f.ID
			if f.UploadState == model.UploadStatePending {
				res := db(ctx).Model(&model.File{}).
					Where("id = ? AND upload_state = ?", f.ID, model.UploadStatePending).
					Update("upload_state", model.UploadStateAborted)
				if res.Error != nil {
					return reaped, res.Error
				}
				if res.RowsAffected == 0 {
					continue
				}
			}
			if f.UploadID != "" {
				if err := abortSession(ctx, f.StorageKey, f.UploadID); err != nil {
					logger.L().Warn("reap upload: abort fail", zap.Uint64("file_id", f.ID), zap.Error(err))
					continue
				}
			}
			if err := deleteFileRecords(ctx, f.ID); err != nil {
				return reaped, err
			}
			reaped++
		}
		if len(batch) < reapBatch {
			return reaped, nil
		}
	}
}

// abortSession aborts a remote session, treating an unknown one as done.
func abortSession(ctx context.Context, key, uploadID string) error {
	err := storage.Default.AbortMultipartUpload(ctx, key, uploadID)
	if errors.Is(err, storage.ErrNoSuchUpload) {
		logger.L().Debug("multipart session already gone", zap.String("key", key))
		return nil
	}
	return err
}

func abortQuietly(ctx context.Context, key, uploadID string) {
	if err := abortSession(ctx, key, uploadID); err != nil {
		logger.L().Warn("abort multipart upload fail", zap.String("key", key), zap.Error(err))
	}
}

func dropPendingFile(ctx context.Context, fileID uint64) {
	if err := db(ctx).Delete(&model.File{}, fileID).Error; err != nil {
		logger.L().Warn("drop pending file fail", zap.Uint64("file_id", fileID), zap.Error(err))
	}
}
