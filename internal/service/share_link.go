package service

import (
	"Go_Share/config"
	"Go_Share/internal/apperr"
	"Go_Share/internal/dto"
	"Go_Share/internal/logger"
	"Go_Share/internal/repo"
	"Go_Share/internal/storage"
	"Go_Share/internal/task"
	"Go_Share/model"
	"Go_Share/utils"
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateLinkInput describes a new share link.
type CreateLinkInput struct {
	FileID        uint64
	Password      *string
	ExpireAt      *time.Time
	DownloadLimit *int
}

// CreateLink issues a share link for a file the requester can see.
func CreateLink(ctx context.Context, r Requester, in CreateLinkInput) (*dto.LinkResponse, error) {
	if in.DownloadLimit != nil && *in.DownloadLimit < 1 {
		return nil, apperr.BadRequest("downloadLimit must be a positive integer")
	}
	var file model.File
	if err := db(ctx).Scopes(ownedFiles(r)).Where("id = ?", in.FileID).First(&file).Error; err != nil {
		return nil, notFound(err, apperr.MsgFileNotFound)
	}

	token, err := utils.GenShareToken()
	if err != nil {
		return nil, err
	}
	link := &model.ShareLink{
		Token:         token,
		FileID:        file.ID,
		DownloadLimit: in.DownloadLimit,
		IsActive:      true,
	}
	if in.ExpireAt != nil {
		at := in.ExpireAt.UTC()
		link.ExpireAt = &at
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := utils.HashPwd(*in.Password)
		if err != nil {
			return nil, err
		}
		link.Password = &hash
	}
	if err := db(ctx).Omit(clause.Associations).Create(link).Error; err != nil {
		return nil, err
	}
	if link.ExpireAt != nil {
		if err := repo.ScheduleLinkExpiry(ctx, link.ID, *link.ExpireAt); err != nil {
			logger.L().Warn("schedule link expiry fail", zap.Uint64("link_id", link.ID), zap.Error(err))
		}
	}
	logger.L().Info("share link created",
		zap.Uint64("link_id", link.ID),
		zap.Uint64("file_id", file.ID),
		zap.String("token", logger.ShortToken(link.Token)),
		zap.Bool("has_password", link.HasPassword()),
	)
	link.File = file
	resp := linkResponse(link, 0)
	return &resp, nil
}

func fileSummary(f *model.File) dto.FileSummary {
	return dto.FileSummary{ID: f.ID, Name: f.OriginalName, Size: f.Size, MimeType: f.MimeType}
}

func linkResponse(l *model.ShareLink, accessCount int64) dto.LinkResponse {
	return dto.LinkResponse{
		ID:                   l.ID,
		Token:                l.Token,
		HasPassword:          l.HasPassword(),
		ExpireAt:             l.ExpireAt,
		DownloadLimit:        l.DownloadLimit,
		CurrentDownloadCount: l.CurrentDownloadCount,
		IsActive:             l.IsActive,
		CreatedAt:            l.CreatedAt,
		File:                 fileSummary(&l.File),
		AccessCount:          accessCount,
	}
}

// checkLink loads a link by token and applies, in order, the inactive,
// expired and limit checks.
func checkLink(ctx context.Context, token string) (*model.ShareLink, error) {
	if token == "" {
		return nil, apperr.NotFound(apperr.MsgLinkNotFound)
	}
	var link model.ShareLink
	if err := db(ctx).Preload("File").Where("token = ?", token).First(&link).Error; err != nil {
		return nil, notFound(err, apperr.MsgLinkNotFound)
	}
	if err := linkUsable(&link, now()); err != nil {
		return nil, err
	}
	if link.File.UploadState != model.UploadStateComplete {
		return nil, apperr.NotFound(apperr.MsgFileNotFound)
	}
	return &link, nil
}

func linkUsable(link *model.ShareLink, at time.Time) error {
	if !link.IsActive {
		return apperr.Forbidden(apperr.MsgLinkInactive)
	}
	if link.ExpireAt != nil && at.After(*link.ExpireAt) {
		return apperr.Forbidden(apperr.MsgLinkExpired)
	}
	if link.DownloadLimit != nil && link.CurrentDownloadCount >= *link.DownloadLimit {
		return apperr.Forbidden(apperr.MsgLimitExceeded)
	}
	return nil
}

// VerifyLink runs the full validation including the password and records a
// VIEW. It consumes nothing.
func VerifyLink(ctx context.Context, token string, password *string, client Client) (*dto.VerifyLinkResponse, error) {
	link, err := checkLink(ctx, token)
	if err != nil {
		return nil, err
	}
	if link.HasPassword() {
		if password == nil || *password == "" {
			return nil, apperr.BadRequest(apperr.MsgPasswordRequired)
		}
		if !utils.CheckPwd(*password, *link.Password) {
			return nil, apperr.Forbidden(apperr.MsgInvalidPassword)
		}
	}
	recordAccess(ctx, link, model.AccessActionView, client)
	return &dto.VerifyLinkResponse{Valid: true, File: fileSummary(&link.File)}, nil
}

// DownloadLink consumes one download of the link and returns a presigned URL.
// The password is not asked again here.
func DownloadLink(ctx context.Context, token string, client Client) (*dto.DownloadResponse, error) {
	link, err := checkLink(ctx, token)
	if err != nil {
		return nil, err
	}
	file := &link.File

	// URL first so a presign failure does not burn a download slot.
	url, err := storage.Default.PresignGetObject(ctx, file.StorageKey, config.Storage().PresignTTL, map[string]string{
		storage.ParamContentDisposition: utils.AttachmentDisposition(file.OriginalName),
		storage.ParamContentType:        file.MimeType,
	})
	if err != nil {
		return nil, apperr.Upstream("Failed to generate download URL", err)
	}

	if err := consumeDownload(ctx, link.ID); err != nil {
		return nil, err
	}
	link.CurrentDownloadCount++

	recordAccess(ctx, link, model.AccessActionDownload, client)
	queueDownloadNotice(ctx, file, client)
	return &dto.DownloadResponse{DownloadURL: url, FileName: file.OriginalName, MimeType: file.MimeType}, nil
}

// consumeDownload is the single conditional increment that admits a
// download. Concurrent callers can never push the count past the limit.
func consumeDownload(ctx context.Context, linkID uint64) error {
	res := db(ctx).Model(&model.ShareLink{}).
		Where("id = ? AND is_active = ?", linkID, true).
		Where("(download_limit IS NULL OR current_download_count < download_limit)").
		UpdateColumn("current_download_count", gorm.Expr("current_download_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// Lost a race: report the state that now blocks the link.
	var link model.ShareLink
	if err := db(ctx).Where("id = ?", linkID).First(&link).Error; err != nil {
		return notFound(err, apperr.MsgLinkNotFound)
	}
	if err := linkUsable(&link, now()); err != nil {
		return err
	}
	return apperr.Forbidden(apperr.MsgLimitExceeded)
}

func queueDownloadNotice(ctx context.Context, file *model.File, client Client) {
	if !config.AppConfig.NotifyDownloadsToOwner || file.UploaderID == nil {
		return
	}
	var owner model.User
	if err := db(ctx).Select("id", "email").Where("id = ?", *file.UploaderID).First(&owner).Error; err != nil {
		return
	}
	msg := task.NotifyMessage{
		Recipient: owner.Email,
		FileName:  file.OriginalName,
		Timestamp: now(),
		IP:        client.IP,
		UserAgent: client.UserAgent,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := notifyDownload(ctx, msg); err != nil {
			logger.L().Warn("queue download notification fail", zap.Uint64("file_id", file.ID), zap.Error(err))
		}
	}()
}

// DeactivateLink turns a link off. Deactivating an inactive link succeeds.
func DeactivateLink(ctx context.Context, r Requester, linkID uint64) error {
	var link model.ShareLink
	err := db(ctx).
		Joins("JOIN file ON file.id = share_link.file_id").
		Scopes(ownedFiles(r)).
		Where("share_link.id = ?", linkID).
		First(&link).Error
	if err != nil {
		return notFound(err, apperr.MsgLinkNotFound)
	}
	if err := db(ctx).Model(&model.ShareLink{}).
		Where("id = ?", link.ID).
		UpdateColumn("is_active", false).Error; err != nil {
		return err
	}
	if err := repo.ClearLinkExpiry(ctx, link.ID); err != nil {
		logger.L().Warn("clear link expiry fail", zap.Uint64("link_id", link.ID), zap.Error(err))
	}
	return nil
}

// ListLinks returns the requester's links, newest first, with access counts.
func ListLinks(ctx context.Context, r Requester) ([]dto.LinkResponse, error) {
	var links []model.ShareLink
	err := db(ctx).
		Joins("JOIN file ON file.id = share_link.file_id").
		Scopes(ownedFiles(r)).
		Preload("File").
		Order("share_link.created_at DESC, share_link.id DESC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	counts, err := accessCounts(ctx, links)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LinkResponse, 0, len(links))
	for i := range links {
		out = append(out, linkResponse(&links[i], counts[links[i].ID]))
	}
	return out, nil
}

func accessCounts(ctx context.Context, links []model.ShareLink) (map[uint64]int64, error) {
	counts := make(map[uint64]int64, len(links))
	if len(links) == 0 {
		return counts, nil
	}
	ids := make([]uint64, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.ID)
	}
	var rows []struct {
		LinkID uint64
		Total  int64
	}
	err := db(ctx).Model(&model.AccessLog{}).
		Select("link_id, COUNT(*) AS total").
		Where("link_id IN ?", ids).
		Group("link_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.LinkID] = row.Total
	}
	return counts, nil
}
