package service

import (
	"Go_Share/internal/dto"
	"Go_Share/internal/events"
	"Go_Share/internal/logger"
	"Go_Share/model"
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxUserAgent = 512

// recordAccess appends an access log row and tells the observers. A failed
// insert is logged; it never fails the access itself.
func recordAccess(ctx context.Context, link *model.ShareLink, action string, client Client) {
	ua := client.UserAgent
	if len(ua) > maxUserAgent {
		ua = ua[:maxUserAgent]
	}
	entry := &model.AccessLog{
		LinkID:    link.ID,
		Action:    action,
		IP:        strPtr(client.IP),
		UserAgent: strPtr(ua),
	}
	if err := db(ctx).Omit(clause.Associations).Create(entry).Error; err != nil {
		logger.L().Warn("write access log fail",
			zap.Uint64("link_id", link.ID),
			zap.String("action", action),
			zap.Error(err),
		)
	}

	evType := events.TypeLinkViewed
	if action == model.AccessActionDownload {
		evType = events.TypeLinkDownloaded
	}
	activity := events.LinkActivity{
		LinkID:    link.ID,
		FileID:    link.FileID,
		FileName:  link.File.OriginalName,
		IP:        client.IP,
		UserAgent: ua,
	}
	events.Emit(ctx, events.Event{Type: evType, FileID: link.FileID, Data: activity})
	events.Emit(ctx, events.Event{Type: events.TypeAdminLog, FileID: link.FileID, Data: accessLogEntry(entry, link)})
}

func accessLogEntry(l *model.AccessLog, link *model.ShareLink) dto.AccessLogEntry {
	return dto.AccessLogEntry{
		ID:        l.ID,
		Action:    l.Action,
		IP:        l.IP,
		UserAgent: l.UserAgent,
		CreatedAt: l.CreatedAt,
		LinkID:    link.ID,
		Token:     logger.ShortToken(link.Token),
		FileID:    link.FileID,
		FileName:  link.File.OriginalName,
	}
}

// LogFilter narrows an access log listing.
type LogFilter struct {
	Skip      int
	Take      int
	LinkID    *uint64
	Action    string
	StartDate *time.Time
	EndDate   *time.Time
}

// ListAccessLogs returns access logs newest first with link and file info.
func ListAccessLogs(ctx context.Context, f LogFilter) (*dto.Page[dto.AccessLogEntry], error) {
	skip, take := pageBounds(f.Skip, f.Take, 50)
	q := db(ctx).Model(&model.AccessLog{})
	if f.LinkID != nil {
		q = q.Where("link_id = ?", *f.LinkID)
	}
	if action := strings.ToUpper(strings.TrimSpace(f.Action)); action != "" {
		q = q.Where("action = ?", action)
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		q = q.Where("created_at <= ?", f.EndDate.UTC())
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	var rows []model.AccessLog
	if err := q.Preload("Link").Preload("Link.File").
		Order("created_at DESC, id DESC").
		Offset(skip).Limit(take).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]dto.AccessLogEntry, 0, len(rows))
	for i := range rows {
		items = append(items, accessLogEntry(&rows[i], &rows[i].Link))
	}
	return &dto.Page[dto.AccessLogEntry]{Items: items, Total: total, Skip: skip, Take: take}, nil
}

func pageBounds(skip, take, def int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if take <= 0 {
		take = def
	}
	if take > 100 {
		take = 100
	}
	return skip, take
}
