package service

import (
	"Go_Share/internal/dto"
	"Go_Share/internal/repo"
	"Go_Share/model"
	"Go_Share/utils"
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const statsCacheTTL = 30 * time.Second

var statsCacheKey = utils.BuildCacheKey("admin", "stats")

// AdminStats aggregates dashboard counters. Results are cached briefly in
// Redis when it is available.
func AdminStats(ctx context.Context) (*dto.Stats, error) {
	cache := utils.NewRedisCache(repo.Redis)
	var cached dto.Stats
	if ok, err := cache.Get(ctx, statsCacheKey, &cached); err == nil && ok {
		return &cached, nil
	}

	var (
		stats   dto.Stats
		storage int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db(gctx).Model(&model.File{}).Count(&stats.TotalFiles).Error
	})
	g.Go(func() error {
		return db(gctx).Model(&model.User{}).Count(&stats.TotalUsers).Error
	})
	g.Go(func() error {
		return db(gctx).Model(&model.AccessLog{}).
			Where("action = ?", model.AccessActionDownload).
			Count(&stats.TotalDownloads).Error
	})
	g.Go(func() error {
		return db(gctx).Model(&model.ShareLink{}).
			Where("is_active = ?", true).
			Count(&stats.ActiveLinks).Error
	})
	g.Go(func() error {
		return db(gctx).Model(&model.File{}).
			Select("COALESCE(SUM(size), 0)").
			Scan(&storage).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	stats.TotalStorage = strconv.FormatInt(storage, 10)
	_ = cache.Set(ctx, statsCacheKey, stats, statsCacheTTL)
	return &stats, nil
}

// AdminListFiles lists all files with share link and download totals.
func AdminListFiles(ctx context.Context, skip, take int, search string) (*dto.Page[dto.AdminFile], error) {
	skip, take = pageBounds(skip, take, 20)
	q := db(ctx).Model(&model.File{})
	if s := strings.TrimSpace(search); s != "" {
		q = q.Where("LOWER(original_name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	var files []model.File
	if err := q.Preload("Uploader").
		Order("created_at DESC, id DESC").
		Offset(skip).Limit(take).
		Find(&files).Error; err != nil {
		return nil, err
	}

	type linkAgg struct {
		FileID    uint64
		Links     int64
		Downloads int64
	}
	aggs := make(map[uint64]linkAgg, len(files))
	if len(files) > 0 {
		ids := make([]uint64, 0, len(files))
		for _, f := range files {
			ids = append(ids, f.ID)
		}
		var rows []linkAgg
		if err := db(ctx).Model(&model.ShareLink{}).
			Select("file_id, COUNT(*) AS links, COALESCE(SUM(current_download_count), 0) AS downloads").
			Where("file_id IN ?", ids).
			Group("file_id").
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			aggs[row.FileID] = row
		}
	}

	items := make([]dto.AdminFile, 0, len(files))
	for _, f := range files {
		item := dto.AdminFile{
			ID:              f.ID,
			OriginalName:    f.OriginalName,
			MimeType:        f.MimeType,
			Size:            f.Size,
			UploadState:     f.UploadState,
			CreatedAt:       f.CreatedAt,
			ShareLinksCount: aggs[f.ID].Links,
			TotalDownloads:  aggs[f.ID].Downloads,
		}
		if f.Uploader != nil {
			item.UploaderEmail = f.Uploader.Email
		}
		items = append(items, item)
	}
	return &dto.Page[dto.AdminFile]{Items: items, Total: total, Skip: skip, Take: take}, nil
}
