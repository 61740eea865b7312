package service

import (
	"Go_Share/internal/logger"
	"Go_Share/model"
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpireLinks deactivates every active link whose expiry is at or before at.
// Running it again on a consistent table affects nothing.
func ExpireLinks(ctx context.Context, at time.Time) (int64, error) {
	res := db(ctx).Model(&model.ShareLink{}).
		Where("is_active = ? AND expire_at IS NOT NULL AND expire_at <= ?", true, at.UTC()).
		UpdateColumn("is_active", false)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		logger.L().Info("expired share links", zap.Int64("affected", res.RowsAffected))
	}
	return res.RowsAffected, nil
}

// LockExceededLinks deactivates active links that have used up their limit.
func LockExceededLinks(ctx context.Context) (int64, error) {
	res := db(ctx).Model(&model.ShareLink{}).
		Where("is_active = ? AND download_limit IS NOT NULL AND current_download_count >= download_limit", true).
		UpdateColumn("is_active", false)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		logger.L().Info("locked exhausted share links", zap.Int64("affected", res.RowsAffected))
	}
	return res.RowsAffected, nil
}
