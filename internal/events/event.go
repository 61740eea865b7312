// Package events fans access and upload events out to websocket subscribers.
package events

import (
	"Go_Share/internal/logger"
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	TypeUploadProgress = "upload:progress"
	TypeLinkViewed     = "link:viewed"
	TypeLinkDownloaded = "link:downloaded"
	TypeAdminLog       = "admin:log"
)

// Event is the envelope pushed to subscribers.
type Event struct {
	Type      string      `json:"type"`
	FileID    uint64      `json:"fileId,omitempty"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Publisher accepts events. Implementations must not block the caller on
// slow subscribers.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Default receives events emitted by services. Nil drops them.
var Default Publisher

// Emit publishes ev through Default and logs failures.
func Emit(ctx context.Context, ev Event) {
	if Default == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if err := Default.Publish(ctx, ev); err != nil {
		logger.L().Warn("publish event fail", zap.String("type", ev.Type), zap.Error(err))
	}
}

// LinkActivity is the payload of link:viewed and link:downloaded.
type LinkActivity struct {
	LinkID    uint64 `json:"linkId"`
	FileID    uint64 `json:"fileId"`
	FileName  string `json:"fileName"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// UploadProgress is the payload of upload:progress.
type UploadProgress struct {
	FileID     uint64  `json:"fileId"`
	PartNumber int     `json:"partNumber"`
	TotalParts int     `json:"totalParts"`
	Percent    float64 `json:"percent"`
}
