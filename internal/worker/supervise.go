package worker

import (
	"Go_Share/internal/logger"
	"context"
	"time"

	"go.uber.org/zap"
)

// Backoff bounds the restart delay of a supervised consumer.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// Supervise runs fn until ctx is done, restarting it after it returns. The
// delay doubles on each consecutive failure up to b.Max and resets after a
// clean return. Failures are logged, never returned.
func Supervise(ctx context.Context, name string, fn func(context.Context) error, b Backoff) {
	delay := b.Base
	for {
		err := fn(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.L().Warn("consumer stopped, restarting",
				zap.String("consumer", name),
				zap.Duration("in", delay),
				zap.Error(err),
			)
		} else {
			delay = b.Base
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		if err != nil {
			delay *= 2
			if delay > b.Max {
				delay = b.Max
			}
		}
	}
}
