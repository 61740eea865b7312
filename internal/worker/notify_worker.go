package worker

import (
	"Go_Share/config"
	"Go_Share/internal/logger"
	"Go_Share/internal/mq"
	"Go_Share/internal/task"
	"Go_Share/utils"
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type dlqMessage struct {
	Message  task.NotifyMessage `json:"message"`
	Error    string             `json:"error"`
	FailedAt time.Time          `json:"failed_at"`
}

// requeuer is the part of mq.Client used after a failed delivery.
type requeuer interface {
	PublishRetry(ctx context.Context, body []byte, delay time.Duration) error
	PublishDLQ(ctx context.Context, body []byte) error
}

// deliver sends one notification; swapped in tests.
var deliver = func(_ context.Context, msg task.NotifyMessage) error {
	return utils.SendDownloadNotification(utils.DownloadNotice{
		To:           msg.Recipient,
		FileName:     msg.FileName,
		DownloadedAt: msg.Timestamp,
		IP:           msg.IP,
		UserAgent:    msg.UserAgent,
	})
}

// RunNotifyWorker consumes notification messages from RabbitMQ.
func RunNotifyWorker(ctx context.Context) error {
	client, err := mq.Dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.DeclareTopology(); err != nil {
		return err
	}

	prefetch := config.AppConfig.RabbitMQPrefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := client.Channel.Qos(prefetch, 0, false); err != nil {
		return err
	}

	deliveries, err := client.Channel.Consume(mq.QueueNotify, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	concurrency := config.AppConfig.NotifyWorkerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	limiter := newLimiter(config.AppConfig.NotifyRate, config.AppConfig.NotifyBurst)

	logger.L().Info("notify worker consuming", zap.String("queue", mq.QueueNotify), zap.Int("concurrency", concurrency))
	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("notify worker: delivery channel closed")
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				handleNotifyMessage(ctx, client, limiter, d)
			}(delivery)
		}
	}
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func handleNotifyMessage(ctx context.Context, client requeuer, limiter *rate.Limiter, delivery amqp.Delivery) {
	msg, err := task.DecodeNotifyMessage(delivery.Body)
	if err != nil {
		logger.L().Warn("notify worker: invalid message", zap.Error(err))
		_ = delivery.Ack(false)
		return
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			_ = delivery.Nack(false, true)
			return
		}
	}

	if err := deliver(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			_ = delivery.Nack(false, true)
			return
		}
		var handleErr error
		if shouldRetry(err) {
			handleErr = scheduleRetry(ctx, client, msg, err)
		} else {
			handleErr = markFailed(ctx, client, msg, err)
		}
		if handleErr != nil {
			logger.L().Error("notify worker: requeue failed", zap.Error(handleErr))
			_ = delivery.Nack(false, true)
			return
		}
	}

	_ = delivery.Ack(false)
}

func shouldRetry(err error) bool {
	return !errors.Is(err, utils.ErrSMTPNotConfigured)
}

func scheduleRetry(ctx context.Context, client requeuer, msg task.NotifyMessage, procErr error) error {
	maxRetry := config.AppConfig.NotifyRetryMax
	if maxRetry < 0 {
		maxRetry = 0
	}
	nextAttempt := msg.Attempt + 1
	if maxRetry == 0 || nextAttempt > maxRetry {
		return markFailed(ctx, client, msg, procErr)
	}

	delay := pickRetryDelay(nextAttempt, config.AppConfig.NotifyRetryDelays)
	logger.L().Info("notify worker: retry scheduled",
		zap.Int("attempt", nextAttempt),
		zap.Duration("delay", delay),
		zap.Error(procErr),
	)
	msg.Attempt = nextAttempt
	body, err := msg.Encode()
	if err != nil {
		return err
	}
	return client.PublishRetry(ctx, body, delay)
}

func markFailed(ctx context.Context, client requeuer, msg task.NotifyMessage, procErr error) error {
	body, err := json.Marshal(dlqMessage{
		Message:  msg,
		Error:    procErr.Error(),
		FailedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	logger.L().Warn("notify worker: giving up", zap.Int("attempt", msg.Attempt), zap.Error(procErr))
	if err := client.PublishDLQ(ctx, body); err != nil {
		logger.L().Error("notify worker: dlq publish failed", zap.Error(err))
	}
	return nil
}

func pickRetryDelay(attempt int, delays []time.Duration) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	index := attempt - 1
	if index < 0 {
		index = 0
	}
	if index >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[index]
}
