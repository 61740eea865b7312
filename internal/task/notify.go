package task

import (
	"Go_Share/internal/mq"
	"context"
	"encoding/json"
	"time"
)

// NotifyMessage is the payload sent to the notification worker.
type NotifyMessage struct {
	Recipient string    `json:"recipient"`
	FileName  string    `json:"file_name"`
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Attempt   int       `json:"attempt"`
}

// Encode serializes the message for the queue.
func (m NotifyMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeNotifyMessage parses a queued message.
func DecodeNotifyMessage(body []byte) (NotifyMessage, error) {
	var msg NotifyMessage
	err := json.Unmarshal(body, &msg)
	return msg, err
}

// EnqueueDownloadNotice publishes a download notification for the worker.
func EnqueueDownloadNotice(ctx context.Context, msg NotifyMessage) error {
	msg.Attempt = 0
	body, err := msg.Encode()
	if err != nil {
		return err
	}
	publisher, err := mq.GetPublisher()
	if err != nil {
		return err
	}
	return publisher.PublishNotify(ctx, body)
}
