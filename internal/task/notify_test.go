package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyMessageEncoding(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	body, err := NotifyMessage{
		Recipient: "owner@x.io",
		FileName:  "a.pdf",
		Timestamp: ts,
		Attempt:   2,
	}.Encode()
	require.NoError(t, err)
	assert.NotContains(t, string(body), "user_agent")

	msg, err := DecodeNotifyMessage(body)
	require.NoError(t, err)
	assert.Equal(t, "owner@x.io", msg.Recipient)
	assert.True(t, ts.Equal(msg.Timestamp))
	assert.Equal(t, 2, msg.Attempt)

	_, err = DecodeNotifyMessage([]byte("{"))
	assert.Error(t, err)
}
