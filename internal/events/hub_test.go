package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubRoutesByRoomAndFile(t *testing.T) {
	hub := NewHub()
	admin := NewClient(RoomAdmin, 0)
	upload7 := NewClient(RoomUpload, 7)
	upload8 := NewClient(RoomUpload, 8)
	for _, c := range []*Client{admin, upload7, upload8} {
		hub.Register(c)
	}

	ctx := context.Background()
	require.NoError(t, hub.Publish(ctx, Event{Type: TypeLinkViewed, Data: LinkActivity{LinkID: 1}}))
	require.NoError(t, hub.Publish(ctx, Event{Type: TypeUploadProgress, FileID: 7, Data: UploadProgress{FileID: 7}}))

	assert.Len(t, admin.send, 1)
	assert.Len(t, upload7.send, 1)
	assert.Len(t, upload8.send, 0)

	var ev Event
	require.NoError(t, json.Unmarshal(<-upload7.Messages(), &ev))
	assert.Equal(t, TypeUploadProgress, ev.Type)
	assert.Equal(t, uint64(7), ev.FileID)
}

func TestHubPublishDoesNotBlockOnSlowClient(t *testing.T) {
	hub := NewHub()
	slow := NewClient(RoomAdmin, 0)
	hub.Register(slow)

	done := make(chan struct{})
	go func() {
		for i := 0; i < sendBuffer*3; i++ {
			_ = hub.Publish(context.Background(), Event{Type: TypeAdminLog})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full client buffer")
	}
	assert.Len(t, slow.send, sendBuffer)
}

func TestHubUnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()
	c := NewClient(RoomAdmin, 0)
	hub.Register(c)
	hub.Unregister(c)
	hub.Unregister(c)
	assert.Equal(t, 0, hub.Len())
}

func TestHubServeWebsocket(t *testing.T) {
	hub := NewHub()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		hub.Serve(conn, NewClient(RoomAdmin, 0))
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, hub.Publish(context.Background(), Event{Type: TypeLinkDownloaded, Data: LinkActivity{LinkID: 3}}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, TypeLinkDownloaded, ev.Type)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestEmitWithRecorder(t *testing.T) {
	orig := Default
	t.Cleanup(func() { Default = orig })

	rec := &Recorder{}
	Default = rec
	Emit(context.Background(), Event{Type: TypeLinkViewed})
	evs := rec.OfType(TypeLinkViewed)
	require.Len(t, evs, 1)
	assert.False(t, evs[0].Timestamp.IsZero())

	Default = nil
	Emit(context.Background(), Event{Type: TypeLinkViewed})
}
