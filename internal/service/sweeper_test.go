package service

import (
	"Go_Share/internal/repo"
	"Go_Share/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpireLinks(t *testing.T) {
	e := setup(t)
	f := e.file(t, 0, "doc.txt")
	at := time.Now().UTC()

	stale, err := CreateLink(e.ctx, admin(), CreateLinkInput{FileID: f.ID, ExpireAt: ptr(at.Add(-time.Minute))})
	require.NoError(t, err)
	fresh, err := CreateLink(e.ctx, admin(), CreateLinkInput{FileID: f.ID, ExpireAt: ptr(at.Add(time.Hour))})
	require.NoError(t, err)
	forever, err := CreateLink(e.ctx, admin(), CreateLinkInput{FileID: f.ID})
	require.NoError(t, err)

	n, err := ExpireLinks(e.ctx, at)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = ExpireLinks(e.ctx, at)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.False(t, e.reload(t, stale.ID).IsActive)
	assert.True(t, e.reload(t, fresh.ID).IsActive)
	assert.True(t, e.reload(t, forever.ID).IsActive)
}

func TestLockExceededLinks(t *testing.T) {
	e := setup(t)
	f := e.file(t, 0, "doc.txt")

	used, err := CreateLink(e.ctx, admin(), CreateLinkInput{FileID: f.ID, DownloadLimit: ptr(1)})
	require.NoError(t, err)
	spare, err := CreateLink(e.ctx, admin(), CreateLinkInput{FileID: f.ID, DownloadLimit: ptr(2)})
	require.NoError(t, err)
	unlimited, err := CreateLink(e.ctx, admin(), CreateLinkInput{FileID: f.ID})
	require.NoError(t, err)

	for _, token := range []string{used.Token, spare.Token, unlimited.Token} {
		_, err := DownloadLink(e.ctx, token, visitor)
		require.NoError(t, err)
	}
	// A download does not deactivate the link by itself.
	assert.True(t, e.reload(t, used.ID).IsActive)

	n, err := LockExceededLinks(e.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = LockExceededLinks(e.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.False(t, e.reload(t, used.ID).IsActive)
	assert.True(t, e.reload(t, spare.ID).IsActive)
	assert.True(t, e.reload(t, unlimited.ID).IsActive)
}

func TestSweepsSkipInactiveLinks(t *testing.T) {
	e := setup(t)
	f := e.file(t, 0, "doc.txt")
	link, err := CreateLink(e.ctx, admin(), CreateLinkInput{FileID: f.ID, ExpireAt: ptr(time.Now().Add(-time.Hour)), DownloadLimit: ptr(1)})
	require.NoError(t, err)
	require.NoError(t, repo.Db.Model(&model.ShareLink{}).Where("id = ?", link.ID).
		Updates(map[string]interface{}{"is_active": false, "current_download_count": 1}).Error)

	n, err := ExpireLinks(e.ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = LockExceededLinks(e.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
