package service

import (
	"Go_Share/internal/apperr"
	"Go_Share/internal/events"
	"Go_Share/internal/repo"
	"Go_Share/internal/storage"
	"Go_Share/model"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mib = 1024 * 1024

func uploadAll(t *testing.T, e *env, uploadID string, n int) []storage.CompletedPart {
	t.Helper()
	parts := make([]storage.CompletedPart, 0, n)
	for i := 1; i <= n; i++ {
		etag, err := e.store.UploadPart(uploadID, i)
		require.NoError(t, err)
		parts = append(parts, storage.CompletedPart{PartNumber: i, ETag: etag})
	}
	return parts
}

func TestInitUploadSplitsIntoParts(t *testing.T) {
	e := setup(t)
	owner := e.user(t, "o@x.io", model.RoleUser)

	res, err := InitUpload(e.ctx, InitUploadInput{
		FileName:   "movie.mp4",
		MimeType:   "video/mp4",
		FileSize:   12 * mib,
		UploaderID: &owner.ID,
	})
	require.NoError(t, err)
	require.Len(t, res.Parts, 3)
	for i, p := range res.Parts {
		assert.Equal(t, i+1, p.PartNumber)
		assert.Contains(t, p.URL, res.UploadID)
	}
	assert.EqualValues(t, 5*mib, res.PartSize)
	assert.NotContains(t, res.StorageKey, "movie")

	var f model.File
	require.NoError(t, repo.Db.First(&f, res.FileID).Error)
	assert.Equal(t, model.UploadStatePending, f.UploadState)
	assert.Equal(t, res.UploadID, f.UploadID)
	assert.Equal(t, res.StorageKey, f.StorageKey)
	assert.EqualValues(t, 12*mib, f.Size)
}

func TestInitUploadExplicitPartCount(t *testing.T) {
	e := setup(t)
	res, err := InitUpload(e.ctx, InitUploadInput{FileName: "a.bin", FileSize: 100, TotalParts: ptr(4)})
	require.NoError(t, err)
	assert.Len(t, res.Parts, 4)

	var f model.File
	require.NoError(t, repo.Db.First(&f, res.FileID).Error)
	assert.Equal(t, defaultMimeType, f.MimeType)
}

func TestInitUploadValidation(t *testing.T) {
	e := setup(t)
	cases := []struct {
		name string
		in   InitUploadInput
		msg  string
	}{
		{"zero size", InitUploadInput{FileName: "a", FileSize: 0}, "fileSize must be a positive integer"},
		{"negative size", InitUploadInput{FileName: "a", FileSize: -5}, "fileSize must be a positive integer"},
		{"no name", InitUploadInput{FileName: "  ", FileSize: 1}, "fileName is required"},
		{"zero parts", InitUploadInput{FileName: "a", FileSize: 1, TotalParts: ptr(0)}, "totalParts must be between 1 and 10000"},
		{"too many parts", InitUploadInput{FileName: "a", FileSize: 1, TotalParts: ptr(10001)}, "totalParts must be between 1 and 10000"},
		{"too large", InitUploadInput{FileName: "a", FileSize: 10001 * 5 * mib}, "file needs more than 10000 parts"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := InitUpload(e.ctx, tc.in)
			require.Error(t, err)
			assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
			assert.Equal(t, tc.msg, err.Error())
		})
	}
	var count int64
	repo.Db.Model(&model.File{}).Count(&count)
	assert.Zero(t, count)
}

func TestInitUploadSessionFailureDropsFile(t *testing.T) {
	e := setup(t)

	e.store.EmptyUploadID = true
	_, err := InitUpload(e.ctx, InitUploadInput{FileName: "a.txt", FileSize: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.NotFound(apperr.MsgUploadNotOpened))

	e.store.EmptyUploadID = false
	e.store.InitErr = errors.New("s3 down")
	_, err = InitUpload(e.ctx, InitUploadInput{FileName: "a.txt", FileSize: 10})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))

	var count int64
	repo.Db.Model(&model.File{}).Count(&count)
	assert.Zero(t, count)
}

func TestCompleteUploadScenario(t *testing.T) {
	e := setup(t)
	res, err := InitUpload(e.ctx, InitUploadInput{FileName: "big.iso", FileSize: 12 * mib})
	require.NoError(t, err)
	require.Len(t, res.Parts, 3)

	parts := uploadAll(t, e, res.UploadID, 3)

	_, err = CompleteUpload(e.ctx, admin(), res.FileID, res.UploadID, parts[:2])
	require.Error(t, err)
	var f model.File
	require.NoError(t, repo.Db.First(&f, res.FileID).Error)
	assert.Equal(t, model.UploadStatePending, f.UploadState)

	shuffled := []storage.CompletedPart{parts[2], parts[0], parts[1]}
	done, err := CompleteUpload(e.ctx, admin(), res.FileID, res.UploadID, shuffled)
	require.NoError(t, err)
	assert.True(t, done.Success)
	assert.Equal(t, "big.iso", done.FileName)
	assert.True(t, e.store.HasObject(res.StorageKey))

	got, err := GetFile(e.ctx, admin(), res.FileID)
	require.NoError(t, err)
	assert.Equal(t, model.UploadStateComplete, got.UploadState)

	_, err = CompleteUpload(e.ctx, admin(), res.FileID, res.UploadID, parts)
	assert.ErrorIs(t, err, apperr.Conflict(apperr.MsgUploadCompleted))
	assert.NotEmpty(t, e.events.OfType(events.TypeAdminLog))
}

func TestCompleteUploadRejects(t *testing.T) {
	e := setup(t)
	res, err := InitUpload(e.ctx, InitUploadInput{FileName: "a", FileSize: 10})
	require.NoError(t, err)
	parts := uploadAll(t, e, res.UploadID, 1)

	_, err = CompleteUpload(e.ctx, admin(), res.FileID, res.UploadID, nil)
	assert.ErrorIs(t, err, apperr.BadRequest("parts are required"))

	_, err = CompleteUpload(e.ctx, admin(), res.FileID, res.UploadID, []storage.CompletedPart{parts[0], parts[0]})
	assert.ErrorIs(t, err, apperr.BadRequest("duplicate part number 1"))

	_, err = CompleteUpload(e.ctx, admin(), res.FileID+100, res.UploadID, parts)
	assert.ErrorIs(t, err, apperr.NotFound(apperr.MsgFileNotFound))

	_, err = CompleteUpload(e.ctx, admin(), res.FileID, "other-session", parts)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestAbortUpload(t *testing.T) {
	e := setup(t)
	res, err := InitUpload(e.ctx, InitUploadInput{FileName: "a", FileSize: 6 * mib})
	require.NoError(t, err)
	uploadAll(t, e, res.UploadID, 1)

	require.NoError(t, AbortUpload(e.ctx, admin(), res.FileID, res.UploadID))
	assert.Equal(t, []string{res.UploadID}, e.store.Aborted)
	assert.Zero(t, e.store.OpenSessions())

	err = repo.Db.First(&model.File{}, res.FileID).Error
	assert.Error(t, err)

	err = AbortUpload(e.ctx, admin(), res.FileID, res.UploadID)
	assert.ErrorIs(t, err, apperr.NotFound(apperr.MsgFileNotFound))
}

func TestAbortUploadStoreFailureKeepsFile(t *testing.T) {
	e := setup(t)
	res, err := InitUpload(e.ctx, InitUploadInput{FileName: "a", FileSize: 1})
	require.NoError(t, err)

	e.store.AbortErr = errors.New("timeout")
	err = AbortUpload(e.ctx, admin(), res.FileID, res.UploadID)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	require.NoError(t, repo.Db.First(&model.File{}, res.FileID).Error)
}

func TestReportProgress(t *testing.T) {
	e := setup(t)
	res, err := InitUpload(e.ctx, InitUploadInput{FileName: "a", FileSize: 11 * mib})
	require.NoError(t, err)

	require.NoError(t, ReportProgress(e.ctx, admin(), res.FileID, 1, 3))
	evs := e.events.OfType(events.TypeUploadProgress)
	require.Len(t, evs, 1)
	assert.Equal(t, res.FileID, evs[0].FileID)
	p := evs[0].Data.(events.UploadProgress)
	assert.InDelta(t, 33.33, p.Percent, 0.01)

	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(ReportProgress(e.ctx, admin(), res.FileID, 4, 3)))
	assert.ErrorIs(t, ReportProgress(e.ctx, admin(), res.FileID+1, 1, 3), apperr.NotFound(apperr.MsgFileNotFound))
}

func TestReapStaleUploads(t *testing.T) {
	e := setup(t)
	stale1, err := InitUpload(e.ctx, InitUploadInput{FileName: "a", FileSize: 1})
	require.NoError(t, err)
	stale2, err := InitUpload(e.ctx, InitUploadInput{FileName: "b", FileSize: 1})
	require.NoError(t, err)
	done := e.file(t, 0, "done.txt")

	reaped, err := ReapStaleUploads(e.ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, reaped)

	now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	reaped, err = ReapStaleUploads(e.ctx, time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 2, reaped)
	assert.ElementsMatch(t, []string{stale1.UploadID, stale2.UploadID}, e.store.Aborted)
	require.NoError(t, repo.Db.First(&model.File{}, done.ID).Error)

	reaped, err = ReapStaleUploads(e.ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, reaped)
}

func TestUploadOpsScopedToUploader(t *testing.T) {
	e := setup(t)
	owner := e.user(t, "o@x.io", model.RoleUser)
	other := e.user(t, "x@x.io", model.RoleUser)
	mine := Requester{UserID: owner.ID, Role: model.RoleUser}
	stranger := Requester{UserID: other.ID, Role: model.RoleUser}

	res, err := InitUpload(e.ctx, InitUploadInput{FileName: "a", FileSize: 1, UploaderID: &owner.ID})
	require.NoError(t, err)
	parts := uploadAll(t, e, res.UploadID, 1)

	notFound := apperr.NotFound(apperr.MsgFileNotFound)
	assert.ErrorIs(t, ReportProgress(e.ctx, stranger, res.FileID, 1, 1), notFound)
	assert.Empty(t, e.events.OfType(events.TypeUploadProgress))
	_, err = CompleteUpload(e.ctx, stranger, res.FileID, res.UploadID, parts)
	assert.ErrorIs(t, err, notFound)
	assert.ErrorIs(t, AbortUpload(e.ctx, stranger, res.FileID, res.UploadID), notFound)
	assert.Equal(t, 1, e.store.OpenSessions())

	require.NoError(t, ReportProgress(e.ctx, mine, res.FileID, 1, 1))
	_, err = CompleteUpload(e.ctx, mine, res.FileID, res.UploadID, parts)
	require.NoError(t, err)
}

func TestAbortUploadSessionAlreadyGone(t *testing.T) {
	e := setup(t)
	res, err := InitUpload(e.ctx, InitUploadInput{FileName: "a", FileSize: 1})
	require.NoError(t, err)
	require.NoError(t, e.store.AbortMultipartUpload(e.ctx, res.StorageKey, res.UploadID))

	require.NoError(t, AbortUpload(e.ctx, admin(), res.FileID, res.UploadID))
	assert.Error(t, repo.Db.First(&model.File{}, res.FileID).Error)
}

func TestReapStaleUploadsSessionAlreadyGone(t *testing.T) {
	e := setup(t)
	res, err := InitUpload(e.ctx, InitUploadInput{FileName: "a", FileSize: 1})
	require.NoError(t, err)
	require.NoError(t, e.store.AbortMultipartUpload(e.ctx, res.StorageKey, res.UploadID))

	now = func() time.Time { return time.Now().UTC().Add(48 * time.Hour) }
	reaped, err := ReapStaleUploads(e.ctx, time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reaped)
	assert.Error(t, repo.Db.First(&model.File{}, res.FileID).Error)

	reaped, err = ReapStaleUploads(e.ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, reaped)
}

func TestReapStaleUploadsRetriesAbortedRows(t *testing.T) {
	e := setup(t)
	res, err := InitUpload(e.ctx, InitUploadInput{FileName: "a", FileSize: 1})
	require.NoError(t, err)
	parts := uploadAll(t, e, res.UploadID, 1)

	now = func() time.Time { return time.Now().UTC().Add(48 * time.Hour) }
	e.store.AbortErr = errors.New("timeout")
	reaped, err := ReapStaleUploads(e.ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, reaped)

	var f model.File
	require.NoError(t, repo.Db.First(&f, res.FileID).Error)
	assert.Equal(t, model.UploadStateAborted, f.UploadState)

	_, err = CompleteUpload(e.ctx, admin(), res.FileID, res.UploadID, parts)
	assert.ErrorIs(t, err, apperr.Conflict(apperr.MsgUploadAborted))
	assert.False(t, e.store.HasObject(res.StorageKey))

	e.store.AbortErr = nil
	reaped, err = ReapStaleUploads(e.ctx, time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reaped)
	assert.Equal(t, []string{res.UploadID}, e.store.Aborted)
	assert.Error(t, repo.Db.First(&model.File{}, res.FileID).Error)
}
