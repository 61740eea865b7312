package service

import (
	"Go_Share/config"
	"Go_Share/internal/events"
	"Go_Share/internal/logger"
	"Go_Share/internal/repo"
	"Go_Share/internal/storage"
	"Go_Share/internal/storage/storagetest"
	"Go_Share/internal/task"
	"Go_Share/model"
	"Go_Share/utils"
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/clause"
)

var dbSeq atomic.Int64

type env struct {
	ctx    context.Context
	store  *storagetest.Fake
	events *events.Recorder
	notes  chan task.NotifyMessage
}

// setup points the package globals at a fresh in-memory database, a fake
// object store and an event recorder.
func setup(t *testing.T) *env {
	t.Helper()
	logger.Replace(zap.NewNop())

	name := fmt.Sprintf("%s_%d", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()), dbSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared&_foreign_keys=1"), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repo.AutoMigrate(gdb))

	e := &env{
		ctx:    context.Background(),
		store:  storagetest.New(),
		events: &events.Recorder{},
		notes:  make(chan task.NotifyMessage, 16),
	}

	origDb, origRedis, origStore, origEvents := repo.Db, repo.Redis, storage.Default, events.Default
	origNotify, origNow, origCfg := notifyDownload, now, config.AppConfig
	repo.Db = gdb
	repo.Redis = nil
	storage.Default = e.store
	events.Default = e.events
	notifyDownload = func(_ context.Context, msg task.NotifyMessage) error {
		e.notes <- msg
		return nil
	}
	config.AppConfig.JWTSecret = "test-secret"
	config.AppConfig.JWTExpiresIn = time.Hour

	t.Cleanup(func() {
		repo.Db, repo.Redis, storage.Default, events.Default = origDb, origRedis, origStore, origEvents
		notifyDownload, now, config.AppConfig = origNotify, origNow, origCfg
		_ = sqlDB.Close()
	})
	return e
}

func (e *env) user(t *testing.T, email, role string) model.User {
	t.Helper()
	u := model.User{Email: email, Password: "x", Role: role}
	require.NoError(t, repo.Db.Create(&u).Error)
	return u
}

// file inserts a completed file owned by ownerID (0 for none).
func (e *env) file(t *testing.T, ownerID uint64, name string) model.File {
	t.Helper()
	f := model.File{
		OriginalName: name,
		MimeType:     "text/plain",
		Size:         42,
		StorageKey:   utils.StorageKey(name, time.Now()),
		UploadState:  model.UploadStateComplete,
	}
	if ownerID != 0 {
		f.UploaderID = &ownerID
	}
	require.NoError(t, repo.Db.Omit(clause.Associations).Create(&f).Error)
	return f
}

func (e *env) reload(t *testing.T, linkID uint64) model.ShareLink {
	t.Helper()
	var l model.ShareLink
	require.NoError(t, repo.Db.First(&l, linkID).Error)
	return l
}

func admin() Requester { return Requester{UserID: 1, Role: model.RoleAdmin} }

func ptr[T any](v T) *T { return &v }
