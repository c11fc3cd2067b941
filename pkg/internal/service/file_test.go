package service_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/filevault/pkg/cache"
	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/apperr"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/record"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/storage/blob"
	"github.com/yeisme/filevault/pkg/internal/storage/kv"
	"github.com/yeisme/filevault/pkg/queue"
)

type fixture struct {
	svc    *service.FileService
	db     *gorm.DB
	dir    string
	pubsub *gochannel.GoChannel
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func newFixture(t *testing.T, mutate func(*service.FileDeps)) *fixture {
	t.Helper()

	db := openDB(t)
	dir := filepath.Join(t.TempDir(), "uploads", "files")

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	pubsub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubsub.Close() })

	deps := service.FileDeps{
		Records:   record.NewStore(db),
		Blobs:     blob.NewFSStore(dir),
		Cache:     cache.NewCache(store),
		Publisher: pubsub,
		Files:     configs.FilesConfig{MaxUploadBytes: 1 << 20, ListCacheTTL: time.Minute},
		Events: configs.EventsConfig{
			Enabled: true,
			File:    configs.FileEventsConfig{Stored: true, Deleted: true},
		},
	}
	if mutate != nil {
		mutate(&deps)
	}

	return &fixture{svc: service.NewFileService(deps), db: db, dir: dir, pubsub: pubsub}
}

func (f *fixture) blobCount(t *testing.T) int {
	t.Helper()

	entries, err := os.ReadDir(f.dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0
	}

	require.NoError(t, err)

	return len(entries)
}

func (f *fixture) recordCount(t *testing.T) int64 {
	t.Helper()

	var n int64
	require.NoError(t, f.db.Model(&model.File{}).Count(&n).Error)

	return n
}

func TestUploadTenBytes(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	f, err := fx.svc.Upload(ctx, "u1", []byte("0123456789"), "a.txt", "text/plain")
	require.NoError(t, err)

	assert.NotEmpty(t, f.ID)
	assert.Equal(t, "a.txt", f.OriginalName)
	assert.Equal(t, int64(10), f.SizeBytes)
	assert.Equal(t, "text/plain", f.MimeType)
	assert.Equal(t, "u1", f.OwnerID)
	assert.Regexp(t, `^[0-9a-f-]{36}-a\.txt$`, f.StoredName)

	files, err := fx.svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, f.ID, files[0].ID)
}

func TestUploadNormalizesDeclaredType(t *testing.T) {
	fx := newFixture(t, nil)

	f, err := fx.svc.Upload(context.Background(), "u1", []byte("hi"), "a.txt", "Text/Plain; charset=UTF-8")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", f.MimeType)
}

func TestUploadRejectionsCreateNothing(t *testing.T) {
	cases := []struct {
		name     string
		data     []byte
		mimeType string
		msg      string
	}{
		{"zip", []byte("PK\x03\x04"), "application/zip", "unsupported type"},
		{"garbage type", []byte("x"), ";;", "unsupported type"},
		{"empty", nil, "text/plain", "no file"},
		{"too large", make([]byte, 2<<20), "text/plain", "file too large"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newFixture(t, nil)

			_, err := fx.svc.Upload(context.Background(), "u1", tc.data, "x.bin", tc.mimeType)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrValidation))
			assert.Equal(t, tc.msg, apperr.Message(err))

			assert.Zero(t, fx.recordCount(t))
			assert.Zero(t, fx.blobCount(t))
		})
	}
}

func TestSniffContent(t *testing.T) {
	fx := newFixture(t, func(d *service.FileDeps) { d.Files.SniffContent = true })
	ctx := context.Background()

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	_, err := fx.svc.Upload(ctx, "u1", png, "pic.png", "image/png")
	require.NoError(t, err)

	zip := []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00")
	_, err = fx.svc.Upload(ctx, "u1", zip, "fake.pdf", "application/pdf")
	require.Error(t, err)
	assert.Equal(t, "content does not match an allowed type", apperr.Message(err))
}

func TestRoundTripReturnsIdenticalBytes(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	payload := []byte("%PDF-1.4 hello world")
	f, err := fx.svc.Upload(ctx, "u1", payload, "doc.pdf", "application/pdf")
	require.NoError(t, err)

	rc, rec, err := fx.svc.Retrieve(ctx, "u1", f.ID)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, "doc.pdf", rec.OriginalName)
}

func TestOwnerIsolation(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	f, err := fx.svc.Upload(ctx, "alice", []byte("secret"), "a.txt", "text/plain")
	require.NoError(t, err)

	_, _, err = fx.svc.Retrieve(ctx, "bob", f.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	err = fx.svc.Remove(ctx, "bob", f.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	files, err := fx.svc.List(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = fx.svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestRemoveTwiceReportsNotFound(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	f, err := fx.svc.Upload(ctx, "u1", []byte("bye"), "a.txt", "text/plain")
	require.NoError(t, err)

	require.NoError(t, fx.svc.Remove(ctx, "u1", f.ID))
	assert.Zero(t, fx.blobCount(t))

	err = fx.svc.Remove(ctx, "u1", f.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	err = fx.svc.Remove(ctx, "u1", "does-not-exist")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestSameNameTwiceProducesTwoRecords(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	a, err := fx.svc.Upload(ctx, "u1", []byte("one"), "same.txt", "text/plain")
	require.NoError(t, err)

	b, err := fx.svc.Upload(ctx, "u1", []byte("two"), "same.txt", "text/plain")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.StoredName, b.StoredName)
	assert.Equal(t, 2, fx.blobCount(t))

	files, err := fx.svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, b.ID, files[0].ID)
	assert.Equal(t, a.ID, files[1].ID)
}

func TestListCacheIsInvalidatedByWrites(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	files, err := fx.svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, files)

	f, err := fx.svc.Upload(ctx, "u1", []byte("x"), "a.txt", "text/plain")
	require.NoError(t, err)

	files, err = fx.svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, files, 1)

	require.NoError(t, fx.svc.Remove(ctx, "u1", f.ID))

	files, err = fx.svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, files)
}

// stallingKV blocks the first write of a list cache entry until release is
// closed.
type stallingKV struct {
	kv.KVStore

	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *stallingKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if strings.HasPrefix(key, "files.owner.") {
		stall := false
		s.once.Do(func() { stall = true })

		if stall {
			close(s.entered)
			<-s.release
		}
	}

	return s.KVStore.Set(ctx, key, value, ttl)
}

func TestListCacheIgnoresResultReadBeforeUpload(t *testing.T) {
	stalled := &stallingKV{entered: make(chan struct{}), release: make(chan struct{})}
	fx := newFixture(t, func(deps *service.FileDeps) {
		store, err := kv.NewMemoryKV(context.Background(), nil)
		require.NoError(t, err)

		stalled.KVStore = store
		deps.Cache = cache.NewCache(stalled)
	})
	ctx := context.Background()

	done := make(chan []model.File, 1)
	go func() {
		files, _ := fx.svc.List(ctx, "u1")
		done <- files
	}()

	// the in-flight List has read zero records and is about to cache them
	<-stalled.entered

	_, err := fx.svc.Upload(ctx, "u1", []byte("x"), "a.txt", "text/plain")
	require.NoError(t, err)

	close(stalled.release)
	assert.Empty(t, <-done)

	files, err := fx.svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestListAfterCacheEntryExpires(t *testing.T) {
	fx := newFixture(t, func(deps *service.FileDeps) {
		deps.Files.ListCacheTTL = 20 * time.Millisecond
	})
	ctx := context.Background()

	_, err := fx.svc.Upload(ctx, "u1", []byte("x"), "a.txt", "text/plain")
	require.NoError(t, err)

	files, err := fx.svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, files, 1)

	time.Sleep(50 * time.Millisecond)

	files, err = fx.svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestInsertFailureLeavesOrphanBlob(t *testing.T) {
	fx := newFixture(t, nil)

	sqlDB, err := fx.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = fx.svc.Upload(context.Background(), "u1", []byte("x"), "a.txt", "text/plain")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrPersistence))
	assert.Equal(t, 1, fx.blobCount(t))
}

func TestBlobFailureCreatesNoRecord(t *testing.T) {
	fx := newFixture(t, nil)

	// a regular file where the upload directory should be
	require.NoError(t, os.MkdirAll(filepath.Dir(fx.dir), 0o755))
	require.NoError(t, os.WriteFile(fx.dir, []byte("blocker"), 0o600))

	_, err := fx.svc.Upload(context.Background(), "u1", []byte("x"), "a.txt", "text/plain")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrIO))
	assert.Zero(t, fx.recordCount(t))
}

func TestEventsArePublished(t *testing.T) {
	fx := newFixture(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stored, err := fx.pubsub.Subscribe(ctx, queue.TopicFileStored)
	require.NoError(t, err)

	deleted, err := fx.pubsub.Subscribe(ctx, queue.TopicFileDeleted)
	require.NoError(t, err)

	f, err := fx.svc.Upload(ctx, "u1", []byte("0123456789"), "a.txt", "text/plain")
	require.NoError(t, err)
	require.NoError(t, fx.svc.Remove(ctx, "u1", f.ID))

	select {
	case msg := <-stored:
		env, err := queue.ParseFileStored(msg)
		require.NoError(t, err)
		msg.Ack()

		assert.Equal(t, f.ID, env.Payload.File.ID)
		assert.Equal(t, int64(10), env.Payload.File.SizeBytes)
		assert.Equal(t, "filevault", env.Header.Producer)
	case <-ctx.Done():
		t.Fatal("no stored event")
	}

	select {
	case msg := <-deleted:
		env, err := queue.ParseFileDeleted(msg)
		require.NoError(t, err)
		msg.Ack()

		assert.Equal(t, f.ID, env.Payload.File.ID)
	case <-ctx.Done():
		t.Fatal("no deleted event")
	}
}

func TestIsAllowedType(t *testing.T) {
	for _, typ := range service.AllowedTypes() {
		assert.True(t, service.IsAllowedType(typ), typ)
	}

	assert.True(t, service.IsAllowedType("IMAGE/PNG"))
	assert.False(t, service.IsAllowedType("application/zip"))
	assert.False(t, service.IsAllowedType(""))
	assert.Len(t, service.AllowedTypes(), 9)
}
