package jobs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/jobs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/record"
	"github.com/yeisme/filevault/pkg/internal/storage/blob"
	"github.com/yeisme/filevault/pkg/queue"
	"github.com/yeisme/filevault/pkg/scheduler"
)

func setup(t *testing.T) (*record.Store, *blob.FSStore) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return record.NewStore(db), blob.NewFSStore(filepath.Join(t.TempDir(), "files"))
}

func TestOrphanCleanup(t *testing.T) {
	ctx := context.Background()
	records, blobs := setup(t)

	// healthy: blob and record
	name, p, err := blobs.Put(ctx, []byte("keep"), "keep.txt")
	require.NoError(t, err)
	_, err = records.Insert(ctx, &model.File{StoredName: name, OriginalName: "keep.txt", OwnerID: "u1", StoragePath: p})
	require.NoError(t, err)

	// blob without record
	_, _, err = blobs.Put(ctx, []byte("orphan"), "orphan.txt")
	require.NoError(t, err)

	// record without blob
	lostID, err := records.Insert(ctx, &model.File{
		StoredName: "tok-lost.txt", OriginalName: "lost.txt", OwnerID: "u2",
		StoragePath: filepath.Join(blobs.Dir(), "tok-lost.txt"),
	})
	require.NoError(t, err)

	pubsub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubsub.Close() })

	cleaner := &jobs.OrphanCleaner{Records: records, Blobs: blobs, Publisher: pubsub, Publish: true, Grace: time.Hour}

	// nothing is old enough yet
	report, err := cleaner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobs.OrphanReport{Blobs: 2, Records: 2}, report)

	jobs.SetClock(cleaner, func() time.Time { return time.Now().Add(2 * time.Hour) })

	report, err = cleaner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.RemovedBlobs)
	assert.Equal(t, 1, report.RemovedRecords)

	entries, err := os.ReadDir(blobs.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, name, entries[0].Name())

	_, err = records.FindByID(ctx, lostID)
	assert.Error(t, err)

	n, err := records.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	msgs, err := pubsub.Subscribe(ctx, queue.TopicFileOrphanRemoved)
	require.NoError(t, err)

	reasons := map[string]bool{}

	for range 2 {
		select {
		case msg := <-msgs:
			env, err := queue.ParseOrphanRemoved(msg)
			require.NoError(t, err)
			msg.Ack()

			reasons[env.Payload.Reason] = true
		case <-time.After(5 * time.Second):
			t.Fatal("missing orphan event")
		}
	}

	assert.True(t, reasons[queue.ReasonMissingBlob])
	assert.True(t, reasons[queue.ReasonMissingRecord])
}

func TestOrphanCleanupMatchesByStoredName(t *testing.T) {
	ctx := context.Background()
	records, blobs := setup(t)

	name, p, err := blobs.Put(ctx, []byte("keep"), "keep.txt")
	require.NoError(t, err)

	// same blob, path recorded with redundant separators
	spelled := filepath.Dir(p) + "/./" + name
	require.NotEqual(t, p, spelled)

	_, err = records.Insert(ctx, &model.File{StoredName: name, OriginalName: "keep.txt", OwnerID: "u1", StoragePath: spelled})
	require.NoError(t, err)

	cleaner := &jobs.OrphanCleaner{Records: records, Blobs: blobs, Grace: time.Hour}
	jobs.SetClock(cleaner, func() time.Time { return time.Now().Add(2 * time.Hour) })

	report, err := cleaner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobs.OrphanReport{Blobs: 1, Records: 1}, report)

	_, err = os.Stat(p)
	assert.NoError(t, err)

	n, err := records.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRegisterCronJobs(t *testing.T) {
	records, blobs := setup(t)

	sched, err := scheduler.NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Stop() })

	cfg := configs.JobsConfig{Enabled: true, Orphan: configs.OrphanCleanConfig{Cron: "0 3 * * *", Grace: time.Hour, BatchSize: 10}}
	cleaner := &jobs.OrphanCleaner{Records: records, Blobs: blobs}

	require.NoError(t, jobs.RegisterCronJobs(context.Background(), sched, cfg, cleaner))
	assert.Equal(t, time.Hour, cleaner.Grace)

	sched.Start()
	require.NoError(t, sched.RunNow(jobs.JobOrphanCleanup))

	require.Eventually(t, func() bool {
		info, err := sched.GetJobInfoByName(jobs.JobOrphanCleanup)
		return err == nil && !info.LastSuccess.IsZero()
	}, 5*time.Second, 20*time.Millisecond)

	cfg.Enabled = false
	other, err := scheduler.NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = other.Stop() })

	require.NoError(t, jobs.RegisterCronJobs(context.Background(), other, cfg, cleaner))
	assert.Empty(t, other.GetJobInfos())
}
