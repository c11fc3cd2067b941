package jobs

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/yeisme/filevault/pkg/internal/apperr"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/record"
	"github.com/yeisme/filevault/pkg/internal/storage/blob"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/queue"
)

// OrphanCleaner reconciles records and blobs. Upload writes the blob before
// the record and delete removes the blob before the record, so a crash in
// between leaves a blob without record or a record without blob. Both are
// removed once older than Grace, which keeps in-flight uploads safe.
type OrphanCleaner struct {
	Records   *record.Store
	Blobs     blob.Store
	Publisher message.Publisher
	Metrics   *metrics.Metrics
	Grace     time.Duration
	Publish   bool
	Logger    *zerolog.Logger

	now func() time.Time
}

// OrphanReport summarizes one pass.
type OrphanReport struct {
	Blobs          int `json:"blobs"`
	Records        int `json:"records"`
	RemovedBlobs   int `json:"removed_blobs"`
	RemovedRecords int `json:"removed_records"`
}

// Run performs one reconciliation pass.
func (c *OrphanCleaner) Run(ctx context.Context) (OrphanReport, error) {
	var report OrphanReport

	l := c.logger()
	cutoff := c.clock().Add(-c.Grace)

	// Blobs and records are matched by stored name, which stays the same
	// however the storage path was spelled when the record was written.
	blobs := make(map[string]blob.Object)
	if err := c.Blobs.Walk(ctx, func(o blob.Object) error {
		blobs[path.Base(o.Path)] = o
		return nil
	}); err != nil {
		return report, err
	}

	report.Blobs = len(blobs)

	referenced := make(map[string]struct{})

	var missing []model.File

	if err := c.Records.All(ctx, func(f model.File) error {
		report.Records++

		name := storedName(f)
		referenced[name] = struct{}{}

		if _, ok := blobs[name]; ok || f.CreatedAt.After(cutoff) {
			return nil
		}

		// Walk may have missed a blob written after it listed the directory.
		if _, err := c.Blobs.Stat(ctx, f.StoragePath); !errors.Is(err, apperr.ErrNotFound) {
			return nil
		}

		missing = append(missing, f)

		return nil
	}); err != nil {
		return report, err
	}

	for _, f := range missing {
		if err := c.Records.DeleteByID(ctx, f.ID); err != nil {
			return report, err
		}

		report.RemovedRecords++
		c.Metrics.ObserveOrphan("record")
		l.Info().Str("file_id", f.ID).Str("owner_id", f.OwnerID).Msg("removed record without blob")

		ref := queue.FileRef{
			ID: f.ID, OwnerID: f.OwnerID, StoredName: f.StoredName,
			OriginalName: f.OriginalName, MimeType: f.MimeType, SizeBytes: f.SizeBytes,
		}
		c.emit(queue.OrphanRemovedPayload{File: &ref, Reason: queue.ReasonMissingBlob})
	}

	for name, o := range blobs {
		if _, ok := referenced[name]; ok || o.ModTime.After(cutoff) {
			continue
		}

		if err := c.Blobs.Delete(ctx, o.Path); err != nil {
			return report, err
		}

		report.RemovedBlobs++
		c.Metrics.ObserveOrphan("blob")
		l.Info().Str("stored_name", name).Msg("removed blob without record")

		c.emit(queue.OrphanRemovedPayload{StoredName: name, Reason: queue.ReasonMissingRecord})
	}

	return report, nil
}

func storedName(f model.File) string {
	if f.StoredName != "" {
		return f.StoredName
	}

	return path.Base(f.StoragePath)
}

func (c *OrphanCleaner) emit(payload queue.OrphanRemovedPayload) {
	if !c.Publish || c.Publisher == nil {
		return
	}

	if err := queue.PublishOrphanRemoved(c.Publisher, payload, queue.WithProducer("filevault")); err != nil {
		c.logger().Warn().Err(err).Msg("publish orphan event failed")
	}
}

func (c *OrphanCleaner) clock() time.Time {
	if c.now != nil {
		return c.now()
	}

	return time.Now()
}

func (c *OrphanCleaner) logger() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return log.Logger()
}
