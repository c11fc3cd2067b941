// Package service implements the file and auth operations behind the HTTP
// handlers.
package service

import (
	"context"
	"errors"
	"io"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yeisme/filevault/pkg/cache"
	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/apperr"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/record"
	"github.com/yeisme/filevault/pkg/internal/storage/blob"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/queue"
	"github.com/yeisme/filevault/pkg/tracing"
)

const (
	listCacheNamespace = "files.owner"
	listGenNamespace   = "files.gen"
	producer           = "filevault"
)

// Upload results reported to metrics.
const (
	uploadOK       = "ok"
	uploadRejected = "rejected"
	uploadFailed   = "failed"
)

// FileDeps are the collaborators of a FileService. Cache, Publisher and
// Metrics are optional.
type FileDeps struct {
	Records   *record.Store
	Blobs     blob.Store
	Cache     *cache.Cache
	Publisher message.Publisher
	Metrics   *metrics.Metrics
	Files     configs.FilesConfig
	Events    configs.EventsConfig
	Logger    *zerolog.Logger
}

// FileService orchestrates the blob store and the record store.
type FileService struct {
	FileDeps
}

func NewFileService(deps FileDeps) *FileService {
	if deps.Logger == nil {
		deps.Logger = log.Logger()
	}

	return &FileService{FileDeps: deps}
}

// Upload validates and stores data for ownerID. The blob is written before
// the record; if the insert fails the blob is left for the orphan job.
func (s *FileService) Upload(ctx context.Context, ownerID string, data []byte, originalName, declaredType string) (*model.File, error) {
	ctx, span := tracing.StartSpan(ctx, "file.upload")
	defer span.End()

	span.SetAttributes(
		attribute.String("file.owner_id", ownerID),
		attribute.String("file.original_name", originalName),
		attribute.Int("file.size", len(data)),
	)

	f, err := s.upload(ctx, ownerID, data, originalName, declaredType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if errors.Is(err, apperr.ErrValidation) {
			s.Metrics.ObserveUpload(uploadRejected)
		} else {
			s.Metrics.ObserveUpload(uploadFailed)
		}

		return nil, err
	}

	s.Metrics.ObserveUpload(uploadOK)
	span.SetAttributes(attribute.String("file.id", f.ID))

	return f, nil
}

func (s *FileService) upload(ctx context.Context, ownerID string, data []byte, originalName, declaredType string) (*model.File, error) {
	mimeType := NormalizeMimeType(declaredType)
	if !IsAllowedType(mimeType) {
		return nil, apperr.Validation("unsupported type")
	}

	if len(data) == 0 {
		return nil, apperr.Validation("no file")
	}

	if s.Files.MaxUploadBytes > 0 && int64(len(data)) > s.Files.MaxUploadBytes {
		return nil, apperr.Validation("file too large")
	}

	if s.Files.SniffContent && !contentAllowed(data) {
		return nil, apperr.Validation("content does not match an allowed type")
	}

	storedName, storagePath, err := s.Blobs.Put(ctx, data, originalName)
	if err != nil {
		return nil, err
	}

	f := &model.File{
		StoredName:   storedName,
		OriginalName: originalName,
		OwnerID:      ownerID,
		MimeType:     mimeType,
		SizeBytes:    int64(len(data)),
		StoragePath:  storagePath,
	}

	if _, err := s.Records.Insert(ctx, f); err != nil {
		s.Logger.Error().Err(err).
			Str("stored_name", storedName).
			Msg("record insert failed, blob left for orphan cleanup")

		return nil, err
	}

	s.invalidate(ctx, ownerID)

	if s.Events.Enabled && s.Events.File.Stored {
		s.publish(ctx, func(pub message.Publisher, opts ...func(*queue.EventHeader)) error {
			return queue.PublishFileStored(pub, queue.FileStoredPayload{File: fileRef(f)}, opts...)
		})
	}

	return f, nil
}

// Retrieve opens the content of the caller's file id. Another owner's file
// is reported as not found.
func (s *FileService) Retrieve(ctx context.Context, ownerID, id string) (io.ReadCloser, *model.File, error) {
	ctx, span := tracing.StartSpan(ctx, "file.retrieve")
	defer span.End()

	span.SetAttributes(attribute.String("file.id", id))

	f, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.Blobs.Get(ctx, f.StoragePath)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.Logger.Warn().Str("file_id", id).Msg("record without blob")
		}

		span.RecordError(err)

		return nil, nil, err
	}

	return rc, f, nil
}

// Remove deletes the blob, then the record, of the caller's file id.
func (s *FileService) Remove(ctx context.Context, ownerID, id string) error {
	ctx, span := tracing.StartSpan(ctx, "file.remove")
	defer span.End()

	span.SetAttributes(attribute.String("file.id", id))

	f, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.Blobs.Delete(ctx, f.StoragePath); err != nil {
		span.RecordError(err)
		return err
	}

	if err := s.Records.DeleteByID(ctx, f.ID); err != nil {
		span.RecordError(err)
		return err
	}

	s.invalidate(ctx, ownerID)

	if s.Events.Enabled && s.Events.File.Deleted {
		s.publish(ctx, func(pub message.Publisher, opts ...func(*queue.EventHeader)) error {
			return queue.PublishFileDeleted(pub, queue.FileDeletedPayload{File: fileRef(f)}, opts...)
		})
	}

	return nil
}

// List returns the caller's files, newest first. Cached entries do not
// carry the storage path.
func (s *FileService) List(ctx context.Context, ownerID string) ([]model.File, error) {
	ctx, span := tracing.StartSpan(ctx, "file.list")
	defer span.End()

	if s.Cache == nil || s.Files.ListCacheTTL <= 0 {
		return s.Records.FindByOwner(ctx, ownerID)
	}

	gen, err := s.listGeneration(ctx, ownerID)
	if err != nil {
		s.Logger.Warn().Err(err).Str("owner_id", ownerID).Msg("list cache generation unavailable")

		return s.Records.FindByOwner(ctx, ownerID)
	}

	return cache.GetOrSet(ctx, s.Cache, listKey(ownerID, gen), func() ([]model.File, error) {
		return s.Records.FindByOwner(ctx, ownerID)
	}, s.Files.ListCacheTTL)
}

// listGeneration returns the owner's current list cache generation, minting
// one when none is stored. Entries written under an older generation are
// never read again.
func (s *FileService) listGeneration(ctx context.Context, ownerID string) (string, error) {
	gen, err := cache.Get[string](ctx, s.Cache, genKey(ownerID))
	if err == nil {
		return gen, nil
	}

	if !cache.IsMiss(err) {
		return "", err
	}

	gen = uuid.NewString()
	if err := cache.Set(ctx, s.Cache, genKey(ownerID), gen, 0); err != nil {
		return "", err
	}

	return gen, nil
}

func (s *FileService) owned(ctx context.Context, ownerID, id string) (*model.File, error) {
	f, err := s.Records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if f.OwnerID != ownerID {
		return nil, apperr.NotFound("file not found")
	}

	return f, nil
}

func (s *FileService) invalidate(ctx context.Context, ownerID string) {
	if s.Cache == nil {
		return
	}

	prev, _ := cache.Get[string](ctx, s.Cache, genKey(ownerID))

	// A List that read the records before this write may still store its
	// result under prev, so the generation must move even if prev is empty.
	if err := cache.Set(ctx, s.Cache, genKey(ownerID), uuid.NewString(), 0); err != nil {
		s.Logger.Warn().Err(err).Str("owner_id", ownerID).Msg("list cache invalidation failed")
	}

	if prev != "" {
		if err := s.Cache.Delete(ctx, listKey(ownerID, prev)); err != nil {
			s.Logger.Debug().Err(err).Str("owner_id", ownerID).Msg("drop stale list cache entry")
		}
	}
}

func (s *FileService) publish(ctx context.Context, fn func(message.Publisher, ...func(*queue.EventHeader)) error) {
	if s.Publisher == nil {
		return
	}

	opts := []func(*queue.EventHeader){queue.WithProducer(producer)}
	if traceID := tracing.TraceID(ctx); traceID != "" {
		opts = append(opts, queue.WithTraceID(traceID))
	}

	if err := fn(s.Publisher, opts...); err != nil {
		s.Logger.Warn().Err(err).Msg("publish file event failed")
	}
}

func listKey(ownerID, gen string) string {
	return cache.Key(listCacheNamespace, ownerID, gen)
}

func genKey(ownerID string) string {
	return cache.Key(listGenNamespace, ownerID)
}

func fileRef(f *model.File) queue.FileRef {
	return queue.FileRef{
		ID:           f.ID,
		OwnerID:      f.OwnerID,
		StoredName:   f.StoredName,
		OriginalName: f.OriginalName,
		MimeType:     f.MimeType,
		SizeBytes:    f.SizeBytes,
	}
}
