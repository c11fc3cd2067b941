// Package record persists file and user records with gorm.
//
// Every database failure is returned as an apperr persistence error and a
// missing row as an apperr not-found error, so callers never see gorm
// errors.
package record

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/internal/apperr"
	"github.com/yeisme/filevault/pkg/internal/model"
)

const defaultBatchSize = 200

// Store persists model.File records.
type Store struct {
	db        *gorm.DB
	batchSize int
}

// NewStore returns a Store over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, batchSize: defaultBatchSize}
}

// WithBatchSize sets the page size of All.
func (s *Store) WithBatchSize(n int) *Store {
	if n > 0 {
		s.batchSize = n
	}

	return s
}

// Insert assigns the id and creation time when unset and persists f.
func (s *Store) Insert(ctx context.Context, f *model.File) (string, error) {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	if f.ID == "" {
		f.ID = model.NewID(f.CreatedAt)
	}

	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return "", apperr.Persistence("insert file record", err)
	}

	return f.ID, nil
}

// FindByID returns the record with id.
func (s *Store) FindByID(ctx context.Context, id string) (*model.File, error) {
	var f model.File

	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("file not found")
	}

	if err != nil {
		return nil, apperr.Persistence("find file record", err)
	}

	return &f, nil
}

// FindByOwner returns the owner's records, newest first.
func (s *Store) FindByOwner(ctx context.Context, ownerID string) ([]model.File, error) {
	files := make([]model.File, 0)

	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&files).Error
	if err != nil {
		return nil, apperr.Persistence("list file records", err)
	}

	return files, nil
}

// DeleteByID removes the record; a missing record is not an error.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.File{}).Error; err != nil {
		return apperr.Persistence("delete file record", err)
	}

	return nil
}

// All calls fn for every record in primary key order, loading them in batches. An
// error from fn stops the iteration and is returned as is.
func (s *Store) All(ctx context.Context, fn func(model.File) error) error {
	var (
		batch []model.File
		fnErr error
	)

	res := s.db.WithContext(ctx).FindInBatches(&batch, s.batchSize, func(_ *gorm.DB, _ int) error {
		for _, f := range batch {
			if err := fn(f); err != nil {
				fnErr = err
				return err
			}
		}

		return nil
	})

	if fnErr != nil {
		return fnErr
	}

	if res.Error != nil {
		return apperr.Persistence("iterate file records", res.Error)
	}

	return nil
}

// Count returns the number of records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.File{}).Count(&n).Error; err != nil {
		return 0, apperr.Persistence("count file records", err)
	}

	return n, nil
}
