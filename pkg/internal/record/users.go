package record

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/internal/apperr"
	"github.com/yeisme/filevault/pkg/internal/model"
)

// Users persists model.User records.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// Create inserts u. A taken username is a conflict error.
func (s *Users) Create(ctx context.Context, u *model.User) error {
	if _, err := s.FindByUsername(ctx, u.Username); err == nil {
		return apperr.Conflict("username already taken")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	if u.ID == "" {
		u.ID = model.NewID(u.CreatedAt)
	}

	err := s.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("username already taken")
	}

	if err != nil {
		return apperr.Persistence("insert user", err)
	}

	return nil
}

func (s *Users) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.find(ctx, "username = ?", username)
}

func (s *Users) FindByID(ctx context.Context, id string) (*model.User, error) {
	return s.find(ctx, "id = ?", id)
}

func (s *Users) find(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).Where(query, arg).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user not found")
	}

	if err != nil {
		return nil, apperr.Persistence("find user", err)
	}

	return &u, nil
}
