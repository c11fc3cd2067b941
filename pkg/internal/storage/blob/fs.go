package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/apperr"
)

// FSStore keeps every blob in one flat local directory.
type FSStore struct {
	dir string
}

// NewFSStore returns a store rooted at dir. The directory is created on the
// first Put.
func NewFSStore(dir string) *FSStore {
	return &FSStore{dir: filepath.Clean(dir)}
}

func newFSFromConfig(_ context.Context, cfg *configs.BlobConfig) (Store, error) {
	return NewFSStore(cfg.FS.Dir), nil
}

// Dir returns the root directory.
func (s *FSStore) Dir() string { return s.dir }

func (s *FSStore) Put(_ context.Context, data []byte, suggestedName string) (string, string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", "", apperr.IO("create upload directory", err)
	}

	storedName := NewStoredName(suggestedName)
	path := filepath.Join(s.dir, storedName)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", "", apperr.IO("create blob", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return "", "", apperr.IO("write blob", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)

		return "", "", apperr.IO("close blob", err)
	}

	return storedName, path, nil
}

func (s *FSStore) Get(_ context.Context, storagePath string) (io.ReadCloser, error) {
	f, err := os.Open(storagePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.NotFound("file not found")
	}

	if err != nil {
		return nil, apperr.IO("open blob", err)
	}

	return f, nil
}

func (s *FSStore) Stat(_ context.Context, storagePath string) (int64, error) {
	info, err := os.Stat(storagePath)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, apperr.NotFound("file not found")
	}

	if err != nil {
		return 0, apperr.IO("stat blob", err)
	}

	return info.Size(), nil
}

func (s *FSStore) Delete(_ context.Context, storagePath string) error {
	if err := os.Remove(storagePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperr.IO("delete blob", err)
	}

	return nil
}

// Walk visits the regular files directly under the root. A missing root
// yields no objects.
func (s *FSStore) Walk(ctx context.Context, fn func(Object) error) error {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return apperr.IO("list upload directory", err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		obj := Object{Path: filepath.Join(s.dir, e.Name()), Size: info.Size(), ModTime: info.ModTime()}
		if err := fn(obj); err != nil {
			return err
		}
	}

	return nil
}

// Ping checks the root can be created and written.
func (s *FSStore) Ping(_ context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("upload directory: %w", err)
	}

	f, err := os.CreateTemp(s.dir, ".health-*")
	if err != nil {
		return fmt.Errorf("upload directory not writable: %w", err)
	}

	name := f.Name()
	_ = f.Close()

	return os.Remove(name)
}

func init() {
	RegisterFactory(configs.BlobTypeFS, newFSFromConfig)
}
