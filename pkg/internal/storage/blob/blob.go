// Package blob persists raw file bytes. A blob is written once under a
// generated name of the form <token>-<original name> and is never modified;
// callers keep the returned storage path in the file record.
package blob

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yeisme/filevault/pkg/configs"
)

// Object describes a stored blob during a Walk.
type Object struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Store is implemented by every backend. Get and Stat return an
// apperr not-found error for a missing blob; Delete of a missing blob
// succeeds.
type Store interface {
	Put(ctx context.Context, data []byte, suggestedName string) (storedName, storagePath string, err error)
	Get(ctx context.Context, storagePath string) (io.ReadCloser, error)
	Stat(ctx context.Context, storagePath string) (int64, error)
	Delete(ctx context.Context, storagePath string) error
	Walk(ctx context.Context, fn func(Object) error) error
	Ping(ctx context.Context) error
}

// Factory builds a backend from the blob section.
type Factory func(ctx context.Context, cfg *configs.BlobConfig) (Store, error)

var factories = map[configs.BlobType]Factory{}

// RegisterFactory registers a backend.
func RegisterFactory(t configs.BlobType, f Factory) {
	factories[t] = f
}

// GetRegisteredTypes lists the compiled-in backends, sorted.
func GetRegisteredTypes() []configs.BlobType {
	types := make([]configs.BlobType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	slices.Sort(types)

	return types
}

// New builds the configured backend, wrapped in the read cache when enabled.
func New(ctx context.Context, cfg *configs.BlobConfig) (Store, error) {
	f, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported blob type: %s", cfg.Type)
	}

	store, err := f(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled {
		return NewCachedStore(store, cfg.Cache), nil
	}

	return store, nil
}

// NewStoredName returns <uuid>-<sanitized name>.
func NewStoredName(suggestedName string) string {
	return uuid.NewString() + "-" + SanitizeName(suggestedName)
}

const maxNameLen = 255

// SanitizeName reduces a client-supplied name to a single safe path segment.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		if r == 0 || r == '/' || r < 0x20 {
			return -1
		}

		return r
	}, name)
	name = strings.TrimSpace(name)

	if name == "" || name == "." || name == ".." {
		return "file"
	}

	if len(name) > maxNameLen {
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}

		name = strings.ToValidUTF8(name[:maxNameLen-len(ext)], "") + ext
	}

	return name
}
