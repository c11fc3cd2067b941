// Package model holds the gorm models persisted by FileVault.
package model

import (
	crand "crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(crand.Reader, 0)
)

// NewID returns a ULID string. IDs generated within the same millisecond are
// strictly increasing, so ordering by (created_at, id) is total.
func NewID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// All lists the models migrated at start.
func All() []any {
	return []any{&File{}, &User{}}
}
