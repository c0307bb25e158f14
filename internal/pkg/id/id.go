package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New generates a ULID for the current time.
func New() string { return NewAt(time.Now()) }

// NewAt generates a ULID stamped with t, so a record's id sorts with its created_at.
// IDs from the same millisecond are strictly increasing.
func NewAt(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
