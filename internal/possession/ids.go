package possession

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// IDAllocator hands out ids for points and events. Each parse owns its
// allocator; implementations need not be safe for concurrent use.
type IDAllocator interface {
	NewID() string
}

// UUIDAllocator returns the first 16 hex digits of a random UUIDv4, the id
// shape the storage schema uses.
type UUIDAllocator struct{}

// NewID implements IDAllocator.
func (UUIDAllocator) NewID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:8])
}

// SequentialAllocator returns prefix-1, prefix-2, ... Deterministic output
// for offline parses and tests.
type SequentialAllocator struct {
	prefix string
	n      int
}

// NewSequentialAllocator creates an allocator whose ids start at 1.
func NewSequentialAllocator(prefix string) *SequentialAllocator {
	return &SequentialAllocator{prefix: prefix}
}

// NewID implements IDAllocator.
func (a *SequentialAllocator) NewID() string {
	a.n++
	return fmt.Sprintf("%s-%d", a.prefix, a.n)
}
