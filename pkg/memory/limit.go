package memory

import (
	"sync"

	"github.com/s1dharth-s/qlever/pkg/dberror"
)

// DefaultLimit is the budget used by local vocabularies that are created
// without an explicit limit.
const DefaultLimit = 100 * Megabyte

// Limit is a memory budget shared by everything that allocates on behalf of
// one or more queries. It is safe for concurrent use: concurrent Allocate
// calls are serialized so that no charge is lost and the budget is never
// overdrawn.
type Limit struct {
	mu    sync.Mutex
	total Size
	left  Size
}

// NewLimit creates a budget of total bytes.
func NewLimit(total Size) *Limit {
	return &Limit{total: total, left: total}
}

// Allocate charges n bytes against the budget. If fewer than n bytes are
// left, it returns an out-of-memory error and leaves the budget unchanged.
func (l *Limit) Allocate(n Size) error {
	if n <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if n > l.left {
		return dberror.OutOfMemory(int64(n), int64(l.left))
	}
	l.left -= n
	return nil
}

// Free returns n bytes to the budget.
func (l *Limit) Free(n Size) {
	if n <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.left = min(l.left+n, l.total)
}

// Left returns the number of bytes that can still be allocated.
func (l *Limit) Left() Size {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.left
}

// Total returns the size of the budget.
func (l *Limit) Total() Size { return l.total }

// InUse returns the number of bytes currently charged.
func (l *Limit) InUse() Size {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total - l.left
}
