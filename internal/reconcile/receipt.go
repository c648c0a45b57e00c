package reconcile

import (
	"context"
	"fmt"
	"sync"
)

const receiptPrefix = "RCP"

// ReceiptSequence allocates receipt sequence numbers scoped by calendar year.
// Implementations must make the increment-and-read atomic so concurrent
// approvals never observe the same number.
type ReceiptSequence interface {
	// Next returns the next sequence number for the given year, starting at 1
	Next(ctx context.Context, year int) (int64, error)
}

// FormatReceiptNumber renders the externally visible receipt identifier.
// The format is persisted and must stay bit-exact: RCP-YYYY-NNNNNN.
func FormatReceiptNumber(year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%06d", receiptPrefix, year, seq)
}

// MemorySequence is a process-local ReceiptSequence, used by tests and by
// deployments that keep the engine embedded without a database.
type MemorySequence struct {
	mu   sync.Mutex
	next map[int]int64
}

// NewMemorySequence creates an empty in-memory sequence
func NewMemorySequence() *MemorySequence {
	return &MemorySequence{next: make(map[int]int64)}
}

// Next returns the next sequence number for the year
func (s *MemorySequence) Next(_ context.Context, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next[year]++
	return s.next[year], nil
}
