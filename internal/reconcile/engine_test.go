package reconcile

import (
	"time"

	"go.uber.org/zap"
)

// newTestEngine builds an engine with an in-memory receipt sequence and a
// clock pinned to 2025-03-15.
func newTestEngine() *Engine {
	return NewEngine(NewMemorySequence(), zap.NewNop()).
		WithClock(func() time.Time {
			return time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
		})
}
