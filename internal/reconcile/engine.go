// Package reconcile implements the claim reconciliation engine: merging
// submitted expense lists against the existing claim ledger, driving each
// line through the approval workflow, recomputing derived totals after every
// mutation, and purging rejected data when a claim is finalized.
//
// The engine performs no I/O of its own; callers load the aggregates, invoke
// it synchronously, and persist the result.
package reconcile

import (
	"time"

	"go.uber.org/zap"
)

// Engine carries the collaborators the reconciliation operations need: the
// receipt sequence and a logger. The clock is injectable for tests.
type Engine struct {
	seq    ReceiptSequence
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine creates a reconciliation engine
func NewEngine(seq ReceiptSequence, logger *zap.Logger) *Engine {
	return &Engine{
		seq:    seq,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the engine's clock. Intended for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Now returns the engine's current time. Callers stamping records alongside
// engine operations use it so all timestamps come from one clock.
func (e *Engine) Now() time.Time {
	return e.now()
}
