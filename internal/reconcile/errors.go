package reconcile

import (
	"errors"

	"github.com/deptfin/programme-claims/internal/domain/workflow"
)

var (
	// ErrNotFound is returned when a referenced programme, claim or line does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when a line is re-decided or a finalized
	// claim is mutated. Shared with the workflow machine so callers can match
	// either layer with errors.Is.
	ErrInvalidTransition = workflow.ErrInvalidTransition

	// ErrValidation is returned for malformed input, before any mutation
	ErrValidation = errors.New("validation failed")

	// ErrNoApprovedItems is returned when finalizing a claim with zero approved lines
	ErrNoApprovedItems = errors.New("no approved items")

	// ErrConcurrencyConflict is returned when an optimistic version check loses a
	// race on a programme's aggregate; callers retry from a fresh read
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)
