package port

import (
	"context"

	"github.com/deptfin/programme-claims/internal/domain/entity"
)

// ClaimRepository defines persistence operations for the ClaimBill aggregate.
// Aggregates are loaded and saved whole; Save enforces the optimistic version
// check and surfaces reconcile.ErrConcurrencyConflict on a lost race.
type ClaimRepository interface {
	// GetByProgrammeID returns the programme's claim, or nil when none exists
	GetByProgrammeID(ctx context.Context, programmeID string) (*entity.ClaimBill, error)

	// Save inserts or updates the claim and replaces its expense lines
	Save(ctx context.Context, claim *entity.ClaimBill) error

	// MarkReceiptIssued flags a single line's receipt artifact as produced
	MarkReceiptIssued(ctx context.Context, lineID string) error
}

// LedgerRepository defines persistence operations for the BudgetLedger aggregate
type LedgerRepository interface {
	// GetByProgrammeID returns the programme's ledger, or nil when none exists
	GetByProgrammeID(ctx context.Context, programmeID string) (*entity.BudgetLedger, error)

	// Save inserts or updates the ledger and replaces its expense and income lines
	Save(ctx context.Context, ledger *entity.BudgetLedger) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
