package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/deptfin/programme-claims/internal/reconcile"
	"github.com/deptfin/programme-claims/pkg/database"
)

// ReceiptSequenceRepository implements reconcile.ReceiptSequence on sqlite.
// The increment is a single conditional upsert so concurrent approvals can
// never observe the same number, regardless of programme.
type ReceiptSequenceRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewReceiptSequenceRepository creates a new receipt sequence repository
func NewReceiptSequenceRepository(db *database.DB, logger *zap.Logger) *ReceiptSequenceRepository {
	return &ReceiptSequenceRepository{db: db, logger: logger}
}

// Next atomically increments and returns the year's sequence value
func (r *ReceiptSequenceRepository) Next(ctx context.Context, year int) (int64, error) {
	query := `
		INSERT INTO receipt_sequences (year, next_value) VALUES (?, 1)
		ON CONFLICT(year) DO UPDATE SET next_value = next_value + 1
		RETURNING next_value
	`

	var next int64
	if err := r.db.Executor(ctx).QueryRowContext(ctx, query, year).Scan(&next); err != nil {
		r.logger.Error("Failed to advance receipt sequence", zap.Int("year", year), zap.Error(err))
		return 0, fmt.Errorf("failed to advance receipt sequence: %w", err)
	}
	return next, nil
}

// Verify interface compliance
var _ reconcile.ReceiptSequence = (*ReceiptSequenceRepository)(nil)
