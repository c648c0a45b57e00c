package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/deptfin/programme-claims/internal/application/port"
	"github.com/deptfin/programme-claims/internal/domain/entity"
	"github.com/deptfin/programme-claims/internal/reconcile"
	"github.com/deptfin/programme-claims/pkg/database"
)

// ClaimRepository implements port.ClaimRepository on sqlite
type ClaimRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *database.DB, logger *zap.Logger) *ClaimRepository {
	return &ClaimRepository{db: db, logger: logger}
}

// GetByProgrammeID returns the programme's claim with its expense lines, or
// nil when the programme has no claim yet
func (r *ClaimRepository) GetByProgrammeID(ctx context.Context, programmeID string) (*entity.ClaimBill, error) {
	query := `
		SELECT id, programme_id, status, submitted,
			total_expenditure, total_approved_amount, total_budget_amount,
			created_at, finalized_at, version
		FROM claims
		WHERE programme_id = ?
	`

	var claim entity.ClaimBill
	var submitted int
	var finalized sql.NullTime
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, programmeID).Scan(
		&claim.ID,
		&claim.ProgrammeID,
		&claim.Status,
		&submitted,
		&claim.TotalExpenditure,
		&claim.TotalApprovedAmount,
		&claim.TotalBudgetAmount,
		&claim.CreatedAt,
		&finalized,
		&claim.Version,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get claim", zap.String("programme_id", programmeID), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}

	claim.Submitted = submitted != 0
	if finalized.Valid {
		t := finalized.Time
		claim.FinalizedDate = &t
	}

	lines, err := r.loadLines(ctx, claim.ID)
	if err != nil {
		return nil, err
	}
	claim.Expenses = lines

	return &claim, nil
}

func (r *ClaimRepository) loadLines(ctx context.Context, claimID string) ([]entity.ExpenseLine, error) {
	query := `
		SELECT id, category, description,
			budget_amount, actual_amount, amount, approved_amount,
			status, rejection_reason, reviewer_ref,
			review_date, approval_date, receipt_number, receipt_issued
		FROM claim_expenses
		WHERE claim_id = ?
		ORDER BY rowid
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, claimID)
	if err != nil {
		r.logger.Error("Failed to load claim expenses", zap.String("claim_id", claimID), zap.Error(err))
		return nil, fmt.Errorf("failed to load claim expenses: %w", err)
	}
	defer rows.Close()

	var lines []entity.ExpenseLine
	for rows.Next() {
		var line entity.ExpenseLine
		var reviewDate, approvalDate sql.NullTime
		var receiptNumber sql.NullString
		var receiptIssued int

		if err := rows.Scan(
			&line.ID,
			&line.Category,
			&line.Description,
			&line.BudgetAmount,
			&line.ActualAmount,
			&line.Amount,
			&line.ApprovedAmount,
			&line.Status,
			&line.RejectionReason,
			&line.ReviewerRef,
			&reviewDate,
			&approvalDate,
			&receiptNumber,
			&receiptIssued,
		); err != nil {
			return nil, fmt.Errorf("failed to scan claim expense: %w", err)
		}

		if reviewDate.Valid {
			t := reviewDate.Time
			line.ReviewDate = &t
		}
		if approvalDate.Valid {
			t := approvalDate.Time
			line.ApprovalDate = &t
		}
		line.ReceiptNumber = receiptNumber.String
		line.ReceiptIssued = receiptIssued != 0

		lines = append(lines, line)
	}

	return lines, rows.Err()
}

// Save inserts or updates the claim and replaces its expense lines. Updates
// carry the optimistic version check; a lost race surfaces
// reconcile.ErrConcurrencyConflict.
func (r *ClaimRepository) Save(ctx context.Context, claim *entity.ClaimBill) error {
	exec := r.db.Executor(ctx)

	if claim.Version == 0 {
		query := `
			INSERT INTO claims (
				id, programme_id, status, submitted,
				total_expenditure, total_approved_amount, total_budget_amount,
				created_at, finalized_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		`
		_, err := exec.ExecContext(ctx, query,
			claim.ID,
			claim.ProgrammeID,
			claim.Status,
			boolToInt(claim.Submitted),
			claim.TotalExpenditure,
			claim.TotalApprovedAmount,
			claim.TotalBudgetAmount,
			claim.CreatedAt,
			nullableTime(claim.FinalizedDate),
		)
		if err != nil {
			r.logger.Error("Failed to insert claim", zap.String("claim_id", claim.ID), zap.Error(err))
			return fmt.Errorf("failed to insert claim: %w", err)
		}
		claim.Version = 1
	} else {
		query := `
			UPDATE claims
			SET status = ?, submitted = ?,
				total_expenditure = ?, total_approved_amount = ?, total_budget_amount = ?,
				finalized_at = ?, version = version + 1
			WHERE id = ? AND version = ?
		`
		result, err := exec.ExecContext(ctx, query,
			claim.Status,
			boolToInt(claim.Submitted),
			claim.TotalExpenditure,
			claim.TotalApprovedAmount,
			claim.TotalBudgetAmount,
			nullableTime(claim.FinalizedDate),
			claim.ID,
			claim.Version,
		)
		if err != nil {
			r.logger.Error("Failed to update claim", zap.String("claim_id", claim.ID), zap.Error(err))
			return fmt.Errorf("failed to update claim: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check claim update: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: claim %s version %d is stale", reconcile.ErrConcurrencyConflict, claim.ID, claim.Version)
		}
		claim.Version++
	}

	if _, err := exec.ExecContext(ctx, "DELETE FROM claim_expenses WHERE claim_id = ?", claim.ID); err != nil {
		return fmt.Errorf("failed to clear claim expenses: %w", err)
	}

	lineQuery := `
		INSERT INTO claim_expenses (
			id, claim_id, category, description,
			budget_amount, actual_amount, amount, approved_amount,
			status, rejection_reason, reviewer_ref,
			review_date, approval_date, receipt_number, receipt_issued
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range claim.Expenses {
		line := &claim.Expenses[i]
		_, err := exec.ExecContext(ctx, lineQuery,
			line.ID,
			claim.ID,
			line.Category,
			line.Description,
			line.BudgetAmount,
			line.ActualAmount,
			line.Amount,
			line.ApprovedAmount,
			line.Status,
			line.RejectionReason,
			line.ReviewerRef,
			nullableTime(line.ReviewDate),
			nullableTime(line.ApprovalDate),
			nullableString(line.ReceiptNumber),
			boolToInt(line.ReceiptIssued),
		)
		if err != nil {
			r.logger.Error("Failed to insert claim expense",
				zap.String("claim_id", claim.ID),
				zap.String("category", line.Category),
				zap.Error(err))
			return fmt.Errorf("failed to insert claim expense: %w", err)
		}
	}

	return nil
}

// MarkReceiptIssued flags a single line's receipt artifact as produced
func (r *ClaimRepository) MarkReceiptIssued(ctx context.Context, lineID string) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		"UPDATE claim_expenses SET receipt_issued = 1 WHERE id = ?", lineID)
	if err != nil {
		return fmt.Errorf("failed to mark receipt issued: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check receipt update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: expense line %s", reconcile.ErrNotFound, lineID)
	}
	return nil
}

// Verify interface compliance
var _ port.ClaimRepository = (*ClaimRepository)(nil)
