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

// LedgerRepository implements port.LedgerRepository on sqlite.
// The ledger's expense rows store the projected view only (category and
// amount); the full line state lives with the claim.
type LedgerRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB, logger *zap.Logger) *LedgerRepository {
	return &LedgerRepository{db: db, logger: logger}
}

// GetByProgrammeID returns the programme's ledger, or nil when none exists
func (r *LedgerRepository) GetByProgrammeID(ctx context.Context, programmeID string) (*entity.BudgetLedger, error) {
	query := `
		SELECT id, programme_id, total_expenditure, total_income, university_overhead, version
		FROM ledgers
		WHERE programme_id = ?
	`

	var ledger entity.BudgetLedger
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, programmeID).Scan(
		&ledger.ID,
		&ledger.ProgrammeID,
		&ledger.TotalExpenditure,
		&ledger.TotalIncome,
		&ledger.UniversityOverhead,
		&ledger.Version,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get ledger", zap.String("programme_id", programmeID), zap.Error(err))
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}

	if ledger.Expenses, err = r.loadExpenses(ctx, ledger.ID); err != nil {
		return nil, err
	}
	if ledger.Income, err = r.loadIncome(ctx, ledger.ID); err != nil {
		return nil, err
	}

	return &ledger, nil
}

func (r *LedgerRepository) loadExpenses(ctx context.Context, ledgerID string) ([]entity.ExpenseLine, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT id, category, description, amount, status
		FROM ledger_expenses
		WHERE ledger_id = ?
		ORDER BY rowid
	`, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger expenses: %w", err)
	}
	defer rows.Close()

	var lines []entity.ExpenseLine
	for rows.Next() {
		var line entity.ExpenseLine
		if err := rows.Scan(&line.ID, &line.Category, &line.Description, &line.Amount, &line.Status); err != nil {
			return nil, fmt.Errorf("failed to scan ledger expense: %w", err)
		}
		line.ActualAmount = line.Amount
		line.BudgetAmount = line.Amount
		if line.Status == entity.LineStatusApproved {
			line.ApprovedAmount = line.Amount
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *LedgerRepository) loadIncome(ctx context.Context, ledgerID string) ([]entity.IncomeLine, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT id, category, kind, expected_participants, per_participant_amount, gst_percentage, income
		FROM ledger_income
		WHERE ledger_id = ?
		ORDER BY rowid
	`, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger income: %w", err)
	}
	defer rows.Close()

	var lines []entity.IncomeLine
	for rows.Next() {
		var line entity.IncomeLine
		if err := rows.Scan(
			&line.ID,
			&line.Category,
			&line.Kind,
			&line.ExpectedParticipants,
			&line.PerParticipantAmount,
			&line.GSTPercentage,
			&line.Income,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger income: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Save inserts or updates the ledger and replaces its expense and income
// lines, with the same optimistic version check as the claim aggregate
func (r *LedgerRepository) Save(ctx context.Context, ledger *entity.BudgetLedger) error {
	exec := r.db.Executor(ctx)

	if ledger.Version == 0 {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO ledgers (id, programme_id, total_expenditure, total_income, university_overhead, version)
			VALUES (?, ?, ?, ?, ?, 1)
		`,
			ledger.ID,
			ledger.ProgrammeID,
			ledger.TotalExpenditure,
			ledger.TotalIncome,
			ledger.UniversityOverhead,
		)
		if err != nil {
			r.logger.Error("Failed to insert ledger", zap.String("ledger_id", ledger.ID), zap.Error(err))
			return fmt.Errorf("failed to insert ledger: %w", err)
		}
		ledger.Version = 1
	} else {
		result, err := exec.ExecContext(ctx, `
			UPDATE ledgers
			SET total_expenditure = ?, total_income = ?, university_overhead = ?, version = version + 1
			WHERE id = ? AND version = ?
		`,
			ledger.TotalExpenditure,
			ledger.TotalIncome,
			ledger.UniversityOverhead,
			ledger.ID,
			ledger.Version,
		)
		if err != nil {
			r.logger.Error("Failed to update ledger", zap.String("ledger_id", ledger.ID), zap.Error(err))
			return fmt.Errorf("failed to update ledger: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check ledger update: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: ledger %s version %d is stale", reconcile.ErrConcurrencyConflict, ledger.ID, ledger.Version)
		}
		ledger.Version++
	}

	if _, err := exec.ExecContext(ctx, "DELETE FROM ledger_expenses WHERE ledger_id = ?", ledger.ID); err != nil {
		return fmt.Errorf("failed to clear ledger expenses: %w", err)
	}
	for i := range ledger.Expenses {
		line := &ledger.Expenses[i]
		_, err := exec.ExecContext(ctx, `
			INSERT INTO ledger_expenses (id, ledger_id, category, description, amount, status)
			VALUES (?, ?, ?, ?, ?, ?)
		`, line.ID, ledger.ID, line.Category, line.Description, line.Amount, line.Status)
		if err != nil {
			return fmt.Errorf("failed to insert ledger expense: %w", err)
		}
	}

	if _, err := exec.ExecContext(ctx, "DELETE FROM ledger_income WHERE ledger_id = ?", ledger.ID); err != nil {
		return fmt.Errorf("failed to clear ledger income: %w", err)
	}
	for i := range ledger.Income {
		line := &ledger.Income[i]
		_, err := exec.ExecContext(ctx, `
			INSERT INTO ledger_income (id, ledger_id, category, kind, expected_participants, per_participant_amount, gst_percentage, income)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			line.ID,
			ledger.ID,
			line.Category,
			line.Kind,
			line.ExpectedParticipants,
			line.PerParticipantAmount,
			line.GSTPercentage,
			line.Income,
		)
		if err != nil {
			return fmt.Errorf("failed to insert ledger income: %w", err)
		}
	}

	return nil
}

// Verify interface compliance
var _ port.LedgerRepository = (*LedgerRepository)(nil)
