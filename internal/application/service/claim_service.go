package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/deptfin/programme-claims/internal/application/port"
	"github.com/deptfin/programme-claims/internal/domain/entity"
	"github.com/deptfin/programme-claims/internal/reconcile"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Snapshot is the recomputed aggregate state returned alongside every
// decision operation
type Snapshot struct {
	TotalApprovedAmount float64 `json:"total_approved_amount"`
	TotalExpenditure    float64 `json:"total_expenditure"`
	TotalBudgetAmount   float64 `json:"total_budget_amount"`
	Status              string  `json:"status"`
}

func snapshotOf(claim *entity.ClaimBill) *Snapshot {
	return &Snapshot{
		TotalApprovedAmount: claim.TotalApprovedAmount,
		TotalExpenditure:    claim.TotalExpenditure,
		TotalBudgetAmount:   claim.TotalBudgetAmount,
		Status:              claim.Status,
	}
}

// ClaimService handles expense/income submissions for a programme
type ClaimService interface {
	// SubmitExpenses merges a submitted expense list (and optional income
	// list) into the programme's claim, creating claim and ledger on first
	// submission, and persists the recomputed aggregates.
	SubmitExpenses(ctx context.Context, programmeID string, expenses []reconcile.SubmittedExpense, income []reconcile.SubmittedIncome) (*entity.ClaimBill, *entity.BudgetLedger, error)

	// GetClaim returns the programme's claim and ledger
	GetClaim(ctx context.Context, programmeID string) (*entity.ClaimBill, *entity.BudgetLedger, error)
}

type claimServiceImpl struct {
	claims    port.ClaimRepository
	ledgers   port.LedgerRepository
	txManager port.TransactionManager
	engine    *reconcile.Engine
	locks     *Locks
	logger    Logger
}

// NewClaimService creates a new ClaimService
func NewClaimService(
	claims port.ClaimRepository,
	ledgers port.LedgerRepository,
	txManager port.TransactionManager,
	engine *reconcile.Engine,
	locks *Locks,
	logger Logger,
) ClaimService {
	return &claimServiceImpl{
		claims:    claims,
		ledgers:   ledgers,
		txManager: txManager,
		engine:    engine,
		locks:     locks,
		logger:    logger,
	}
}

// SubmitExpenses merges the submission into the programme's claim
func (s *claimServiceImpl) SubmitExpenses(ctx context.Context, programmeID string, expenses []reconcile.SubmittedExpense, income []reconcile.SubmittedIncome) (*entity.ClaimBill, *entity.BudgetLedger, error) {
	if programmeID == "" {
		return nil, nil, fmt.Errorf("%w: programme id is required", reconcile.ErrValidation)
	}
	if err := reconcile.ValidateSubmission(expenses, income); err != nil {
		return nil, nil, err
	}

	release := s.locks.Acquire(programmeID)
	defer release()

	claim, err := s.claims.GetByProgrammeID(ctx, programmeID)
	if err != nil {
		s.logger.Error("Failed to load claim", "error", err, "programme_id", programmeID)
		return nil, nil, err
	}
	ledger, err := s.ledgers.GetByProgrammeID(ctx, programmeID)
	if err != nil {
		s.logger.Error("Failed to load ledger", "error", err, "programme_id", programmeID)
		return nil, nil, err
	}

	if claim == nil {
		claim = &entity.ClaimBill{
			ID:          uuid.NewString(),
			ProgrammeID: programmeID,
			Status:      entity.ClaimStatusPending,
			CreatedAt:   s.engine.Now(),
		}
	} else if claim.Finalized() {
		return nil, nil, fmt.Errorf("%w: claim for programme %s is finalized", reconcile.ErrInvalidTransition, programmeID)
	}
	if ledger == nil {
		ledger = &entity.BudgetLedger{
			ID:          uuid.NewString(),
			ProgrammeID: programmeID,
		}
	}

	merged, total, err := s.engine.MergeExpenses(claim.Expenses, expenses)
	if err != nil {
		return nil, nil, err
	}

	claim.Expenses = merged
	claim.Submitted = true
	claim.TotalExpenditure = total
	ledger.Expenses = append([]entity.ExpenseLine(nil), merged...)
	if len(income) > 0 {
		ledger.Income = reconcile.BuildIncome(income)
	}

	s.engine.Recompute(ledger, claim)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.claims.Save(txCtx, claim); err != nil {
			return fmt.Errorf("save claim: %w", err)
		}
		if err := s.ledgers.Save(txCtx, ledger); err != nil {
			return fmt.Errorf("save ledger: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to persist submission", "error", err, "programme_id", programmeID)
		return nil, nil, err
	}

	s.logger.Info("Expense submission merged",
		"programme_id", programmeID,
		"lines", len(claim.Expenses),
		"total_expenditure", claim.TotalExpenditure)
	return claim, ledger, nil
}

// GetClaim returns the programme's claim and ledger
func (s *claimServiceImpl) GetClaim(ctx context.Context, programmeID string) (*entity.ClaimBill, *entity.BudgetLedger, error) {
	claim, err := s.claims.GetByProgrammeID(ctx, programmeID)
	if err != nil {
		s.logger.Error("Failed to load claim", "error", err, "programme_id", programmeID)
		return nil, nil, err
	}
	if claim == nil {
		return nil, nil, fmt.Errorf("%w: no claim for programme %s", reconcile.ErrNotFound, programmeID)
	}

	ledger, err := s.ledgers.GetByProgrammeID(ctx, programmeID)
	if err != nil {
		s.logger.Error("Failed to load ledger", "error", err, "programme_id", programmeID)
		return nil, nil, err
	}
	return claim, ledger, nil
}
