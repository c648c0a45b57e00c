package service

import (
	"context"
	"fmt"

	"github.com/deptfin/programme-claims/internal/application/port"
	"github.com/deptfin/programme-claims/internal/domain/entity"
	"github.com/deptfin/programme-claims/internal/reconcile"
)

// ReviewService drives expense lines through the approval workflow and
// finalizes claims once every line is decided.
type ReviewService interface {
	// ApproveLine approves a pending line, optionally overriding the approved
	// amount, and returns the mutated line plus the recomputed aggregates
	ApproveLine(ctx context.Context, programmeID, lineRef string, approvedAmount *float64, reviewerRef string) (*entity.ExpenseLine, *Snapshot, error)

	// RejectLine rejects a pending line with a reason
	RejectLine(ctx context.Context, programmeID, lineRef, reason, reviewerRef string) (*entity.ExpenseLine, *Snapshot, error)

	// FinalizeClaim purges rejected lines and locks in approved-only totals
	FinalizeClaim(ctx context.Context, programmeID string) (*entity.ClaimBill, *Snapshot, error)
}

type reviewServiceImpl struct {
	claims    port.ClaimRepository
	ledgers   port.LedgerRepository
	txManager port.TransactionManager
	engine    *reconcile.Engine
	receipts  port.ReceiptWriter
	locks     *Locks
	logger    Logger
}

// NewReviewService creates a new ReviewService. receipts may be nil when no
// artifact generation is configured.
func NewReviewService(
	claims port.ClaimRepository,
	ledgers port.LedgerRepository,
	txManager port.TransactionManager,
	engine *reconcile.Engine,
	receipts port.ReceiptWriter,
	locks *Locks,
	logger Logger,
) ReviewService {
	return &reviewServiceImpl{
		claims:    claims,
		ledgers:   ledgers,
		txManager: txManager,
		engine:    engine,
		receipts:  receipts,
		locks:     locks,
		logger:    logger,
	}
}

// loadForDecision fetches the claim and ledger and rejects decisions on
// missing or finalized claims
func (s *reviewServiceImpl) loadForDecision(ctx context.Context, programmeID string) (*entity.ClaimBill, *entity.BudgetLedger, error) {
	claim, err := s.claims.GetByProgrammeID(ctx, programmeID)
	if err != nil {
		s.logger.Error("Failed to load claim", "error", err, "programme_id", programmeID)
		return nil, nil, err
	}
	if claim == nil {
		return nil, nil, fmt.Errorf("%w: no claim for programme %s", reconcile.ErrNotFound, programmeID)
	}
	if claim.Finalized() {
		return nil, nil, fmt.Errorf("%w: claim for programme %s is finalized", reconcile.ErrInvalidTransition, programmeID)
	}

	ledger, err := s.ledgers.GetByProgrammeID(ctx, programmeID)
	if err != nil {
		s.logger.Error("Failed to load ledger", "error", err, "programme_id", programmeID)
		return nil, nil, err
	}
	return claim, ledger, nil
}

// findLine resolves a line by its stable id, falling back to category
func findLine(claim *entity.ClaimBill, lineRef string) (*entity.ExpenseLine, error) {
	line := claim.LineByID(lineRef)
	if line == nil {
		line = claim.LineByCategory(lineRef)
	}
	if line == nil {
		return nil, fmt.Errorf("%w: no expense line %q on claim %s", reconcile.ErrNotFound, lineRef, claim.ID)
	}
	return line, nil
}

// ApproveLine approves a pending line and persists the recomputed aggregates
func (s *reviewServiceImpl) ApproveLine(ctx context.Context, programmeID, lineRef string, approvedAmount *float64, reviewerRef string) (*entity.ExpenseLine, *Snapshot, error) {
	release := s.locks.Acquire(programmeID)
	defer release()

	claim, ledger, err := s.loadForDecision(ctx, programmeID)
	if err != nil {
		return nil, nil, err
	}

	line, err := findLine(claim, lineRef)
	if err != nil {
		return nil, nil, err
	}

	if err := s.engine.Approve(ctx, line, approvedAmount, reviewerRef); err != nil {
		return nil, nil, err
	}
	s.engine.Recompute(ledger, claim)

	if err := s.persist(ctx, claim, ledger); err != nil {
		return nil, nil, err
	}

	// Receipt artifact generation is decoupled from the reconciliation
	// transaction; a failure here leaves receipt_issued false for a retry.
	if s.receipts != nil {
		s.issueReceipt(ctx, programmeID, line)
	}

	result := *line
	return &result, snapshotOf(claim), nil
}

// RejectLine rejects a pending line and persists the recomputed aggregates
func (s *reviewServiceImpl) RejectLine(ctx context.Context, programmeID, lineRef, reason, reviewerRef string) (*entity.ExpenseLine, *Snapshot, error) {
	release := s.locks.Acquire(programmeID)
	defer release()

	claim, ledger, err := s.loadForDecision(ctx, programmeID)
	if err != nil {
		return nil, nil, err
	}

	line, err := findLine(claim, lineRef)
	if err != nil {
		return nil, nil, err
	}

	if err := s.engine.Reject(ctx, line, reason, reviewerRef); err != nil {
		return nil, nil, err
	}
	s.engine.Recompute(ledger, claim)

	if err := s.persist(ctx, claim, ledger); err != nil {
		return nil, nil, err
	}

	result := *line
	return &result, snapshotOf(claim), nil
}

// FinalizeClaim purges rejected lines and locks the claim
func (s *reviewServiceImpl) FinalizeClaim(ctx context.Context, programmeID string) (*entity.ClaimBill, *Snapshot, error) {
	release := s.locks.Acquire(programmeID)
	defer release()

	claim, ledger, err := s.loadForDecision(ctx, programmeID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.engine.Finalize(claim, ledger); err != nil {
		return nil, nil, err
	}

	if err := s.persist(ctx, claim, ledger); err != nil {
		return nil, nil, err
	}

	s.logger.Info("Claim finalized",
		"programme_id", programmeID,
		"total_approved", claim.TotalApprovedAmount)
	return claim, snapshotOf(claim), nil
}

func (s *reviewServiceImpl) persist(ctx context.Context, claim *entity.ClaimBill, ledger *entity.BudgetLedger) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.claims.Save(txCtx, claim); err != nil {
			return fmt.Errorf("save claim: %w", err)
		}
		if ledger != nil {
			if err := s.ledgers.Save(txCtx, ledger); err != nil {
				return fmt.Errorf("save ledger: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to persist decision", "error", err, "claim_id", claim.ID)
	}
	return err
}

func (s *reviewServiceImpl) issueReceipt(ctx context.Context, programmeID string, line *entity.ExpenseLine) {
	path, err := s.receipts.WriteReceipt(ctx, programmeID, line)
	if err != nil {
		s.logger.Error("Failed to write receipt artifact",
			"error", err,
			"receipt_number", line.ReceiptNumber)
		return
	}

	if err := s.claims.MarkReceiptIssued(ctx, line.ID); err != nil {
		s.logger.Error("Failed to mark receipt issued", "error", err, "line_id", line.ID)
		return
	}

	line.ReceiptIssued = true
	s.logger.Info("Receipt artifact written",
		"receipt_number", line.ReceiptNumber,
		"path", path)
}
