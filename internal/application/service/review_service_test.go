package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deptfin/programme-claims/internal/domain/entity"
	"github.com/deptfin/programme-claims/internal/reconcile"
)

func claimWithPendingLines(programmeID string, categories ...string) *entity.ClaimBill {
	claim := &entity.ClaimBill{
		ID:          "claim-1",
		ProgrammeID: programmeID,
		Status:      entity.ClaimStatusPending,
		Submitted:   true,
		Version:     1,
	}
	for i, category := range categories {
		claim.Expenses = append(claim.Expenses, entity.ExpenseLine{
			ID:           "line-" + category,
			Category:     category,
			Description:  entity.DefaultDescription(category),
			Status:       entity.LineStatusPending,
			BudgetAmount: float64(1000 * (i + 1)),
			ActualAmount: float64(1000 * (i + 1)),
			Amount:       float64(1000 * (i + 1)),
		})
	}
	return claim
}

func newReviewServiceForTest(claims *mockClaimRepo, ledgers *mockLedgerRepo, tx *mockTxManager, receipts *mockReceiptWriter) ReviewService {
	if receipts == nil {
		return NewReviewService(claims, ledgers, tx, testEngine(), nil, NewLocks(), nopLogger{})
	}
	return NewReviewService(claims, ledgers, tx, testEngine(), receipts, NewLocks(), nopLogger{})
}

func claimRepoReturning(claim *entity.ClaimBill) *mockClaimRepo {
	return &mockClaimRepo{
		getFunc: func(ctx context.Context, programmeID string) (*entity.ClaimBill, error) {
			return claim, nil
		},
	}
}

func TestApproveLineFlow(t *testing.T) {
	claim := claimWithPendingLines("prog-1", "Travel")
	claims := claimRepoReturning(claim)
	receipts := &mockReceiptWriter{}
	svc := newReviewServiceForTest(claims, &mockLedgerRepo{}, &mockTxManager{}, receipts)

	override := 4500.0
	line, snapshot, err := svc.ApproveLine(context.Background(), "prog-1", "line-Travel", &override, "reviewer-9")
	if err != nil {
		t.Fatalf("ApproveLine failed: %v", err)
	}

	if line.Status != entity.LineStatusApproved {
		t.Errorf("line status = %s, want approved", line.Status)
	}
	if line.ApprovedAmount != 4500 {
		t.Errorf("approved amount = %f, want 4500", line.ApprovedAmount)
	}
	if line.ReceiptNumber == "" {
		t.Error("approved line should carry a receipt number")
	}
	if !line.ReceiptIssued {
		t.Error("receipt artifact should be marked issued")
	}

	if snapshot.Status != entity.ClaimStatusApproved {
		t.Errorf("snapshot status = %s, want approved", snapshot.Status)
	}
	if snapshot.TotalApprovedAmount != 4500 {
		t.Errorf("snapshot total approved = %f, want 4500", snapshot.TotalApprovedAmount)
	}

	if len(receipts.written) != 1 {
		t.Errorf("receipt writer called %d times, want 1", len(receipts.written))
	}
	if len(claims.markedLines) != 1 || claims.markedLines[0] != "line-Travel" {
		t.Errorf("marked lines = %v, want [line-Travel]", claims.markedLines)
	}
}

func TestApproveLineByCategoryFallback(t *testing.T) {
	claim := claimWithPendingLines("prog-1", "Travel")
	svc := newReviewServiceForTest(claimRepoReturning(claim), &mockLedgerRepo{}, &mockTxManager{}, nil)

	line, _, err := svc.ApproveLine(context.Background(), "prog-1", "Travel", nil, "reviewer-9")
	if err != nil {
		t.Fatalf("ApproveLine by category failed: %v", err)
	}
	if line.ID != "line-Travel" {
		t.Errorf("resolved line = %s, want line-Travel", line.ID)
	}
}

func TestApproveLineNotFound(t *testing.T) {
	claim := claimWithPendingLines("prog-1", "Travel")
	svc := newReviewServiceForTest(claimRepoReturning(claim), &mockLedgerRepo{}, &mockTxManager{}, nil)

	_, _, err := svc.ApproveLine(context.Background(), "prog-1", "line-Nope", nil, "reviewer-9")
	if !errors.Is(err, reconcile.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestApproveLineMissingClaim(t *testing.T) {
	svc := newReviewServiceForTest(&mockClaimRepo{}, &mockLedgerRepo{}, &mockTxManager{}, nil)

	_, _, err := svc.ApproveLine(context.Background(), "prog-1", "line-Travel", nil, "reviewer-9")
	if !errors.Is(err, reconcile.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestApproveLineFinalizedClaim(t *testing.T) {
	claim := claimWithPendingLines("prog-1", "Travel")
	now := time.Now()
	claim.FinalizedDate = &now
	svc := newReviewServiceForTest(claimRepoReturning(claim), &mockLedgerRepo{}, &mockTxManager{}, nil)

	_, _, err := svc.ApproveLine(context.Background(), "prog-1", "line-Travel", nil, "reviewer-9")
	if !errors.Is(err, reconcile.ErrInvalidTransition) {
		t.Errorf("error = %v, want ErrInvalidTransition", err)
	}
}

func TestApproveLineReceiptFailureIsNonFatal(t *testing.T) {
	claim := claimWithPendingLines("prog-1", "Travel")
	receipts := &mockReceiptWriter{
		writeFunc: func(ctx context.Context, programmeID string, line *entity.ExpenseLine) (string, error) {
			return "", errors.New("disk full")
		},
	}
	svc := newReviewServiceForTest(claimRepoReturning(claim), &mockLedgerRepo{}, &mockTxManager{}, receipts)

	line, _, err := svc.ApproveLine(context.Background(), "prog-1", "line-Travel", nil, "reviewer-9")
	if err != nil {
		t.Fatalf("ApproveLine failed: %v", err)
	}
	if line.Status != entity.LineStatusApproved {
		t.Errorf("line status = %s, want approved", line.Status)
	}
	if line.ReceiptIssued {
		t.Error("receipt should stay unissued when the artifact write fails")
	}
}

func TestApproveLinePersistConflict(t *testing.T) {
	claim := claimWithPendingLines("prog-1", "Travel")
	tx := &mockTxManager{err: reconcile.ErrConcurrencyConflict}
	svc := newReviewServiceForTest(claimRepoReturning(claim), &mockLedgerRepo{}, tx, nil)

	_, _, err := svc.ApproveLine(context.Background(), "prog-1", "line-Travel", nil, "reviewer-9")
	if !errors.Is(err, reconcile.ErrConcurrencyConflict) {
		t.Errorf("error = %v, want ErrConcurrencyConflict", err)
	}
}

func TestRejectLineFlow(t *testing.T) {
	claim := claimWithPendingLines("prog-1", "Travel", "Equipment")
	svc := newReviewServiceForTest(claimRepoReturning(claim), &mockLedgerRepo{}, &mockTxManager{}, nil)

	line, snapshot, err := svc.RejectLine(context.Background(), "prog-1", "line-Equipment", "", "reviewer-9")
	if err != nil {
		t.Fatalf("RejectLine failed: %v", err)
	}

	if line.Status != entity.LineStatusRejected {
		t.Errorf("line status = %s, want rejected", line.Status)
	}
	if line.RejectionReason != "Item rejected" {
		t.Errorf("rejection reason = %q, want default", line.RejectionReason)
	}
	if line.Amount != 0 || line.ApprovedAmount != 0 {
		t.Error("rejected line amounts should be zeroed")
	}

	if snapshot.Status != entity.ClaimStatusUnderReview {
		t.Errorf("snapshot status = %s, want under_review", snapshot.Status)
	}
}

func TestFinalizeClaimFlow(t *testing.T) {
	claim := claimWithPendingLines("prog-1", "Travel", "Equipment")
	claim.Expenses[0].Status = entity.LineStatusApproved
	claim.Expenses[0].ApprovedAmount = 4500
	claim.Expenses[1].Status = entity.LineStatusRejected

	svc := newReviewServiceForTest(claimRepoReturning(claim), &mockLedgerRepo{}, &mockTxManager{}, nil)

	finalized, snapshot, err := svc.FinalizeClaim(context.Background(), "prog-1")
	if err != nil {
		t.Fatalf("FinalizeClaim failed: %v", err)
	}

	if len(finalized.Expenses) != 1 {
		t.Errorf("expenses after finalize = %d, want 1 (rejected purged)", len(finalized.Expenses))
	}
	if !finalized.Finalized() {
		t.Error("claim should carry a finalized date")
	}
	if snapshot.TotalApprovedAmount != 4500 || snapshot.TotalExpenditure != 4500 || snapshot.TotalBudgetAmount != 4500 {
		t.Errorf("snapshot totals = %+v, want all 4500", snapshot)
	}
	if snapshot.Status != entity.ClaimStatusApproved {
		t.Errorf("snapshot status = %s, want approved", snapshot.Status)
	}
}

func TestFinalizeClaimWithoutApprovals(t *testing.T) {
	claim := claimWithPendingLines("prog-1", "Travel")
	svc := newReviewServiceForTest(claimRepoReturning(claim), &mockLedgerRepo{}, &mockTxManager{}, nil)

	_, _, err := svc.FinalizeClaim(context.Background(), "prog-1")
	if !errors.Is(err, reconcile.ErrNoApprovedItems) {
		t.Errorf("error = %v, want ErrNoApprovedItems", err)
	}
}

func TestFinalizeClaimTwice(t *testing.T) {
	claim := claimWithPendingLines("prog-1", "Travel")
	claim.Expenses[0].Status = entity.LineStatusApproved
	claim.Expenses[0].ApprovedAmount = 1000

	svc := newReviewServiceForTest(claimRepoReturning(claim), &mockLedgerRepo{}, &mockTxManager{}, nil)
	ctx := context.Background()

	if _, _, err := svc.FinalizeClaim(ctx, "prog-1"); err != nil {
		t.Fatalf("first finalize failed: %v", err)
	}
	_, _, err := svc.FinalizeClaim(ctx, "prog-1")
	if !errors.Is(err, reconcile.ErrInvalidTransition) {
		t.Errorf("second finalize error = %v, want ErrInvalidTransition", err)
	}
}
