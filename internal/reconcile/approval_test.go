package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deptfin/programme-claims/internal/domain/entity"
)

func pendingLine(category string, amount float64) entity.ExpenseLine {
	return entity.ExpenseLine{
		ID:           "line-" + category,
		Category:     category,
		Description:  entity.DefaultDescription(category),
		Status:       entity.LineStatusPending,
		BudgetAmount: amount,
		ActualAmount: amount,
		Amount:       amount,
	}
}

func TestApproveWithOverride(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	override := 4500.0

	line := pendingLine("Travel", 5000)
	require.NoError(t, e.Approve(ctx, &line, &override, "reviewer-9"))

	assert.Equal(t, entity.LineStatusApproved, line.Status)
	assert.Equal(t, 4500.0, line.ApprovedAmount)
	assert.Equal(t, 4500.0, line.Amount)
	assert.Equal(t, 4500.0, line.ActualAmount)
	assert.Equal(t, 4500.0, line.BudgetAmount)
	assert.Equal(t, "RCP-2025-000001", line.ReceiptNumber)
	assert.Equal(t, "reviewer-9", line.ReviewerRef)
	require.NotNil(t, line.ReviewDate)
	require.NotNil(t, line.ApprovalDate)
	assert.Equal(t, 2025, line.ApprovalDate.Year())
	assert.Empty(t, line.RejectionReason)
}

func TestApproveWithoutOverrideUsesActualAmount(t *testing.T) {
	e := newTestEngine()

	line := pendingLine("Travel", 5000)
	require.NoError(t, e.Approve(context.Background(), &line, nil, "reviewer-9"))

	assert.Equal(t, 5000.0, line.ApprovedAmount)
	assert.Equal(t, 5000.0, line.Amount)
}

func TestApproveIncrementsReceiptSequence(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	first := pendingLine("Travel", 5000)
	second := pendingLine("Catering", 1200)
	require.NoError(t, e.Approve(ctx, &first, nil, "reviewer-9"))
	require.NoError(t, e.Approve(ctx, &second, nil, "reviewer-9"))

	assert.Equal(t, "RCP-2025-000001", first.ReceiptNumber)
	assert.Equal(t, "RCP-2025-000002", second.ReceiptNumber)
}

func TestApproveKeepsExistingReceiptNumber(t *testing.T) {
	e := newTestEngine()

	line := pendingLine("Travel", 5000)
	line.ReceiptNumber = "RCP-2024-000007"
	require.NoError(t, e.Approve(context.Background(), &line, nil, "reviewer-9"))

	assert.Equal(t, "RCP-2024-000007", line.ReceiptNumber, "an assigned receipt number is never replaced")
}

func TestApproveDecidedLineFails(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	for _, status := range []string{entity.LineStatusApproved, entity.LineStatusRejected} {
		line := pendingLine("Travel", 5000)
		line.Status = status

		err := e.Approve(ctx, &line, nil, "reviewer-9")
		assert.ErrorIs(t, err, ErrInvalidTransition, "status %s", status)
		assert.Equal(t, status, line.Status)
		assert.Empty(t, line.ReviewerRef, "failed approve must not mutate the line")
	}

	// The failed attempts must not have consumed sequence numbers.
	fresh := pendingLine("Catering", 1200)
	require.NoError(t, e.Approve(ctx, &fresh, nil, "reviewer-9"))
	assert.Equal(t, "RCP-2025-000001", fresh.ReceiptNumber)
}

func TestApproveUnknownStatusFails(t *testing.T) {
	e := newTestEngine()

	line := pendingLine("Travel", 5000)
	line.Status = "mystery"

	err := e.Approve(context.Background(), &line, nil, "reviewer-9")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApproveRejectsInvalidOverride(t *testing.T) {
	e := newTestEngine()
	negative := -1.0

	line := pendingLine("Travel", 5000)
	err := e.Approve(context.Background(), &line, &negative, "reviewer-9")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, entity.LineStatusPending, line.Status)
}

func TestRejectWithReason(t *testing.T) {
	e := newTestEngine()

	line := pendingLine("Equipment", 3000)
	require.NoError(t, e.Reject(context.Background(), &line, "Over budget", "reviewer-9"))

	assert.Equal(t, entity.LineStatusRejected, line.Status)
	assert.Equal(t, "Over budget", line.RejectionReason)
	assert.Equal(t, "reviewer-9", line.ReviewerRef)
	require.NotNil(t, line.ReviewDate)
	assert.Nil(t, line.ApprovalDate)
	assert.Zero(t, line.Amount)
	assert.Zero(t, line.ActualAmount)
	assert.Zero(t, line.BudgetAmount)
	assert.Zero(t, line.ApprovedAmount)
}

func TestRejectDefaultsReason(t *testing.T) {
	e := newTestEngine()

	line := pendingLine("Equipment", 3000)
	require.NoError(t, e.Reject(context.Background(), &line, "", "reviewer-9"))

	assert.Equal(t, "Item rejected", line.RejectionReason)
}

func TestRejectClearsReceipt(t *testing.T) {
	e := newTestEngine()

	line := pendingLine("Equipment", 3000)
	line.ReceiptNumber = "RCP-2025-000004"
	line.ReceiptIssued = true
	require.NoError(t, e.Reject(context.Background(), &line, "", "reviewer-9"))

	assert.Empty(t, line.ReceiptNumber)
	assert.False(t, line.ReceiptIssued)
}

func TestRejectDecidedLineFails(t *testing.T) {
	e := newTestEngine()

	for _, status := range []string{entity.LineStatusApproved, entity.LineStatusRejected} {
		line := pendingLine("Equipment", 3000)
		line.Status = status

		err := e.Reject(context.Background(), &line, "", "reviewer-9")
		assert.ErrorIs(t, err, ErrInvalidTransition, "status %s", status)
	}
}
