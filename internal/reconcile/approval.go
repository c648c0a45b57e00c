package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/deptfin/programme-claims/internal/domain/entity"
	"github.com/deptfin/programme-claims/internal/domain/workflow"
)

// defaultRejectionReason is recorded when a reviewer rejects without a reason
const defaultRejectionReason = "Item rejected"

// lineTransitions is the shared transition table for expense lines:
// pending may move to approved or rejected, both terminal.
var lineTransitions = func() workflow.Builder {
	b := workflow.NewBuilder()
	b.Configure(workflow.StatePending).
		Permit(workflow.TriggerApprove, workflow.StateApproved).
		Permit(workflow.TriggerReject, workflow.StateRejected)
	return b
}()

// lineMachine builds a transition machine positioned at the line's status
func lineMachine(line *entity.ExpenseLine) (workflow.Machine, error) {
	state := workflow.State(line.Status)
	if !state.IsValid() {
		return nil, fmt.Errorf("%w: line %q has unknown status %q", ErrInvalidTransition, line.Category, line.Status)
	}
	return lineTransitions.Build(state), nil
}

// fireLine validates and executes a trigger against the line's current status
func fireLine(ctx context.Context, line *entity.ExpenseLine, trigger workflow.Trigger) error {
	machine, err := lineMachine(line)
	if err != nil {
		return err
	}
	if err := machine.Fire(ctx, trigger); err != nil {
		return fmt.Errorf("line %q: %w", line.Category, err)
	}
	line.Status = machine.State().String()
	return nil
}

// Approve transitions a pending line to approved, resolves the approved
// amount (override wins when given) and assigns the line's receipt number on
// its first approval. Re-deciding a decided line fails with
// ErrInvalidTransition before any mutation.
//
// The caller must persist the line and then recompute the aggregates.
func (e *Engine) Approve(ctx context.Context, line *entity.ExpenseLine, approvedAmount *float64, reviewerRef string) error {
	if approvedAmount != nil {
		if err := validAmount(*approvedAmount); err != nil {
			return fmt.Errorf("%w: approved amount: %v", ErrValidation, err)
		}
	}

	machine, err := lineMachine(line)
	if err != nil {
		return err
	}
	if !machine.CanFire(workflow.TriggerApprove) {
		return fmt.Errorf("line %q: %w: cannot approve from state %s", line.Category, ErrInvalidTransition, line.Status)
	}

	// Allocate the receipt number before mutating so a sequence failure
	// leaves the line untouched. Only the first approval ever assigns one.
	receiptNumber := line.ReceiptNumber
	now := e.now()
	if receiptNumber == "" {
		n, err := e.seq.Next(ctx, now.Year())
		if err != nil {
			return fmt.Errorf("allocate receipt number: %w", err)
		}
		receiptNumber = FormatReceiptNumber(now.Year(), n)
	}

	if err := machine.Fire(ctx, workflow.TriggerApprove); err != nil {
		return fmt.Errorf("line %q: %w", line.Category, err)
	}
	line.Status = machine.State().String()

	line.ReviewerRef = reviewerRef
	line.ReviewDate = &now
	line.ApprovalDate = &now
	line.RejectionReason = ""
	line.ReceiptNumber = receiptNumber
	SyncAmounts(line, approvedAmount)

	e.logger.Info("Expense line approved",
		zap.String("category", line.Category),
		zap.Float64("approved_amount", line.ApprovedAmount),
		zap.String("receipt_number", line.ReceiptNumber),
		zap.String("reviewer", reviewerRef))
	return nil
}

// Reject transitions a pending line to rejected, records the reason and
// zeroes every amount field. Re-deciding a decided line fails with
// ErrInvalidTransition.
//
// The caller must persist the line and then recompute the aggregates.
func (e *Engine) Reject(ctx context.Context, line *entity.ExpenseLine, reason, reviewerRef string) error {
	if err := fireLine(ctx, line, workflow.TriggerReject); err != nil {
		return err
	}

	if reason == "" {
		reason = defaultRejectionReason
	}

	now := e.now()
	line.ReviewerRef = reviewerRef
	line.ReviewDate = &now
	line.RejectionReason = reason
	line.ReceiptNumber = ""
	line.ReceiptIssued = false
	SyncAmounts(line, nil)

	e.logger.Info("Expense line rejected",
		zap.String("category", line.Category),
		zap.String("reason", reason),
		zap.String("reviewer", reviewerRef))
	return nil
}
