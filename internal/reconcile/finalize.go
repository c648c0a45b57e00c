package reconcile

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/deptfin/programme-claims/internal/domain/entity"
)

// Finalize permanently purges every rejected line from the claim, locks the
// three claim totals to the approved sum, and marks the claim terminally
// approved. The purge is irreversible; no decision is valid on the claim
// afterwards. Requires at least one approved line.
//
// The ledger's expense view is re-projected so it too contains only the
// surviving categories.
func (e *Engine) Finalize(claim *entity.ClaimBill, ledger *entity.BudgetLedger) error {
	if claim.Finalized() {
		return fmt.Errorf("%w: claim %s is already finalized", ErrInvalidTransition, claim.ID)
	}

	var approved int
	for i := range claim.Expenses {
		if claim.Expenses[i].Status == entity.LineStatusApproved {
			approved++
		}
	}
	if approved == 0 {
		return fmt.Errorf("%w: claim %s has no approved expense lines", ErrNoApprovedItems, claim.ID)
	}

	kept := make([]entity.ExpenseLine, 0, approved)
	var purged int
	var total float64
	for i := range claim.Expenses {
		if claim.Expenses[i].Status == entity.LineStatusRejected {
			purged++
			continue
		}
		kept = append(kept, claim.Expenses[i])
		total += claim.Expenses[i].ApprovedAmount
	}

	now := e.now()
	claim.Expenses = kept
	claim.TotalApprovedAmount = total
	claim.TotalExpenditure = total
	claim.TotalBudgetAmount = total
	claim.Status = entity.ClaimStatusApproved
	claim.FinalizedDate = &now

	if ledger != nil {
		e.projectLedger(ledger, claim)
		recomputeIncome(ledger)
	}

	e.logger.Info("Claim finalized",
		zap.String("claim_id", claim.ID),
		zap.Int("approved_lines", approved),
		zap.Int("purged_lines", purged),
		zap.Float64("total_approved", total))
	return nil
}
