package reconcile

import "github.com/deptfin/programme-claims/internal/domain/entity"

// SyncAmounts enforces the synchronization invariant on a single expense
// line: the redundant amount fields must agree, given the line's status.
//
//   - approved: all four fields take the resolved approved amount
//     (override, else the first positive of approved/actual/budget)
//   - rejected: all four fields are zeroed
//   - pending:  the three raw fields take the first positive of
//     actual/budget/amount; the approved amount is zeroed
//
// The call is idempotent and touches nothing beyond the four amount fields.
func SyncAmounts(line *entity.ExpenseLine, override *float64) {
	switch line.Status {
	case entity.LineStatusApproved:
		a := line.ApprovedAmount
		if override != nil && *override > 0 {
			a = *override
		}
		a = firstPositive(a, line.ActualAmount, line.BudgetAmount)
		line.Amount = a
		line.ActualAmount = a
		line.BudgetAmount = a
		line.ApprovedAmount = a

	case entity.LineStatusRejected:
		line.Amount = 0
		line.ActualAmount = 0
		line.BudgetAmount = 0
		line.ApprovedAmount = 0

	default:
		a := firstPositive(line.ActualAmount, line.BudgetAmount, line.Amount)
		line.Amount = a
		line.ActualAmount = a
		line.BudgetAmount = a
		line.ApprovedAmount = 0
	}
}

// firstPositive returns the first value greater than zero, or 0 when none is.
// Amount fields have no null representation; non-positive means unset.
func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
