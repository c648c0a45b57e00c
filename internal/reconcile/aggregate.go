package reconcile

import "github.com/deptfin/programme-claims/internal/domain/entity"

// Recompute derives the claim-level and ledger-level totals and the overall
// claim status from the current set of expense lines. It must run after
// every merge or decision, before the aggregates are persisted.
//
// Claim totals:
//   - totalApprovedAmount is the sum of approved amounts over approved lines
//   - totalExpenditure switches from the raw submitted sum to the approved
//     total once at least one line has been decided
//   - totalBudgetAmount sums the actual amounts of approved lines only
//
// Claim status is a pure function of the line status multiset: all approved,
// all rejected, mixed decisions (under review), or unchanged while every
// line is still pending.
//
// The ledger's expense view is projected from the claim once decisions begin:
// only categories with an approved line survive, each carrying the approved
// amount. Income totals and the university overhead refresh regardless.
func (e *Engine) Recompute(ledger *entity.BudgetLedger, claim *entity.ClaimBill) {
	var approvedTotal, budgetTotal float64
	var approved, rejected int

	for i := range claim.Expenses {
		switch line := &claim.Expenses[i]; line.Status {
		case entity.LineStatusApproved:
			approvedTotal += line.ApprovedAmount
			budgetTotal += line.ActualAmount
			approved++
		case entity.LineStatusRejected:
			rejected++
		}
	}

	decided := approved+rejected > 0
	claim.TotalApprovedAmount = approvedTotal
	claim.TotalBudgetAmount = budgetTotal
	if decided {
		claim.TotalExpenditure = approvedTotal
	}

	switch n := len(claim.Expenses); {
	case n > 0 && approved == n:
		claim.Status = entity.ClaimStatusApproved
	case n > 0 && rejected == n:
		claim.Status = entity.ClaimStatusRejected
	case decided:
		claim.Status = entity.ClaimStatusUnderReview
	}

	if ledger == nil {
		return
	}
	if decided {
		e.projectLedger(ledger, claim)
	} else {
		var total float64
		for i := range ledger.Expenses {
			total += ledger.Expenses[i].Amount
		}
		ledger.TotalExpenditure = total
	}
	recomputeIncome(ledger)
}

// projectLedger rebuilds the ledger's expense view as an approved-only
// projection over the claim lines. The stored ledger rows are pure output:
// the projection never reads them, so categories approved in later decision
// rounds always reappear. Kept entries carry the approved amount.
func (e *Engine) projectLedger(ledger *entity.BudgetLedger, claim *entity.ClaimBill) {
	kept := make([]entity.ExpenseLine, 0, len(claim.Expenses))
	var total float64
	for i := range claim.Expenses {
		line := &claim.Expenses[i]
		if line.Status != entity.LineStatusApproved {
			continue
		}
		projected := *line
		projected.Amount = firstPositive(line.ApprovedAmount, line.ActualAmount, line.Amount)
		projected.ActualAmount = projected.Amount
		projected.BudgetAmount = projected.Amount
		kept = append(kept, projected)
		total += projected.Amount
	}

	ledger.Expenses = kept
	ledger.TotalExpenditure = total
}

// recomputeIncome refreshes the income totals and applies the fixed
// university overhead levy as an additional expenditure addend.
func recomputeIncome(ledger *entity.BudgetLedger) {
	if len(ledger.Income) == 0 {
		ledger.TotalIncome = 0
		ledger.UniversityOverhead = 0
		return
	}

	var total float64
	for i := range ledger.Income {
		total += ledger.Income[i].Income
	}
	ledger.TotalIncome = total
	ledger.UniversityOverhead = entity.OverheadRate * total
	if ledger.UniversityOverhead != 0 {
		ledger.TotalExpenditure += ledger.UniversityOverhead
	}
}
