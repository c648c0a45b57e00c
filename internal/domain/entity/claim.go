package entity

import "time"

// ClaimBill is the actual-expenditure record submitted against a programme.
// Its expense lines are the single source of truth for the reconciliation
// engine; the budget ledger's expense view is a projection derived from them.
//
// Version is the optimistic-concurrency token checked on save.
type ClaimBill struct {
	ID                  string        `json:"id"`
	ProgrammeID         string        `json:"programme_id"`
	Expenses            []ExpenseLine `json:"expenses"`
	TotalExpenditure    float64       `json:"total_expenditure"`
	TotalApprovedAmount float64       `json:"total_approved_amount"`
	TotalBudgetAmount   float64       `json:"total_budget_amount"`
	Status              string        `json:"status"`
	Submitted           bool          `json:"submitted"`
	CreatedAt           time.Time     `json:"created_at"`
	FinalizedDate       *time.Time    `json:"finalized_date,omitempty"`
	Version             int64         `json:"-"`
}

// Finalized returns true once the claim has been purged and locked.
func (c *ClaimBill) Finalized() bool {
	return c.FinalizedDate != nil
}

// LineByID returns the expense line with the given stable identifier.
func (c *ClaimBill) LineByID(id string) *ExpenseLine {
	for i := range c.Expenses {
		if c.Expenses[i].ID == id {
			return &c.Expenses[i]
		}
	}
	return nil
}

// LineByCategory returns the expense line for the given category.
func (c *ClaimBill) LineByCategory(category string) *ExpenseLine {
	for i := range c.Expenses {
		if c.Expenses[i].Category == category {
			return &c.Expenses[i]
		}
	}
	return nil
}
