package entity

// BudgetLedger is the planned budget record for a programme. Once review
// decisions start, its expense entries are a projection over the claim's
// approved lines and must never be edited independently.
type BudgetLedger struct {
	ID                 string        `json:"id"`
	ProgrammeID        string        `json:"programme_id"`
	Expenses           []ExpenseLine `json:"expenses"`
	Income             []IncomeLine  `json:"income"`
	TotalExpenditure   float64       `json:"total_expenditure"`
	TotalIncome        float64       `json:"total_income"`
	UniversityOverhead float64       `json:"university_overhead"`
	Version            int64         `json:"-"`
}
