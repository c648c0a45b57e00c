package entity

// Status constants for ExpenseLine
const (
	LineStatusPending  = "pending"
	LineStatusApproved = "approved"
	LineStatusRejected = "rejected"
)

// Status constants for ClaimBill
const (
	ClaimStatusPending     = "pending"
	ClaimStatusUnderReview = "under_review"
	ClaimStatusApproved    = "approved"
	ClaimStatusRejected    = "rejected"
)

// Kind constants for IncomeLine
const (
	IncomeKindRegistration = "registration"
	IncomeKindGrant        = "grant"
	IncomeKindOther        = "other"
)

// OverheadRate is the fixed university levy applied to total income.
const OverheadRate = 0.30
