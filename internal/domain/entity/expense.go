package entity

import (
	"fmt"
	"time"
)

// ExpenseLine is one expense category's record on a claim bill, the unit of
// approval. Category is unique within a claim; ID is the stable identifier
// used to address review decisions.
//
// BudgetAmount, ActualAmount and Amount are redundant by design (they feed
// different downstream reports) and must agree after every engine operation.
// ApprovedAmount is authoritative only while Status is approved.
type ExpenseLine struct {
	ID              string     `json:"id"`
	Category        string     `json:"category"`
	Description     string     `json:"description"`
	BudgetAmount    float64    `json:"budget_amount"`
	ActualAmount    float64    `json:"actual_amount"`
	Amount          float64    `json:"amount"`
	ApprovedAmount  float64    `json:"approved_amount"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	ReviewerRef     string     `json:"reviewer_ref,omitempty"`
	ReviewDate      *time.Time `json:"review_date,omitempty"`
	ApprovalDate    *time.Time `json:"approval_date,omitempty"`
	ReceiptNumber   string     `json:"receipt_number,omitempty"`
	ReceiptIssued   bool       `json:"receipt_issued"`
}

// Decided returns true once the line has been approved or rejected.
func (l *ExpenseLine) Decided() bool {
	return l.Status == LineStatusApproved || l.Status == LineStatusRejected
}

// DefaultDescription returns the description used when a submission carries
// none for its category.
func DefaultDescription(category string) string {
	return fmt.Sprintf("Expense for %s", category)
}

// IncomeLine is one income category's record on a programme's budget ledger.
// Income is caller-supplied (participants x per-participant amount); Kind is
// decided at creation time, never inferred from the category text.
type IncomeLine struct {
	ID                   string  `json:"id"`
	Category             string  `json:"category"`
	Kind                 string  `json:"kind"`
	ExpectedParticipants int     `json:"expected_participants"`
	PerParticipantAmount float64 `json:"per_participant_amount"`
	GSTPercentage        float64 `json:"gst_percentage"`
	Income               float64 `json:"income"`
}
