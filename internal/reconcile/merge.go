package reconcile

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deptfin/programme-claims/internal/domain/entity"
)

// SubmittedExpense is one entry of a caller-submitted expense list
type SubmittedExpense struct {
	Category    string  `json:"category" binding:"required"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

// SubmittedIncome is one entry of a caller-submitted income list. Income is
// caller-supplied (participants x per-participant amount); Kind defaults to
// "other" when omitted.
type SubmittedIncome struct {
	Category             string  `json:"category" binding:"required"`
	Kind                 string  `json:"kind,omitempty"`
	ExpectedParticipants int     `json:"expected_participants"`
	PerParticipantAmount float64 `json:"per_participant_amount"`
	GSTPercentage        float64 `json:"gst_percentage"`
	Income               float64 `json:"income"`
}

// ValidateSubmission rejects malformed input before any mutation happens.
// Fail closed: a single bad entry fails the whole submission.
func ValidateSubmission(expenses []SubmittedExpense, income []SubmittedIncome) error {
	seen := make(map[string]bool, len(expenses))
	for i, s := range expenses {
		category := strings.TrimSpace(s.Category)
		if category == "" {
			return fmt.Errorf("%w: expense %d is missing a category", ErrValidation, i)
		}
		if seen[category] {
			return fmt.Errorf("%w: duplicate expense category %q", ErrValidation, category)
		}
		seen[category] = true
		if err := validAmount(s.Amount); err != nil {
			return fmt.Errorf("%w: expense %q: %v", ErrValidation, category, err)
		}
	}

	for i, in := range income {
		if strings.TrimSpace(in.Category) == "" {
			return fmt.Errorf("%w: income %d is missing a category", ErrValidation, i)
		}
		if in.ExpectedParticipants < 0 {
			return fmt.Errorf("%w: income %q: negative participant count", ErrValidation, in.Category)
		}
		for _, v := range []float64{in.PerParticipantAmount, in.GSTPercentage, in.Income} {
			if err := validAmount(v); err != nil {
				return fmt.Errorf("%w: income %q: %v", ErrValidation, in.Category, err)
			}
		}
		switch in.Kind {
		case "", entity.IncomeKindRegistration, entity.IncomeKindGrant, entity.IncomeKindOther:
		default:
			return fmt.Errorf("%w: income %q: unknown kind %q", ErrValidation, in.Category, in.Kind)
		}
	}

	return nil
}

func validAmount(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("amount is not a number")
	}
	if v < 0 {
		return fmt.Errorf("amount is negative")
	}
	return nil
}

// MergeExpenses reconciles a freshly submitted expense list against the
// existing claim lines, keyed by category.
//
// Already-decided lines keep their decision metadata (status, approved
// amount, reviewer, receipt) and only refresh the raw amount fields. Pending
// and unmatched categories produce fresh pending lines. The merged set is
// exactly the submitted category set: categories the caller dropped are not
// carried forward, even when previously decided. That last-writer-wins policy
// is deliberate and logged when it discards a decision.
//
// Pending and rejected lines pass through SyncAmounts; approved lines keep
// their frozen approved amount next to the refreshed raw fields. The returned
// total is the raw expenditure sum over the merged set.
func (e *Engine) MergeExpenses(existing []entity.ExpenseLine, submitted []SubmittedExpense) ([]entity.ExpenseLine, float64, error) {
	if err := ValidateSubmission(submitted, nil); err != nil {
		return nil, 0, err
	}

	byCategory := make(map[string]*entity.ExpenseLine, len(existing))
	for i := range existing {
		byCategory[existing[i].Category] = &existing[i]
	}

	merged := make([]entity.ExpenseLine, 0, len(submitted))
	for _, s := range submitted {
		category := strings.TrimSpace(s.Category)

		prior, matched := byCategory[category]
		if matched && prior.Decided() {
			line := *prior
			line.BudgetAmount = s.Amount
			line.ActualAmount = s.Amount
			line.Amount = s.Amount
			if s.Description != "" {
				line.Description = s.Description
			}
			merged = append(merged, line)
			continue
		}

		// A pending match is replaced wholesale but keeps its stable id, so
		// decision references stay valid across resubmissions.
		id := uuid.NewString()
		if matched && prior.ID != "" {
			id = prior.ID
		}
		description := s.Description
		if description == "" {
			description = entity.DefaultDescription(category)
		}
		merged = append(merged, entity.ExpenseLine{
			ID:           id,
			Category:     category,
			Description:  description,
			BudgetAmount: s.Amount,
			ActualAmount: s.Amount,
			Amount:       s.Amount,
			Status:       entity.LineStatusPending,
		})
	}

	submittedSet := make(map[string]bool, len(merged))
	for i := range merged {
		submittedSet[merged[i].Category] = true
	}
	for i := range existing {
		if !submittedSet[existing[i].Category] && existing[i].Decided() {
			e.logger.Warn("Dropping decided category absent from resubmission",
				zap.String("category", existing[i].Category),
				zap.String("status", existing[i].Status))
		}
	}

	var total float64
	for i := range merged {
		// A full sync on an approved line would collapse the refreshed raw
		// amounts back onto the approved amount.
		if merged[i].Status != entity.LineStatusApproved {
			SyncAmounts(&merged[i], nil)
		}
		total += merged[i].Amount
	}

	return merged, total, nil
}

// BuildIncome converts a submitted income list into ledger income lines
func BuildIncome(submitted []SubmittedIncome) []entity.IncomeLine {
	if len(submitted) == 0 {
		return nil
	}

	lines := make([]entity.IncomeLine, 0, len(submitted))
	for _, in := range submitted {
		kind := in.Kind
		if kind == "" {
			kind = entity.IncomeKindOther
		}
		lines = append(lines, entity.IncomeLine{
			ID:                   uuid.NewString(),
			Category:             strings.TrimSpace(in.Category),
			Kind:                 kind,
			ExpectedParticipants: in.ExpectedParticipants,
			PerParticipantAmount: in.PerParticipantAmount,
			GSTPercentage:        in.GSTPercentage,
			Income:               in.Income,
		})
	}
	return lines
}
