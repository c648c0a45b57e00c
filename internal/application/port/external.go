package port

import (
	"context"

	"github.com/deptfin/programme-claims/internal/domain/entity"
)

// ReceiptWriter produces the receipt artifact for an approved expense line.
// Artifact generation runs outside the reconciliation transaction; it reads
// the line and must never mutate it.
type ReceiptWriter interface {
	// WriteReceipt renders the artifact and returns its path
	WriteReceipt(ctx context.Context, programmeID string, line *entity.ExpenseLine) (string, error)
}
