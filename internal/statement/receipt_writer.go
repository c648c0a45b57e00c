// Package statement renders read-only financial artifacts (expense receipts
// and claim statements) from the claim and ledger aggregates. It never
// mutates the records it reads.
package statement

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/deptfin/programme-claims/internal/application/port"
	"github.com/deptfin/programme-claims/internal/domain/entity"
)

// ReceiptWriter renders one xlsx receipt per approved expense line
type ReceiptWriter struct {
	outputDir      string
	departmentName string
	logger         *zap.Logger
}

// NewReceiptWriter creates a new receipt writer
func NewReceiptWriter(outputDir, departmentName string, logger *zap.Logger) *ReceiptWriter {
	return &ReceiptWriter{
		outputDir:      outputDir,
		departmentName: departmentName,
		logger:         logger,
	}
}

// WriteReceipt renders the receipt artifact for an approved line and returns
// its path. The file is named after the receipt number.
func (w *ReceiptWriter) WriteReceipt(_ context.Context, programmeID string, line *entity.ExpenseLine) (string, error) {
	if line.Status != entity.LineStatusApproved {
		return "", fmt.Errorf("line %q is not approved", line.Category)
	}
	if line.ReceiptNumber == "" {
		return "", fmt.Errorf("line %q has no receipt number", line.Category)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	setCell(f, sheet, "A1", w.departmentName)
	setCell(f, sheet, "A2", "Expense Receipt")
	setCell(f, sheet, "A4", "Receipt Number")
	setCell(f, sheet, "B4", line.ReceiptNumber)
	setCell(f, sheet, "A5", "Programme")
	setCell(f, sheet, "B5", programmeID)
	setCell(f, sheet, "A6", "Category")
	setCell(f, sheet, "B6", line.Category)
	setCell(f, sheet, "A7", "Description")
	setCell(f, sheet, "B7", line.Description)
	setCell(f, sheet, "A8", "Approved Amount")
	setCell(f, sheet, "B8", fmt.Sprintf("%.2f", line.ApprovedAmount))
	setCell(f, sheet, "A9", "Reviewer")
	setCell(f, sheet, "B9", line.ReviewerRef)
	if line.ApprovalDate != nil {
		setCell(f, sheet, "A10", "Approval Date")
		setCell(f, sheet, "B10", line.ApprovalDate.Format("2006-01-02"))
	}

	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.outputDir, line.ReceiptNumber+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save receipt: %w", err)
	}

	w.logger.Info("Receipt rendered",
		zap.String("receipt_number", line.ReceiptNumber),
		zap.String("path", path))
	return path, nil
}

func setCell(f *excelize.File, sheet, cell, value string) {
	// SetCellValue only errors on malformed coordinates, which are constant here
	_ = f.SetCellValue(sheet, cell, value)
}

// Verify interface compliance
var _ port.ReceiptWriter = (*ReceiptWriter)(nil)
