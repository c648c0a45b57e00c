package statement

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/deptfin/programme-claims/internal/domain/entity"
)

// Exporter renders a claim statement workbook: the claim's expense lines with
// their decision state, the claim totals, and the ledger's income and
// overhead figures.
type Exporter struct {
	departmentName string
	logger         *zap.Logger
}

// NewExporter creates a new statement exporter
func NewExporter(departmentName string, logger *zap.Logger) *Exporter {
	return &Exporter{departmentName: departmentName, logger: logger}
}

// ExportClaim writes the statement for a claim and its ledger to path
func (e *Exporter) ExportClaim(claim *entity.ClaimBill, ledger *entity.BudgetLedger, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	setCell(f, sheet, "A1", e.departmentName)
	setCell(f, sheet, "A2", fmt.Sprintf("Claim Statement - Programme %s", claim.ProgrammeID))
	setCell(f, sheet, "A3", fmt.Sprintf("Status: %s", claim.Status))

	headers := []string{"Category", "Description", "Amount", "Approved Amount", "Status", "Receipt Number", "Reviewer"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 5)
		setCell(f, sheet, cell, h)
	}

	row := 6
	for i := range claim.Expenses {
		line := &claim.Expenses[i]
		values := []string{
			line.Category,
			line.Description,
			fmt.Sprintf("%.2f", line.Amount),
			fmt.Sprintf("%.2f", line.ApprovedAmount),
			line.Status,
			line.ReceiptNumber,
			line.ReviewerRef,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			setCell(f, sheet, cell, v)
		}
		row++
	}

	row++
	setCell(f, sheet, cellAt(1, row), "Total Expenditure")
	setCell(f, sheet, cellAt(2, row), fmt.Sprintf("%.2f", claim.TotalExpenditure))
	row++
	setCell(f, sheet, cellAt(1, row), "Total Approved")
	setCell(f, sheet, cellAt(2, row), fmt.Sprintf("%.2f", claim.TotalApprovedAmount))
	row++
	setCell(f, sheet, cellAt(1, row), "Total Budget")
	setCell(f, sheet, cellAt(2, row), fmt.Sprintf("%.2f", claim.TotalBudgetAmount))

	if ledger != nil && len(ledger.Income) > 0 {
		row += 2
		setCell(f, sheet, cellAt(1, row), "Income")
		row++
		for i := range ledger.Income {
			in := &ledger.Income[i]
			setCell(f, sheet, cellAt(1, row), in.Category)
			setCell(f, sheet, cellAt(2, row), in.Kind)
			setCell(f, sheet, cellAt(3, row), fmt.Sprintf("%.2f", in.Income))
			row++
		}
		setCell(f, sheet, cellAt(1, row), "Total Income")
		setCell(f, sheet, cellAt(2, row), fmt.Sprintf("%.2f", ledger.TotalIncome))
		row++
		setCell(f, sheet, cellAt(1, row), "University Overhead (30%)")
		setCell(f, sheet, cellAt(2, row), fmt.Sprintf("%.2f", ledger.UniversityOverhead))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save statement: %w", err)
	}

	e.logger.Info("Claim statement exported",
		zap.String("programme_id", claim.ProgrammeID),
		zap.String("path", path))
	return nil
}

func cellAt(col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return cell
}
