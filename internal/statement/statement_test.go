package statement

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/deptfin/programme-claims/internal/domain/entity"
)

func approvedLineFixture() entity.ExpenseLine {
	approved := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	return entity.ExpenseLine{
		ID:             "line-1",
		Category:       "Travel",
		Description:    "Expense for Travel",
		Status:         entity.LineStatusApproved,
		BudgetAmount:   4500,
		ActualAmount:   4500,
		Amount:         4500,
		ApprovedAmount: 4500,
		ReviewerRef:    "reviewer-9",
		ApprovalDate:   &approved,
		ReceiptNumber:  "RCP-2025-000001",
	}
}

func TestWriteReceipt(t *testing.T) {
	dir := t.TempDir()
	writer := NewReceiptWriter(dir, "Department of Training Programmes", zap.NewNop())

	line := approvedLineFixture()
	path, err := writer.WriteReceipt(context.Background(), "prog-1", &line)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "RCP-2025-000001.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	sheet := f.GetSheetName(0)

	cell := func(ref string) string {
		v, err := f.GetCellValue(sheet, ref)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Department of Training Programmes", cell("A1"))
	assert.Equal(t, "RCP-2025-000001", cell("B4"))
	assert.Equal(t, "prog-1", cell("B5"))
	assert.Equal(t, "Travel", cell("B6"))
	assert.Equal(t, "4500.00", cell("B8"))
	assert.Equal(t, "reviewer-9", cell("B9"))
	assert.Equal(t, "2025-03-15", cell("B10"))
}

func TestWriteReceiptRequiresApprovedLine(t *testing.T) {
	writer := NewReceiptWriter(t.TempDir(), "Dept", zap.NewNop())

	line := approvedLineFixture()
	line.Status = entity.LineStatusPending
	_, err := writer.WriteReceipt(context.Background(), "prog-1", &line)
	assert.Error(t, err)
}

func TestWriteReceiptRequiresReceiptNumber(t *testing.T) {
	writer := NewReceiptWriter(t.TempDir(), "Dept", zap.NewNop())

	line := approvedLineFixture()
	line.ReceiptNumber = ""
	_, err := writer.WriteReceipt(context.Background(), "prog-1", &line)
	assert.Error(t, err)
}

func TestExportClaim(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter("Department of Training Programmes", zap.NewNop())

	claim := &entity.ClaimBill{
		ID:                  "claim-1",
		ProgrammeID:         "prog-1",
		Status:              entity.ClaimStatusUnderReview,
		Expenses:            []entity.ExpenseLine{approvedLineFixture()},
		TotalExpenditure:    4500,
		TotalApprovedAmount: 4500,
		TotalBudgetAmount:   4500,
	}
	ledger := &entity.BudgetLedger{
		TotalIncome:        100000,
		UniversityOverhead: 30000,
		Income: []entity.IncomeLine{{
			Category: "Registration Fee",
			Kind:     entity.IncomeKindRegistration,
			Income:   100000,
		}},
	}

	path := filepath.Join(dir, "statement.xlsx")
	require.NoError(t, exporter.ExportClaim(claim, ledger, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	sheet := f.GetSheetName(0)

	cell := func(ref string) string {
		v, err := f.GetCellValue(sheet, ref)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Claim Statement - Programme prog-1", cell("A2"))
	assert.Equal(t, "Category", cell("A5"))
	assert.Equal(t, "Travel", cell("A6"))
	assert.Equal(t, "4500.00", cell("C6"))
	assert.Equal(t, "RCP-2025-000001", cell("F6"))
	assert.Equal(t, "Total Expenditure", cell("A8"))
	assert.Equal(t, "4500.00", cell("B8"))
}

func TestExportClaimWithoutLedger(t *testing.T) {
	exporter := NewExporter("Dept", zap.NewNop())

	claim := &entity.ClaimBill{ID: "claim-1", ProgrammeID: "prog-1", Status: entity.ClaimStatusPending}
	path := filepath.Join(t.TempDir(), "statement.xlsx")

	assert.NoError(t, exporter.ExportClaim(claim, nil, path))
}
