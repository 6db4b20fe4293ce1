package excel

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/driveon/rental-billing/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders a charge statement workbook: one summary sheet and one
// detail sheet per charge status present in the period.
func (g *Generator) Generate(statement model.ChargeStatement) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, statement); err != nil {
		return nil, err
	}

	for _, group := range statement.Groups {
		sheetName := statusLabel(group.Status)
		file.NewSheet(sheetName)
		if err := g.writeDetail(file, sheetName, group); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, statement model.ChargeStatement) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	branchName := "All branches"
	if statement.Branch != nil {
		branchName = statement.Branch.Name
	}

	set("A1", "Branch")
	set("B1", branchName)
	set("A2", "Period start")
	set("B2", formatDate(statement.PeriodStart))
	set("A3", "Period end")
	set("B3", formatDate(statement.PeriodEnd))
	set("A4", "Total billed")
	set("B4", formatAmount(statement.TotalBilled))
	set("A5", "Total received")
	set("B5", formatAmount(statement.TotalPaid))
	set("A6", "Total outstanding")
	set("B6", formatAmount(statement.TotalOpen))

	tableRow := 8
	set(fmt.Sprintf("A%d", tableRow), "Status")
	set(fmt.Sprintf("B%d", tableRow), "Charges")
	set(fmt.Sprintf("C%d", tableRow), "Amount")

	for i, group := range statement.Groups {
		row := tableRow + 1 + i
		total := decimal.Zero
		for _, item := range group.Rows {
			total = total.Add(item.Charge.Amount)
		}
		set(fmt.Sprintf("A%d", row), statusLabel(group.Status))
		set(fmt.Sprintf("B%d", row), len(group.Rows))
		set(fmt.Sprintf("C%d", row), formatAmount(total))
	}

	_ = file.SetColWidth(sheet, "A", "A", 24)
	_ = file.SetColWidth(sheet, "B", "B", 16)
	_ = file.SetColWidth(sheet, "C", "C", 16)
	return nil
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, group model.StatementGroup) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Contract", "Reference month", "Due date", "Amount", "Days late", "Penalty", "Paid at", "Method", "Notes"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		set(cell, header)
	}

	for i, item := range group.Rows {
		row := i + 2
		set(fmt.Sprintf("A%d", row), item.ContractNumber)
		set(fmt.Sprintf("B%d", row), item.Charge.ReferenceMonth.Format("2006-01"))
		set(fmt.Sprintf("C%d", row), formatDate(item.Charge.DueDate))
		set(fmt.Sprintf("D%d", row), formatAmount(item.Charge.Amount))
		set(fmt.Sprintf("E%d", row), item.Charge.DaysLate)
		set(fmt.Sprintf("F%d", row), formatAmount(item.Charge.PenaltyAmount))
		if item.Charge.PaidAt != nil {
			set(fmt.Sprintf("G%d", row), formatDate(*item.Charge.PaidAt))
		}
		if item.Charge.PaymentMethod != nil {
			set(fmt.Sprintf("H%d", row), *item.Charge.PaymentMethod)
		}
		if item.Charge.Notes != nil {
			set(fmt.Sprintf("I%d", row), *item.Charge.Notes)
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 18)
	_ = file.SetColWidth(sheet, "B", "C", 14)
	_ = file.SetColWidth(sheet, "D", "F", 12)
	_ = file.SetColWidth(sheet, "G", "H", 14)
	_ = file.SetColWidth(sheet, "I", "I", 32)
	return nil
}

func statusLabel(status model.ChargeStatus) string {
	switch status {
	case model.ChargeStatusPending:
		return "Pending"
	case model.ChargeStatusOverdue:
		return "Overdue"
	case model.ChargeStatusPaid:
		return "Paid"
	case model.ChargeStatusCancelled:
		return "Cancelled"
	default:
		return string(status)
	}
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
