package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/driveon/rental-billing/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// Generate renders the payment receipt of one paid charge.
func (g *Generator) Generate(doc model.ReceiptDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, "Payment Receipt", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Contract %s, reference month %s",
		doc.Contract.Number, doc.Charge.ReferenceMonth.Format("January 2006")), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Issued by", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, doc.Branch.LegalName, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Document: %s", doc.Branch.Document), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, doc.Branch.Address, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Phone: %s", doc.Branch.Phone), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Charge", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)

	headers := []string{"Reference month", "Due date", "Amount", "Penalty", "Days late"}
	colWidths := []float64{38, 32, 36, 36, 28}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)

	row := []string{
		doc.Charge.ReferenceMonth.Format("2006-01"),
		formatDate(doc.Charge.DueDate),
		formatAmount(doc.Charge.Amount),
		formatAmount(doc.Charge.PenaltyAmount),
		fmt.Sprintf("%d", doc.Charge.DaysLate),
	}
	drawTableRow(pdf, g.fontName, row, colWidths, false)

	pdf.Ln(4)
	pdf.SetFont(g.fontName, "", 11)
	total := doc.Charge.Amount.Add(doc.Charge.PenaltyAmount)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total received: %s", formatAmount(total)), "", 1, "R", false, 0, "")
	if doc.Charge.PaidAt != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Paid on %s", formatDate(*doc.Charge.PaidAt)), "", 1, "R", false, 0, "")
	}
	if doc.Charge.PaymentMethod != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Payment method: %s", *doc.Charge.PaymentMethod), "", 1, "R", false, 0, "")
	}
	if doc.Charge.Notes != nil && *doc.Charge.Notes != "" {
		pdf.Ln(4)
		pdf.MultiCell(0, 6, fmt.Sprintf("Notes: %s", *doc.Charge.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cells []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, cell := range cells {
		align := "L"
		if i > 1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, cell, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
