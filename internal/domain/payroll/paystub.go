package payroll

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// PaystubRenderer writes paystub PDFs under a configured directory.
type PaystubRenderer struct {
	Dir string
}

func NewPaystubRenderer(dir string) *PaystubRenderer {
	if dir == "" {
		return nil
	}
	return &PaystubRenderer{Dir: dir}
}

// Render writes the PDF for a record and its snapshot, returning the file
// path. The file is named by record so regeneration overwrites in place.
func (r *PaystubRenderer) Render(rec Record, stub Paystub) (string, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join(r.Dir, "paystub-"+rec.ID+".pdf")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Driver Paystub")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Driver: %s", stub.EmployeeName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Pay period: %s to %s",
		rec.WeekStart.Format("2006-01-02"), rec.WeekEnd.Format("2006-01-02")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Earnings")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	line(pdf, fmt.Sprintf("Base pay (%d loads, %s miles)", rec.TotalLoads, rec.TotalMiles.StringFixed(1)), rec.BasePay)
	line(pdf, "Bonus", rec.BonusAmount)
	line(pdf, "Overtime", rec.Overtime)
	line(pdf, "Reimbursements", rec.Reimbursements)
	line(pdf, "Other earnings", rec.OtherEarnings)
	line(pdf, "Gross pay", rec.GrossPay)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Deductions")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	line(pdf, "Fuel", rec.FuelDeductions)
	line(pdf, "Advance repayments", rec.AdvanceRepayments)
	line(pdf, "Recurring fees", rec.RecurringFees)
	line(pdf, "Escrow deposits", rec.EscrowDeposits)
	line(pdf, "Other deductions", rec.OtherDeductions)
	line(pdf, "Total deductions", rec.TotalDeductions)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	line(pdf, "Net pay", rec.NetPay)

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}
	return filePath, nil
}

func line(pdf *gofpdf.Fpdf, label string, amount decimal.Decimal) {
	pdf.Cell(120, 7, label)
	pdf.CellFormat(40, 7, "$"+amount.StringFixed(2), "", 0, "R", false, 0, "")
	pdf.Ln(7)
}
