package payroll

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/jung-kurt/gofpdf"
)

// RenderPayslip draws one record on a single A4 page.
func RenderPayslip(rec Record) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Employee: %s (%s)", rec.EmployeeName, rec.EmployeeID)))
	pdf.Ln(7)
	if rec.Department != "" {
		pdf.Cell(0, 8, tr(fmt.Sprintf("Department: %s", rec.Department)))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Period: %d-%02d", rec.Year, rec.Month))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Payment status: %s", rec.PaymentStatus))
	pdf.Ln(10)

	pdf.Cell(0, 8, fmt.Sprintf("Base salary: %s", rec.BaseSalary.StringFixed(2)))
	pdf.Ln(9)
	section := func(title string, c Components) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, title)
		pdf.Ln(7)
		pdf.SetFont("Helvetica", "", 11)
		names := make([]string, 0, len(c))
		for name := range c {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if c[name].IsZero() {
				continue
			}
			pdf.Cell(90, 7, "  "+name)
			pdf.CellFormat(40, 7, c[name].StringFixed(2), "", 0, "R", false, 0, "")
			pdf.Ln(6)
		}
		pdf.Ln(2)
	}
	section("Allowances", rec.Allowances)
	section("Deductions", rec.Deductions)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total allowances: %s", rec.TotalAllowances.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Total deductions: %s", rec.TotalDeductions.StringFixed(2)))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Net: %s", rec.NetSalary.StringFixed(2)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
