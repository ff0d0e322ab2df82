// Package payslip renders salary slips as PDF documents.
package payslip

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

type Slip struct {
	SlipNumber   string
	EmployeeName string
	EmployeeCode string
	Department   string
	BankName     string
	BankAccount  string
	PeriodYear   int
	PeriodMonth  int
	BaseSalary   decimal.Decimal
	Allowances   decimal.Decimal
	Deductions   decimal.Decimal
	NetSalary    decimal.Decimal
	IssuedAt     time.Time
}

// Render returns the slip as PDF bytes.
func Render(s Slip) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Salary slip "+s.SlipNumber, false)
	pdf.SetCreator("BIM Works Portal", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Salary Slip")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, s.SlipNumber)
	pdf.Ln(10)

	period := time.Date(s.PeriodYear, time.Month(s.PeriodMonth), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
	info := [][2]string{
		{"Employee", s.EmployeeName},
		{"Employee ID", s.EmployeeCode},
		{"Department", s.Department},
		{"Period", period},
		{"Bank", s.BankName},
		{"Account", s.BankAccount},
		{"Issued", s.IssuedAt.Format("2006-01-02")},
	}
	for _, row := range info {
		if row[1] == "" {
			continue
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(40, 7, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	amounts := [][2]string{
		{"Base salary", s.BaseSalary.StringFixed(2)},
		{"Allowances", s.Allowances.StringFixed(2)},
		{"Deductions", "-" + s.Deductions.StringFixed(2)},
	}
	pdf.SetFont("Helvetica", "", 11)
	for _, row := range amounts {
		pdf.CellFormat(120, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 8, row[1], "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 236, 242)
	pdf.CellFormat(120, 9, "Net salary", "1", 0, "L", true, 0, "")
	pdf.CellFormat(60, 9, s.NetSalary.StringFixed(2), "1", 1, "R", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render salary slip: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename is the download name for a slip.
func Filename(slipNumber string) string {
	return slipNumber + ".pdf"
}
