package payslip

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	out, err := Render(Slip{
		SlipNumber:   "SLP-2024-03-3f2a9c1e",
		EmployeeName: "Ana Putri",
		EmployeeCode: "EMP-001",
		PeriodYear:   2024,
		PeriodMonth:  3,
		BaseSalary:   decimal.RequireFromString("8000000"),
		Allowances:   decimal.RequireFromString("500000"),
		Deductions:   decimal.RequireFromString("250000"),
		NetSalary:    decimal.RequireFromString("8250000"),
		IssuedAt:     time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, len(out), 500)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "SLP-2024-03-3f2a9c1e.pdf", Filename("SLP-2024-03-3f2a9c1e"))
}
