package postgresql

import (
	"context"
	"errors"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/payroll"
	"github.com/bimworks/portal-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type salarySlipRepositoryImpl struct {
	db *database.DB
}

func NewSalarySlipRepository(db *database.DB) payroll.SalarySlipRepository {
	return &salarySlipRepositoryImpl{db: db}
}

const slipSelect = `
	SELECT
		s.id, s.payroll_id, s.employee_id, s.slip_number, s.period_year, s.period_month, s.net_salary, s.issued_at,
		p.id, p.employee_id, p.period_year, p.period_month, p.base_salary, p.allowances, p.deductions,
		p.net_salary, p.status, p.approved_by, p.approved_at, p.remarks, p.created_at, p.updated_at,
		e.full_name, e.employee_code, e.bank_name, e.bank_account_number
	FROM salary_slips s
	JOIN payrolls p ON p.id = s.payroll_id
	JOIN employees e ON e.id = s.employee_id
`

func scanSlip(row interface{ Scan(dest ...any) error }) (payroll.SalarySlip, error) {
	var s payroll.SalarySlip
	var p payroll.Payroll
	err := row.Scan(
		&s.ID, &s.PayrollID, &s.EmployeeID, &s.SlipNumber, &s.PeriodYear, &s.PeriodMonth, &s.NetSalary, &s.IssuedAt,
		&p.ID, &p.EmployeeID, &p.PeriodYear, &p.PeriodMonth, &p.BaseSalary, &p.Allowances, &p.Deductions,
		&p.NetSalary, &p.Status, &p.ApprovedBy, &p.ApprovedAt, &p.Remarks, &p.CreatedAt, &p.UpdatedAt,
		&p.EmployeeName, &p.EmployeeCode, &p.BankName, &p.BankAccount,
	)
	s.Payroll = &p
	return s, err
}

// CreateIfAbsent implements payroll.SalarySlipRepository. It issues a single
// INSERT over unnested arrays and relies on the slip number and payroll id
// constraints to skip slips that were issued before.
func (r *salarySlipRepositoryImpl) CreateIfAbsent(ctx context.Context, slips []payroll.SalarySlip) (int64, error) {
	if len(slips) == 0 {
		return 0, nil
	}

	n := len(slips)
	payrollIDs := make([]string, n)
	employeeIDs := make([]string, n)
	numbers := make([]string, n)
	years := make([]int32, n)
	months := make([]int32, n)
	nets := make([]string, n)
	issued := make([]time.Time, n)
	for i, s := range slips {
		payrollIDs[i] = s.PayrollID
		employeeIDs[i] = s.EmployeeID
		numbers[i] = s.SlipNumber
		years[i] = int32(s.PeriodYear)
		months[i] = int32(s.PeriodMonth)
		nets[i] = s.NetSalary.StringFixed(2)
		issued[i] = s.IssuedAt
	}

	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO salary_slips (payroll_id, employee_id, slip_number, period_year, period_month, net_salary, issued_at)
		SELECT * FROM unnest(
			$1::uuid[], $2::uuid[], $3::text[], $4::int[], $5::int[], $6::text[]::numeric[], $7::timestamptz[]
		)
		ON CONFLICT DO NOTHING
	`
	tag, err := q.Exec(ctx, query, payrollIDs, employeeIDs, numbers, years, months, nets, issued)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *salarySlipRepositoryImpl) GetByID(ctx context.Context, id string) (payroll.SalarySlip, error) {
	q := GetQuerier(ctx, r.db)

	s, err := scanSlip(q.QueryRow(ctx, slipSelect+" WHERE s.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalarySlip{}, payroll.ErrSlipNotFound
		}
		return payroll.SalarySlip{}, mapError(err)
	}
	return s, nil
}

func (r *salarySlipRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string) ([]payroll.SalarySlip, error) {
	q := GetQuerier(ctx, r.db)

	query := slipSelect + `
		WHERE s.employee_id = $1
		ORDER BY s.period_year DESC, s.period_month DESC
	`
	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	slips := []payroll.SalarySlip{}
	for rows.Next() {
		s, err := scanSlip(rows)
		if err != nil {
			return nil, err
		}
		slips = append(slips, s)
	}
	return slips, mapError(rows.Err())
}
