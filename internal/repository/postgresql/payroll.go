package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
	"github.com/bimworks/portal-backend/internal/domain/payroll"
	"github.com/bimworks/portal-backend/internal/pkg/database"
)

type payrollRepositoryImpl struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepositoryImpl{db: db}
}

const payrollSelect = `
	SELECT
		p.id, p.employee_id, p.period_year, p.period_month, p.base_salary, p.allowances, p.deductions,
		p.net_salary, p.status, p.approved_by, p.approved_at, p.remarks, p.created_at, p.updated_at,
		e.full_name, e.employee_code, e.bank_name, e.bank_account_number
	FROM payrolls p
	JOIN employees e ON e.id = p.employee_id
`

func scanPayroll(row interface{ Scan(dest ...any) error }) (payroll.Payroll, error) {
	var p payroll.Payroll
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.PeriodYear, &p.PeriodMonth, &p.BaseSalary, &p.Allowances, &p.Deductions,
		&p.NetSalary, &p.Status, &p.ApprovedBy, &p.ApprovedAt, &p.Remarks, &p.CreatedAt, &p.UpdatedAt,
		&p.EmployeeName, &p.EmployeeCode, &p.BankName, &p.BankAccount,
	)
	return p, err
}

func payrollError(err error) error {
	if isUniqueViolation(err, "payrolls_employee_period_key") {
		return payroll.ErrPayrollAlreadyExists
	}
	err = mapError(err)
	if errors.Is(err, gateway.ErrNotFound) {
		return payroll.ErrPayrollNotFound
	}
	return err
}

// Create implements payroll.PayrollRepository.
func (r *payrollRepositoryImpl) Create(ctx context.Context, p payroll.Payroll) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payrolls (
			employee_id, period_year, period_month, base_salary, allowances, deductions, net_salary, status, remarks
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query,
		p.EmployeeID,
		p.PeriodYear,
		p.PeriodMonth,
		p.BaseSalary,
		p.Allowances,
		p.Deductions,
		p.NetSalary,
		p.Status,
		p.Remarks,
	).Scan(&id)
	if err != nil {
		return payroll.Payroll{}, payrollError(err)
	}
	return r.GetByID(ctx, id)
}

// GetByID implements payroll.PayrollRepository.
func (r *payrollRepositoryImpl) GetByID(ctx context.Context, id string) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanPayroll(q.QueryRow(ctx, payrollSelect+" WHERE p.id = $1", id))
	if err != nil {
		return payroll.Payroll{}, payrollError(err)
	}
	return p, nil
}

// List implements payroll.PayrollRepository.
func (r *payrollRepositoryImpl) List(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.Payroll, int64, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("p.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Year != nil {
		conditions = append(conditions, fmt.Sprintf("p.period_year = $%d", argIdx))
		args = append(args, *filter.Year)
		argIdx++
	}
	if filter.Month != nil {
		conditions = append(conditions, fmt.Sprintf("p.period_month = $%d", argIdx))
		args = append(args, *filter.Month)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM payrolls p WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payrolls: %w", mapError(err))
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`%s
		WHERE %s
		ORDER BY p.period_year DESC, p.period_month DESC, e.employee_code ASC
		LIMIT $%d OFFSET $%d
	`, payrollSelect, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	payrolls, err := r.collect(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payrolls: %w", err)
	}
	return payrolls, total, nil
}

// Decide implements payroll.PayrollRepository.
func (r *payrollRepositoryImpl) Decide(ctx context.Context, ids []string, status payroll.Status, approvedBy string, remarks *string, at time.Time) ([]payroll.Payroll, error) {
	if len(ids) == 0 {
		return []payroll.Payroll{}, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payrolls
		SET status = $1, approved_by = $2, approved_at = $3, remarks = COALESCE($4, remarks), updated_at = NOW()
		WHERE id = ANY($5::uuid[]) AND status = 'pending'
		RETURNING id
	`
	rows, err := q.Query(ctx, query, status, approvedBy, at, remarks, ids)
	if err != nil {
		return nil, mapError(err)
	}
	var changed []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		changed = append(changed, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	if len(changed) == 0 {
		return []payroll.Payroll{}, nil
	}

	return r.collect(ctx, payrollSelect+" WHERE p.id = ANY($1::uuid[]) ORDER BY e.employee_code ASC", changed)
}

func (r *payrollRepositoryImpl) collect(ctx context.Context, query string, args ...any) ([]payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	payrolls := []payroll.Payroll{}
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, err
		}
		payrolls = append(payrolls, p)
	}
	return payrolls, mapError(rows.Err())
}
