package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bimworks/portal-backend/internal/domain/employee"
	"github.com/bimworks/portal-backend/internal/domain/gateway"
	"github.com/bimworks/portal-backend/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeSelect = `
	SELECT
		e.id, e.user_id, e.employee_code, e.full_name, e.email, e.department, e.designation,
		e.supervisor_id, e.status, e.bank_name, e.bank_account_number, e.base_salary, e.cv_url,
		e.created_at, e.updated_at,
		u.role,
		s.full_name AS supervisor_name
	FROM employees e
	JOIN users u ON u.id = e.user_id
	LEFT JOIN employees s ON s.id = e.supervisor_id
`

func scanEmployee(row interface{ Scan(dest ...any) error }) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(
		&emp.ID, &emp.UserID, &emp.EmployeeCode, &emp.FullName, &emp.Email, &emp.Department, &emp.Designation,
		&emp.SupervisorID, &emp.Status, &emp.BankName, &emp.BankAccountNumber, &emp.BaseSalary, &emp.CVURL,
		&emp.CreatedAt, &emp.UpdatedAt,
		&emp.Role,
		&emp.SupervisorName,
	)
	return emp, err
}

func employeeError(err error) error {
	switch {
	case isUniqueViolation(err, "employees_employee_code_key"):
		return employee.ErrEmployeeCodeExists
	case isUniqueViolation(err, "employees_email_key"):
		return employee.ErrEmailExists
	case isForeignKeyViolation(err, "employees_supervisor_id_fkey"):
		return employee.ErrSupervisorNotFound
	case isForeignKeyViolation(err, ""):
		return employee.ErrEmployeeInUse
	}
	err = mapError(err)
	if errors.Is(err, gateway.ErrNotFound) {
		return employee.ErrEmployeeNotFound
	}
	return err
}

// Create implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employees (
			user_id, employee_code, full_name, email, department, designation,
			supervisor_id, status, bank_name, bank_account_number, base_salary
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query,
		newEmployee.UserID,
		newEmployee.EmployeeCode,
		newEmployee.FullName,
		newEmployee.Email,
		newEmployee.Department,
		newEmployee.Designation,
		newEmployee.SupervisorID,
		newEmployee.Status,
		newEmployee.BankName,
		newEmployee.BankAccountNumber,
		newEmployee.BaseSalary,
	).Scan(&id)
	if err != nil {
		return employee.Employee{}, employeeError(err)
	}

	return r.GetByID(ctx, id)
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	return r.getOne(ctx, "e.id = $1", id)
}

// GetByUserID implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	return r.getOne(ctx, "e.user_id = $1", userID)
}

// GetByEmployeeCode implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByEmployeeCode(ctx context.Context, code string) (employee.Employee, error) {
	return r.getOne(ctx, "UPPER(e.employee_code) = UPPER($1)", code)
}

func (r *employeeRepositoryImpl) getOne(ctx context.Context, where string, arg any) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	emp, err := scanEmployee(q.QueryRow(ctx, employeeSelect+" WHERE "+where, arg))
	if err != nil {
		return employee.Employee{}, employeeError(err)
	}
	return emp, nil
}

// List implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(e.full_name ILIKE $%d OR e.employee_code ILIKE $%d OR e.email ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("e.department = $%d", argIdx))
		args = append(args, filter.Department)
		argIdx++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM employees e WHERE %s", whereClause)
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count employees: %w", mapError(err))
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`%s
		WHERE %s
		ORDER BY e.employee_code ASC
		LIMIT $%d OFFSET $%d
	`, employeeSelect, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list employees: %w", mapError(err))
	}
	defer rows.Close()

	employees := []employee.Employee{}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, mapError(err)
	}

	return employees, total, nil
}

// Update implements employee.EmployeeRepository. It writes every mutable
// column; callers load the record and apply the patch first.
func (r *employeeRepositoryImpl) Update(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employees
		SET full_name = $1, department = $2, designation = $3, supervisor_id = $4, status = $5,
			bank_name = $6, bank_account_number = $7, base_salary = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query,
		e.FullName,
		e.Department,
		e.Designation,
		e.SupervisorID,
		e.Status,
		e.BankName,
		e.BankAccountNumber,
		e.BaseSalary,
		e.ID,
	).Scan(&id)
	if err != nil {
		return employee.Employee{}, employeeError(err)
	}

	return r.GetByID(ctx, id)
}

// UpdateCVURL implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) UpdateCVURL(ctx context.Context, id string, cvURL *string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE employees SET cv_url = $1, updated_at = NOW() WHERE id = $2`, cvURL, id)
	if err != nil {
		return employeeError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// Delete implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return employeeError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// SupervisorChain implements employee.EmployeeRepository. The walk stops on
// a repeated id so corrupted data cannot loop forever.
func (r *employeeRepositoryImpl) SupervisorChain(ctx context.Context, employeeID string) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH RECURSIVE chain (id, depth, path) AS (
			SELECT e.supervisor_id, 1, ARRAY[e.id]
			FROM employees e
			WHERE e.id = $1 AND e.supervisor_id IS NOT NULL
			UNION ALL
			SELECT s.supervisor_id, c.depth + 1, c.path || s.id
			FROM chain c
			JOIN employees s ON s.id = c.id
			WHERE s.supervisor_id IS NOT NULL AND NOT s.id = ANY(c.path)
		)
		SELECT id::text FROM chain ORDER BY depth
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var chain []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		chain = append(chain, id)
	}
	return chain, mapError(rows.Err())
}
