package postgresql

import (
	"context"
	"errors"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
	"github.com/bimworks/portal-backend/internal/domain/leave"
	"github.com/bimworks/portal-backend/internal/pkg/database"
)

type leaveBalanceRepositoryImpl struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.LeaveBalanceRepository {
	return &leaveBalanceRepositoryImpl{db: db}
}

const balanceColumns = `
	id, employee_id, year, annual_total, annual_used, sick_total, sick_used,
	casual_total, casual_used, created_at, updated_at
`

func scanBalance(row interface{ Scan(dest ...any) error }) (leave.Balance, error) {
	var b leave.Balance
	err := row.Scan(
		&b.ID, &b.EmployeeID, &b.Year, &b.AnnualTotal, &b.AnnualUsed, &b.SickTotal, &b.SickUsed,
		&b.CasualTotal, &b.CasualUsed, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// Create inserts the balance row, leaving an existing row for the same year
// untouched.
func (r *leaveBalanceRepositoryImpl) Create(ctx context.Context, balance leave.Balance) (leave.Balance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_balances (
			employee_id, year, annual_total, annual_used, sick_total, sick_used, casual_total, casual_used
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT leave_balances_employee_year_key DO NOTHING
	`
	_, err := q.Exec(ctx, query,
		balance.EmployeeID,
		balance.Year,
		balance.AnnualTotal,
		balance.AnnualUsed,
		balance.SickTotal,
		balance.SickUsed,
		balance.CasualTotal,
		balance.CasualUsed,
	)
	if err != nil {
		return leave.Balance{}, mapError(err)
	}

	return r.Get(ctx, balance.EmployeeID, balance.Year)
}

func (r *leaveBalanceRepositoryImpl) Get(ctx context.Context, employeeID string, year int) (leave.Balance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + balanceColumns + ` FROM leave_balances WHERE employee_id = $1 AND year = $2`
	b, err := scanBalance(q.QueryRow(ctx, query, employeeID, year))
	if err != nil {
		err = mapError(err)
		if errors.Is(err, gateway.ErrNotFound) {
			return leave.Balance{}, leave.ErrBalanceNotFound
		}
		return leave.Balance{}, err
	}
	return b, nil
}
