package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/attendance"
	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/employee"
	"github.com/bimworks/portal-backend/internal/domain/leave"
	"github.com/bimworks/portal-backend/internal/domain/payroll"
	"github.com/bimworks/portal-backend/internal/domain/user"
	"github.com/bimworks/portal-backend/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSetup *TestDatabaseSetup

func TestMain(m *testing.M) {
	ctx := context.Background()
	setup, err := NewTestDatabase(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	testSetup = setup

	code := m.Run()
	if testSetup != nil {
		testSetup.Close()
	}
	os.Exit(code)
}

func requireDB(t *testing.T) context.Context {
	t.Helper()
	if testSetup == nil {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	require.NoError(t, testSetup.TruncateAllTables(ctx))
	return ctx
}

func createEmployee(t *testing.T, ctx context.Context, code string, supervisorID *string) employee.Employee {
	t.Helper()
	users := postgresql.NewUserRepository(testSetup.DB)
	employees := postgresql.NewEmployeeRepository(testSetup.DB)

	email := code + "@bimworks.test"
	u, err := users.Create(ctx, user.User{Email: email, Role: user.RoleEmployee})
	require.NoError(t, err)

	emp, err := employees.Create(ctx, employee.Employee{
		UserID:       u.ID,
		EmployeeCode: code,
		FullName:     "Employee " + code,
		Email:        email,
		SupervisorID: supervisorID,
		Status:       employee.StatusActive,
		BaseSalary:   decimal.NewFromInt(5000000),
	})
	require.NoError(t, err)
	return emp
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	ctx := requireDB(t)
	repo := postgresql.NewUserRepository(testSetup.DB)

	_, err := repo.Create(ctx, user.User{Email: "dup@bimworks.test", Role: user.RoleAdmin})
	require.NoError(t, err)

	_, err = repo.Create(ctx, user.User{Email: "DUP@bimworks.test", Role: user.RoleEmployee})
	assert.ErrorIs(t, err, user.ErrUserEmailExists)

	_, err = repo.GetByEmail(ctx, "missing@bimworks.test")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestRefreshTokenRepository_RotateOnce(t *testing.T) {
	ctx := requireDB(t)
	emp := createEmployee(t, ctx, "EMP-001", nil)
	repo := postgresql.NewRefreshTokenRepository(testSetup.DB)

	expires := time.Now().Add(time.Hour).Unix()
	require.NoError(t, repo.Create(ctx, emp.UserID, "old-token", expires, auth.SessionTrackingRequest{}))

	var wg sync.WaitGroup
	results := make([]error, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = repo.Rotate(ctx, "old-token", fmt.Sprintf("new-token-%d", i), expires, auth.SessionTrackingRequest{})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, auth.ErrRefreshTokenRevoked)
		}
	}
	assert.Equal(t, 1, succeeded)

	userID, err := repo.Revoke(ctx, "old-token")
	require.NoError(t, err)
	assert.Equal(t, emp.UserID, userID)
}

func TestEmployeeRepository_SupervisorChain(t *testing.T) {
	ctx := requireDB(t)
	top := createEmployee(t, ctx, "EMP-100", nil)
	mid := createEmployee(t, ctx, "EMP-200", &top.ID)
	low := createEmployee(t, ctx, "EMP-300", &mid.ID)

	repo := postgresql.NewEmployeeRepository(testSetup.DB)
	chain, err := repo.SupervisorChain(ctx, low.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{mid.ID, top.ID}, chain)

	_, err = repo.Create(ctx, employee.Employee{
		UserID:       low.UserID,
		EmployeeCode: "EMP-300",
		FullName:     "Duplicate",
		Email:        "other@bimworks.test",
		Status:       employee.StatusActive,
	})
	assert.Error(t, err)
}

func TestAttendanceRepository_DuplicateCheckIn(t *testing.T) {
	ctx := requireDB(t)
	emp := createEmployee(t, ctx, "EMP-001", nil)
	repo := postgresql.NewAttendanceRepository(testSetup.DB)

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rec, err := attendance.NewCheckIn(emp.ID, now, time.UTC, "10.0.0.1")
	require.NoError(t, err)

	created, err := repo.Create(ctx, rec)
	require.NoError(t, err)

	_, err = repo.Create(ctx, rec)
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	require.NoError(t, created.CheckOut(now.Add(9*time.Hour)))
	saved, err := repo.SaveCheckOut(ctx, created)
	require.NoError(t, err)
	assert.True(t, saved.TotalHours.Decimal.Equal(decimal.RequireFromString("9")))

	_, err = repo.SaveCheckOut(ctx, created)
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
}

func TestLeaveRequestRepository_ApprovalOrder(t *testing.T) {
	ctx := requireDB(t)
	sup := createEmployee(t, ctx, "EMP-100", nil)
	emp := createEmployee(t, ctx, "EMP-200", &sup.ID)
	repo := postgresql.NewLeaveRequestRepository(testSetup.DB)

	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	req, err := leave.NewRequest(emp.ID, start, start.AddDate(0, 0, 2), leave.TypeAnnual, "family trip")
	require.NoError(t, err)

	rec, err := repo.Create(ctx, req.ToRecord())
	require.NoError(t, err)

	_, err = repo.ApproveAdmin(ctx, rec.ID, sup.UserID, time.Now())
	assert.ErrorIs(t, err, leave.ErrSupervisorApprovalRequired)

	_, err = repo.ApproveSupervisor(ctx, rec.ID, sup.UserID, time.Now())
	require.NoError(t, err)
	_, err = repo.ApproveSupervisor(ctx, rec.ID, sup.UserID, time.Now())
	assert.ErrorIs(t, err, leave.ErrLeaveRequestAlreadyProcessed)

	approved, err := repo.ApproveAdmin(ctx, rec.ID, sup.UserID, time.Now())
	require.NoError(t, err)
	full, err := leave.FromRecord(approved)
	require.NoError(t, err)
	assert.Equal(t, leave.StateFullyApproved, full.State())
	assert.Equal(t, 3, full.Days())
}

func TestAttendanceRepository_LeaveOverlapsMonth(t *testing.T) {
	ctx := requireDB(t)
	emp := createEmployee(t, ctx, "EMP-001", nil)
	attendanceRepo := postgresql.NewAttendanceRepository(testSetup.DB)
	leaveRepo := postgresql.NewLeaveRequestRepository(testSetup.DB)

	start := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	req, err := leave.NewRequest(emp.ID, start, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), leave.TypeAnnual, "trip")
	require.NoError(t, err)
	_, err = leaveRepo.Create(ctx, req.ToRecord())
	require.NoError(t, err)

	early := time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC)
	req, err = leave.NewRequest(emp.ID, early, early.AddDate(0, 0, 1), leave.TypeSick, "flu")
	require.NoError(t, err)
	_, err = leaveRepo.Create(ctx, req.ToRecord())
	require.NoError(t, err)

	from, to := attendance.MonthRange(2024, time.March)
	records, err := attendanceRepo.ListByDateRange(ctx, emp.ID, from, to)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Date.Equal(start))
	assert.Equal(t, 1, attendance.Summarize(records).Leave)

	from, to = attendance.MonthRange(2024, time.February)
	records, err = attendanceRepo.ListByDateRange(ctx, emp.ID, from, to)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestAttendanceRepository_ManualEntryKeepsLeave(t *testing.T) {
	ctx := requireDB(t)
	emp := createEmployee(t, ctx, "EMP-001", nil)
	attendanceRepo := postgresql.NewAttendanceRepository(testSetup.DB)
	leaveRepo := postgresql.NewLeaveRequestRepository(testSetup.DB)

	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	req, err := leave.NewRequest(emp.ID, day, day.AddDate(0, 0, 1), leave.TypeAnnual, "trip")
	require.NoError(t, err)
	created, err := leaveRepo.Create(ctx, req.ToRecord())
	require.NoError(t, err)

	_, err = attendanceRepo.UpsertManual(ctx, attendance.Record{
		EmployeeID:    emp.ID,
		Date:          day,
		Status:        attendance.StatusPresent,
		AdminApproved: true,
	})
	assert.ErrorIs(t, err, attendance.ErrDayHasLeaveRequest)

	kept, err := leaveRepo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, kept.LeaveType)
	assert.False(t, kept.AdminApproved)
}

func TestLeaveRequestRepository_LockHoldsOffApproval(t *testing.T) {
	ctx := requireDB(t)
	sup := createEmployee(t, ctx, "EMP-100", nil)
	emp := createEmployee(t, ctx, "EMP-200", &sup.ID)
	repo := postgresql.NewLeaveRequestRepository(testSetup.DB)
	tx := postgresql.NewTxManager(testSetup.DB)

	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	req, err := leave.NewRequest(emp.ID, start, start, leave.TypeCasual, "errand")
	require.NoError(t, err)
	rec, err := repo.Create(ctx, req.ToRecord())
	require.NoError(t, err)
	_, err = repo.ApproveSupervisor(ctx, rec.ID, sup.UserID, time.Now())
	require.NoError(t, err)

	approveErr := make(chan error, 1)
	err = tx.WithinTx(ctx, func(txCtx context.Context) error {
		if _, err := repo.GetByIDForUpdate(txCtx, rec.ID); err != nil {
			return err
		}
		go func() {
			_, err := repo.ApproveAdmin(ctx, rec.ID, sup.UserID, time.Now())
			approveErr <- err
		}()
		time.Sleep(100 * time.Millisecond)
		_, err := repo.Delete(txCtx, rec.ID)
		return err
	})
	require.NoError(t, err)

	select {
	case err := <-approveErr:
		assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)
	case <-time.After(5 * time.Second):
		t.Fatal("approval did not finish after the lock was released")
	}
}

func TestPayrollRepository_DecideAndSlips(t *testing.T) {
	ctx := requireDB(t)
	emp := createEmployee(t, ctx, "EMP-001", nil)
	payrolls := postgresql.NewPayrollRepository(testSetup.DB)
	slips := postgresql.NewSalarySlipRepository(testSetup.DB)

	base := decimal.NewFromInt(5000000)
	p, err := payrolls.Create(ctx, payroll.Payroll{
		EmployeeID:  emp.ID,
		PeriodYear:  2025,
		PeriodMonth: 5,
		BaseSalary:  base,
		NetSalary:   base,
		Status:      payroll.StatusPending,
	})
	require.NoError(t, err)

	decided, err := payrolls.Decide(ctx, []string{p.ID}, payroll.StatusApproved, emp.UserID, nil, time.Now())
	require.NoError(t, err)
	require.Len(t, decided, 1)

	again, err := payrolls.Decide(ctx, []string{p.ID}, payroll.StatusRejected, emp.UserID, nil, time.Now())
	require.NoError(t, err)
	assert.Empty(t, again)

	slip := payroll.NewSlip(decided[0], time.Now())
	n, err := slips.CreateIfAbsent(ctx, []payroll.SalarySlip{slip})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = slips.CreateIfAbsent(ctx, []payroll.SalarySlip{slip})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	listed, err := slips.ListByEmployee(ctx, emp.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "SLP-2025-05-"+emp.ID[:8], listed[0].SlipNumber)
}
