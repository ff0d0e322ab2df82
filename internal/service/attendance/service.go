package attendance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/attendance"
	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/employee"
	"github.com/bimworks/portal-backend/internal/domain/user"
	"github.com/bimworks/portal-backend/internal/domain/whitelist"
	"github.com/bimworks/portal-backend/internal/pkg/report"
	"golang.org/x/sync/errgroup"
)

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	whitelist    whitelist.WhitelistRepository
	employeeRepo employee.EmployeeRepository
	loc          *time.Location
	now          func() time.Time
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	whitelistRepo whitelist.WhitelistRepository,
	employeeRepo employee.EmployeeRepository,
	loc *time.Location,
) *AttendanceServiceImpl {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		whitelist:            whitelistRepo,
		employeeRepo:         employeeRepo,
		loc:                  loc,
		now:                  time.Now,
	}
}

// timePtrToString safely converts a *time.Time to a string in loc.
func timePtrToString(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	format := t.In(loc).Format(time.RFC3339)
	return &format
}

func datePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format("2006-01-02")
	return &format
}

func approvalResponse(approved bool, by *string, at *time.Time, loc *time.Location) attendance.ApprovalResponse {
	return attendance.ApprovalResponse{
		Approved:   approved,
		ApprovedBy: by,
		ApprovedAt: timePtrToString(at, loc),
	}
}

// ToResponse maps a record onto its API shape.
func ToResponse(r attendance.Record, loc *time.Location) attendance.AttendanceResponse {
	resp := attendance.AttendanceResponse{
		ID:            r.ID,
		EmployeeID:    r.EmployeeID,
		EmployeeName:  r.EmployeeName,
		EmployeeCode:  r.EmployeeCode,
		Date:          r.Date.Format("2006-01-02"),
		Status:        string(r.Status),
		CheckInTime:   timePtrToString(r.CheckInTime, loc),
		CheckOutTime:  timePtrToString(r.CheckOutTime, loc),
		IPAddress:     r.IPAddress,
		ManuallyAdded: r.ManuallyAdded,
		LeaveType:     r.LeaveType,
		LeaveStart:    datePtrToString(r.LeaveStartDate),
		LeaveEnd:      datePtrToString(r.LeaveEndDate),
		Supervisor:    approvalResponse(r.SupervisorApproved, r.SupervisorApprovedBy, r.SupervisorApprovedAt, loc),
		Admin:         approvalResponse(r.AdminApproved, r.AdminApprovedBy, r.AdminApprovedAt, loc),
	}
	if r.TotalHours.Valid {
		hours := r.TotalHours.Decimal.InexactFloat64()
		resp.TotalHours = &hours
	}
	return resp
}

// CheckIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckIn(ctx context.Context, actor auth.Principal, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	if actor.EmployeeID == "" {
		return attendance.AttendanceResponse{}, auth.ErrNoEmployeeProfile
	}

	addr, err := netip.ParseAddr(req.IPAddress)
	if err != nil {
		return attendance.AttendanceResponse{}, attendance.ErrMissingClientIP
	}
	ip := addr.Unmap().String()

	allowed, err := a.whitelist.IsActive(ctx, ip)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to check ip whitelist: %w", err)
	}
	if !allowed {
		slog.Warn("check-in from unauthorized network", "employee_id", actor.EmployeeID, "ip", ip)
		return attendance.AttendanceResponse{}, attendance.ErrNetworkNotAuthorized
	}

	record, err := attendance.NewCheckIn(actor.EmployeeID, a.now(), a.loc, ip)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	// The (employee_id, date) constraint decides duplicates.
	created, err := a.AttendanceRepository.Create(ctx, record)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return ToResponse(created, a.loc), nil
}

// CheckOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckOut(ctx context.Context, actor auth.Principal, recordID string) (attendance.AttendanceResponse, error) {
	record, err := a.AttendanceRepository.GetByID(ctx, recordID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if record.EmployeeID != actor.EmployeeID {
		return attendance.AttendanceResponse{}, attendance.ErrNotRecordOwner
	}

	if err := record.CheckOut(a.now()); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	saved, err := a.AttendanceRepository.SaveCheckOut(ctx, record)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return ToResponse(saved, a.loc), nil
}

// ManualEntry implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ManualEntry(ctx context.Context, actor auth.Principal, req attendance.ManualEntryRequest) (attendance.AttendanceResponse, error) {
	if !actor.Can(user.PermissionAttendanceManual) {
		return attendance.AttendanceResponse{}, user.ErrAdminAccessRequired
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if _, err := a.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	date, _ := time.Parse("2006-01-02", req.Date)
	now := a.now().UTC()
	record := attendance.Record{
		EmployeeID:      req.EmployeeID,
		Date:            date,
		Status:          attendance.Status(req.Status),
		CheckInTime:     a.wallClock(date, req.CheckIn),
		CheckOutTime:    a.wallClock(date, req.CheckOut),
		ManuallyAdded:   true,
		AdminApproved:   true,
		AdminApprovedBy: &actor.UserID,
		AdminApprovedAt: &now,
	}
	if record.CheckInTime != nil && record.CheckOutTime != nil {
		record.TotalHours.Decimal = attendance.WorkedHours(*record.CheckInTime, *record.CheckOutTime)
		record.TotalHours.Valid = true
	}

	saved, err := a.AttendanceRepository.UpsertManual(ctx, record)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("manual attendance entry", "employee_id", saved.EmployeeID, "date", req.Date, "by", actor.UserID)
	return ToResponse(saved, a.loc), nil
}

// wallClock places an "HH:MM" clock on date in the office timezone.
func (a *AttendanceServiceImpl) wallClock(date time.Time, clock *string) *time.Time {
	if clock == nil {
		return nil
	}
	c, _ := time.Parse("15:04", *clock)
	t := time.Date(date.Year(), date.Month(), date.Day(), c.Hour(), c.Minute(), 0, 0, a.loc).UTC()
	return &t
}

// authorizeView resolves whose records the caller may read. Admins may read
// everyone, supervisors their direct reports, others only themselves.
func (a *AttendanceServiceImpl) authorizeView(ctx context.Context, actor auth.Principal, employeeID string) error {
	if actor.Can(user.PermissionAttendanceViewAll) || employeeID == actor.EmployeeID {
		return nil
	}
	if employeeID == "" {
		return user.ErrAdminAccessRequired
	}

	target, err := a.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return err
	}
	if !target.IsSupervisedBy(actor.EmployeeID) {
		return user.ErrInsufficientPermissions
	}
	return nil
}

// ListForMonth implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListForMonth(ctx context.Context, actor auth.Principal, filter attendance.MonthFilter) (attendance.MonthlyAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.MonthlyAttendanceResponse{}, err
	}
	if filter.EmployeeID == "" && !actor.Can(user.PermissionAttendanceViewAll) {
		if actor.EmployeeID == "" {
			return attendance.MonthlyAttendanceResponse{}, auth.ErrNoEmployeeProfile
		}
		filter.EmployeeID = actor.EmployeeID
	}

	from, to := attendance.MonthRange(filter.Year, time.Month(filter.Month))

	var records []attendance.Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.authorizeView(gctx, actor, filter.EmployeeID)
	})
	g.Go(func() error {
		var err error
		records, err = a.AttendanceRepository.ListByDateRange(gctx, filter.EmployeeID, from, to)
		if err != nil {
			return fmt.Errorf("failed to list attendance: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return attendance.MonthlyAttendanceResponse{}, err
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, ToResponse(r, a.loc))
	}

	return attendance.MonthlyAttendanceResponse{
		Year:    filter.Year,
		Month:   filter.Month,
		Records: responses,
		Summary: attendance.Summarize(records),
	}, nil
}

// GetToday implements attendance.AttendanceService. It returns nil when the
// caller has no record for today.
func (a *AttendanceServiceImpl) GetToday(ctx context.Context, actor auth.Principal) (*attendance.AttendanceResponse, error) {
	if actor.EmployeeID == "" {
		return nil, auth.ErrNoEmployeeProfile
	}

	record, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, actor.EmployeeID, attendance.DateOf(a.now(), a.loc))
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return nil, nil
		}
		return nil, err
	}

	resp := ToResponse(record, a.loc)
	return &resp, nil
}

// ExportMonth implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ExportMonth(ctx context.Context, actor auth.Principal, filter attendance.MonthFilter, w io.Writer) error {
	if !actor.Can(user.PermissionAttendanceExport) {
		return user.ErrAdminAccessRequired
	}
	if err := filter.Validate(); err != nil {
		return err
	}

	from, to := attendance.MonthRange(filter.Year, time.Month(filter.Month))
	records, err := a.AttendanceRepository.ListByDateRange(ctx, filter.EmployeeID, from, to)
	if err != nil {
		return fmt.Errorf("failed to list attendance: %w", err)
	}

	rows := make([]report.AttendanceRow, 0, len(records))
	for _, r := range records {
		row := report.AttendanceRow{
			Date:     r.Date,
			Status:   string(r.Status),
			CheckIn:  r.CheckInTime,
			CheckOut: r.CheckOutTime,
			Manual:   r.ManuallyAdded,
		}
		if r.EmployeeCode != nil {
			row.EmployeeCode = *r.EmployeeCode
		}
		if r.EmployeeName != nil {
			row.EmployeeName = *r.EmployeeName
		}
		if r.LeaveType != nil {
			row.LeaveType = *r.LeaveType
		}
		if r.TotalHours.Valid {
			hours := r.TotalHours.Decimal.InexactFloat64()
			row.TotalHours = &hours
		}
		rows = append(rows, row)
	}

	summary := attendance.Summarize(records)
	title := fmt.Sprintf("Attendance %04d-%02d", filter.Year, filter.Month)
	return report.WriteAttendance(w, title, rows, report.AttendanceTotals{
		Total:   summary.Total,
		Present: summary.Present,
		Absent:  summary.Absent,
		Leave:   summary.Leave,
		Late:    summary.Late,
	}, a.loc)
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)
