package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/employee"
	"github.com/bimworks/portal-backend/internal/domain/payroll"
	"github.com/bimworks/portal-backend/internal/domain/user"
	"github.com/bimworks/portal-backend/internal/pkg/database"
	"github.com/bimworks/portal-backend/internal/pkg/messaging"
	"github.com/bimworks/portal-backend/internal/pkg/payslip"
	"github.com/bimworks/portal-backend/internal/pkg/validator"
)

type PayrollServiceImpl struct {
	tx           database.Transactor
	payrollRepo  payroll.PayrollRepository
	slipRepo     payroll.SalarySlipRepository
	employeeRepo employee.EmployeeRepository
	publisher    messaging.Publisher
	loc          *time.Location
	now          func() time.Time
}

func NewPayrollService(
	tx database.Transactor,
	payrollRepo payroll.PayrollRepository,
	slipRepo payroll.SalarySlipRepository,
	employeeRepo employee.EmployeeRepository,
	publisher messaging.Publisher,
	loc *time.Location,
) *PayrollServiceImpl {
	return &PayrollServiceImpl{
		tx:           tx,
		payrollRepo:  payrollRepo,
		slipRepo:     slipRepo,
		employeeRepo: employeeRepo,
		publisher:    publisher,
		loc:          loc,
		now:          time.Now,
	}
}

func (s *PayrollServiceImpl) toResponse(p payroll.Payroll) payroll.PayrollResponse {
	var approvedAt *string
	if p.ApprovedAt != nil {
		v := p.ApprovedAt.In(s.loc).Format(time.RFC3339)
		approvedAt = &v
	}
	return payroll.PayrollResponse{
		ID:           p.ID,
		EmployeeID:   p.EmployeeID,
		EmployeeName: p.EmployeeName,
		EmployeeCode: p.EmployeeCode,
		PeriodYear:   p.PeriodYear,
		PeriodMonth:  p.PeriodMonth,
		BaseSalary:   p.BaseSalary.StringFixed(2),
		Allowances:   p.Allowances.StringFixed(2),
		Deductions:   p.Deductions.StringFixed(2),
		NetSalary:    p.NetSalary.StringFixed(2),
		Status:       string(p.Status),
		ApprovedBy:   p.ApprovedBy,
		ApprovedAt:   approvedAt,
		Remarks:      p.Remarks,
	}
}

func (s *PayrollServiceImpl) toSlipResponse(slip payroll.SalarySlip) payroll.SlipResponse {
	return payroll.SlipResponse{
		ID:          slip.ID,
		PayrollID:   slip.PayrollID,
		SlipNumber:  slip.SlipNumber,
		PeriodYear:  slip.PeriodYear,
		PeriodMonth: slip.PeriodMonth,
		NetSalary:   slip.NetSalary.StringFixed(2),
		IssuedAt:    slip.IssuedAt.In(s.loc).Format(time.RFC3339),
	}
}

// Create implements payroll.PayrollService. The employee's base salary is
// used unless the request overrides it.
func (s *PayrollServiceImpl) Create(ctx context.Context, actor auth.Principal, req payroll.CreatePayrollRequest) (payroll.PayrollResponse, error) {
	if !actor.Can(user.PermissionPayrollManage) {
		return payroll.PayrollResponse{}, user.ErrAdminAccessRequired
	}
	if err := req.Validate(); err != nil {
		return payroll.PayrollResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}

	base, allowances, deductions := req.Amounts()
	baseSalary := emp.BaseSalary
	if base != nil {
		baseSalary = *base
	}
	net := payroll.NetOf(baseSalary, allowances, deductions)
	if net.IsNegative() {
		return payroll.PayrollResponse{}, validator.ValidationErrors{{Field: "deductions", Message: "deductions exceed base salary plus allowances"}}
	}

	created, err := s.payrollRepo.Create(ctx, payroll.Payroll{
		EmployeeID:  emp.ID,
		PeriodYear:  req.PeriodYear,
		PeriodMonth: req.PeriodMonth,
		BaseSalary:  baseSalary,
		Allowances:  allowances,
		Deductions:  deductions,
		NetSalary:   net,
		Status:      payroll.StatusPending,
	})
	if err != nil {
		return payroll.PayrollResponse{}, err
	}

	return s.toResponse(created), nil
}

// List implements payroll.PayrollService. Employees only see their own
// records.
func (s *PayrollServiceImpl) List(ctx context.Context, actor auth.Principal, filter payroll.PayrollFilter) (payroll.ListPayrollResponse, error) {
	if !actor.Can(user.PermissionPayrollManage) {
		if actor.EmployeeID == "" {
			return payroll.ListPayrollResponse{}, auth.ErrNoEmployeeProfile
		}
		filter.EmployeeID = &actor.EmployeeID
	}
	filter.Normalize()

	records, total, err := s.payrollRepo.List(ctx, filter)
	if err != nil {
		return payroll.ListPayrollResponse{}, fmt.Errorf("failed to list payrolls: %w", err)
	}

	responses := make([]payroll.PayrollResponse, 0, len(records))
	for _, p := range records {
		responses = append(responses, s.toResponse(p))
	}
	return payroll.ListPayrollResponse{
		Payrolls:   responses,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// Approve implements payroll.PayrollService. Only pending records change;
// slips are keyed by slip number so repeating a request is harmless.
func (s *PayrollServiceImpl) Approve(ctx context.Context, actor auth.Principal, req payroll.ApprovePayrollRequest) (payroll.ApprovePayrollResponse, error) {
	if !actor.Can(user.PermissionPayrollApprove) {
		return payroll.ApprovePayrollResponse{}, user.ErrAdminAccessRequired
	}
	if err := req.Validate(); err != nil {
		return payroll.ApprovePayrollResponse{}, err
	}
	if req.ApprovedBy != "" && req.ApprovedBy != actor.UserID {
		return payroll.ApprovePayrollResponse{}, payroll.ErrApproverMismatch
	}

	decidedAt := s.now().UTC()
	var changed []payroll.Payroll
	var slips []payroll.SalarySlip
	var slipsCreated int64

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		changed, err = s.payrollRepo.Decide(ctx, req.PayrollIDs, req.Action.Status(), actor.UserID, req.Remarks, decidedAt)
		if err != nil {
			return fmt.Errorf("failed to update payrolls: %w", err)
		}
		if req.Action != payroll.ActionApprove || len(changed) == 0 {
			return nil
		}

		slips = make([]payroll.SalarySlip, 0, len(changed))
		for _, p := range changed {
			slips = append(slips, payroll.NewSlip(p, decidedAt))
		}
		slipsCreated, err = s.slipRepo.CreateIfAbsent(ctx, slips)
		if err != nil {
			return fmt.Errorf("failed to create salary slips: %w", err)
		}
		return nil
	})
	if err != nil {
		return payroll.ApprovePayrollResponse{}, err
	}

	processed := make(map[string]bool, len(changed))
	resp := payroll.ApprovePayrollResponse{
		Action:       string(req.Action),
		Processed:    make([]string, 0, len(changed)),
		Skipped:      []string{},
		SlipsCreated: slipsCreated,
	}
	for _, p := range changed {
		processed[p.ID] = true
		resp.Processed = append(resp.Processed, p.ID)
	}
	for _, id := range req.PayrollIDs {
		if !processed[id] {
			resp.Skipped = append(resp.Skipped, id)
		}
	}

	if len(slips) > 0 {
		events := make([]messaging.PayrollApprovedEvent, 0, len(slips))
		for _, slip := range slips {
			events = append(events, messaging.PayrollApprovedEvent{
				PayrollID:   slip.PayrollID,
				EmployeeID:  slip.EmployeeID,
				PeriodYear:  slip.PeriodYear,
				PeriodMonth: slip.PeriodMonth,
				NetSalary:   slip.NetSalary.StringFixed(2),
				SlipNumber:  slip.SlipNumber,
				ApprovedBy:  actor.UserID,
				ApprovedAt:  decidedAt,
			})
		}
		if err := s.publisher.PublishPayrollApproved(ctx, events); err != nil {
			slog.Error("failed to publish payroll approved events", "count", len(events), "error", err)
		}
	}

	slog.Info("payroll decision applied", "action", req.Action, "processed", len(resp.Processed),
		"skipped", len(resp.Skipped), "slips_created", slipsCreated, "by", actor.UserID)
	return resp, nil
}

// ListMySlips implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListMySlips(ctx context.Context, actor auth.Principal) ([]payroll.SlipResponse, error) {
	if actor.EmployeeID == "" {
		return nil, auth.ErrNoEmployeeProfile
	}
	slips, err := s.slipRepo.ListByEmployee(ctx, actor.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary slips: %w", err)
	}

	responses := make([]payroll.SlipResponse, 0, len(slips))
	for _, slip := range slips {
		responses = append(responses, s.toSlipResponse(slip))
	}
	return responses, nil
}

// RenderSlipPDF implements payroll.PayrollService.
func (s *PayrollServiceImpl) RenderSlipPDF(ctx context.Context, actor auth.Principal, slipID string) ([]byte, string, error) {
	slip, err := s.slipRepo.GetByID(ctx, slipID)
	if err != nil {
		return nil, "", err
	}
	if slip.EmployeeID != actor.EmployeeID && !actor.Can(user.PermissionPayrollManage) {
		return nil, "", user.ErrInsufficientPermissions
	}

	doc := payslip.Slip{
		SlipNumber:  slip.SlipNumber,
		PeriodYear:  slip.PeriodYear,
		PeriodMonth: slip.PeriodMonth,
		NetSalary:   slip.NetSalary,
		IssuedAt:    slip.IssuedAt.In(s.loc),
	}
	if p := slip.Payroll; p != nil {
		doc.BaseSalary, doc.Allowances, doc.Deductions = p.BaseSalary, p.Allowances, p.Deductions
		doc.EmployeeName = deref(p.EmployeeName)
		doc.EmployeeCode = deref(p.EmployeeCode)
		doc.BankName = deref(p.BankName)
		doc.BankAccount = deref(p.BankAccount)
	}
	if emp, err := s.employeeRepo.GetByID(ctx, slip.EmployeeID); err == nil {
		doc.Department = deref(emp.Department)
	}

	pdf, err := payslip.Render(doc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render salary slip: %w", err)
	}
	return pdf, payslip.Filename(slip.SlipNumber), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ payroll.PayrollService = (*PayrollServiceImpl)(nil)
