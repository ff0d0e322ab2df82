package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/attendance"
	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/employee"
	"github.com/bimworks/portal-backend/internal/domain/leave"
	"github.com/bimworks/portal-backend/internal/domain/user"
	"github.com/bimworks/portal-backend/internal/pkg/database"
	"github.com/bimworks/portal-backend/internal/pkg/email"
	"github.com/bimworks/portal-backend/internal/pkg/messaging"
	"github.com/bimworks/portal-backend/internal/pkg/storage"
	"github.com/bimworks/portal-backend/internal/service/file"
)

const warnDocumentUpload = "supporting document could not be uploaded; the request was submitted without it"

type LeaveServiceImpl struct {
	tx           database.Transactor
	requests     leave.LeaveRequestRepository
	rejections   leave.RejectionRepository
	balances     leave.LeaveBalanceRepository
	employeeRepo employee.EmployeeRepository
	fileService  file.FileService
	mailer       email.EmailService
	publisher    messaging.Publisher
	frontendURL  string
	loc          *time.Location
	now          func() time.Time

	// notifications in flight
	pending sync.WaitGroup
}

func NewLeaveService(
	tx database.Transactor,
	requests leave.LeaveRequestRepository,
	rejections leave.RejectionRepository,
	balances leave.LeaveBalanceRepository,
	employeeRepo employee.EmployeeRepository,
	fileService file.FileService,
	mailer email.EmailService,
	publisher messaging.Publisher,
	frontendURL string,
	loc *time.Location,
) *LeaveServiceImpl {
	return &LeaveServiceImpl{
		tx:           tx,
		requests:     requests,
		rejections:   rejections,
		balances:     balances,
		employeeRepo: employeeRepo,
		fileService:  fileService,
		mailer:       mailer,
		publisher:    publisher,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
		loc:          loc,
		now:          time.Now,
	}
}

// Wait blocks until queued notification mails have been handed off.
func (s *LeaveServiceImpl) Wait() {
	s.pending.Wait()
}

func formatTime(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	formatted := t.In(loc).Format(time.RFC3339)
	return &formatted
}

func (s *LeaveServiceImpl) toResponse(r leave.Request) leave.LeaveRequestResponse {
	return leave.LeaveRequestResponse{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		EmployeeCode: r.EmployeeCode,
		Date:         r.StartDate.Format("2006-01-02"),
		StartDate:    r.StartDate.Format("2006-01-02"),
		EndDate:      r.EndDate.Format("2006-01-02"),
		Days:         r.Days(),
		LeaveType:    string(r.Type),
		Reason:       r.Reason,
		DocumentURL:  r.DocumentURL,
		State:        string(r.State()),
		Supervisor: leave.ApprovalResponse{
			Approved:   r.Supervisor.Approved,
			ApprovedBy: r.Supervisor.By,
			ApprovedAt: formatTime(r.Supervisor.At, s.loc),
		},
		Admin: leave.ApprovalResponse{
			Approved:   r.Admin.Approved,
			ApprovedBy: r.Admin.By,
			ApprovedAt: formatTime(r.Admin.At, s.loc),
		},
		CreatedAt: r.CreatedAt.In(s.loc).Format(time.RFC3339),
	}
}

func (s *LeaveServiceImpl) toRejectionResponse(r leave.Rejection) leave.RejectionResponse {
	return leave.RejectionResponse{
		ID:           r.ID,
		RequestID:    r.RequestID,
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		LeaveType:    string(r.Type),
		StartDate:    r.StartDate.Format("2006-01-02"),
		EndDate:      r.EndDate.Format("2006-01-02"),
		Stage:        string(r.Stage),
		Reason:       r.Reason,
		RejectedBy:   r.RejectedBy,
		RejectedAt:   r.RejectedAt.In(s.loc).Format(time.RFC3339),
	}
}

func (s *LeaveServiceImpl) toResponses(records []attendance.Record) ([]leave.LeaveRequestResponse, error) {
	responses := make([]leave.LeaveRequestResponse, 0, len(records))
	for _, rec := range records {
		r, err := leave.FromRecord(rec)
		if err != nil {
			return nil, err
		}
		responses = append(responses, s.toResponse(r))
	}
	return responses, nil
}

func (s *LeaveServiceImpl) load(ctx context.Context, requestID string) (leave.Request, error) {
	rec, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return leave.Request{}, err
	}
	return leave.FromRecord(rec)
}

// Submit implements leave.LeaveService. The supporting document is
// optional: a failed upload is reported as a warning, not an error.
func (s *LeaveServiceImpl) Submit(ctx context.Context, actor auth.Principal, req leave.SubmitLeaveRequest) (leave.SubmitLeaveResponse, error) {
	if actor.EmployeeID == "" {
		return leave.SubmitLeaveResponse{}, auth.ErrNoEmployeeProfile
	}
	if err := req.Validate(); err != nil {
		return leave.SubmitLeaveResponse{}, err
	}

	start, end := req.Dates()
	request, err := leave.NewRequest(actor.EmployeeID, start, end, leave.Type(req.LeaveType), req.Reason)
	if err != nil {
		return leave.SubmitLeaveResponse{}, err
	}

	var warnings []string
	if req.Document != nil {
		url, err := s.fileService.UploadLeaveDocument(ctx, actor.EmployeeID, req.Document, req.DocumentFilename)
		if err != nil {
			slog.Warn("leave document upload failed", "employee_id", actor.EmployeeID, "error", err)
			warnings = append(warnings, warnDocumentUpload)
		} else {
			request.DocumentURL = &url
		}
	}

	created, err := s.requests.Create(ctx, request.ToRecord())
	if err != nil {
		if request.DocumentURL != nil {
			s.removeDocument(ctx, *request.DocumentURL)
		}
		return leave.SubmitLeaveResponse{}, err
	}

	submitted, err := leave.FromRecord(created)
	if err != nil {
		return leave.SubmitLeaveResponse{}, err
	}

	slog.Info("leave request submitted", "request_id", submitted.ID, "employee_id", submitted.EmployeeID,
		"start", req.StartDate, "end", req.EndDate, "type", req.LeaveType)
	s.notifySupervisor(ctx, submitted)

	return leave.SubmitLeaveResponse{
		LeaveRequestResponse: s.toResponse(submitted),
		Warnings:             warnings,
	}, nil
}

// authorizeApprover allows admins and the employee's direct supervisor.
// Nobody may act on their own request.
func (s *LeaveServiceImpl) authorizeApprover(ctx context.Context, actor auth.Principal, r leave.Request) error {
	if r.EmployeeID == actor.EmployeeID {
		return leave.ErrSelfApproval
	}
	if actor.Can(user.PermissionLeaveAdminApprove) {
		return nil
	}

	emp, err := s.employeeRepo.GetByID(ctx, r.EmployeeID)
	if err != nil {
		return fmt.Errorf("failed to load employee: %w", err)
	}
	if actor.EmployeeID == "" || !emp.IsSupervisedBy(actor.EmployeeID) {
		return leave.ErrNotSupervisor
	}
	return nil
}

// SupervisorApprove implements leave.LeaveService.
func (s *LeaveServiceImpl) SupervisorApprove(ctx context.Context, actor auth.Principal, requestID string) (leave.LeaveRequestResponse, error) {
	request, err := s.load(ctx, requestID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if err := s.authorizeApprover(ctx, actor, request); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	rec, err := s.requests.ApproveSupervisor(ctx, requestID, actor.UserID, s.now().UTC())
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	approved, err := leave.FromRecord(rec)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	slog.Info("leave request supervisor approved", "request_id", requestID, "by", actor.UserID)
	return s.toResponse(approved), nil
}

// AdminApprove implements leave.LeaveService. The store only accepts the
// admin stamp after the supervisor stamp.
func (s *LeaveServiceImpl) AdminApprove(ctx context.Context, actor auth.Principal, requestID string) (leave.LeaveRequestResponse, error) {
	if !actor.Can(user.PermissionLeaveAdminApprove) {
		return leave.LeaveRequestResponse{}, user.ErrAdminAccessRequired
	}

	request, err := s.load(ctx, requestID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if request.EmployeeID == actor.EmployeeID {
		return leave.LeaveRequestResponse{}, leave.ErrSelfApproval
	}
	if !request.Supervisor.Approved {
		return leave.LeaveRequestResponse{}, leave.ErrSupervisorApprovalRequired
	}

	finalizedAt := s.now().UTC()
	rec, err := s.requests.ApproveAdmin(ctx, requestID, actor.UserID, finalizedAt)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	finalized, err := leave.FromRecord(rec)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	// The approval is committed; a publish failure must not undo it.
	event := messaging.LeaveFinalizedEvent{
		RequestID:   finalized.ID,
		EmployeeID:  finalized.EmployeeID,
		LeaveType:   string(finalized.Type),
		StartDate:   finalized.StartDate.Format("2006-01-02"),
		EndDate:     finalized.EndDate.Format("2006-01-02"),
		Days:        finalized.Days(),
		ApprovedBy:  actor.UserID,
		FinalizedAt: finalizedAt,
	}
	if err := s.publisher.PublishLeaveFinalized(ctx, event); err != nil {
		slog.Error("failed to publish leave finalized event", "request_id", finalized.ID, "error", err)
	}

	slog.Info("leave request finalized", "request_id", requestID, "by", actor.UserID, "days", event.Days)
	s.notifyEmployee(ctx, finalized, "", s.mailer.SendLeaveFinalized)

	return s.toResponse(finalized), nil
}

// Reject implements leave.LeaveService. The request row is removed from any
// stage and an audit row is written in the same transaction. The row is
// locked first so a concurrent approval cannot slip in between.
func (s *LeaveServiceImpl) Reject(ctx context.Context, actor auth.Principal, requestID string, req leave.RejectLeaveRequest) (leave.RejectionResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.RejectionResponse{}, err
	}

	var request leave.Request
	var rejection leave.Rejection
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := s.requests.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if request, err = leave.FromRecord(rec); err != nil {
			return err
		}
		if err := s.authorizeApprover(ctx, actor, request); err != nil {
			return err
		}

		stage := request.State()
		if _, err := s.requests.Delete(ctx, requestID); err != nil {
			return err
		}

		rejection, err = s.rejections.Create(ctx, leave.Rejection{
			RequestID:  request.ID,
			EmployeeID: request.EmployeeID,
			Type:       request.Type,
			StartDate:  request.StartDate,
			EndDate:    request.EndDate,
			Stage:      stage,
			Reason:     strings.TrimSpace(req.Reason),
			RejectedBy: actor.UserID,
			RejectedAt: s.now().UTC(),
		})
		return err
	})
	if err != nil {
		return leave.RejectionResponse{}, err
	}

	if request.DocumentURL != nil {
		s.removeDocument(ctx, *request.DocumentURL)
	}

	if rejection.Stage == leave.StateFullyApproved {
		event := messaging.LeaveRevokedEvent{
			RequestID:  request.ID,
			EmployeeID: request.EmployeeID,
			LeaveType:  string(request.Type),
			StartDate:  request.StartDate.Format("2006-01-02"),
			EndDate:    request.EndDate.Format("2006-01-02"),
			Days:       request.Days(),
			RevokedBy:  actor.UserID,
			RevokedAt:  rejection.RejectedAt,
		}
		if err := s.publisher.PublishLeaveRevoked(ctx, event); err != nil {
			slog.Error("failed to publish leave revoked event", "request_id", request.ID, "error", err)
		}
	}

	slog.Info("leave request rejected", "request_id", requestID, "stage", rejection.Stage, "by", actor.UserID)
	s.notifyEmployee(ctx, request, rejection.Reason, s.mailer.SendLeaveRejected)

	return s.toRejectionResponse(rejection), nil
}

// Get implements leave.LeaveService.
func (s *LeaveServiceImpl) Get(ctx context.Context, actor auth.Principal, requestID string) (leave.LeaveRequestResponse, error) {
	request, err := s.load(ctx, requestID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if err := s.authorizeView(ctx, actor, request.EmployeeID); err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return s.toResponse(request), nil
}

func (s *LeaveServiceImpl) authorizeView(ctx context.Context, actor auth.Principal, employeeID string) error {
	if employeeID == actor.EmployeeID || actor.Can(user.PermissionLeaveViewAll) {
		return nil
	}
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return err
	}
	if actor.EmployeeID == "" || !emp.IsSupervisedBy(actor.EmployeeID) {
		return user.ErrInsufficientPermissions
	}
	return nil
}

// ListMine implements leave.LeaveService.
func (s *LeaveServiceImpl) ListMine(ctx context.Context, actor auth.Principal) ([]leave.LeaveRequestResponse, error) {
	if actor.EmployeeID == "" {
		return nil, auth.ErrNoEmployeeProfile
	}
	records, err := s.requests.ListByEmployee(ctx, actor.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	return s.toResponses(records)
}

// ListPendingSupervisor implements leave.LeaveService.
func (s *LeaveServiceImpl) ListPendingSupervisor(ctx context.Context, actor auth.Principal) ([]leave.LeaveRequestResponse, error) {
	if actor.EmployeeID == "" {
		return []leave.LeaveRequestResponse{}, nil
	}
	records, err := s.requests.ListPendingSupervisor(ctx, actor.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending leave requests: %w", err)
	}
	return s.toResponses(records)
}

// ListPendingAdmin implements leave.LeaveService.
func (s *LeaveServiceImpl) ListPendingAdmin(ctx context.Context, actor auth.Principal) ([]leave.LeaveRequestResponse, error) {
	if !actor.Can(user.PermissionLeaveAdminApprove) {
		return nil, user.ErrAdminAccessRequired
	}
	records, err := s.requests.ListPendingAdmin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending leave requests: %w", err)
	}
	return s.toResponses(records)
}

// ListRejections implements leave.LeaveService. An empty employeeID lists
// the caller's own rejections, or everyone's for admins.
func (s *LeaveServiceImpl) ListRejections(ctx context.Context, actor auth.Principal, employeeID string) ([]leave.RejectionResponse, error) {
	if employeeID == "" && !actor.Can(user.PermissionLeaveViewAll) {
		if actor.EmployeeID == "" {
			return nil, auth.ErrNoEmployeeProfile
		}
		employeeID = actor.EmployeeID
	}
	if employeeID != "" {
		if err := s.authorizeView(ctx, actor, employeeID); err != nil {
			return nil, err
		}
	}

	rejections, err := s.rejections.List(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rejections: %w", err)
	}

	responses := make([]leave.RejectionResponse, 0, len(rejections))
	for _, r := range rejections {
		responses = append(responses, s.toRejectionResponse(r))
	}
	return responses, nil
}

// GetBalance implements leave.LeaveService. Year 0 means the current year.
func (s *LeaveServiceImpl) GetBalance(ctx context.Context, actor auth.Principal, year int) (leave.BalanceResponse, error) {
	if actor.EmployeeID == "" {
		return leave.BalanceResponse{}, auth.ErrNoEmployeeProfile
	}
	if year == 0 {
		year = s.now().In(s.loc).Year()
	}

	balance, err := s.balances.Get(ctx, actor.EmployeeID, year)
	if err != nil {
		return leave.BalanceResponse{}, err
	}

	counts := func(total, used int) leave.BalanceCounts {
		return leave.BalanceCounts{Total: total, Used: used, Remaining: max(total-used, 0)}
	}
	return leave.BalanceResponse{
		EmployeeID: balance.EmployeeID,
		Year:       balance.Year,
		Annual:     counts(balance.AnnualTotal, balance.AnnualUsed),
		Sick:       counts(balance.SickTotal, balance.SickUsed),
		Casual:     counts(balance.CasualTotal, balance.CasualUsed),
	}, nil
}

func (s *LeaveServiceImpl) removeDocument(ctx context.Context, url string) {
	if err := s.fileService.DeleteByURL(ctx, storage.BucketLeaveDocuments, url); err != nil {
		slog.Warn("failed to remove leave document", "url", url, "error", err)
	}
}

func (s *LeaveServiceImpl) notice(r leave.Request, recipient, employeeName, reason string) email.LeaveNotice {
	return email.LeaveNotice{
		RecipientName: recipient,
		EmployeeName:  employeeName,
		LeaveType:     string(r.Type),
		StartDate:     r.StartDate.Format("2006-01-02"),
		EndDate:       r.EndDate.Format("2006-01-02"),
		Reason:        reason,
		ReviewLink:    s.frontendURL + "/leave/" + r.ID,
	}
}

// notifySupervisor mails the submitter's supervisor in the background.
func (s *LeaveServiceImpl) notifySupervisor(ctx context.Context, r leave.Request) {
	emp, err := s.employeeRepo.GetByID(ctx, r.EmployeeID)
	if err != nil || emp.SupervisorID == nil {
		return
	}
	supervisor, err := s.employeeRepo.GetByID(ctx, *emp.SupervisorID)
	if err != nil {
		slog.Warn("failed to load supervisor for notification", "employee_id", emp.ID, "error", err)
		return
	}
	s.send(ctx, supervisor.Email, s.notice(r, supervisor.FullName, emp.FullName, r.Reason), s.mailer.SendLeaveSubmitted)
}

func (s *LeaveServiceImpl) notifyEmployee(ctx context.Context, r leave.Request, reason string, sendFn func(context.Context, string, email.LeaveNotice) error) {
	emp, err := s.employeeRepo.GetByID(ctx, r.EmployeeID)
	if err != nil {
		if !errors.Is(err, employee.ErrEmployeeNotFound) {
			slog.Warn("failed to load employee for notification", "employee_id", r.EmployeeID, "error", err)
		}
		return
	}
	s.send(ctx, emp.Email, s.notice(r, emp.FullName, emp.FullName, reason), sendFn)
}

func (s *LeaveServiceImpl) send(ctx context.Context, to string, notice email.LeaveNotice, sendFn func(context.Context, string, email.LeaveNotice) error) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := sendFn(ctx, to, notice); err != nil {
			slog.Error("failed to send leave notification", "to", to, "error", err)
		}
	}()
}

var _ leave.LeaveService = (*LeaveServiceImpl)(nil)
