package assignment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/assignment"
	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/employee"
	"github.com/bimworks/portal-backend/internal/domain/user"
)

type AssignmentServiceImpl struct {
	assignment.AssignmentRepository
	employeeRepo employee.EmployeeRepository
	loc          *time.Location
	now          func() time.Time
}

func NewAssignmentService(repo assignment.AssignmentRepository, employeeRepo employee.EmployeeRepository, loc *time.Location) *AssignmentServiceImpl {
	return &AssignmentServiceImpl{
		AssignmentRepository: repo,
		employeeRepo:         employeeRepo,
		loc:                  loc,
		now:                  time.Now,
	}
}

func (s *AssignmentServiceImpl) toResponse(a assignment.Assignment) assignment.AssignmentResponse {
	format := func(t *time.Time) *string {
		if t == nil {
			return nil
		}
		v := t.In(s.loc).Format(time.RFC3339)
		return &v
	}

	members := make([]assignment.MemberResponse, 0, len(a.Members))
	for _, m := range a.Members {
		members = append(members, assignment.MemberResponse{
			EmployeeID:   m.EmployeeID,
			EmployeeName: m.EmployeeName,
			Role:         m.Role,
			PersonalNote: m.PersonalNote,
		})
	}

	return assignment.AssignmentResponse{
		ID:             a.ID,
		Title:          a.Title,
		Note:           a.Note,
		StartDate:      a.StartDate.Format("2006-01-02"),
		Deadline:       a.Deadline.Format("2006-01-02"),
		Status:         string(a.Status),
		Overdue:        a.IsOverdue(s.now()),
		SupervisorID:   a.SupervisorID,
		SupervisorName: a.SupervisorName,
		CompletedAt:    format(a.CompletedAt),
		ApprovedBy:     a.ApprovedBy,
		ApprovedAt:     format(a.ApprovedAt),
		Members:        members,
	}
}

func (s *AssignmentServiceImpl) toResponses(list []assignment.Assignment) []assignment.AssignmentResponse {
	responses := make([]assignment.AssignmentResponse, 0, len(list))
	for _, a := range list {
		responses = append(responses, s.toResponse(a))
	}
	return responses
}

func isOwner(actor auth.Principal, a assignment.Assignment) bool {
	return a.SupervisorID == actor.EmployeeID || actor.Can(user.PermissionAssignmentApproveAny)
}

// checkAssignable verifies the employee exists and, for non-admins, reports
// to the caller.
func (s *AssignmentServiceImpl) checkAssignable(ctx context.Context, actor auth.Principal, employeeID string) error {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && !emp.IsSupervisedBy(actor.EmployeeID) && emp.ID != actor.EmployeeID {
		return fmt.Errorf("%s is not your direct report: %w", emp.EmployeeCode, user.ErrInsufficientPermissions)
	}
	return nil
}

// Create implements assignment.AssignmentService. The caller becomes the
// assignment supervisor.
func (s *AssignmentServiceImpl) Create(ctx context.Context, actor auth.Principal, req assignment.CreateAssignmentRequest) (assignment.AssignmentResponse, error) {
	if actor.EmployeeID == "" {
		return assignment.AssignmentResponse{}, auth.ErrNoEmployeeProfile
	}
	if err := req.Validate(); err != nil {
		return assignment.AssignmentResponse{}, err
	}

	start, deadline := req.Dates()
	a, err := assignment.New(req.Title, req.Note, start, deadline, actor.EmployeeID)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}

	for _, m := range req.Members {
		if err := s.checkAssignable(ctx, actor, m.EmployeeID); err != nil {
			return assignment.AssignmentResponse{}, err
		}
		role := strings.TrimSpace(m.Role)
		if role == "" {
			role = "member"
		}
		a.Members = append(a.Members, assignment.Member{
			EmployeeID:   m.EmployeeID,
			Role:         role,
			PersonalNote: m.PersonalNote,
		})
	}

	created, err := s.AssignmentRepository.Create(ctx, a)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}

	slog.Info("assignment created", "assignment_id", created.ID, "supervisor_id", actor.EmployeeID, "members", len(created.Members))
	return s.toResponse(created), nil
}

// Get implements assignment.AssignmentService.
func (s *AssignmentServiceImpl) Get(ctx context.Context, actor auth.Principal, id string) (assignment.AssignmentResponse, error) {
	a, err := s.AssignmentRepository.GetByID(ctx, id)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}
	if !isOwner(actor, a) && !a.HasMember(actor.EmployeeID) {
		return assignment.AssignmentResponse{}, assignment.ErrNotMember
	}
	return s.toResponse(a), nil
}

// ListMine implements assignment.AssignmentService.
func (s *AssignmentServiceImpl) ListMine(ctx context.Context, actor auth.Principal) ([]assignment.AssignmentResponse, error) {
	if actor.EmployeeID == "" {
		return []assignment.AssignmentResponse{}, nil
	}
	list, err := s.AssignmentRepository.ListByMember(ctx, actor.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return s.toResponses(list), nil
}

// ListSupervised implements assignment.AssignmentService.
func (s *AssignmentServiceImpl) ListSupervised(ctx context.Context, actor auth.Principal) ([]assignment.AssignmentResponse, error) {
	if actor.EmployeeID == "" {
		return []assignment.AssignmentResponse{}, nil
	}
	list, err := s.AssignmentRepository.ListBySupervisor(ctx, actor.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return s.toResponses(list), nil
}

// loadOwned returns an assignment the caller may edit.
func (s *AssignmentServiceImpl) loadOwned(ctx context.Context, actor auth.Principal, id string) (assignment.Assignment, error) {
	a, err := s.AssignmentRepository.GetByID(ctx, id)
	if err != nil {
		return assignment.Assignment{}, err
	}
	if !isOwner(actor, a) {
		return assignment.Assignment{}, assignment.ErrNotAssignmentOwner
	}
	if a.Status == assignment.StatusApproved {
		return assignment.Assignment{}, assignment.ErrAssignmentFinalized
	}
	return a, nil
}

// AddMember implements assignment.AssignmentService.
func (s *AssignmentServiceImpl) AddMember(ctx context.Context, actor auth.Principal, assignmentID string, req assignment.AddMemberRequest) (assignment.AssignmentResponse, error) {
	if err := req.Validate(); err != nil {
		return assignment.AssignmentResponse{}, err
	}
	a, err := s.loadOwned(ctx, actor, assignmentID)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}
	if err := s.checkAssignable(ctx, actor, req.EmployeeID); err != nil {
		return assignment.AssignmentResponse{}, err
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = "member"
	}
	if _, err := s.AssignmentRepository.AddMember(ctx, assignment.Member{
		AssignmentID: a.ID,
		EmployeeID:   req.EmployeeID,
		Role:         role,
		PersonalNote: req.PersonalNote,
	}); err != nil {
		return assignment.AssignmentResponse{}, err
	}

	return s.reload(ctx, a.ID)
}

// RemoveMember implements assignment.AssignmentService.
func (s *AssignmentServiceImpl) RemoveMember(ctx context.Context, actor auth.Principal, assignmentID, employeeID string) (assignment.AssignmentResponse, error) {
	a, err := s.loadOwned(ctx, actor, assignmentID)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}
	if err := s.AssignmentRepository.RemoveMember(ctx, a.ID, employeeID); err != nil {
		return assignment.AssignmentResponse{}, err
	}
	return s.reload(ctx, a.ID)
}

// UpdateMyNote implements assignment.AssignmentService.
func (s *AssignmentServiceImpl) UpdateMyNote(ctx context.Context, actor auth.Principal, assignmentID string, req assignment.UpdateNoteRequest) (assignment.AssignmentResponse, error) {
	a, err := s.AssignmentRepository.GetByID(ctx, assignmentID)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}
	if !a.HasMember(actor.EmployeeID) {
		return assignment.AssignmentResponse{}, assignment.ErrNotMember
	}

	note := req.PersonalNote
	if note != nil && strings.TrimSpace(*note) == "" {
		note = nil
	}
	if _, err := s.AssignmentRepository.UpdateMemberNote(ctx, a.ID, actor.EmployeeID, note); err != nil {
		return assignment.AssignmentResponse{}, err
	}
	return s.reload(ctx, a.ID)
}

// Complete implements assignment.AssignmentService.
func (s *AssignmentServiceImpl) Complete(ctx context.Context, actor auth.Principal, assignmentID string) (assignment.AssignmentResponse, error) {
	a, err := s.AssignmentRepository.GetByID(ctx, assignmentID)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}
	if !a.HasMember(actor.EmployeeID) {
		return assignment.AssignmentResponse{}, assignment.ErrNotMember
	}

	updated, err := s.AssignmentRepository.UpdateStatus(ctx, a.ID, assignment.StatusInProgress, assignment.StatusCompleted, actor.EmployeeID, s.now().UTC())
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}

	slog.Info("assignment completed", "assignment_id", a.ID, "by", actor.EmployeeID)
	return s.toResponse(updated), nil
}

// Approve implements assignment.AssignmentService.
func (s *AssignmentServiceImpl) Approve(ctx context.Context, actor auth.Principal, assignmentID string) (assignment.AssignmentResponse, error) {
	a, err := s.AssignmentRepository.GetByID(ctx, assignmentID)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}
	if !isOwner(actor, a) {
		return assignment.AssignmentResponse{}, assignment.ErrNotAssignmentOwner
	}

	updated, err := s.AssignmentRepository.UpdateStatus(ctx, a.ID, assignment.StatusCompleted, assignment.StatusApproved, actor.UserID, s.now().UTC())
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}

	slog.Info("assignment approved", "assignment_id", a.ID, "by", actor.UserID)
	return s.toResponse(updated), nil
}

func (s *AssignmentServiceImpl) reload(ctx context.Context, id string) (assignment.AssignmentResponse, error) {
	a, err := s.AssignmentRepository.GetByID(ctx, id)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}
	return s.toResponse(a), nil
}

var _ assignment.AssignmentService = (*AssignmentServiceImpl)(nil)
