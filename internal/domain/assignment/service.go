package assignment

import (
	"context"

	"github.com/bimworks/portal-backend/internal/domain/auth"
)

type AssignmentService interface {
	Create(ctx context.Context, actor auth.Principal, req CreateAssignmentRequest) (AssignmentResponse, error)
	Get(ctx context.Context, actor auth.Principal, id string) (AssignmentResponse, error)
	ListMine(ctx context.Context, actor auth.Principal) ([]AssignmentResponse, error)
	ListSupervised(ctx context.Context, actor auth.Principal) ([]AssignmentResponse, error)

	AddMember(ctx context.Context, actor auth.Principal, assignmentID string, req AddMemberRequest) (AssignmentResponse, error)
	RemoveMember(ctx context.Context, actor auth.Principal, assignmentID, employeeID string) (AssignmentResponse, error)
	UpdateMyNote(ctx context.Context, actor auth.Principal, assignmentID string, req UpdateNoteRequest) (AssignmentResponse, error)

	// Complete moves in_progress -> completed (members only).
	Complete(ctx context.Context, actor auth.Principal, assignmentID string) (AssignmentResponse, error)

	// Approve moves completed -> approved (supervisor or admin).
	Approve(ctx context.Context, actor auth.Principal, assignmentID string) (AssignmentResponse, error)
}
