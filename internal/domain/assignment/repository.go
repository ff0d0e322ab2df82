package assignment

import (
	"context"
	"time"
)

type AssignmentRepository interface {
	Create(ctx context.Context, a Assignment) (Assignment, error)

	// GetByID loads the assignment together with its members.
	GetByID(ctx context.Context, id string) (Assignment, error)

	// UpdateStatus moves from -> to atomically; ErrInvalidTransition when
	// the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to Status, actorID string, at time.Time) (Assignment, error)

	ListByMember(ctx context.Context, employeeID string) ([]Assignment, error)
	ListBySupervisor(ctx context.Context, supervisorID string) ([]Assignment, error)

	AddMember(ctx context.Context, m Member) (Member, error)
	RemoveMember(ctx context.Context, assignmentID, employeeID string) error
	UpdateMemberNote(ctx context.Context, assignmentID, employeeID string, note *string) (Member, error)
}
