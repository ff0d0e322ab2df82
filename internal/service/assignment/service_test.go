package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/assignment"
	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/employee"
	"github.com/bimworks/portal-backend/internal/domain/gateway"
	"github.com/bimworks/portal-backend/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssignments struct {
	assignment.AssignmentRepository
	byID map[string]assignment.Assignment
}

func (f *fakeAssignments) Create(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	a.ID = "asg-1"
	for i := range a.Members {
		a.Members[i].AssignmentID = a.ID
	}
	f.byID[a.ID] = a
	return a, nil
}

func (f *fakeAssignments) GetByID(_ context.Context, id string) (assignment.Assignment, error) {
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return assignment.Assignment{}, assignment.ErrAssignmentNotFound
}

func (f *fakeAssignments) UpdateStatus(_ context.Context, id string, from, to assignment.Status, actorID string, at time.Time) (assignment.Assignment, error) {
	a, ok := f.byID[id]
	if !ok {
		return assignment.Assignment{}, assignment.ErrAssignmentNotFound
	}
	if a.Status != from || !assignment.CanTransition(from, to) {
		return assignment.Assignment{}, assignment.ErrInvalidTransition
	}
	a.Status = to
	switch to {
	case assignment.StatusCompleted:
		a.CompletedBy, a.CompletedAt = &actorID, &at
	case assignment.StatusApproved:
		a.ApprovedBy, a.ApprovedAt = &actorID, &at
	}
	f.byID[id] = a
	return a, nil
}

func (f *fakeAssignments) AddMember(_ context.Context, m assignment.Member) (assignment.Member, error) {
	a := f.byID[m.AssignmentID]
	if a.HasMember(m.EmployeeID) {
		return assignment.Member{}, assignment.ErrMemberExists
	}
	a.Members = append(a.Members, m)
	f.byID[a.ID] = a
	return m, nil
}

func (f *fakeAssignments) UpdateMemberNote(_ context.Context, assignmentID, employeeID string, note *string) (assignment.Member, error) {
	a := f.byID[assignmentID]
	for i := range a.Members {
		if a.Members[i].EmployeeID == employeeID {
			a.Members[i].PersonalNote = note
			return a.Members[i], nil
		}
	}
	return assignment.Member{}, assignment.ErrMemberNotFound
}

type fakeEmployees struct {
	employee.EmployeeRepository
	byID map[string]employee.Employee
}

func (f *fakeEmployees) GetByID(_ context.Context, id string) (employee.Employee, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

const (
	leadID  = "6f1d2c3a-1b2c-4d5e-8f90-000000000001"
	dev1ID  = "6f1d2c3a-1b2c-4d5e-8f90-000000000002"
	dev2ID  = "6f1d2c3a-1b2c-4d5e-8f90-000000000003"
	otherID = "6f1d2c3a-1b2c-4d5e-8f90-000000000004"
	ghostID = "6f1d2c3a-1b2c-4d5e-8f90-000000000005"
)

var (
	lead  = auth.Principal{UserID: "lead-user", EmployeeID: leadID, Role: user.RoleEmployee}
	dev1  = auth.Principal{UserID: "dev1-user", EmployeeID: dev1ID, Role: user.RoleEmployee}
	other = auth.Principal{UserID: "other-user", EmployeeID: otherID, Role: user.RoleEmployee}
	admin = auth.Principal{UserID: "admin-user", Role: user.RoleAdmin}
)

func newService(t *testing.T) (*AssignmentServiceImpl, *fakeAssignments) {
	t.Helper()
	sup := leadID
	repo := &fakeAssignments{byID: map[string]assignment.Assignment{}}
	employees := &fakeEmployees{byID: map[string]employee.Employee{
		leadID:  {ID: leadID, EmployeeCode: "BIM-001"},
		dev1ID:  {ID: dev1ID, EmployeeCode: "BIM-002", SupervisorID: &sup},
		dev2ID:  {ID: dev2ID, EmployeeCode: "BIM-003", SupervisorID: &sup},
		otherID: {ID: otherID, EmployeeCode: "BIM-004"},
	}}
	svc := NewAssignmentService(repo, employees, time.UTC)
	svc.now = func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func create(t *testing.T, svc *AssignmentServiceImpl) assignment.AssignmentResponse {
	t.Helper()
	resp, err := svc.Create(context.Background(), lead, assignment.CreateAssignmentRequest{
		Title:     " Clash detection, tower B ",
		StartDate: "2024-05-01",
		Deadline:  "2024-05-08",
		Members:   []assignment.MemberInput{{EmployeeID: dev1ID}},
	})
	require.NoError(t, err)
	return resp
}

func TestCreate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	resp := create(t, svc)
	assert.Equal(t, "Clash detection, tower B", resp.Title)
	assert.Equal(t, "in_progress", resp.Status)
	assert.Equal(t, leadID, resp.SupervisorID)
	assert.True(t, resp.Overdue)
	require.Len(t, resp.Members, 1)
	assert.Equal(t, "member", resp.Members[0].Role)

	_, err := svc.Create(ctx, lead, assignment.CreateAssignmentRequest{
		Title: "x", StartDate: "2024-05-01", Deadline: "2024-05-02",
		Members: []assignment.MemberInput{{EmployeeID: otherID}},
	})
	assert.ErrorIs(t, err, gateway.ErrForbidden)

	_, err = svc.Create(ctx, lead, assignment.CreateAssignmentRequest{
		Title: "x", StartDate: "2024-05-01", Deadline: "2024-05-02",
		Members: []assignment.MemberInput{{EmployeeID: ghostID}},
	})
	assert.ErrorIs(t, err, gateway.ErrNotFound)

	_, err = svc.Create(ctx, lead, assignment.CreateAssignmentRequest{Title: "x", StartDate: "2024-05-03", Deadline: "2024-05-02"})
	assert.Error(t, err)

	_, err = svc.Create(ctx, admin, assignment.CreateAssignmentRequest{Title: "x", StartDate: "2024-05-01", Deadline: "2024-05-02"})
	assert.ErrorIs(t, err, auth.ErrNoEmployeeProfile)
}

func TestLifecycle(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	id := create(t, svc).ID

	_, err := svc.Approve(ctx, lead, id)
	assert.ErrorIs(t, err, assignment.ErrInvalidTransition)

	_, err = svc.Complete(ctx, other, id)
	assert.ErrorIs(t, err, assignment.ErrNotMember)

	resp, err := svc.Complete(ctx, dev1, id)
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)
	assert.False(t, resp.Overdue)
	require.NotNil(t, resp.CompletedAt)

	_, err = svc.Complete(ctx, dev1, id)
	assert.ErrorIs(t, err, assignment.ErrInvalidTransition)

	_, err = svc.Approve(ctx, dev1, id)
	assert.ErrorIs(t, err, assignment.ErrNotAssignmentOwner)

	resp, err = svc.Approve(ctx, lead, id)
	require.NoError(t, err)
	assert.Equal(t, "approved", resp.Status)
	require.NotNil(t, resp.ApprovedBy)
	assert.Equal(t, lead.UserID, *resp.ApprovedBy)

	_, err = svc.AddMember(ctx, lead, id, assignment.AddMemberRequest{EmployeeID: dev2ID})
	assert.ErrorIs(t, err, assignment.ErrAssignmentFinalized)
}

func TestMembersAndNotes(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	id := create(t, svc).ID

	resp, err := svc.AddMember(ctx, lead, id, assignment.AddMemberRequest{EmployeeID: dev2ID, Role: "reviewer"})
	require.NoError(t, err)
	assert.Len(t, resp.Members, 2)

	_, err = svc.AddMember(ctx, lead, id, assignment.AddMemberRequest{EmployeeID: dev2ID})
	assert.ErrorIs(t, err, gateway.ErrConflict)

	_, err = svc.AddMember(ctx, dev1, id, assignment.AddMemberRequest{EmployeeID: dev2ID})
	assert.ErrorIs(t, err, assignment.ErrNotAssignmentOwner)

	note := "Level 3 done"
	resp, err = svc.UpdateMyNote(ctx, dev1, id, assignment.UpdateNoteRequest{PersonalNote: &note})
	require.NoError(t, err)
	require.NotNil(t, resp.Members[0].PersonalNote)
	assert.Equal(t, note, *resp.Members[0].PersonalNote)

	_, err = svc.UpdateMyNote(ctx, other, id, assignment.UpdateNoteRequest{PersonalNote: &note})
	assert.ErrorIs(t, err, assignment.ErrNotMember)

	_, err = svc.Get(ctx, other, id)
	assert.ErrorIs(t, err, gateway.ErrForbidden)
	_, err = svc.Get(ctx, admin, id)
	assert.NoError(t, err)
}
