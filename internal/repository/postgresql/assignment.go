package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/assignment"
	"github.com/bimworks/portal-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type assignmentRepositoryImpl struct {
	db *database.DB
}

func NewAssignmentRepository(db *database.DB) assignment.AssignmentRepository {
	return &assignmentRepositoryImpl{db: db}
}

const assignmentSelect = `
	SELECT
		a.id, a.title, a.note, a.start_date, a.deadline, a.status, a.supervisor_id,
		a.completed_by, a.completed_at, a.approved_by, a.approved_at, a.created_at, a.updated_at,
		s.full_name
	FROM assignments a
	JOIN employees s ON s.id = a.supervisor_id
`

const memberSelect = `
	SELECT m.assignment_id, m.employee_id, m.role, m.personal_note, m.joined_at, e.full_name
	FROM assignment_members m
	JOIN employees e ON e.id = m.employee_id
`

func scanAssignment(row interface{ Scan(dest ...any) error }) (assignment.Assignment, error) {
	var a assignment.Assignment
	err := row.Scan(
		&a.ID, &a.Title, &a.Note, &a.StartDate, &a.Deadline, &a.Status, &a.SupervisorID,
		&a.CompletedBy, &a.CompletedAt, &a.ApprovedBy, &a.ApprovedAt, &a.CreatedAt, &a.UpdatedAt,
		&a.SupervisorName,
	)
	return a, err
}

func scanMember(row interface{ Scan(dest ...any) error }) (assignment.Member, error) {
	var m assignment.Member
	err := row.Scan(&m.AssignmentID, &m.EmployeeID, &m.Role, &m.PersonalNote, &m.JoinedAt, &m.EmployeeName)
	return m, err
}

func assignmentError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return assignment.ErrAssignmentNotFound
	}
	if isUniqueViolation(err, "assignment_members_pkey") {
		return assignment.ErrMemberExists
	}
	return mapError(err)
}

// Create inserts the assignment and its initial members in one transaction.
func (r *assignmentRepositoryImpl) Create(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	var id string
	err := WithTransaction(ctx, r.db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, r.db)

		query := `
			INSERT INTO assignments (title, note, start_date, deadline, status, supervisor_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`
		if err := q.QueryRow(txCtx, query, a.Title, a.Note, a.StartDate, a.Deadline, a.Status, a.SupervisorID).Scan(&id); err != nil {
			return assignmentError(err)
		}

		for _, m := range a.Members {
			m.AssignmentID = id
			if err := insertMember(txCtx, q, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return assignment.Assignment{}, err
	}

	return r.GetByID(ctx, id)
}

func insertMember(ctx context.Context, q database.Querier, m assignment.Member) error {
	query := `
		INSERT INTO assignment_members (assignment_id, employee_id, role, personal_note)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := q.Exec(ctx, query, m.AssignmentID, m.EmployeeID, m.Role, m.PersonalNote); err != nil {
		return assignmentError(err)
	}
	return nil
}

// GetByID implements assignment.AssignmentRepository.
func (r *assignmentRepositoryImpl) GetByID(ctx context.Context, id string) (assignment.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	a, err := scanAssignment(q.QueryRow(ctx, assignmentSelect+" WHERE a.id = $1", id))
	if err != nil {
		return assignment.Assignment{}, assignmentError(err)
	}

	list := []assignment.Assignment{a}
	if err := r.attachMembers(ctx, list); err != nil {
		return assignment.Assignment{}, err
	}
	return list[0], nil
}

// UpdateStatus implements assignment.AssignmentRepository.
func (r *assignmentRepositoryImpl) UpdateStatus(ctx context.Context, id string, from, to assignment.Status, actorID string, at time.Time) (assignment.Assignment, error) {
	if !assignment.CanTransition(from, to) {
		return assignment.Assignment{}, assignment.ErrInvalidTransition
	}

	var set string
	switch to {
	case assignment.StatusCompleted:
		set = "completed_by = $1, completed_at = $2"
	case assignment.StatusApproved:
		set = "approved_by = $1, approved_at = $2"
	}

	q := GetQuerier(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE assignments
		SET status = $3, %s, updated_at = NOW()
		WHERE id = $4 AND status = $5
		RETURNING id
	`, set)

	var updatedID string
	err := q.QueryRow(ctx, query, actorID, at, to, id, from).Scan(&updatedID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return assignment.Assignment{}, mapError(err)
		}
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return assignment.Assignment{}, getErr
		}
		return assignment.Assignment{}, assignment.ErrInvalidTransition
	}

	return r.GetByID(ctx, updatedID)
}

// ListByMember implements assignment.AssignmentRepository.
func (r *assignmentRepositoryImpl) ListByMember(ctx context.Context, employeeID string) ([]assignment.Assignment, error) {
	query := assignmentSelect + `
		WHERE EXISTS (
			SELECT 1 FROM assignment_members m WHERE m.assignment_id = a.id AND m.employee_id = $1
		)
		ORDER BY a.deadline ASC, a.created_at DESC
	`
	return r.list(ctx, query, employeeID)
}

// ListBySupervisor implements assignment.AssignmentRepository.
func (r *assignmentRepositoryImpl) ListBySupervisor(ctx context.Context, supervisorID string) ([]assignment.Assignment, error) {
	query := assignmentSelect + `
		WHERE a.supervisor_id = $1
		ORDER BY a.deadline ASC, a.created_at DESC
	`
	return r.list(ctx, query, supervisorID)
}

func (r *assignmentRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]assignment.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	assignments := []assignment.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	if err := r.attachMembers(ctx, assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// attachMembers loads members for every assignment in one query.
func (r *assignmentRepositoryImpl) attachMembers(ctx context.Context, assignments []assignment.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	ids := make([]string, len(assignments))
	index := make(map[string]int, len(assignments))
	for i, a := range assignments {
		ids[i] = a.ID
		index[a.ID] = i
	}

	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, memberSelect+" WHERE m.assignment_id = ANY($1::uuid[]) ORDER BY m.joined_at ASC", ids)
	if err != nil {
		return mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return err
		}
		i := index[m.AssignmentID]
		assignments[i].Members = append(assignments[i].Members, m)
	}
	return mapError(rows.Err())
}

// AddMember implements assignment.AssignmentRepository.
func (r *assignmentRepositoryImpl) AddMember(ctx context.Context, m assignment.Member) (assignment.Member, error) {
	q := GetQuerier(ctx, r.db)
	if err := insertMember(ctx, q, m); err != nil {
		return assignment.Member{}, err
	}
	return r.getMember(ctx, m.AssignmentID, m.EmployeeID)
}

// RemoveMember implements assignment.AssignmentRepository.
func (r *assignmentRepositoryImpl) RemoveMember(ctx context.Context, assignmentID, employeeID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM assignment_members WHERE assignment_id = $1 AND employee_id = $2`, assignmentID, employeeID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return assignment.ErrMemberNotFound
	}
	return nil
}

// UpdateMemberNote implements assignment.AssignmentRepository.
func (r *assignmentRepositoryImpl) UpdateMemberNote(ctx context.Context, assignmentID, employeeID string, note *string) (assignment.Member, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE assignment_members SET personal_note = $1
		WHERE assignment_id = $2 AND employee_id = $3
	`, note, assignmentID, employeeID)
	if err != nil {
		return assignment.Member{}, mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return assignment.Member{}, assignment.ErrMemberNotFound
	}
	return r.getMember(ctx, assignmentID, employeeID)
}

func (r *assignmentRepositoryImpl) getMember(ctx context.Context, assignmentID, employeeID string) (assignment.Member, error) {
	q := GetQuerier(ctx, r.db)

	m, err := scanMember(q.QueryRow(ctx, memberSelect+" WHERE m.assignment_id = $1 AND m.employee_id = $2", assignmentID, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return assignment.Member{}, assignment.ErrMemberNotFound
		}
		return assignment.Member{}, mapError(err)
	}
	return m, nil
}

