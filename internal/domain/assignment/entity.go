package assignment

import (
	"strings"
	"time"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusApproved   Status = "approved"
)

// next lists the only forward transition allowed from each status.
var next = map[Status]Status{
	StatusInProgress: StatusCompleted,
	StatusCompleted:  StatusApproved,
}

// CanTransition reports whether from -> to is allowed. There is no reopen.
func CanTransition(from, to Status) bool {
	n, ok := next[from]
	return ok && n == to
}

type Assignment struct {
	ID           string
	Title        string
	Note         *string
	StartDate    time.Time
	Deadline     time.Time
	Status       Status
	SupervisorID string
	CompletedBy  *string
	CompletedAt  *time.Time
	ApprovedBy   *string
	ApprovedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Members []Member

	// Joined
	SupervisorName *string
}

// Member is one row of the many-to-many membership.
type Member struct {
	AssignmentID string
	EmployeeID   string
	Role         string
	PersonalNote *string
	JoinedAt     time.Time

	// Joined
	EmployeeName *string
}

// New validates and builds an in-progress assignment.
func New(title string, note *string, start, deadline time.Time, supervisorID string) (Assignment, error) {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		return Assignment{}, ErrTitleRequired
	case supervisorID == "":
		return Assignment{}, ErrSupervisorRequired
	case deadline.Before(start):
		return Assignment{}, ErrInvalidDeadline
	}
	return Assignment{
		Title:        title,
		Note:         note,
		StartDate:    start,
		Deadline:     deadline,
		Status:       StatusInProgress,
		SupervisorID: supervisorID,
	}, nil
}

func (a Assignment) HasMember(employeeID string) bool {
	for _, m := range a.Members {
		if m.EmployeeID == employeeID {
			return true
		}
	}
	return false
}

// IsOverdue reports whether the deadline passed before the work completed.
func (a Assignment) IsOverdue(now time.Time) bool {
	return a.Status == StatusInProgress && now.After(a.Deadline.Add(24*time.Hour))
}
