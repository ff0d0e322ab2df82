package assignment

import (
	"time"

	"github.com/bimworks/portal-backend/internal/pkg/validator"
)

type MemberInput struct {
	EmployeeID   string  `json:"employee_id"`
	Role         string  `json:"role"`
	PersonalNote *string `json:"personal_note,omitempty"`
}

type CreateAssignmentRequest struct {
	Title     string        `json:"title"`
	Note      *string       `json:"note,omitempty"`
	StartDate string        `json:"start_date"`
	Deadline  string        `json:"deadline"`
	Members   []MemberInput `json:"members"`

	startDate time.Time
	deadline  time.Time
}

func (r *CreateAssignmentRequest) Validate() error {
	var errs validator.ValidationErrors

	errs.Required("title", r.Title)
	if len(r.Title) > 200 {
		errs.Add("title", "title must not exceed 200 characters")
	}
	var okStart, okDeadline bool
	if r.startDate, okStart = validator.IsValidDate(r.StartDate); !okStart {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	if r.deadline, okDeadline = validator.IsValidDate(r.Deadline); !okDeadline {
		errs.Add("deadline", "deadline must be in YYYY-MM-DD format")
	}
	if okStart && okDeadline && r.deadline.Before(r.startDate) {
		errs.Add("deadline", "deadline must not be before start_date")
	}
	seen := make(map[string]bool, len(r.Members))
	for _, m := range r.Members {
		if !validator.IsValidUUID(m.EmployeeID) {
			errs.Add("members", "every member needs a valid employee_id")
			break
		}
		if seen[m.EmployeeID] {
			errs.Add("members", "members must not contain duplicates")
			break
		}
		seen[m.EmployeeID] = true
	}

	return errs.Err()
}

// Dates returns the parsed dates; valid only after Validate succeeded.
func (r *CreateAssignmentRequest) Dates() (time.Time, time.Time) {
	return r.startDate, r.deadline
}

type AddMemberRequest MemberInput

func (r *AddMemberRequest) Validate() error {
	if !validator.IsValidUUID(r.EmployeeID) {
		return validator.ValidationErrors{{Field: "employee_id", Message: "employee_id must be a valid UUID"}}
	}
	return nil
}

type UpdateNoteRequest struct {
	PersonalNote *string `json:"personal_note"`
}

type MemberResponse struct {
	EmployeeID   string  `json:"employee_id"`
	EmployeeName *string `json:"employee_name,omitempty"`
	Role         string  `json:"role"`
	PersonalNote *string `json:"personal_note,omitempty"`
}

type AssignmentResponse struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Note           *string          `json:"note,omitempty"`
	StartDate      string           `json:"start_date"`
	Deadline       string           `json:"deadline"`
	Status         string           `json:"status"`
	Overdue        bool             `json:"overdue"`
	SupervisorID   string           `json:"supervisor_id"`
	SupervisorName *string          `json:"supervisor_name,omitempty"`
	CompletedAt    *string          `json:"completed_at,omitempty"`
	ApprovedBy     *string          `json:"approved_by,omitempty"`
	ApprovedAt     *string          `json:"approved_at,omitempty"`
	Members        []MemberResponse `json:"members"`
}
