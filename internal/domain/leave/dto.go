package leave

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/bimworks/portal-backend/internal/pkg/validator"
)

const MaxDocumentSize = 5 << 20

var allowedDocumentExts = []string{".pdf", ".jpg", ".jpeg", ".png"}

type SubmitLeaveRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	LeaveType string `json:"leave_type"`
	Reason    string `json:"reason"`

	Document         io.Reader `json:"-"`
	DocumentFilename string    `json:"-"`
	DocumentSize     int64     `json:"-"`

	startDate time.Time
	endDate   time.Time
}

func (r *SubmitLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	var okStart, okEnd bool
	if r.startDate, okStart = validator.IsValidDate(r.StartDate); !okStart {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	if r.endDate, okEnd = validator.IsValidDate(r.EndDate); !okEnd {
		errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
	}
	if okStart && okEnd && r.endDate.Before(r.startDate) {
		errs.Add("end_date", "end_date must not be before start_date")
	}
	if !Type(r.LeaveType).IsValid() {
		errs.Add("leave_type", "leave_type must be one of: annual, sick, casual, unpaid")
	}
	errs.Required("reason", r.Reason)
	if len(r.Reason) > 1000 {
		errs.Add("reason", "reason must not exceed 1000 characters")
	}
	if r.Document != nil {
		ext := strings.ToLower(filepath.Ext(r.DocumentFilename))
		if !validator.IsInSlice(ext, allowedDocumentExts) {
			errs.Add("document", "document must be a pdf, jpg, jpeg or png file")
		}
		if r.DocumentSize > MaxDocumentSize {
			errs.Add("document", "document must not exceed 5MB")
		}
	}

	return errs.Err()
}

// Dates returns the parsed range; valid only after Validate succeeded.
func (r *SubmitLeaveRequest) Dates() (time.Time, time.Time) {
	return r.startDate, r.endDate
}

type RejectLeaveRequest struct {
	Reason string `json:"reason"`
}

// Validate allows an empty reason.
func (r *RejectLeaveRequest) Validate() error {
	var errs validator.ValidationErrors
	if len(r.Reason) > 500 {
		errs.Add("reason", "reason must not exceed 500 characters")
	}
	return errs.Err()
}

type ApprovalResponse struct {
	Approved   bool    `json:"approved"`
	ApprovedBy *string `json:"approved_by,omitempty"`
	ApprovedAt *string `json:"approved_at,omitempty"`
}

type LeaveRequestResponse struct {
	ID           string           `json:"id"`
	EmployeeID   string           `json:"employee_id"`
	EmployeeName *string          `json:"employee_name,omitempty"`
	EmployeeCode *string          `json:"employee_code,omitempty"`
	Date         string           `json:"date"`
	StartDate    string           `json:"leave_start_date"`
	EndDate      string           `json:"leave_end_date"`
	Days         int              `json:"days"`
	LeaveType    string           `json:"leave_type"`
	Reason       string           `json:"reason"`
	DocumentURL  *string          `json:"document_url,omitempty"`
	State        string           `json:"state"`
	Supervisor   ApprovalResponse `json:"supervisor_approval"`
	Admin        ApprovalResponse `json:"admin_approval"`
	CreatedAt    string           `json:"created_at"`
}

type SubmitLeaveResponse struct {
	LeaveRequestResponse
	Warnings []string `json:"warnings,omitempty"`
}

type RejectionResponse struct {
	ID           string  `json:"id"`
	RequestID    string  `json:"request_id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName *string `json:"employee_name,omitempty"`
	LeaveType    string  `json:"leave_type"`
	StartDate    string  `json:"leave_start_date"`
	EndDate      string  `json:"leave_end_date"`
	Stage        string  `json:"stage"`
	Reason       string  `json:"reason"`
	RejectedBy   string  `json:"rejected_by"`
	RejectedAt   string  `json:"rejected_at"`
}

type BalanceResponse struct {
	EmployeeID string        `json:"employee_id"`
	Year       int           `json:"year"`
	Annual     BalanceCounts `json:"annual"`
	Sick       BalanceCounts `json:"sick"`
	Casual     BalanceCounts `json:"casual"`
}

type BalanceCounts struct {
	Total     int `json:"total"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}
