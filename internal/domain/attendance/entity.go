package attendance

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
	StatusLeave   Status = "Leave"
	StatusLate    Status = "Late"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLeave, StatusLate:
		return true
	}
	return false
}

// Record is one attendance row. (EmployeeID, Date) is unique in the store.
// Leave requests are Records with Status Leave and leave metadata set.
type Record struct {
	ID            string
	EmployeeID    string
	Date          time.Time
	Status        Status
	CheckInTime   *time.Time
	CheckOutTime  *time.Time
	TotalHours    decimal.NullDecimal
	IPAddress     *string
	ManuallyAdded bool

	LeaveType        *string
	LeaveReason      *string
	LeaveStartDate   *time.Time
	LeaveEndDate     *time.Time
	LeaveDocumentURL *string

	SupervisorApproved   bool
	SupervisorApprovedBy *string
	SupervisorApprovedAt *time.Time
	AdminApproved        bool
	AdminApprovedBy      *string
	AdminApprovedAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined
	EmployeeName *string
	EmployeeCode *string
}

// DateOf truncates t to its calendar date in loc. The result is midnight UTC
// so it round-trips through a DATE column unchanged.
func DateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewCheckIn builds the record inserted by a self-service check-in.
func NewCheckIn(employeeID string, now time.Time, loc *time.Location, ip string) (Record, error) {
	if employeeID == "" {
		return Record{}, errors.New("employee id is required")
	}
	if ip == "" {
		return Record{}, ErrMissingClientIP
	}
	checkIn := now.UTC()
	return Record{
		EmployeeID:    employeeID,
		Date:          DateOf(now, loc),
		Status:        StatusPresent,
		CheckInTime:   &checkIn,
		IPAddress:     &ip,
		ManuallyAdded: false,
	}, nil
}

// CheckOut stamps the check-out time and computes worked hours.
func (r *Record) CheckOut(now time.Time) error {
	if r.CheckInTime == nil {
		return ErrNotCheckedIn
	}
	if r.CheckOutTime != nil {
		return ErrAlreadyCheckedOut
	}
	if now.Before(*r.CheckInTime) {
		return ErrCheckOutBeforeCheckIn
	}
	out := now.UTC()
	r.CheckOutTime = &out
	r.TotalHours = decimal.NewNullDecimal(WorkedHours(*r.CheckInTime, out))
	return nil
}

// WorkedHours is out-in in hours, rounded to two decimals.
func WorkedHours(in, out time.Time) decimal.Decimal {
	minutes := decimal.NewFromInt(int64(out.Sub(in) / time.Minute))
	return minutes.Div(decimal.NewFromInt(60)).Round(2)
}

func (r Record) IsLeave() bool {
	return r.Status == StatusLeave
}

// MonthRange returns [first day, first day of next month) for year/month.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// Summary holds the per-status counts shown on dashboards.
type Summary struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Leave   int `json:"leave"`
	Late    int `json:"late"`
}

// Summarize counts records by status. Late arrivals count as present.
func Summarize(records []Record) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			s.Present++
		case StatusLate:
			s.Present++
			s.Late++
		case StatusAbsent:
			s.Absent++
		case StatusLeave:
			s.Leave++
		}
	}
	return s
}
