package whitelist

import "time"

// Entry is an office network address from which attendance may be recorded.
type Entry struct {
	ID        string
	IPAddress string
	Label     *string
	IsActive  bool
	CreatedBy *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
