package leave

import (
	"testing"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRecord(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)
	leaveType := "sick"
	by := "admin-user"

	tests := []struct {
		name    string
		rec     attendance.Record
		wantErr error
		want    State
	}{
		{
			name:    "attendance day",
			rec:     attendance.Record{Date: start, Status: attendance.StatusPresent},
			wantErr: ErrNotALeaveRequest,
		},
		{
			name:    "manual leave day without request data",
			rec:     attendance.Record{Date: start, Status: attendance.StatusLeave, ManuallyAdded: true, AdminApproved: true, AdminApprovedBy: &by},
			wantErr: ErrNotALeaveRequest,
		},
		{
			name: "submitted request",
			rec:  attendance.Record{Date: start, Status: attendance.StatusLeave, LeaveType: &leaveType, LeaveStartDate: &start, LeaveEndDate: &end},
			want: StateSubmitted,
		},
		{
			name: "supervisor approved",
			rec:  attendance.Record{Date: start, Status: attendance.StatusLeave, LeaveType: &leaveType, LeaveStartDate: &start, LeaveEndDate: &end, SupervisorApproved: true},
			want: StateSupervisorApproved,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := FromRecord(tt.rec)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.State())
			assert.Equal(t, Type("sick"), req.Type)
			assert.Equal(t, 3, req.Days())
		})
	}
}
