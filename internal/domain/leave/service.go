package leave

import (
	"context"

	"github.com/bimworks/portal-backend/internal/domain/auth"
)

type LeaveService interface {
	Submit(ctx context.Context, actor auth.Principal, req SubmitLeaveRequest) (SubmitLeaveResponse, error)
	SupervisorApprove(ctx context.Context, actor auth.Principal, requestID string) (LeaveRequestResponse, error)
	AdminApprove(ctx context.Context, actor auth.Principal, requestID string) (LeaveRequestResponse, error)
	Reject(ctx context.Context, actor auth.Principal, requestID string, req RejectLeaveRequest) (RejectionResponse, error)

	Get(ctx context.Context, actor auth.Principal, requestID string) (LeaveRequestResponse, error)
	ListMine(ctx context.Context, actor auth.Principal) ([]LeaveRequestResponse, error)
	ListPendingSupervisor(ctx context.Context, actor auth.Principal) ([]LeaveRequestResponse, error)
	ListPendingAdmin(ctx context.Context, actor auth.Principal) ([]LeaveRequestResponse, error)
	ListRejections(ctx context.Context, actor auth.Principal, employeeID string) ([]RejectionResponse, error)
	GetBalance(ctx context.Context, actor auth.Principal, year int) (BalanceResponse, error)
}
