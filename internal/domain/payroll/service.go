package payroll

import (
	"context"

	"github.com/bimworks/portal-backend/internal/domain/auth"
)

type PayrollService interface {
	Create(ctx context.Context, actor auth.Principal, req CreatePayrollRequest) (PayrollResponse, error)
	List(ctx context.Context, actor auth.Principal, filter PayrollFilter) (ListPayrollResponse, error)

	// Approve applies one decision to a batch. On approve a salary slip is
	// synthesized for each newly approved record.
	Approve(ctx context.Context, actor auth.Principal, req ApprovePayrollRequest) (ApprovePayrollResponse, error)

	ListMySlips(ctx context.Context, actor auth.Principal) ([]SlipResponse, error)

	// RenderSlipPDF returns the slip as a PDF; owners and payroll managers only.
	RenderSlipPDF(ctx context.Context, actor auth.Principal, slipID string) ([]byte, string, error)
}
