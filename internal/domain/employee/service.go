package employee

import (
	"context"
	"io"

	"github.com/bimworks/portal-backend/internal/domain/auth"
)

type EmployeeService interface {
	Create(ctx context.Context, actor auth.Principal, req CreateEmployeeRequest) (EmployeeResponse, error)
	Get(ctx context.Context, actor auth.Principal, id string) (EmployeeResponse, error)
	GetMe(ctx context.Context, actor auth.Principal) (EmployeeResponse, error)
	List(ctx context.Context, actor auth.Principal, filter EmployeeFilter) (ListEmployeeResponse, error)
	Update(ctx context.Context, actor auth.Principal, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, actor auth.Principal, id string) error
	UploadCV(ctx context.Context, actor auth.Principal, id string, file io.Reader, filename string) (EmployeeResponse, error)
}
