package project

import (
	"context"
	"io"

	"github.com/bimworks/portal-backend/internal/domain/auth"
)

type ProjectService interface {
	Create(ctx context.Context, actor auth.Principal, req CreateProjectRequest) (ProjectResponse, error)
	// Get accepts an id or a slug. Unpublished projects are visible to managers only.
	Get(ctx context.Context, actor *auth.Principal, idOrSlug string) (ProjectResponse, error)
	List(ctx context.Context, actor *auth.Principal, filter ProjectFilter) (ListProjectResponse, error)
	Update(ctx context.Context, actor auth.Principal, id string, req UpdateProjectRequest) (ProjectResponse, error)
	Delete(ctx context.Context, actor auth.Principal, id string) error
	UploadCover(ctx context.Context, actor auth.Principal, id string, file io.Reader, filename string) (ProjectResponse, error)
}
