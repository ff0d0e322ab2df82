package project

import "context"

type ProjectRepository interface {
	Create(ctx context.Context, p Project) (Project, error)
	GetByID(ctx context.Context, id string) (Project, error)
	GetBySlug(ctx context.Context, slug string) (Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]Project, int64, error)
	Update(ctx context.Context, p Project) (Project, error)
	UpdateCoverURL(ctx context.Context, id, url string) error
	Delete(ctx context.Context, id string) error
}
