package project

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/gateway"
	"github.com/bimworks/portal-backend/internal/domain/project"
	"github.com/bimworks/portal-backend/internal/domain/user"
	"github.com/bimworks/portal-backend/internal/service/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProjects struct {
	project.ProjectRepository
	byID map[string]project.Project
	seq  int
}

func (f *fakeProjects) Create(_ context.Context, p project.Project) (project.Project, error) {
	for _, existing := range f.byID {
		if existing.Slug == p.Slug {
			return project.Project{}, project.ErrSlugExists
		}
	}
	f.seq++
	p.ID = strings.Repeat("0", 7) + string(rune('0'+f.seq)) + "-0000-4000-8000-000000000000"
	p.CreatedAt = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	p.UpdatedAt = p.CreatedAt
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakeProjects) GetByID(_ context.Context, id string) (project.Project, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return project.Project{}, project.ErrProjectNotFound
}

func (f *fakeProjects) GetBySlug(_ context.Context, slug string) (project.Project, error) {
	for _, p := range f.byID {
		if p.Slug == slug {
			return p, nil
		}
	}
	return project.Project{}, project.ErrProjectNotFound
}

func (f *fakeProjects) List(_ context.Context, filter project.ProjectFilter) ([]project.Project, int64, error) {
	var out []project.Project
	for _, p := range f.byID {
		if filter.PublishedOnly && !p.Published {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProjects) Update(_ context.Context, p project.Project) (project.Project, error) {
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakeProjects) UpdateCoverURL(_ context.Context, id, url string) error {
	p := f.byID[id]
	p.CoverURL = &url
	f.byID[id] = p
	return nil
}

func (f *fakeProjects) Delete(_ context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

type fakeFiles struct {
	file.FileService
	uploadErr error
	uploads   int
	deleted   []string
}

func (f *fakeFiles) UploadProjectCover(_ context.Context, projectID string, _ io.Reader, _ string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads++
	return fmt.Sprintf("http://localhost:8080/storage/projects/%s/cover-%d.jpg", projectID, f.uploads), nil
}

func (f *fakeFiles) DeleteByURL(_ context.Context, _ string, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

var (
	admin   = auth.Principal{UserID: "admin-1", Role: user.RoleAdmin}
	visitor = auth.Principal{UserID: "user-1", EmployeeID: "emp-1", Role: user.RoleEmployee}
)

func newService() (*ProjectServiceImpl, *fakeProjects, *fakeFiles) {
	repo := &fakeProjects{byID: map[string]project.Project{}}
	files := &fakeFiles{}
	return NewProjectService(repo, files), repo, files
}

func TestCreateAndVisibility(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	published, err := svc.Create(ctx, admin, project.CreateProjectRequest{
		Slug: " Jakarta-Tower ", Title: "Jakarta Tower", Category: "commercial", Published: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "jakarta-tower", published.Slug)

	draft, err := svc.Create(ctx, admin, project.CreateProjectRequest{Slug: "bridge-b", Title: "Bridge B", Category: "infrastructure"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin, project.CreateProjectRequest{Slug: "jakarta-tower", Title: "Again", Category: "x"})
	assert.ErrorIs(t, err, gateway.ErrConflict)

	_, err = svc.Create(ctx, visitor, project.CreateProjectRequest{Slug: "nope", Title: "Nope", Category: "x"})
	assert.ErrorIs(t, err, gateway.ErrForbidden)

	_, err = svc.Create(ctx, admin, project.CreateProjectRequest{Slug: "Not A Slug!", Title: "x", Category: "x"})
	assert.Error(t, err)

	got, err := svc.Get(ctx, nil, "jakarta-tower")
	require.NoError(t, err)
	assert.Equal(t, published.ID, got.ID)

	_, err = svc.Get(ctx, nil, draft.ID)
	assert.ErrorIs(t, err, gateway.ErrNotFound)
	_, err = svc.Get(ctx, &admin, draft.ID)
	assert.NoError(t, err)

	public, err := svc.List(ctx, &visitor, project.ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, public.Projects, 1)
	assert.Equal(t, 12, public.Limit)

	all, err := svc.List(ctx, &admin, project.ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, all.Projects, 2)
}

func TestUpdate(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, admin, project.CreateProjectRequest{Slug: "site-a", Title: "Site A", Category: "residential"})
	require.NoError(t, err)

	publish := true
	title := "Site A Phase 2"
	updated, err := svc.Update(ctx, admin, created.ID, project.UpdateProjectRequest{Title: &title, Published: &publish})
	require.NoError(t, err)
	assert.Equal(t, "Site A Phase 2", updated.Title)
	assert.True(t, updated.Published)
	assert.Equal(t, "residential", updated.Category)

	empty := "  "
	_, err = svc.Update(ctx, admin, created.ID, project.UpdateProjectRequest{Title: &empty})
	assert.Error(t, err)
}

func TestCoverLifecycle(t *testing.T) {
	svc, repo, files := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, admin, project.CreateProjectRequest{Slug: "site-c", Title: "Site C", Category: "industrial"})
	require.NoError(t, err)

	first, err := svc.UploadCover(ctx, admin, created.ID, strings.NewReader("img"), "cover.png")
	require.NoError(t, err)
	require.NotNil(t, first.CoverURL)
	assert.Empty(t, files.deleted)

	second, err := svc.UploadCover(ctx, admin, created.ID, strings.NewReader("img"), "cover.png")
	require.NoError(t, err)
	assert.Equal(t, []string{*first.CoverURL}, files.deleted)
	assert.Equal(t, *second.CoverURL, *repo.byID[created.ID].CoverURL)

	files.uploadErr = file.ErrUnsupportedType
	_, err = svc.UploadCover(ctx, admin, created.ID, strings.NewReader("x"), "cover.gif")
	assert.ErrorIs(t, err, project.ErrInvalidCoverFile)

	require.NoError(t, svc.Delete(ctx, admin, created.ID))
	assert.Contains(t, files.deleted, *second.CoverURL)
	_, err = svc.Get(ctx, &admin, created.ID)
	assert.ErrorIs(t, err, gateway.ErrNotFound)
}
