package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/project"
	"github.com/bimworks/portal-backend/internal/domain/user"
	"github.com/bimworks/portal-backend/internal/pkg/storage"
	"github.com/bimworks/portal-backend/internal/pkg/validator"
	"github.com/bimworks/portal-backend/internal/service/file"
)

type ProjectServiceImpl struct {
	project.ProjectRepository
	fileService file.FileService
}

func NewProjectService(repo project.ProjectRepository, fileService file.FileService) *ProjectServiceImpl {
	return &ProjectServiceImpl{
		ProjectRepository: repo,
		fileService:       fileService,
	}
}

func toResponse(p project.Project) project.ProjectResponse {
	return project.ProjectResponse{
		ID:          p.ID,
		Slug:        p.Slug,
		Title:       p.Title,
		Category:    p.Category,
		Client:      p.Client,
		Location:    p.Location,
		Year:        p.Year,
		Description: p.Description,
		CoverURL:    p.CoverURL,
		Published:   p.Published,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func canManage(actor *auth.Principal) bool {
	return actor != nil && actor.Can(user.PermissionProjectManage)
}

func (s *ProjectServiceImpl) Create(ctx context.Context, actor auth.Principal, req project.CreateProjectRequest) (project.ProjectResponse, error) {
	if !actor.Can(user.PermissionProjectManage) {
		return project.ProjectResponse{}, user.ErrAdminAccessRequired
	}
	if err := req.Validate(); err != nil {
		return project.ProjectResponse{}, err
	}

	created, err := s.ProjectRepository.Create(ctx, project.Project{
		Slug:        req.Slug,
		Title:       req.Title,
		Category:    req.Category,
		Client:      req.Client,
		Location:    req.Location,
		Year:        req.Year,
		Description: req.Description,
		Published:   req.Published,
		CreatedBy:   actor.UserID,
	})
	if err != nil {
		return project.ProjectResponse{}, err
	}

	slog.Info("project created", "project_id", created.ID, "slug", created.Slug, "by", actor.UserID)
	return toResponse(created), nil
}

// Get resolves idOrSlug as an id when it parses as a UUID. Drafts read as
// not found for anyone who cannot manage projects.
func (s *ProjectServiceImpl) Get(ctx context.Context, actor *auth.Principal, idOrSlug string) (project.ProjectResponse, error) {
	var (
		p   project.Project
		err error
	)
	if validator.IsValidUUID(idOrSlug) {
		p, err = s.ProjectRepository.GetByID(ctx, idOrSlug)
	} else {
		p, err = s.ProjectRepository.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return project.ProjectResponse{}, err
	}
	if !p.Published && !canManage(actor) {
		return project.ProjectResponse{}, project.ErrProjectNotFound
	}
	return toResponse(p), nil
}

func (s *ProjectServiceImpl) List(ctx context.Context, actor *auth.Principal, filter project.ProjectFilter) (project.ListProjectResponse, error) {
	if !canManage(actor) {
		filter.PublishedOnly = true
	}
	filter.Normalize()

	projects, total, err := s.ProjectRepository.List(ctx, filter)
	if err != nil {
		return project.ListProjectResponse{}, fmt.Errorf("failed to list projects: %w", err)
	}

	responses := make([]project.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		responses = append(responses, toResponse(p))
	}
	return project.ListProjectResponse{
		Projects:   responses,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *ProjectServiceImpl) Update(ctx context.Context, actor auth.Principal, id string, req project.UpdateProjectRequest) (project.ProjectResponse, error) {
	if !actor.Can(user.PermissionProjectManage) {
		return project.ProjectResponse{}, user.ErrAdminAccessRequired
	}
	if err := req.Validate(); err != nil {
		return project.ProjectResponse{}, err
	}

	p, err := s.ProjectRepository.GetByID(ctx, id)
	if err != nil {
		return project.ProjectResponse{}, err
	}

	if req.Slug != nil {
		p.Slug = *req.Slug
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Client != nil {
		p.Client = req.Client
	}
	if req.Location != nil {
		p.Location = req.Location
	}
	if req.Year != nil {
		p.Year = req.Year
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Published != nil {
		p.Published = *req.Published
	}

	updated, err := s.ProjectRepository.Update(ctx, p)
	if err != nil {
		return project.ProjectResponse{}, err
	}
	return toResponse(updated), nil
}

func (s *ProjectServiceImpl) Delete(ctx context.Context, actor auth.Principal, id string) error {
	if !actor.Can(user.PermissionProjectManage) {
		return user.ErrAdminAccessRequired
	}

	p, err := s.ProjectRepository.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ProjectRepository.Delete(ctx, id); err != nil {
		return err
	}

	if p.CoverURL != nil {
		if err := s.fileService.DeleteByURL(ctx, storage.BucketProjects, *p.CoverURL); err != nil {
			slog.Warn("failed to delete project cover", "project_id", id, "error", err)
		}
	}
	slog.Info("project deleted", "project_id", id, "by", actor.UserID)
	return nil
}

// UploadCover replaces the cover image. The previous file is removed only
// after the new URL is stored.
func (s *ProjectServiceImpl) UploadCover(ctx context.Context, actor auth.Principal, id string, cover io.Reader, filename string) (project.ProjectResponse, error) {
	if !actor.Can(user.PermissionProjectManage) {
		return project.ProjectResponse{}, user.ErrAdminAccessRequired
	}

	p, err := s.ProjectRepository.GetByID(ctx, id)
	if err != nil {
		return project.ProjectResponse{}, err
	}

	url, err := s.fileService.UploadProjectCover(ctx, id, cover, filename)
	if err != nil {
		if errors.Is(err, file.ErrUnsupportedType) || errors.Is(err, file.ErrFileTooLarge) {
			return project.ProjectResponse{}, project.ErrInvalidCoverFile
		}
		return project.ProjectResponse{}, fmt.Errorf("failed to upload cover: %w", err)
	}

	if err := s.ProjectRepository.UpdateCoverURL(ctx, id, url); err != nil {
		if cleanupErr := s.fileService.DeleteByURL(ctx, storage.BucketProjects, url); cleanupErr != nil {
			slog.Warn("failed to clean up cover upload", "url", url, "error", cleanupErr)
		}
		return project.ProjectResponse{}, err
	}

	if p.CoverURL != nil && *p.CoverURL != url {
		if err := s.fileService.DeleteByURL(ctx, storage.BucketProjects, *p.CoverURL); err != nil {
			slog.Warn("failed to delete previous cover", "project_id", id, "error", err)
		}
	}

	p.CoverURL = &url
	return toResponse(p), nil
}

var _ project.ProjectService = (*ProjectServiceImpl)(nil)
