package http

import (
	"log/slog"
	"net/http"

	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/project"
	"github.com/bimworks/portal-backend/internal/handler/http/middleware"
	"github.com/bimworks/portal-backend/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ProjectHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	UploadCover(w http.ResponseWriter, r *http.Request)
}

type ProjectHandlerImpl struct {
	projectService project.ProjectService
}

func NewProjectHandler(projectService project.ProjectService) ProjectHandler {
	return &ProjectHandlerImpl{projectService: projectService}
}

// optionalPrincipal is nil for anonymous visitors of the public site.
func optionalPrincipal(r *http.Request) *auth.Principal {
	if p, ok := middleware.PrincipalFrom(r.Context()); ok {
		return &p
	}
	return nil
}

// List implements ProjectHandler.
func (h *ProjectHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := project.ProjectFilter{
		Category: queryPtr(r, "category"),
		Search:   queryPtr(r, "search"),
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 12),
	}

	result, err := h.projectService.List(r.Context(), optionalPrincipal(r), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMeta(w, result.Projects, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}

// Get implements ProjectHandler. The path segment may be an id or a slug.
func (h *ProjectHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	found, err := h.projectService.Get(r.Context(), optionalPrincipal(r), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, found)
}

// Create implements ProjectHandler.
func (h *ProjectHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	var req project.CreateProjectRequest
	if !decodeJSON(w, r, "CreateProject", &req) {
		return
	}

	created, err := h.projectService.Create(r.Context(), actor, req)
	if err != nil {
		slog.Error("CreateProject service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Project created successfully", created)
}

// Update implements ProjectHandler.
func (h *ProjectHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	var req project.UpdateProjectRequest
	if !decodeJSON(w, r, "UpdateProject", &req) {
		return
	}

	updated, err := h.projectService.Update(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		slog.Error("UpdateProject service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Project updated successfully", updated)
}

// Delete implements ProjectHandler.
func (h *ProjectHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	if err := h.projectService.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Project deleted successfully", nil)
}

// UploadCover implements ProjectHandler. The image is sent as "cover".
func (h *ProjectHandlerImpl) UploadCover(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	if !parseMultipart(w, r, "UploadCover") {
		return
	}

	file, header, err := r.FormFile("cover")
	if err != nil {
		response.BadRequest(w, "Field 'cover' is required", nil)
		return
	}
	defer file.Close()

	updated, err := h.projectService.UploadCover(r.Context(), actor, chi.URLParam(r, "id"), file, header.Filename)
	if err != nil {
		slog.Error("UploadCover service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Cover uploaded successfully", updated)
}
