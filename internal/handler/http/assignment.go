package http

import (
	"log/slog"
	"net/http"

	"github.com/bimworks/portal-backend/internal/domain/assignment"
	"github.com/bimworks/portal-backend/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AssignmentHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	ListSupervised(w http.ResponseWriter, r *http.Request)
	AddMember(w http.ResponseWriter, r *http.Request)
	RemoveMember(w http.ResponseWriter, r *http.Request)
	UpdateMyNote(w http.ResponseWriter, r *http.Request)
	Complete(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
}

type AssignmentHandlerImpl struct {
	assignmentService assignment.AssignmentService
}

func NewAssignmentHandler(assignmentService assignment.AssignmentService) AssignmentHandler {
	return &AssignmentHandlerImpl{assignmentService: assignmentService}
}

func (h *AssignmentHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	var req assignment.CreateAssignmentRequest
	if !decodeJSON(w, r, "CreateAssignment", &req) {
		return
	}

	created, err := h.assignmentService.Create(r.Context(), actor, req)
	if err != nil {
		slog.Error("CreateAssignment service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Assignment created successfully", created)
}

func (h *AssignmentHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	found, err := h.assignmentService.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, found)
}

func (h *AssignmentHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	list, err := h.assignmentService.ListMine(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, list)
}

func (h *AssignmentHandlerImpl) ListSupervised(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	list, err := h.assignmentService.ListSupervised(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, list)
}

func (h *AssignmentHandlerImpl) AddMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	var req assignment.AddMemberRequest
	if !decodeJSON(w, r, "AddMember", &req) {
		return
	}

	updated, err := h.assignmentService.AddMember(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Member added", updated)
}

func (h *AssignmentHandlerImpl) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	updated, err := h.assignmentService.RemoveMember(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "employeeID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Member removed", updated)
}

func (h *AssignmentHandlerImpl) UpdateMyNote(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	var req assignment.UpdateNoteRequest
	if !decodeJSON(w, r, "UpdateMyNote", &req) {
		return
	}

	updated, err := h.assignmentService.UpdateMyNote(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Note updated", updated)
}

func (h *AssignmentHandlerImpl) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	updated, err := h.assignmentService.Complete(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("CompleteAssignment service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Assignment marked as completed", updated)
}

func (h *AssignmentHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	updated, err := h.assignmentService.Approve(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("ApproveAssignment service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Assignment approved", updated)
}
