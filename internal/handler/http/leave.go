package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bimworks/portal-backend/internal/domain/leave"
	"github.com/bimworks/portal-backend/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	ListPendingSupervisor(w http.ResponseWriter, r *http.Request)
	ListPendingAdmin(w http.ResponseWriter, r *http.Request)
	SupervisorApprove(w http.ResponseWriter, r *http.Request)
	AdminApprove(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	ListRejections(w http.ResponseWriter, r *http.Request)
	GetBalance(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &LeaveHandlerImpl{leaveService: leaveService}
}

// Submit implements LeaveHandler. It accepts a JSON body, or a multipart
// form with the request in "data" and an optional "document".
func (l *LeaveHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}

	var req leave.SubmitLeaveRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if !parseMultipart(w, r, "SubmitLeave") {
			return
		}
		dataJSON := r.FormValue("data")
		if dataJSON == "" {
			response.BadRequest(w, "Field 'data' is required", nil)
			return
		}
		if err := json.Unmarshal([]byte(dataJSON), &req); err != nil {
			slog.Error("SubmitLeave decode error", "error", err)
			response.BadRequest(w, "Invalid request format", nil)
			return
		}

		file, header, err := r.FormFile("document")
		if err != nil && err != http.ErrMissingFile {
			slog.Error("Failed to get file from form", "error", err)
			response.BadRequest(w, "Invalid file upload", nil)
			return
		}
		if file != nil {
			defer file.Close()
			req.Document = file
			req.DocumentFilename = header.Filename
			req.DocumentSize = header.Size
		}
	} else if !decodeJSON(w, r, "SubmitLeave", &req) {
		return
	}

	submitted, err := l.leaveService.Submit(r.Context(), actor, req)
	if err != nil {
		slog.Error("SubmitLeave service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Leave request submitted successfully", submitted)
}

// Get implements LeaveHandler.
func (l *LeaveHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	request, err := l.leaveService.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, request)
}

// ListMine implements LeaveHandler.
func (l *LeaveHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	requests, err := l.leaveService.ListMine(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, requests)
}

// ListPendingSupervisor implements LeaveHandler.
func (l *LeaveHandlerImpl) ListPendingSupervisor(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	requests, err := l.leaveService.ListPendingSupervisor(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, requests)
}

// ListPendingAdmin implements LeaveHandler.
func (l *LeaveHandlerImpl) ListPendingAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	requests, err := l.leaveService.ListPendingAdmin(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, requests)
}

// SupervisorApprove implements LeaveHandler.
func (l *LeaveHandlerImpl) SupervisorApprove(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	request, err := l.leaveService.SupervisorApprove(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("SupervisorApprove service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave request approved by supervisor", request)
}

// AdminApprove implements LeaveHandler.
func (l *LeaveHandlerImpl) AdminApprove(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	request, err := l.leaveService.AdminApprove(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("AdminApprove service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave request fully approved", request)
}

// Reject implements LeaveHandler.
func (l *LeaveHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	var req leave.RejectLeaveRequest
	if !decodeOptionalJSON(w, r, "RejectLeave", &req) {
		return
	}

	rejection, err := l.leaveService.Reject(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		slog.Error("RejectLeave service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave request rejected", rejection)
}

// ListRejections implements LeaveHandler. Without employee_id, viewers with
// leave.view_all see every rejection and others see their own.
func (l *LeaveHandlerImpl) ListRejections(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	rejections, err := l.leaveService.ListRejections(r.Context(), actor, r.URL.Query().Get("employee_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, rejections)
}

// GetBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) GetBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	balance, err := l.leaveService.GetBalance(r.Context(), actor, queryInt(r, "year", 0))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, balance)
}
