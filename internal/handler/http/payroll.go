package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bimworks/portal-backend/internal/domain/payroll"
	"github.com/bimworks/portal-backend/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	ListMySlips(w http.ResponseWriter, r *http.Request)
	DownloadSlip(w http.ResponseWriter, r *http.Request)
}

type PayrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &PayrollHandlerImpl{payrollService: payrollService}
}

// Create implements PayrollHandler.
func (h *PayrollHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	var req payroll.CreatePayrollRequest
	if !decodeJSON(w, r, "CreatePayroll", &req) {
		return
	}

	created, err := h.payrollService.Create(r.Context(), actor, req)
	if err != nil {
		slog.Error("CreatePayroll service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Payroll record created successfully", created)
}

// List implements PayrollHandler.
func (h *PayrollHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}

	filter := payroll.PayrollFilter{
		EmployeeID: queryPtr(r, "employee_id"),
		Status:     queryPtr(r, "status"),
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", 20),
	}
	if v := r.URL.Query().Get("year"); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			filter.Year = &year
		}
	}
	if v := r.URL.Query().Get("month"); v != "" {
		if month, err := strconv.Atoi(v); err == nil {
			filter.Month = &month
		}
	}

	result, err := h.payrollService.List(r.Context(), actor, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMeta(w, result.Payrolls, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}

// Approve implements PayrollHandler. Mounted behind the idempotency
// middleware so retried submissions replay the first result.
func (h *PayrollHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	var req payroll.ApprovePayrollRequest
	if !decodeJSON(w, r, "ApprovePayroll", &req) {
		return
	}

	result, err := h.payrollService.Approve(r.Context(), actor, req)
	if err != nil {
		slog.Error("ApprovePayroll service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, fmt.Sprintf("%d payroll record(s) processed", len(result.Processed)), result)
}

// ListMySlips implements PayrollHandler.
func (h *PayrollHandlerImpl) ListMySlips(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	slips, err := h.payrollService.ListMySlips(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, slips)
}

// DownloadSlip implements PayrollHandler.
func (h *PayrollHandlerImpl) DownloadSlip(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}

	pdf, filename, err := h.payrollService.RenderSlipPDF(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("DownloadSlip service error", "error", err)
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		slog.Error("failed to write salary slip", "error", err)
	}
}
