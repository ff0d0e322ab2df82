package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/attendance"
	"github.com/bimworks/portal-backend/internal/handler/http/middleware"
	"github.com/bimworks/portal-backend/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	Today(w http.ResponseWriter, r *http.Request)
	Mine(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	ManualEntry(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
}

type AttendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	now               func() time.Time
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &AttendanceHandlerImpl{
		attendanceService: attendanceService,
		now:               time.Now,
	}
}

// monthFilter reads year and month, defaulting to the current month.
func (h *AttendanceHandlerImpl) monthFilter(r *http.Request) attendance.MonthFilter {
	now := h.now()
	return attendance.MonthFilter{
		EmployeeID: r.URL.Query().Get("employee_id"),
		Year:       queryInt(r, "year", now.Year()),
		Month:      queryInt(r, "month", int(now.Month())),
	}
}

// CheckIn implements AttendanceHandler. The whitelist is matched against the
// connection address (or the proxy-reported one when RealIP is enabled).
func (h *AttendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}

	record, err := h.attendanceService.CheckIn(r.Context(), actor, attendance.CheckInRequest{
		IPAddress: middleware.ClientIP(r),
	})
	if err != nil {
		slog.Error("CheckIn service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Checked in successfully", record)
}

// CheckOut implements AttendanceHandler.
func (h *AttendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}

	record, err := h.attendanceService.CheckOut(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("CheckOut service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Checked out successfully", record)
}

// Today implements AttendanceHandler. Data is null before check-in.
func (h *AttendanceHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}

	record, err := h.attendanceService.GetToday(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, record)
}

// Mine implements AttendanceHandler.
func (h *AttendanceHandlerImpl) Mine(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	filter := h.monthFilter(r)
	filter.EmployeeID = actor.EmployeeID

	result, err := h.attendanceService.ListForMonth(r.Context(), actor, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// List implements AttendanceHandler.
func (h *AttendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.ListForMonth(r.Context(), actor, h.monthFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// ManualEntry implements AttendanceHandler.
func (h *AttendanceHandlerImpl) ManualEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	var req attendance.ManualEntryRequest
	if !decodeJSON(w, r, "ManualEntry", &req) {
		return
	}

	record, err := h.attendanceService.ManualEntry(r.Context(), actor, req)
	if err != nil {
		slog.Error("ManualEntry service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Attendance saved successfully", record)
}

// Export implements AttendanceHandler. The workbook is buffered so that a
// failure still produces a JSON error.
func (h *AttendanceHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	filter := h.monthFilter(r)

	var buf bytes.Buffer
	if err := h.attendanceService.ExportMonth(r.Context(), actor, filter, &buf); err != nil {
		slog.Error("ExportAttendance service error", "error", err)
		response.HandleError(w, err)
		return
	}

	filename := fmt.Sprintf("attendance-%d-%02d.xlsx", filter.Year, filter.Month)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write attendance export", "error", err)
	}
}
