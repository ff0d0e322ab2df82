package http

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/leave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLeaveService struct {
	leave.LeaveService

	submitFn func(req leave.SubmitLeaveRequest) (leave.SubmitLeaveResponse, error)
	rejectFn func(requestID string, req leave.RejectLeaveRequest) (leave.RejectionResponse, error)
}

func (f *fakeLeaveService) Submit(_ context.Context, _ auth.Principal, req leave.SubmitLeaveRequest) (leave.SubmitLeaveResponse, error) {
	return f.submitFn(req)
}

func (f *fakeLeaveService) Reject(_ context.Context, _ auth.Principal, requestID string, req leave.RejectLeaveRequest) (leave.RejectionResponse, error) {
	return f.rejectFn(requestID, req)
}

func TestSubmitLeave_JSON(t *testing.T) {
	svc := &fakeLeaveService{submitFn: func(req leave.SubmitLeaveRequest) (leave.SubmitLeaveResponse, error) {
		assert.Equal(t, "annual", req.LeaveType)
		assert.Equal(t, "2024-05-06", req.StartDate)
		assert.Nil(t, req.Document)
		return leave.SubmitLeaveResponse{}, nil
	}}
	h := NewLeaveHandler(svc)

	body := `{"start_date":"2024-05-06","end_date":"2024-05-08","leave_type":"annual","reason":"family visit"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/leave", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Submit(rec, asPrincipal(req, staffPrincipal))

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSubmitLeave_Multipart(t *testing.T) {
	newForm := func(t *testing.T, data string, withDoc bool) (*bytes.Buffer, string) {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		if data != "" {
			require.NoError(t, mw.WriteField("data", data))
		}
		if withDoc {
			part, err := mw.CreateFormFile("document", "medical-note.pdf")
			require.NoError(t, err)
			_, err = part.Write([]byte("%PDF-1.4 note"))
			require.NoError(t, err)
		}
		require.NoError(t, mw.Close())
		return &buf, mw.FormDataContentType()
	}

	t.Run("with supporting document", func(t *testing.T) {
		svc := &fakeLeaveService{submitFn: func(req leave.SubmitLeaveRequest) (leave.SubmitLeaveResponse, error) {
			assert.Equal(t, "sick", req.LeaveType)
			assert.Equal(t, "medical-note.pdf", req.DocumentFilename)
			assert.Equal(t, int64(len("%PDF-1.4 note")), req.DocumentSize)
			require.NotNil(t, req.Document)
			content, err := io.ReadAll(req.Document)
			require.NoError(t, err)
			assert.Equal(t, "%PDF-1.4 note", string(content))
			return leave.SubmitLeaveResponse{}, nil
		}}
		h := NewLeaveHandler(svc)

		body, contentType := newForm(t, `{"start_date":"2024-05-06","end_date":"2024-05-06","leave_type":"sick","reason":"flu"}`, true)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/leave", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		h.Submit(rec, asPrincipal(req, staffPrincipal))

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("missing data field", func(t *testing.T) {
		h := NewLeaveHandler(&fakeLeaveService{})

		body, contentType := newForm(t, "", true)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/leave", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		h.Submit(rec, asPrincipal(req, staffPrincipal))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed data field", func(t *testing.T) {
		h := NewLeaveHandler(&fakeLeaveService{})

		body, contentType := newForm(t, "{not json", false)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/leave", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		h.Submit(rec, asPrincipal(req, staffPrincipal))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRejectLeave_PassesPathID(t *testing.T) {
	svc := &fakeLeaveService{rejectFn: func(requestID string, req leave.RejectLeaveRequest) (leave.RejectionResponse, error) {
		assert.Equal(t, "lr-77", requestID)
		assert.Equal(t, "project deadline", req.Reason)
		return leave.RejectionResponse{}, nil
	}}
	h := NewLeaveHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/leave/lr-77/reject", strings.NewReader(`{"reason":"project deadline"}`))
	req = withURLParam(asPrincipal(req, adminPrincipal), "id", "lr-77")
	rec := httptest.NewRecorder()
	h.Reject(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRejectLeave_EmptyBody(t *testing.T) {
	svc := &fakeLeaveService{rejectFn: func(requestID string, req leave.RejectLeaveRequest) (leave.RejectionResponse, error) {
		assert.Equal(t, "lr-78", requestID)
		assert.Empty(t, req.Reason)
		return leave.RejectionResponse{Stage: "FullyApproved"}, nil
	}}
	h := NewLeaveHandler(svc)

	req := withURLParam(asPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/leave/lr-78/reject", nil), adminPrincipal), "id", "lr-78")
	rec := httptest.NewRecorder()
	h.Reject(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	req = withURLParam(asPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/leave/lr-78/reject", strings.NewReader("{bad")), adminPrincipal), "id", "lr-78")
	rec = httptest.NewRecorder()
	h.Reject(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
