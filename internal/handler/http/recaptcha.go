package http

import (
	"log/slog"
	"net/http"

	"github.com/bimworks/portal-backend/internal/handler/http/middleware"
	"github.com/bimworks/portal-backend/internal/handler/http/response"
	"github.com/bimworks/portal-backend/internal/pkg/recaptcha"
)

type RecaptchaHandler interface {
	Verify(w http.ResponseWriter, r *http.Request)
}

type RecaptchaHandlerImpl struct {
	verifier recaptcha.Verifier
}

func NewRecaptchaHandler(verifier recaptcha.Verifier) RecaptchaHandler {
	return &RecaptchaHandlerImpl{verifier: verifier}
}

type verifyRecaptchaRequest struct {
	Token string `json:"token"`
}

// Verify implements RecaptchaHandler. The siteverify result is passed
// through; Passed also applies the configured minimum score.
func (h *RecaptchaHandlerImpl) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRecaptchaRequest
	if !decodeJSON(w, r, "VerifyRecaptcha", &req) {
		return
	}

	result, err := h.verifier.Verify(r.Context(), req.Token, middleware.ClientIP(r))
	if err != nil {
		slog.Error("VerifyRecaptcha error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}
