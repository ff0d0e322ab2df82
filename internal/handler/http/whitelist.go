package http

import (
	"net/http"

	"github.com/bimworks/portal-backend/internal/domain/whitelist"
	"github.com/bimworks/portal-backend/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type WhitelistHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	SetActive(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type WhitelistHandlerImpl struct {
	whitelistService whitelist.WhitelistService
}

func NewWhitelistHandler(whitelistService whitelist.WhitelistService) WhitelistHandler {
	return &WhitelistHandlerImpl{whitelistService: whitelistService}
}

func (h *WhitelistHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	var req whitelist.CreateEntryRequest
	if !decodeJSON(w, r, "CreateWhitelistEntry", &req) {
		return
	}

	entry, err := h.whitelistService.Create(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "IP address whitelisted", entry)
}

func (h *WhitelistHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	entries, err := h.whitelistService.List(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, entries)
}

func (h *WhitelistHandlerImpl) SetActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	var req whitelist.SetActiveRequest
	if !decodeJSON(w, r, "SetWhitelistActive", &req) {
		return
	}

	entry, err := h.whitelistService.SetActive(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Whitelist entry updated", entry)
}

func (h *WhitelistHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	if err := h.whitelistService.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Whitelist entry deleted", nil)
}
