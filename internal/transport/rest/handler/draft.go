package handler

import (
	"doraform/internal/model"
	"doraform/internal/service"
	"net/http"

	"github.com/gorilla/mux"
)

// DraftHandler handles saved draft endpoints
type DraftHandler struct {
	draftSvc *service.DraftService
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(draftSvc *service.DraftService) *DraftHandler {
	return &DraftHandler{draftSvc: draftSvc}
}

// List handles GET /v1/drafts?userName=
func (h *DraftHandler) List(w http.ResponseWriter, r *http.Request) {
	userName := r.URL.Query().Get("userName")
	if userName == "" {
		writeError(w, http.StatusBadRequest, "userName is required")
		return
	}

	drafts, err := h.draftSvc.ListByUser(r.Context(), userName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if drafts == nil {
		drafts = []*model.Draft{}
	}
	writeJSON(w, http.StatusOK, drafts)
}

// Get handles GET /v1/drafts/{id}
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	draft, err := h.draftSvc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// Delete handles DELETE /v1/drafts/{id}
func (h *DraftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.draftSvc.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
