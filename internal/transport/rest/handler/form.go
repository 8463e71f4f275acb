package handler

import (
	"doraform/internal/model"
	"doraform/internal/service"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// FormHandler handles submitted form endpoints
type FormHandler struct {
	submissionSvc *service.SubmissionService
}

// NewFormHandler creates a new form handler
func NewFormHandler(submissionSvc *service.SubmissionService) *FormHandler {
	return &FormHandler{submissionSvc: submissionSvc}
}

// List handles GET /v1/forms?userName=
func (h *FormHandler) List(w http.ResponseWriter, r *http.Request) {
	userName := r.URL.Query().Get("userName")
	if userName == "" {
		writeError(w, http.StatusBadRequest, "userName is required")
		return
	}

	forms, err := h.submissionSvc.ListByUser(r.Context(), userName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if forms == nil {
		forms = []*model.SubmissionRecord{}
	}
	writeJSON(w, http.StatusOK, forms)
}

// Get handles GET /v1/forms/{id}
func (h *FormHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.submissionSvc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Document handles GET /v1/forms/{id}/document
func (h *FormHandler) Document(w http.ResponseWriter, r *http.Request) {
	data, name, err := h.submissionSvc.Document(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
