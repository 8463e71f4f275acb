package handler

import (
	"doraform/internal/form"
	"doraform/internal/i18n"
	"doraform/internal/logger"
	"doraform/internal/model"
	"doraform/internal/service"
	"doraform/internal/transport/rest/middleware"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// SessionHandler handles questionnaire session endpoints
type SessionHandler struct {
	formSvc *service.FormService
	log     *logger.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(formSvc *service.FormService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		formSvc: formSvc,
		log:     log.With("handler", "SessionHandler"),
	}
}

// StartRequest is the request body for opening a session
type StartRequest struct {
	ProviderName        string `json:"providerName"`
	FinancialEntityName string `json:"financialEntityName"`
	UserName            string `json:"userName"`
	Locale              string `json:"locale,omitempty"`
	DraftID             string `json:"draftId,omitempty"`
}

// Start handles POST /v1/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// body locale wins; a resumed draft keeps its own unless one is given
	locale, ok := i18n.Parse(req.Locale)
	if !ok && req.DraftID == "" {
		locale = middleware.GetLocale(r.Context())
	}

	view, err := h.formSvc.Start(r.Context(), service.StartRequest{
		Identity: model.Identity{
			ProviderName:        req.ProviderName,
			FinancialEntityName: req.FinancialEntityName,
			UserName:            req.UserName,
		},
		Locale:  locale,
		DraftID: req.DraftID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.formSvc.View(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// AnswerRequest is the request body for recording a score
type AnswerRequest struct {
	QuestionID string   `json:"questionId"`
	Value      *float64 `json:"value"`
}

// Answer handles POST /v1/sessions/{id}/answers
func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuestionID == "" || req.Value == nil {
		writeError(w, http.StatusBadRequest, "questionId and value are required")
		return
	}

	view, err := h.formSvc.Answer(r.Context(), mux.Vars(r)["id"], req.QuestionID, *req.Value)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ObservationRequest is the request body for a free-text note
type ObservationRequest struct {
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
}

// Observation handles PUT /v1/sessions/{id}/observations
func (h *SessionHandler) Observation(w http.ResponseWriter, r *http.Request) {
	var req ObservationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuestionID == "" {
		writeError(w, http.StatusBadRequest, "questionId is required")
		return
	}

	view, err := h.formSvc.SetObservation(r.Context(), mux.Vars(r)["id"], req.QuestionID, req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Previous handles POST /v1/sessions/{id}/previous
func (h *SessionHandler) Previous(w http.ResponseWriter, r *http.Request) {
	view, err := h.formSvc.Previous(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SaveDraft handles POST /v1/sessions/{id}/drafts
func (h *SessionHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.formSvc.SaveDraft(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// Submit handles POST /v1/sessions/{id}/submit. The pipeline runs in the
// background and the call answers 202 with the submitting view; ?wait=true
// holds the response until delivery resolves.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	done, err := h.formSvc.Submit(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		select {
		case view := <-done:
			writeJSON(w, http.StatusOK, view)
			return
		case <-r.Context().Done():
			return
		}
	}

	view, err := h.formSvc.View(r.Context(), id)
	if err != nil {
		// already finished and evicted
		writeJSON(w, http.StatusAccepted, form.View{SessionID: id, Status: form.StatusSubmitting, Submitting: true})
		return
	}
	writeJSON(w, http.StatusAccepted, view)
}

// Chart handles GET /v1/sessions/{id}/chart.png
func (h *SessionHandler) Chart(w http.ResponseWriter, r *http.Request) {
	img, err := h.formSvc.Chart(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

// Close handles DELETE /v1/sessions/{id}
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.formSvc.Close(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Debug("session request failed", "request_id", middleware.GetRequestID(r.Context()), "path", r.URL.Path, "error", err)
	writeServiceError(w, err)
}
