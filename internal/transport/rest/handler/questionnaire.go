package handler

import (
	"doraform/internal/service"
	"net/http"
)

// QuestionnaireHandler serves the active questionnaire
type QuestionnaireHandler struct {
	questionnaireSvc *service.QuestionnaireService
}

// NewQuestionnaireHandler creates a new questionnaire handler
func NewQuestionnaireHandler(questionnaireSvc *service.QuestionnaireService) *QuestionnaireHandler {
	return &QuestionnaireHandler{questionnaireSvc: questionnaireSvc}
}

// Active handles GET /v1/questionnaire
func (h *QuestionnaireHandler) Active(w http.ResponseWriter, r *http.Request) {
	q, err := h.questionnaireSvc.Active(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
