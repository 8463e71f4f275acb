package handler

import (
	"doraform/internal/form"
	"doraform/internal/service"
	"encoding/json"
	"errors"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps known domain errors to a status code. Anything else
// is a 500 whose detail stays out of the response.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrDraftNotFound),
		errors.Is(err, service.ErrFormNotFound),
		errors.Is(err, service.ErrDocumentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidIdentity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, form.ErrSubmitInFlight),
		errors.Is(err, service.ErrQuestionnaireChanged):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, form.ErrNotAtLastQuestion),
		errors.Is(err, form.ErrNoQuestions),
		errors.Is(err, form.ErrSessionClosed):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrChartUnavailable),
		errors.Is(err, service.ErrShuttingDown):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
