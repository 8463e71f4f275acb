package service

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrDraftNotFound    = errors.New("draft not found")
	ErrFormNotFound     = errors.New("form not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrChartUnavailable = errors.New("chart export is not configured")
	ErrInvalidIdentity  = errors.New("providerName, financialEntityName and userName are required")

	// ErrQuestionnaireChanged rejects restoring a session whose questionnaire
	// version is no longer available.
	ErrQuestionnaireChanged = errors.New("questionnaire of this session is no longer available")
	ErrShuttingDown         = errors.New("server is shutting down")
)
