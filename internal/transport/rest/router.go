package rest

import (
	"doraform/internal/logger"
	"doraform/internal/model"
	"doraform/internal/service"
	"doraform/internal/transport/rest/handler"
	"doraform/internal/transport/rest/middleware"
	"doraform/internal/transport/ws"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	FormService          *service.FormService
	DraftService         *service.DraftService
	SubmissionService    *service.SubmissionService
	QuestionnaireService *service.QuestionnaireService
	WSHub                *ws.Hub
	Logger               *logger.Logger
	DefaultLocale        model.Locale
	AllowedOrigins       []string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := mux.NewRouter()

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(c.FormService, log)
	draftHandler := handler.NewDraftHandler(c.DraftService)
	formHandler := handler.NewFormHandler(c.SubmissionService)
	questionnaireHandler := handler.NewQuestionnaireHandler(c.QuestionnaireService)
	wsHandler := ws.NewHandler(c.WSHub, c.FormService, c.AllowedOrigins, log)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.AllowedOrigins))
	r.Use(middleware.RequestLogger(log))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, c.FormService)
	}).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(middleware.Locale(c.DefaultLocale))

	v1.HandleFunc("/questionnaire", questionnaireHandler.Active).Methods("GET", "OPTIONS")

	v1.HandleFunc("/sessions", sessionHandler.Start).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}", sessionHandler.Close).Methods("DELETE", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/answers", sessionHandler.Answer).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/observations", sessionHandler.Observation).Methods("PUT", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/previous", sessionHandler.Previous).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/drafts", sessionHandler.SaveDraft).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/submit", sessionHandler.Submit).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/chart.png", sessionHandler.Chart).Methods("GET", "OPTIONS")

	v1.HandleFunc("/drafts", draftHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/drafts/{id}", draftHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/drafts/{id}", draftHandler.Delete).Methods("DELETE", "OPTIONS")

	v1.HandleFunc("/forms", formHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/forms/{id}", formHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/forms/{id}/document", formHandler.Document).Methods("GET", "OPTIONS")

	// WebSocket routes
	v1.HandleFunc("/ws/sessions/{id}", wsHandler.SessionWS).Methods("GET")

	return r
}

func writeHealth(w http.ResponseWriter, forms *service.FormService) {
	sessions := 0
	if forms != nil {
		sessions = forms.ActiveSessions()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "sessions": sessions})
}

// corsMiddleware echoes the request origin when it is allowed. An empty list
// or "*" allows any origin.
func corsMiddleware(allowed []string) mux.MiddlewareFunc {
	allowAll := len(allowed) == 0
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		set[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && set[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept-Language, X-Request-ID")
			w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Language")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
