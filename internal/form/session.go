// Package form implements the questionnaire flow controller: navigation over
// an ordered question sequence, answer and observation bookkeeping, progress
// and per-category aggregation, draft save/restore and the single-flight
// submission pipeline.
package form

import (
	"doraform/internal/logger"
	"doraform/internal/model"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrSubmitInFlight    = errors.New("a submission is already in flight")
	ErrSessionClosed     = errors.New("session already submitted")
	ErrNoQuestions       = errors.New("questionnaire has no questions")
	ErrNotAtLastQuestion = errors.New("submission is only possible from the last question")
)

// Status is the submission state of a session
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSucceeded  Status = "success" // terminal
	StatusFailed     Status = "failed"  // retryable
)

// Config describes the questionnaire and the identity a session runs with.
type Config struct {
	ID              string // generated when empty
	QuestionnaireID string
	Questions       []model.Question
	Categories      []model.Category
	Locale          model.Locale
	Identity        model.Identity
}

// Session owns the mutable state of one questionnaire run. All methods are
// safe for concurrent use; the only long-running call is Submit.
type Session struct {
	mu sync.Mutex

	id              string
	questionnaireID string
	questions       []model.Question
	categories      []model.Category
	index           map[string]int
	locale          model.Locale
	identity        model.Identity
	draftID         string

	collab Collaborators
	log    *logger.Logger

	position     int
	answers      map[string]float64
	observations map[string]string
	status       Status
	lastError    string
}

// New starts a blank session at the first question.
func New(cfg Config, collab Collaborators, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Nop()
	}
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	locale := cfg.Locale
	if !locale.Valid() {
		locale = model.LocaleES
	}

	index := make(map[string]int, len(cfg.Questions))
	for i, q := range cfg.Questions {
		if _, dup := index[q.ID]; !dup {
			index[q.ID] = i
		}
	}

	return &Session{
		id:              id,
		questionnaireID: cfg.QuestionnaireID,
		questions:       cfg.Questions,
		categories:      cfg.Categories,
		index:           index,
		locale:          locale,
		identity:        cfg.Identity,
		draftID:         uuid.NewString(),
		collab:          collab,
		log:             log.With("component", "form", "session_id", id),
		answers:         make(map[string]float64),
		observations:    make(map[string]string),
		status:          StatusIdle,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) QuestionnaireID() string { return s.questionnaireID }

func (s *Session) Locale() model.Locale { return s.locale }

func (s *Session) Questions() []model.Question { return s.questions }

func (s *Session) Categories() []model.Category { return s.categories }

func (s *Session) Identity() model.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// DraftID is the id every draft saved from this session carries.
func (s *Session) DraftID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftID
}

// State is a point-in-time copy of the session's mutable fields.
type State struct {
	Position     int
	Answers      map[string]float64
	Observations map[string]string
	Status       Status
	Submitting   bool
	LastError    string
}

// State returns a copy that later mutations do not affect.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Position:     s.position,
		Answers:      copyAnswers(s.answers),
		Observations: copyObservations(s.observations),
		Status:       s.status,
		Submitting:   s.status == StatusSubmitting,
		LastError:    s.lastError,
	}
}

// Status returns the current submission state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Closed reports whether the session was submitted successfully.
func (s *Session) Closed() bool {
	return s.Status() == StatusSucceeded
}

// Current returns the question at the current position, or false when the
// sequence is empty.
func (s *Session) Current() (model.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *Session) currentLocked() (model.Question, bool) {
	if len(s.questions) == 0 {
		return model.Question{}, false
	}
	return s.questions[s.position], true
}

// Progress returns the 0-100 completion percentage.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

func (s *Session) progressLocked() float64 {
	answered := false
	if q, ok := s.currentLocked(); ok {
		_, answered = s.answers[q.ID]
	}
	return Progress(s.position, len(s.questions), answered)
}

// Aggregate returns the per-category summary of the current answers.
func (s *Session) Aggregate() []model.CategoryScore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Aggregate(s.answers, s.observations, s.questions, s.categories, s.locale)
}

func (s *Session) known(questionID string) bool {
	_, ok := s.index[questionID]
	return ok
}

func copyAnswers(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyObservations(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
