package service

import (
	"context"
	"doraform/internal/cache"
	"doraform/internal/form"
	"doraform/internal/logger"
	"doraform/internal/model"
	"fmt"
	"strings"
	"sync"
)

// StartRequest opens a session, blank or resumed from a saved draft.
type StartRequest struct {
	model.Identity
	Locale  model.Locale
	DraftID string
}

// FormService owns the live questionnaire sessions of this process. Sessions
// are snapshotted into the session cache after every transition so another
// process can pick them up.
type FormService struct {
	mu       sync.Mutex
	sessions map[string]*form.Session

	questionnaires *QuestionnaireService
	drafts         *DraftService
	submissions    *SubmissionService
	exporter       form.VisualExporter
	delivery       form.Deliverer
	cache          cache.SessionCache
	lock           cache.SubmitLock
	broadcaster    Broadcaster
	log            *logger.Logger

	// background submissions; draining refuses new ones
	pipelines sync.WaitGroup
	draining  bool
}

// NewFormService creates a new form service
func NewFormService(
	questionnaires *QuestionnaireService,
	drafts *DraftService,
	submissions *SubmissionService,
	exporter form.VisualExporter,
	delivery form.Deliverer,
	sessionCache cache.SessionCache,
	lock cache.SubmitLock,
	log *logger.Logger,
) *FormService {
	if log == nil {
		log = logger.Nop()
	}
	return &FormService{
		sessions:       make(map[string]*form.Session),
		questionnaires: questionnaires,
		drafts:         drafts,
		submissions:    submissions,
		exporter:       exporter,
		delivery:       delivery,
		cache:          sessionCache,
		lock:           lock,
		log:            log.With("service", "FormService"),
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *FormService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

func (s *FormService) collaborators() form.Collaborators {
	c := form.Collaborators{
		Exporter: s.exporter,
		Delivery: s.delivery,
	}
	// typed nils must not reach the session as non-nil interfaces
	if s.drafts != nil {
		c.Drafts = s.drafts
	}
	if s.submissions != nil {
		c.Submitted = s.submissions
	}
	return c
}

// Start opens a session on the active questionnaire. With a DraftID the
// session resumes from that draft and takes its identity; otherwise all three
// identity names are required.
func (s *FormService) Start(ctx context.Context, req StartRequest) (form.View, error) {
	var draft *model.Draft
	if req.DraftID != "" {
		d, err := s.drafts.Get(ctx, req.DraftID)
		if err != nil {
			return form.View{}, err
		}
		draft = d
		if !req.Locale.Valid() {
			req.Locale = d.Locale
		}
	} else if !validIdentity(req.Identity) {
		return form.View{}, ErrInvalidIdentity
	}

	q, err := s.questionnaires.Active(ctx)
	if err != nil {
		return form.View{}, err
	}

	sess := form.New(form.Config{
		QuestionnaireID: sessionQuestionnaireID(q),
		Questions:       q.Questions,
		Categories:      q.Categories,
		Locale:          req.Locale,
		Identity:        req.Identity,
	}, s.collaborators(), s.log)
	if draft != nil {
		sess.LoadDraft(draft)
	}

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()

	s.log.Info("session started", "session_id", sess.ID(), "user", sess.Identity().UserName, "resumed", draft != nil, "questions", len(q.Questions))
	s.persist(ctx, sess)
	return sess.View(), nil
}

func validIdentity(id model.Identity) bool {
	return strings.TrimSpace(id.ProviderName) != "" &&
		strings.TrimSpace(id.FinancialEntityName) != "" &&
		strings.TrimSpace(id.UserName) != ""
}

// session finds a live session, rehydrating it from the cache when this
// process does not hold it.
func (s *FormService) session(ctx context.Context, id string) (*form.Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}

	if s.cache == nil {
		return nil, ErrSessionNotFound
	}
	snap, err := s.cache.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if snap == nil {
		return nil, ErrSessionNotFound
	}
	q, err := s.questionnaires.ByID(ctx, snap.State.QuestionnaireID)
	if err != nil {
		s.log.Warn("session not restored", "session_id", id, "questionnaire_id", snap.State.QuestionnaireID, "error", err)
		return nil, err
	}
	restored := form.Restore(snap, q.Questions, q.Categories, s.collaborators(), s.log)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}
	s.sessions[id] = restored
	s.log.Info("session restored from cache", "session_id", id)
	return restored, nil
}

// View returns the current view of a session.
func (s *FormService) View(ctx context.Context, id string) (form.View, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return form.View{}, err
	}
	return sess.View(), nil
}

// Answer records a score and auto-advances when it answers the current question.
func (s *FormService) Answer(ctx context.Context, id, questionID string, value float64) (form.View, error) {
	return s.mutate(ctx, id, func(sess *form.Session) { sess.Answer(questionID, value) })
}

func (s *FormService) SetObservation(ctx context.Context, id, questionID, text string) (form.View, error) {
	return s.mutate(ctx, id, func(sess *form.Session) { sess.SetObservation(questionID, text) })
}

func (s *FormService) Previous(ctx context.Context, id string) (form.View, error) {
	return s.mutate(ctx, id, func(sess *form.Session) { sess.GoPrevious() })
}

func (s *FormService) mutate(ctx context.Context, id string, fn func(*form.Session)) (form.View, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return form.View{}, err
	}
	fn(sess)
	s.persist(ctx, sess)
	view := sess.View()
	s.broadcast(id, EventState, view)
	return view, nil
}

// SaveDraft hands a snapshot to the draft store. The session keeps going.
func (s *FormService) SaveDraft(ctx context.Context, id string) (*model.Draft, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	draft, err := sess.SaveDraft(ctx)
	if err != nil {
		return nil, err
	}
	s.broadcast(id, EventDraftSaved, draft)
	return draft, nil
}

// Submit starts the submission pipeline in the background. The returned
// channel receives the final view once delivery resolves. A successful
// session is evicted afterwards; a failed one stays open for a retry.
func (s *FormService) Submit(ctx context.Context, id string) (<-chan form.View, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.CheckSubmit(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return nil, ErrShuttingDown
	}
	s.pipelines.Add(1)
	s.mu.Unlock()
	started := false
	defer func() {
		if !started {
			s.pipelines.Done()
		}
	}()

	if s.lock != nil {
		ok, err := s.lock.Acquire(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire submit lock: %w", err)
		}
		if !ok {
			return nil, form.ErrSubmitInFlight
		}
	}

	// the pipeline outlives the request that started it
	runCtx := context.WithoutCancel(ctx)
	done, err := sess.SubmitAsync(runCtx)
	if err != nil {
		s.releaseLock(runCtx, id)
		return nil, err
	}
	s.persist(ctx, sess)
	s.broadcast(id, EventSubmitStarted, sess.View())

	started = true
	result := make(chan form.View, 1)
	go func() {
		defer s.pipelines.Done()
		defer close(result)
		status := <-done
		s.releaseLock(runCtx, id)

		view := sess.View()
		if status == form.StatusSucceeded {
			s.broadcast(id, EventSubmitSucceeded, view)
			s.evict(runCtx, id)
		} else {
			// persist skips a session closed while delivery ran
			s.persist(runCtx, sess)
			s.broadcast(id, EventSubmitFailed, view)
		}
		result <- view
	}()
	return result, nil
}

// Close tears a session down. An in-flight submission still runs to completion.
func (s *FormService) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		if _, err := s.session(ctx, id); err != nil {
			return err
		}
	}
	s.broadcast(id, EventClosed, map[string]string{"sessionId": id})
	s.evict(ctx, id)
	return nil
}

// Chart renders the current aggregate of a session.
func (s *FormService) Chart(ctx context.Context, id string) ([]byte, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.exporter == nil {
		return nil, ErrChartUnavailable
	}
	return s.exporter.ExportVisual(ctx, sess.Aggregate(), sess.Locale())
}

// Drain stops accepting submissions and waits for the ones in flight to
// finish, or for ctx to end.
func (s *FormService) Drain(ctx context.Context) error {
	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.pipelines.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ActiveSessions returns the number of sessions held by this process.
func (s *FormService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *FormService) evict(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Delete(ctx, id); err != nil {
			s.log.Warn("failed to delete cached session (ignored)", "session_id", id, "error", err)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.DisconnectSession(id)
	}
	s.log.Info("session closed", "session_id", id)
}

// persist caches a snapshot of a registered session. Evicted sessions are
// never written back.
func (s *FormService) persist(ctx context.Context, sess *form.Session) {
	if s.cache == nil || sess.Closed() || !s.registered(sess) {
		return
	}
	if err := s.cache.Set(ctx, sess.Snapshot()); err != nil {
		s.log.Warn("failed to cache session (ignored)", "session_id", sess.ID(), "error", err)
		return
	}
	if !s.registered(sess) {
		// evicted while the snapshot was being written
		if err := s.cache.Delete(ctx, sess.ID()); err != nil {
			s.log.Warn("failed to delete cached session (ignored)", "session_id", sess.ID(), "error", err)
		}
	}
}

func (s *FormService) registered(sess *form.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[sess.ID()] == sess
}

func (s *FormService) releaseLock(ctx context.Context, id string) {
	if s.lock == nil {
		return
	}
	if err := s.lock.Release(ctx, id); err != nil {
		s.log.Warn("failed to release submit lock", "session_id", id, "error", err)
	}
}

func (s *FormService) broadcast(id, msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(id, msgType, payload)
	}
}
