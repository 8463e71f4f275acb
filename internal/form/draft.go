package form

import (
	"context"
	"doraform/internal/logger"
	"doraform/internal/model"
	"errors"
)

var errNoDraftSaver = errors.New("no draft saver configured")

// SnapshotDraft builds a draft from the current state without handing it off.
// Every draft of one session carries the same id, so saving again replaces the
// previous copy.
func (s *Session) SnapshotDraft() *model.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftLocked()
}

func (s *Session) draftLocked() *model.Draft {
	return &model.Draft{
		ID:                s.draftID,
		QuestionnaireID:   s.questionnaireID,
		Identity:          s.identity,
		Locale:            s.locale,
		Answers:           copyAnswers(s.answers),
		Observations:      copyObservations(s.observations),
		Date:              timeNow().UTC(),
		LastQuestionIndex: s.position,
		IsCompleted:       false,
	}
}

// SaveDraft snapshots the session and hands the draft to the draft saver. The
// session is left untouched whatever the saver returns.
func (s *Session) SaveDraft(ctx context.Context) (*model.Draft, error) {
	draft := s.SnapshotDraft()
	if s.collab.Drafts == nil {
		return draft, errNoDraftSaver
	}
	if err := s.collab.Drafts.SaveDraft(ctx, draft); err != nil {
		s.log.Error("failed to save draft", "draft_id", draft.ID, "error", err)
		return draft, err
	}
	s.log.Info("draft saved", "draft_id", draft.ID, "position", draft.LastQuestionIndex)
	return draft, nil
}

// LoadDraft replaces answers, observations and position with the draft's and
// resets the submission state. Entries for questions this session does not
// know are dropped and the position is clamped into range. It is ignored while
// a submission is in flight or after a successful one.
func (s *Session) LoadDraft(d *model.Draft) {
	if d == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusSubmitting || s.status == StatusSucceeded {
		s.log.Warn("draft load ignored", "status", s.status, "draft_id", d.ID)
		return
	}

	answers := make(map[string]float64, len(d.Answers))
	for id, v := range d.Answers {
		if s.known(id) {
			answers[id] = v
		}
	}
	observations := make(map[string]string, len(d.Observations))
	for id, text := range d.Observations {
		if s.known(id) {
			observations[id] = text
		}
	}

	s.answers = answers
	s.observations = observations
	s.position = clampPosition(d.LastQuestionIndex, len(s.questions))
	s.status = StatusIdle
	s.lastError = ""
	s.identity = d.Identity
	if d.ID != "" {
		s.draftID = d.ID
	}
}

// Snapshot returns the cacheable form of the session.
func (s *Session) Snapshot() *model.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draftLocked()
	return &model.SessionSnapshot{
		SessionID: s.id,
		State:     *d,
		Status:    string(s.status),
		LastError: s.lastError,
		UpdatedAt: d.Date,
	}
}

// Restore rebuilds a session from a cached snapshot. A failed submission comes
// back failed with its message; one that was in flight comes back idle, since
// its pipeline died with the process that ran it.
func Restore(snap *model.SessionSnapshot, questions []model.Question, categories []model.Category, collab Collaborators, log *logger.Logger) *Session {
	s := New(Config{
		ID:              snap.SessionID,
		QuestionnaireID: snap.State.QuestionnaireID,
		Questions:       questions,
		Categories:      categories,
		Locale:          snap.State.Locale,
		Identity:        snap.State.Identity,
	}, collab, log)
	s.LoadDraft(&snap.State)
	if Status(snap.Status) == StatusFailed {
		s.mu.Lock()
		s.status = StatusFailed
		s.lastError = snap.LastError
		s.mu.Unlock()
	}
	return s
}

func clampPosition(pos, total int) int {
	if total == 0 || pos < 0 {
		return 0
	}
	if pos >= total {
		return total - 1
	}
	return pos
}
