package form

import (
	"context"
	"doraform/internal/i18n"
	"doraform/internal/logger"
	"doraform/internal/model"
	"fmt"

	"github.com/google/uuid"
)

// Submit runs one submission attempt and blocks until the delivery service
// resolves. A non-nil error means the attempt was rejected before it started
// (in flight, already submitted, nothing to submit, not on the last question)
// and the state is unchanged. Delivery failures are not errors: they leave the
// session in StatusFailed with a localized LastError.
func (s *Session) Submit(ctx context.Context) (Status, error) {
	record, err := s.begin()
	if err != nil {
		return s.Status(), err
	}
	return s.run(ctx, record), nil
}

// SubmitAsync claims the single-flight guard synchronously and runs the rest
// of the pipeline in the background. The channel receives the final status and
// is then closed.
func (s *Session) SubmitAsync(ctx context.Context) (<-chan Status, error) {
	record, err := s.begin()
	if err != nil {
		return nil, err
	}
	done := make(chan Status, 1)
	go func() {
		defer close(done)
		done <- s.run(ctx, record)
	}()
	return done, nil
}

// CanSubmit reports whether Submit would start an attempt right now.
func (s *Session) CanSubmit() bool {
	return s.CheckSubmit() == nil
}

// CheckSubmit returns the error Submit would reject an attempt with, or nil.
func (s *Session) CheckSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.guardLocked()
}

func (s *Session) guardLocked() error {
	switch {
	case s.status == StatusSucceeded:
		return ErrSessionClosed
	case s.status == StatusSubmitting:
		return ErrSubmitInFlight
	case len(s.questions) == 0:
		return ErrNoQuestions
	case s.position != len(s.questions)-1:
		return ErrNotAtLastQuestion
	}
	return nil
}

// begin is the idle -> submitting transition. The record is captured here,
// under the lock, so edits made while delivery is pending do not leak into it.
func (s *Session) begin() (*model.SubmissionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(); err != nil {
		return nil, err
	}
	s.lastError = ""
	s.status = StatusSubmitting

	return &model.SubmissionRecord{
		ID:              uuid.NewString(),
		QuestionnaireID: s.questionnaireID,
		DraftID:         s.draftID,
		Identity:        s.identity,
		Locale:          s.locale,
		Answers:         copyAnswers(s.answers),
		Observations:    copyObservations(s.observations),
		Scores:          Aggregate(s.answers, s.observations, s.questions, s.categories, s.locale),
		Date:            timeNow().UTC(),
	}, nil
}

func (s *Session) run(ctx context.Context, record *model.SubmissionRecord) (status Status) {
	log := s.log.With("submission_id", record.ID)
	log.Info("submitting form", "answers", len(record.Answers), "observations", len(record.Observations))

	delivered := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("submission pipeline panicked", "panic", fmt.Sprint(r))
				delivered = false
			}
		}()
		delivered = s.deliver(ctx, record, log)
	}()

	status = s.finish(delivered)
	if delivered {
		log.Info("form delivered")
		s.notifySubmitted(ctx, record, log)
	}
	return status
}

func (s *Session) deliver(ctx context.Context, record *model.SubmissionRecord, log *logger.Logger) bool {
	if s.collab.Delivery == nil {
		log.Error("no delivery service configured")
		return false
	}
	visual := s.exportVisual(ctx, record.Scores, log)

	ok, err := s.collab.Delivery.Deliver(ctx, DeliveryRequest{
		Record:     record,
		Questions:  s.questions,
		Categories: s.categories,
		Locale:     s.locale,
		Visual:     visual,
	})
	if err != nil {
		log.Error("delivery failed", "error", err)
		return false
	}
	if !ok {
		log.Warn("delivery reported failure")
		return false
	}
	return true
}

func (s *Session) exportVisual(ctx context.Context, scores []model.CategoryScore, log *logger.Logger) (visual []byte) {
	if s.collab.Exporter == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn("chart export panicked, continuing without it", "panic", fmt.Sprint(r))
			visual = nil
		}
	}()
	img, err := s.collab.Exporter.ExportVisual(ctx, scores, s.locale)
	if err != nil {
		log.Warn("chart export failed, continuing without it", "error", err)
		return nil
	}
	return img
}

// finish leaves the submitting state on every path.
func (s *Session) finish(delivered bool) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if delivered {
		s.status = StatusSucceeded
		s.lastError = ""
	} else {
		s.status = StatusFailed
		s.lastError = i18n.T(s.locale, i18n.MsgSubmitFailed)
	}
	return s.status
}

func (s *Session) notifySubmitted(ctx context.Context, record *model.SubmissionRecord, log *logger.Logger) {
	if s.collab.Submitted == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("submit listener panicked", "panic", fmt.Sprint(r))
		}
	}()
	if err := s.collab.Submitted.OnSubmitted(ctx, record); err != nil {
		log.Error("submit listener failed", "error", err)
	}
}
