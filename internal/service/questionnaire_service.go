package service

import (
	"context"
	"doraform/internal/catalog"
	"doraform/internal/logger"
	"doraform/internal/model"
	"doraform/internal/repository"
	"fmt"
)

// QuestionnaireService resolves the questionnaire new sessions run against
type QuestionnaireService struct {
	repo     repository.QuestionnaireRepo
	fallback *model.Questionnaire
	log      *logger.Logger
}

// NewQuestionnaireService creates a new questionnaire service. fallback is
// served when the repository holds no active questionnaire.
func NewQuestionnaireService(repo repository.QuestionnaireRepo, fallback *model.Questionnaire, log *logger.Logger) *QuestionnaireService {
	if log == nil {
		log = logger.Nop()
	}
	return &QuestionnaireService{
		repo:     repo,
		fallback: fallback,
		log:      log.With("service", "QuestionnaireService"),
	}
}

// Active returns the newest active questionnaire, or the fallback when the
// store has none or cannot be reached.
func (s *QuestionnaireService) Active(ctx context.Context) (*model.Questionnaire, error) {
	q, err := s.repo.GetActive(ctx)
	if err != nil {
		if s.fallback == nil {
			return nil, fmt.Errorf("failed to get questionnaire: %w", err)
		}
		s.log.Warn("questionnaire store unavailable, using fallback", "error", err)
		return s.fallback, nil
	}
	if q == nil {
		if s.fallback == nil {
			return &model.Questionnaire{}, nil
		}
		return s.fallback, nil
	}
	return q, nil
}

// ByID returns the questionnaire a session was started on. The active and
// fallback questionnaires are matched first, then the store by id.
func (s *QuestionnaireService) ByID(ctx context.Context, id string) (*model.Questionnaire, error) {
	if active, err := s.Active(ctx); err == nil && sessionQuestionnaireID(active) == id {
		return active, nil
	}
	if s.fallback != nil && sessionQuestionnaireID(s.fallback) == id {
		return s.fallback, nil
	}
	if id == "" {
		return nil, ErrQuestionnaireChanged
	}
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get questionnaire: %w", err)
	}
	if q == nil {
		return nil, ErrQuestionnaireChanged
	}
	return q, nil
}

// Seed validates and stores q as a new or replaced version.
func (s *QuestionnaireService) Seed(ctx context.Context, q *model.Questionnaire) error {
	if err := catalog.Validate(q); err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, q); err != nil {
		return fmt.Errorf("failed to store questionnaire: %w", err)
	}
	s.log.Info("questionnaire seeded", "slug", q.Slug, "version", q.Version, "questions", len(q.Questions))
	return nil
}

// sessionQuestionnaireID names a questionnaire that may not have a store id.
func sessionQuestionnaireID(q *model.Questionnaire) string {
	if q.ID != "" {
		return q.ID
	}
	if q.Slug == "" {
		return ""
	}
	return fmt.Sprintf("%s@v%d", q.Slug, q.Version)
}
