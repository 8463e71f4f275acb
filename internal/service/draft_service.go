package service

import (
	"context"
	"doraform/internal/logger"
	"doraform/internal/model"
	"doraform/internal/repository"
	"fmt"
)

// DraftService persists drafts and implements form.DraftSaver
type DraftService struct {
	repo repository.DraftRepo
	log  *logger.Logger
}

// NewDraftService creates a new draft service
func NewDraftService(repo repository.DraftRepo, log *logger.Logger) *DraftService {
	if log == nil {
		log = logger.Nop()
	}
	return &DraftService{
		repo: repo,
		log:  log.With("service", "DraftService"),
	}
}

func (s *DraftService) SaveDraft(ctx context.Context, draft *model.Draft) error {
	if err := s.repo.Save(ctx, draft); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Get returns a draft or ErrDraftNotFound.
func (s *DraftService) Get(ctx context.Context, id string) (*model.Draft, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	if d == nil {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

func (s *DraftService) ListByUser(ctx context.Context, userName string) ([]*model.Draft, error) {
	return s.repo.ListByUser(ctx, userName)
}

func (s *DraftService) Delete(ctx context.Context, id string) error {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get draft: %w", err)
	}
	if d == nil {
		return ErrDraftNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	s.log.Info("draft deleted", "draft_id", id)
	return nil
}
