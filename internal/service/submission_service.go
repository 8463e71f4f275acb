package service

import (
	"context"
	"doraform/internal/logger"
	"doraform/internal/model"
	"doraform/internal/repository"
	"fmt"
)

// SubmissionService stores delivered forms and implements form.SubmitListener
type SubmissionService struct {
	forms     repository.FormRepo
	drafts    repository.DraftRepo
	documents repository.DocumentRepo
	log       *logger.Logger
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(forms repository.FormRepo, drafts repository.DraftRepo, documents repository.DocumentRepo, log *logger.Logger) *SubmissionService {
	if log == nil {
		log = logger.Nop()
	}
	return &SubmissionService{
		forms:     forms,
		drafts:    drafts,
		documents: documents,
		log:       log.With("service", "SubmissionService"),
	}
}

// OnSubmitted saves the record as a submitted form and removes the draft the
// session saved to or resumed from.
func (s *SubmissionService) OnSubmitted(ctx context.Context, record *model.SubmissionRecord) error {
	if err := s.forms.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save form: %w", err)
	}
	if record.DraftID != "" {
		if err := s.drafts.Delete(ctx, record.DraftID); err != nil {
			s.log.Warn("failed to delete submitted draft (ignored)", "draft_id", record.DraftID, "error", err)
		}
	}
	s.log.Info("form stored", "submission_id", record.ID, "user", record.UserName)
	return nil
}

// Get returns a submitted form or ErrFormNotFound.
func (s *SubmissionService) Get(ctx context.Context, id string) (*model.SubmissionRecord, error) {
	r, err := s.forms.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	if r == nil {
		return nil, ErrFormNotFound
	}
	return r, nil
}

func (s *SubmissionService) ListByUser(ctx context.Context, userName string) ([]*model.SubmissionRecord, error) {
	return s.forms.ListByUser(ctx, userName)
}

// Document returns the archived report PDF of a submitted form.
func (s *SubmissionService) Document(ctx context.Context, id string) ([]byte, string, error) {
	if s.documents == nil {
		return nil, "", ErrDocumentNotFound
	}
	data, name, err := s.documents.OpenBySubmission(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open document: %w", err)
	}
	if data == nil {
		return nil, "", ErrDocumentNotFound
	}
	return data, name, nil
}
