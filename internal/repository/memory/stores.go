// Package memory holds in-process implementations of the repository
// interfaces, used with STORAGE_BACKEND=memory and in tests.
package memory

import (
	"context"
	"doraform/internal/model"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type QuestionnaireStore struct {
	mu    sync.RWMutex
	items map[string]*model.Questionnaire
}

func NewQuestionnaireStore() *QuestionnaireStore {
	return &QuestionnaireStore{items: make(map[string]*model.Questionnaire)}
}

func (s *QuestionnaireStore) Upsert(_ context.Context, q *model.Questionnaire) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for id, existing := range s.items {
		if existing.Slug == q.Slug && existing.Version == q.Version {
			q.ID = id
			q.CreatedAt = existing.CreatedAt
		}
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	q.UpdatedAt = now

	c := *q
	s.items[q.ID] = &c
	return nil
}

func (s *QuestionnaireStore) GetByID(_ context.Context, id string) (*model.Questionnaire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	c := *q
	return &c, nil
}

func (s *QuestionnaireStore) GetActive(_ context.Context) (*model.Questionnaire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *model.Questionnaire
	for _, q := range s.items {
		if q.Active && (best == nil || q.Version > best.Version) {
			best = q
		}
	}
	if best == nil {
		return nil, nil
	}
	c := *best
	return &c, nil
}

type DraftStore struct {
	mu     sync.RWMutex
	drafts map[string]*model.Draft
}

func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[string]*model.Draft)}
}

func (s *DraftStore) Save(_ context.Context, d *model.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ID] = cloneDraft(d)
	return nil
}

func (s *DraftStore) GetByID(_ context.Context, id string) (*model.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[id]
	if !ok {
		return nil, nil
	}
	return cloneDraft(d), nil
}

func (s *DraftStore) ListByUser(_ context.Context, userName string) ([]*model.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*model.Draft{}
	for _, d := range s.drafts {
		if d.UserName == userName {
			result = append(result, cloneDraft(d))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	return result, nil
}

func (s *DraftStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
	return nil
}

type FormStore struct {
	mu    sync.RWMutex
	forms map[string]*model.SubmissionRecord
}

func NewFormStore() *FormStore {
	return &FormStore{forms: make(map[string]*model.SubmissionRecord)}
}

func (s *FormStore) Save(_ context.Context, r *model.SubmissionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[r.ID] = cloneRecord(r)
	return nil
}

func (s *FormStore) GetByID(_ context.Context, id string) (*model.SubmissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.forms[id]
	if !ok {
		return nil, nil
	}
	return cloneRecord(r), nil
}

func (s *FormStore) ListByUser(_ context.Context, userName string) ([]*model.SubmissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*model.SubmissionRecord{}
	for _, r := range s.forms {
		if r.UserName == userName {
			result = append(result, cloneRecord(r))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	return result, nil
}

type document struct {
	filename string
	data     []byte
}

// DocumentStore keeps the latest archived document per submission.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]document
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]document)}
}

func (s *DocumentStore) Archive(_ context.Context, filename string, data []byte, record *model.SubmissionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[record.ID] = document{filename: filename, data: append([]byte(nil), data...)}
	return nil
}

func (s *DocumentStore) OpenBySubmission(_ context.Context, submissionID string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[submissionID]
	if !ok {
		return nil, "", nil
	}
	return append([]byte(nil), d.data...), d.filename, nil
}

func cloneDraft(d *model.Draft) *model.Draft {
	c := *d
	c.Answers = cloneAnswers(d.Answers)
	c.Observations = cloneObservations(d.Observations)
	return &c
}

func cloneRecord(r *model.SubmissionRecord) *model.SubmissionRecord {
	c := *r
	c.Answers = cloneAnswers(r.Answers)
	c.Observations = cloneObservations(r.Observations)
	c.Scores = append([]model.CategoryScore(nil), r.Scores...)
	return &c
}

func cloneAnswers(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneObservations(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
