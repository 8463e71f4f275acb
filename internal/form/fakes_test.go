package form

import (
	"context"
	"doraform/internal/model"
	"errors"
	"sync"
	"time"
)

func lt(es, pt string) model.LocalizedText {
	return model.LocalizedText{ES: es, PT: pt}
}

func scale() []model.Option {
	return []model.Option{
		{Text: lt("Bajo", "Baixo"), Value: 1},
		{Text: lt("Medio", "Médio"), Value: 2},
		{Text: lt("Alto", "Alto"), Value: 3},
	}
}

// threeQuestions is the fixture used by most tests: two categories, three questions.
func threeQuestions() ([]model.Question, []model.Category) {
	cats := []model.Category{
		{ID: "risk", Label: lt("Riesgo", "Risco")},
		{ID: "tests", Label: lt("Pruebas", "Testes")},
	}
	qs := []model.Question{
		{ID: "q1", CategoryID: "risk", Text: lt("¿{providerName} gestiona riesgos?", "{providerName} gerencia riscos?"), Options: scale()},
		{ID: "q2", CategoryID: "risk", Text: lt("¿Informa a {financialEntityName}?", "Informa {financialEntityName}?"), Options: scale()},
		{ID: "q3", CategoryID: "tests", Text: lt("¿Realiza pruebas?", "Realiza testes?"), Options: scale()},
	}
	return qs, cats
}

func newTestSession(collab Collaborators) *Session {
	qs, cats := threeQuestions()
	return New(Config{
		ID:              "sess-1",
		QuestionnaireID: "dora-v1",
		Questions:       qs,
		Categories:      cats,
		Locale:          model.LocaleES,
		Identity: model.Identity{
			ProviderName:        "Acme Cloud",
			FinancialEntityName: "Banco Sur",
			UserName:            "ana",
		},
	}, collab, nil)
}

func pinTime(t interface{ Cleanup(func()) }, at time.Time) {
	prev := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = prev })
}

type fakeDraftSaver struct {
	mu     sync.Mutex
	saved  []*model.Draft
	failed error
}

func (f *fakeDraftSaver) SaveDraft(_ context.Context, d *model.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed != nil {
		return f.failed
	}
	f.saved = append(f.saved, d)
	return nil
}

type fakeListener struct {
	mu      sync.Mutex
	records []*model.SubmissionRecord
	err     error
}

func (f *fakeListener) OnSubmitted(_ context.Context, r *model.SubmissionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, r)
	return f.err
}

func (f *fakeListener) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeExporter struct {
	img     []byte
	err     error
	panicky bool
}

func (f *fakeExporter) ExportVisual(context.Context, []model.CategoryScore, model.Locale) ([]byte, error) {
	if f.panicky {
		panic("renderer exploded")
	}
	return f.img, f.err
}

type fakeDeliverer struct {
	mu       sync.Mutex
	requests []DeliveryRequest
	ok       bool
	err      error
	panicky  bool

	// when set, Deliver signals started and waits for release
	started chan struct{}
	release chan struct{}
}

func (f *fakeDeliverer) Deliver(_ context.Context, req DeliveryRequest) (bool, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	ok, err, panicky := f.ok, f.err, f.panicky
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	if panicky {
		panic("delivery exploded")
	}
	return ok, err
}

func (f *fakeDeliverer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeDeliverer) set(ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ok, f.err = ok, err
}

var errBoom = errors.New("telegram: 502 bad gateway")
