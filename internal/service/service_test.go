package service

import (
	"context"
	"doraform/internal/cache"
	"doraform/internal/form"
	"doraform/internal/model"
	"doraform/internal/repository/memory"
	"errors"
	"sync"
	"testing"
	"time"
)

func lt(es, pt string) model.LocalizedText { return model.LocalizedText{ES: es, PT: pt} }

func testQuestionnaire() *model.Questionnaire {
	opts := []model.Option{{Text: lt("No", "Não"), Value: 1}, {Text: lt("Sí", "Sim"), Value: 4}}
	return &model.Questionnaire{
		Slug:    "test",
		Version: 1,
		Active:  true,
		Categories: []model.Category{
			{ID: "risk", Label: lt("Riesgo", "Risco")},
		},
		Questions: []model.Question{
			{ID: "q1", CategoryID: "risk", Text: lt("¿{providerName}?", "{providerName}?"), Options: opts},
			{ID: "q2", CategoryID: "risk", Text: lt("¿{financialEntityName}?", "{financialEntityName}?"), Options: opts},
		},
	}
}

type event struct {
	session, kind string
}

type recordingBroadcaster struct {
	mu           sync.Mutex
	events       []event
	disconnected []string
}

func (b *recordingBroadcaster) BroadcastToSession(id, msgType string, _ interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event{id, msgType})
}

func (b *recordingBroadcaster) DisconnectSession(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnected = append(b.disconnected, id)
}

func (b *recordingBroadcaster) kinds() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, e := range b.events {
		out = append(out, e.kind)
	}
	return out
}

type stubDeliverer struct {
	mu    sync.Mutex
	ok    bool
	calls int
	gate  chan struct{} // when set, delivery blocks until it is closed
}

func (d *stubDeliverer) Deliver(context.Context, form.DeliveryRequest) (bool, error) {
	if d.gate != nil {
		<-d.gate
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if !d.ok {
		return false, errors.New("telegram unreachable")
	}
	return true, nil
}

type stubExporter struct{}

func (stubExporter) ExportVisual(context.Context, []model.CategoryScore, model.Locale) ([]byte, error) {
	return []byte("png"), nil
}

type fixture struct {
	svc            *FormService
	questionnaires *memory.QuestionnaireStore
	drafts         *memory.DraftStore
	forms          *memory.FormStore
	cache          cache.SessionCache
	lock           cache.SubmitLock
	delivery       *stubDeliverer
	broadcaster    *recordingBroadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		questionnaires: memory.NewQuestionnaireStore(),
		drafts:         memory.NewDraftStore(),
		forms:          memory.NewFormStore(),
		cache:          cache.NewMemorySessionCache(time.Hour),
		lock:           cache.NewMemorySubmitLock(time.Minute),
		delivery:       &stubDeliverer{ok: true},
		broadcaster:    &recordingBroadcaster{},
	}
	f.svc = f.newService()
	return f
}

// newService builds another process sharing the fixture's stores and cache.
func (f *fixture) newService() *FormService {
	questionnaires := NewQuestionnaireService(f.questionnaires, testQuestionnaire(), nil)
	drafts := NewDraftService(f.drafts, nil)
	submissions := NewSubmissionService(f.forms, f.drafts, memory.NewDocumentStore(), nil)
	svc := NewFormService(questionnaires, drafts, submissions, stubExporter{}, f.delivery, f.cache, f.lock, nil)
	svc.SetBroadcaster(f.broadcaster)
	return svc
}

var ana = model.Identity{ProviderName: "Acme", FinancialEntityName: "Banco Sur", UserName: "ana"}

func waitView(t *testing.T, ch <-chan form.View) form.View {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("submission did not resolve")
		return form.View{}
	}
}

func TestStartRequiresIdentity(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Start(context.Background(), StartRequest{Identity: model.Identity{UserName: "ana"}})
	if !errors.Is(err, ErrInvalidIdentity) {
		t.Errorf("err = %v, want ErrInvalidIdentity", err)
	}
}

func TestStartAndAnswer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.Start(ctx, StartRequest{Identity: ana, Locale: model.LocalePT})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if v.Question == nil || v.Question.Text != "Acme?" || v.Locale != model.LocalePT {
		t.Fatalf("unexpected first view: %+v", v)
	}

	v, err = f.svc.Answer(ctx, v.SessionID, "q1", 4)
	if err != nil {
		t.Fatal(err)
	}
	if v.Position != 1 || !v.IsLast {
		t.Errorf("Position = %d IsLast = %v", v.Position, v.IsLast)
	}
	snap, _ := f.cache.Get(ctx, v.SessionID)
	if snap == nil || snap.State.Answers["q1"] != 4 {
		t.Errorf("snapshot not cached: %+v", snap)
	}
	if kinds := f.broadcaster.kinds(); len(kinds) != 1 || kinds[0] != EventState {
		t.Errorf("events = %v", kinds)
	}
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.View(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v", err)
	}
	if err := f.svc.Close(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestSubmitSuccessStoresFormAndEvicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, _ := f.svc.Start(ctx, StartRequest{Identity: ana})
	id := v.SessionID

	_, _ = f.svc.Answer(ctx, id, "q1", 1)
	draft, err := f.svc.SaveDraft(ctx, id)
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	_, _ = f.svc.Answer(ctx, id, "q2", 4)

	ch, err := f.svc.Submit(ctx, id)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	final := waitView(t, ch)
	if final.Status != form.StatusSucceeded {
		t.Fatalf("final status = %q", final.Status)
	}

	forms, _ := f.forms.ListByUser(ctx, "ana")
	if len(forms) != 1 || len(forms[0].Answers) != 2 {
		t.Fatalf("stored forms = %+v", forms)
	}
	if d, _ := f.drafts.GetByID(ctx, draft.ID); d != nil {
		t.Error("draft should be deleted after submission")
	}
	if f.svc.ActiveSessions() != 0 {
		t.Error("session not evicted")
	}
	if snap, _ := f.cache.Get(ctx, id); snap != nil {
		t.Error("cached snapshot not removed")
	}
	if _, err := f.svc.View(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("View after success err = %v", err)
	}

	kinds := f.broadcaster.kinds()
	want := []string{EventState, EventDraftSaved, EventState, EventSubmitStarted, EventSubmitSucceeded}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, kinds[i], want[i])
		}
	}
	if len(f.broadcaster.disconnected) != 1 {
		t.Error("subscribers not disconnected")
	}
}

func TestSubmitFailureKeepsSessionForRetry(t *testing.T) {
	f := newFixture(t)
	f.delivery.ok = false
	ctx := context.Background()
	v, _ := f.svc.Start(ctx, StartRequest{Identity: ana})
	id := v.SessionID
	_, _ = f.svc.Answer(ctx, id, "q1", 1)
	_, _ = f.svc.Answer(ctx, id, "q2", 1)

	ch, err := f.svc.Submit(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	final := waitView(t, ch)
	if final.Status != form.StatusFailed || final.LastError == "" || final.Submitting {
		t.Fatalf("final view = %+v", final)
	}

	f.delivery.mu.Lock()
	f.delivery.ok = true
	f.delivery.mu.Unlock()

	ch, err = f.svc.Submit(ctx, id)
	if err != nil {
		t.Fatalf("retry rejected: %v", err)
	}
	if final := waitView(t, ch); final.Status != form.StatusSucceeded {
		t.Errorf("retry status = %q", final.Status)
	}
	if f.delivery.calls != 2 {
		t.Errorf("delivery calls = %d, want 2", f.delivery.calls)
	}
}

func TestSubmitRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, _ := f.svc.Start(ctx, StartRequest{Identity: ana})

	if _, err := f.svc.Submit(ctx, v.SessionID); !errors.Is(err, form.ErrNotAtLastQuestion) {
		t.Errorf("err = %v, want ErrNotAtLastQuestion", err)
	}

	_, _ = f.svc.Answer(ctx, v.SessionID, "q1", 1)
	if ok, _ := f.lock.Acquire(ctx, v.SessionID); !ok {
		t.Fatal("could not take the lock")
	}
	if _, err := f.svc.Submit(ctx, v.SessionID); !errors.Is(err, form.ErrSubmitInFlight) {
		t.Errorf("err = %v, want ErrSubmitInFlight while another replica holds the lock", err)
	}
	if f.delivery.calls != 0 {
		t.Error("delivery must not run")
	}
}

func TestSessionRestoredByAnotherProcess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, _ := f.svc.Start(ctx, StartRequest{Identity: ana})
	_, _ = f.svc.Answer(ctx, v.SessionID, "q1", 4)
	_, _ = f.svc.SetObservation(ctx, v.SessionID, "q1", "ok")

	other := f.newService()
	view, err := other.View(ctx, v.SessionID)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view.Position != 1 || view.DraftID != v.DraftID {
		t.Errorf("restored view = %+v", view)
	}
	if other.ActiveSessions() != 1 {
		t.Error("restored session should be registered")
	}
}

func TestResumeFromDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.drafts.Save(ctx, &model.Draft{
		ID:                "d1",
		Identity:          ana,
		Locale:            model.LocalePT,
		Answers:           map[string]float64{"q1": 4, "gone": 1},
		Observations:      map[string]string{"q1": "revisto"},
		LastQuestionIndex: 1,
	})

	v, err := f.svc.Start(ctx, StartRequest{DraftID: "d1"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if v.Position != 1 || v.DraftID != "d1" || v.Locale != model.LocalePT {
		t.Errorf("resumed view = %+v", v)
	}
	if v.Question.Text != "Banco Sur?" {
		t.Errorf("identity not taken from draft: %q", v.Question.Text)
	}

	if _, err := f.svc.Start(ctx, StartRequest{DraftID: "nope"}); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("err = %v, want ErrDraftNotFound", err)
	}
}

func TestCloseAndChart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, _ := f.svc.Start(ctx, StartRequest{Identity: ana})

	img, err := f.svc.Chart(ctx, v.SessionID)
	if err != nil || string(img) != "png" {
		t.Errorf("Chart = %q, %v", img, err)
	}

	if err := f.svc.Close(ctx, v.SessionID); err != nil {
		t.Fatal(err)
	}
	if f.svc.ActiveSessions() != 0 {
		t.Error("session still registered")
	}
	if _, err := f.svc.View(ctx, v.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("closed session still reachable: %v", err)
	}
}

func TestQuestionnaireServicePrefersStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewQuestionnaireStore()
	svc := NewQuestionnaireService(store, testQuestionnaire(), nil)

	q, _ := svc.Active(ctx)
	if q.Slug != "test" {
		t.Fatalf("expected fallback, got %q", q.Slug)
	}

	stored := testQuestionnaire()
	stored.Slug = "dora"
	stored.Version = 7
	if err := svc.Seed(ctx, stored); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	q, _ = svc.Active(ctx)
	if q.Slug != "dora" || sessionQuestionnaireID(q) == "" {
		t.Errorf("Active = %+v", q)
	}

	bad := testQuestionnaire()
	bad.Questions[0].CategoryID = "unknown"
	if err := svc.Seed(ctx, bad); err == nil {
		t.Error("invalid questionnaire seeded")
	}
}

func TestDraftAndSubmissionLookups(t *testing.T) {
	ctx := context.Background()
	drafts := NewDraftService(memory.NewDraftStore(), nil)
	if err := drafts.Delete(ctx, "nope"); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("err = %v", err)
	}

	subs := NewSubmissionService(memory.NewFormStore(), memory.NewDraftStore(), memory.NewDocumentStore(), nil)
	if _, err := subs.Get(ctx, "nope"); !errors.Is(err, ErrFormNotFound) {
		t.Errorf("err = %v", err)
	}
	if _, _, err := subs.Document(ctx, "nope"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestCloseDuringFailingSubmitStaysClosed(t *testing.T) {
	f := newFixture(t)
	f.delivery.ok = false
	f.delivery.gate = make(chan struct{})
	ctx := context.Background()
	v, _ := f.svc.Start(ctx, StartRequest{Identity: ana})
	id := v.SessionID
	_, _ = f.svc.Answer(ctx, id, "q1", 1)
	_, _ = f.svc.Answer(ctx, id, "q2", 1)

	ch, err := f.svc.Submit(ctx, id)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := f.svc.Close(ctx, id); err != nil {
		t.Fatalf("Close: %v", err)
	}
	close(f.delivery.gate)
	if final := waitView(t, ch); final.Status != form.StatusFailed {
		t.Fatalf("final status = %q", final.Status)
	}

	if snap, _ := f.cache.Get(ctx, id); snap != nil {
		t.Errorf("closed session written back to cache: %+v", snap)
	}
	if _, err := f.svc.View(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("View after close err = %v", err)
	}
	if _, err := f.newService().View(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("View from another process err = %v", err)
	}
}

func TestDrainWaitsForSubmissions(t *testing.T) {
	f := newFixture(t)
	f.delivery.gate = make(chan struct{})
	ctx := context.Background()

	var ids []string
	for i := 0; i < 2; i++ {
		v, _ := f.svc.Start(ctx, StartRequest{Identity: ana})
		_, _ = f.svc.Answer(ctx, v.SessionID, "q1", 4)
		_, _ = f.svc.Answer(ctx, v.SessionID, "q2", 4)
		ids = append(ids, v.SessionID)
	}

	ch, err := f.svc.Submit(ctx, ids[0])
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := f.svc.Drain(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Drain with delivery blocked err = %v", err)
	}
	if _, err := f.svc.Submit(ctx, ids[1]); !errors.Is(err, ErrShuttingDown) {
		t.Errorf("Submit while draining err = %v", err)
	}

	close(f.delivery.gate)
	if err := f.svc.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	select {
	case final := <-ch:
		if final.Status != form.StatusSucceeded {
			t.Errorf("final status = %q", final.Status)
		}
	default:
		t.Fatal("Drain returned before the submission resolved")
	}
	forms, _ := f.forms.ListByUser(ctx, "ana")
	if len(forms) != 1 {
		t.Errorf("stored forms = %d, want 1", len(forms))
	}
}

func TestRestoreKeepsSessionQuestionnaire(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seeder := NewQuestionnaireService(f.questionnaires, nil, nil)

	v1 := testQuestionnaire()
	v1.Slug = "dora"
	if err := seeder.Seed(ctx, v1); err != nil {
		t.Fatalf("Seed v1: %v", err)
	}
	started, _ := f.svc.Start(ctx, StartRequest{Identity: ana})
	orphan, _ := f.svc.Start(ctx, StartRequest{Identity: ana})
	if started.Total != 2 {
		t.Fatalf("started on %d questions", started.Total)
	}

	v2 := testQuestionnaire()
	v2.Slug = "dora"
	v2.Version = 2
	v2.Questions = append(v2.Questions, model.Question{
		ID: "q3", CategoryID: "risk", Text: lt("¿Otra?", "Outra?"), Options: v2.Questions[0].Options,
	})
	if err := seeder.Seed(ctx, v2); err != nil {
		t.Fatalf("Seed v2: %v", err)
	}

	view, err := f.newService().View(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view.Total != 2 {
		t.Errorf("restored session has %d questions, want the 2 it started with", view.Total)
	}

	snap, _ := f.cache.Get(ctx, orphan.SessionID)
	snap.State.QuestionnaireID = "retired"
	if err := f.cache.Set(ctx, snap); err != nil {
		t.Fatal(err)
	}
	if _, err := f.newService().View(ctx, orphan.SessionID); !errors.Is(err, ErrQuestionnaireChanged) {
		t.Errorf("View of unknown questionnaire err = %v", err)
	}
}
