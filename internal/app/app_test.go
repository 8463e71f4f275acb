package app

import (
	"context"
	"doraform/internal/config"
	"doraform/internal/logger"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func memoryConfig() *config.Config {
	return &config.Config{
		AppEnv:         "test",
		StorageBackend: config.StorageMemory,
		SessionTTL:     time.Hour,
		DefaultLocale:  "pt",
		ChartMaxScore:  4,
		Delivery:       &config.DeliveryConfig{},
	}
}

func TestNewMemoryBackend(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close(context.Background())

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/questionnaire", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var q struct {
		Slug      string            `json:"slug"`
		Questions []json.RawMessage `json:"questions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&q); err != nil {
		t.Fatal(err)
	}
	if q.Slug != "dora" || len(q.Questions) == 0 {
		t.Fatalf("embedded catalog not served: %+v", q)
	}

	body := `{"providerName":"Acme","financialEntityName":"Banco Sur","userName":"ana"}`
	rec = httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"locale":"pt"`) {
		t.Fatalf("default locale not applied: %s", rec.Body)
	}
	if a.Forms.ActiveSessions() != 1 {
		t.Fatalf("active sessions = %d", a.Forms.ActiveSessions())
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := memoryConfig()
	cfg.StorageBackend = "sqlite"
	if _, err := New(context.Background(), cfg, logger.Nop()); err == nil {
		t.Fatal("expected unknown backend error")
	}

	cfg = memoryConfig()
	cfg.CatalogPath = "/does/not/exist.yaml"
	if _, err := New(context.Background(), cfg, logger.Nop()); err == nil {
		t.Fatal("expected catalog error")
	}
}
