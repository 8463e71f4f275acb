package report

import (
	"context"
	"doraform/internal/config"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc, retries int) *TelegramClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewTelegramClient(&config.DeliveryConfig{
		BotToken:   "123:abc",
		ChatIDs:    []string{"-100"},
		BaseURL:    srv.URL,
		TimeoutMS:  2000,
		MaxRetries: retries,
	}, nil)
	c.backoff = time.Millisecond
	return c
}

func TestSendDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bot123:abc/sendDocument" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		if r.FormValue("chat_id") != "-100" || r.FormValue("caption") != "hola" {
			t.Errorf("fields = %v", r.MultipartForm.Value)
		}
		f, hdr, err := r.FormFile("document")
		if err != nil {
			t.Errorf("document: %v", err)
			return
		}
		body, _ := io.ReadAll(f)
		if hdr.Filename != "r.pdf" || string(body) != "%PDF-1.3" {
			t.Errorf("file = %s %q", hdr.Filename, body)
		}
		fmt.Fprint(w, `{"ok":true,"result":{}}`)
	}, 3)

	if err := c.SendDocument(context.Background(), "-100", "r.pdf", "hola", []byte("%PDF-1.3")); err != nil {
		t.Fatalf("SendDocument: %v", err)
	}
}

func TestSendDocumentRetries(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			w.WriteHeader(http.StatusBadGateway)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"ok":false,"error_code":429,"parameters":{"retry_after":0}}`)
		default:
			fmt.Fprint(w, `{"ok":true}`)
		}
	}, 3)

	if err := c.SendDocument(context.Background(), "1", "r.pdf", "", []byte("x")); err != nil {
		t.Fatalf("SendDocument: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestSendDocumentGivesUp(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, 2)

	if err := c.SendDocument(context.Background(), "1", "r.pdf", "", []byte("x")); err == nil {
		t.Fatal("expected an error")
	}
	// first attempt plus two retries
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestSendDocumentZeroRetries(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}, 0)

	if err := c.SendDocument(context.Background(), "1", "r.pdf", "", []byte("x")); err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSendDocumentClientErrorNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	}, 5)

	err := c.SendDocument(context.Background(), "1", "r.pdf", "", []byte("x"))
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Description != "Bad Request: chat not found" {
		t.Fatalf("err = %v, want APIError", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSendDocumentCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, 5)
	c.backoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := c.SendDocument(ctx, "1", "r.pdf", "", []byte("x")); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}
