package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeRedactsSecrets(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := &Logger{SugaredLogger: zap.New(core).Sugar()}

	log.Info("delivering", "bot_token", "123:abc", "chat_id", "42")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["bot_token"] != "[REDACTED]" {
		t.Errorf("bot_token = %v, want [REDACTED]", fields["bot_token"])
	}
	if fields["chat_id"] != "42" {
		t.Errorf("chat_id = %v, want 42", fields["chat_id"])
	}
}

func TestSanitizeKeepsDanglingValue(t *testing.T) {
	got := sanitizeKVs([]interface{}{"a", 1, "orphan"})
	if len(got) != 3 || got[2] != "orphan" {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestNopDoesNotPanic(t *testing.T) {
	l := Nop().With("service", "test")
	l.Debug("x")
	l.Warn("y", "k", "v")
	l.Sync()
}
