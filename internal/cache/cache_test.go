package cache

import (
	"context"
	"doraform/internal/model"
	"testing"
	"time"
)

func pinTime(t *testing.T, at *time.Time) {
	prev := timeNow
	timeNow = func() time.Time { return *at }
	t.Cleanup(func() { timeNow = prev })
}

func TestMemorySessionCacheExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	pinTime(t, &now)
	ctx := context.Background()
	c := NewMemorySessionCache(time.Hour)

	snap := &model.SessionSnapshot{
		SessionID: "s1",
		State:     model.Draft{ID: "d1", Answers: map[string]float64{"q1": 2}, LastQuestionIndex: 1},
	}
	if err := c.Set(ctx, snap); err != nil {
		t.Fatal(err)
	}

	got, err := c.Get(ctx, "s1")
	if err != nil || got == nil {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if got.State.Answers["q1"] != 2 || got.State.LastQuestionIndex != 1 {
		t.Errorf("snapshot not preserved: %+v", got.State)
	}

	now = now.Add(2 * time.Hour)
	if got, _ := c.Get(ctx, "s1"); got != nil {
		t.Error("expired snapshot returned")
	}
}

func TestMemorySessionCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemorySessionCache(time.Hour)
	_ = c.Set(ctx, &model.SessionSnapshot{SessionID: "s1"})
	if err := c.Delete(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Get(ctx, "s1"); got != nil {
		t.Error("snapshot still present after Delete")
	}
	if got, err := c.Get(ctx, "never"); got != nil || err != nil {
		t.Errorf("missing key = %v, %v; want nil, nil", got, err)
	}
}

func TestMemorySubmitLock(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	pinTime(t, &now)
	ctx := context.Background()
	l := NewMemorySubmitLock(time.Minute)

	if ok, _ := l.Acquire(ctx, "s1"); !ok {
		t.Fatal("first acquire should succeed")
	}
	if ok, _ := l.Acquire(ctx, "s1"); ok {
		t.Fatal("second acquire should fail while held")
	}
	if ok, _ := l.Acquire(ctx, "s2"); !ok {
		t.Error("locks are per session")
	}

	_ = l.Release(ctx, "s1")
	if ok, _ := l.Acquire(ctx, "s1"); !ok {
		t.Error("acquire after release should succeed")
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := l.Acquire(ctx, "s1"); !ok {
		t.Error("expired lock should be reclaimable")
	}
}

func TestKeys(t *testing.T) {
	if sessionKey("abc") != "form:session:abc" || submitKey("abc") != "form:submit:abc" {
		t.Error("unexpected key layout")
	}
}
