package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmitLock guards a session's submission across server replicas. A lock
// expires on its own so a crashed holder cannot block the session forever.
type SubmitLock interface {
	Acquire(ctx context.Context, sessionID string) (bool, error)
	Release(ctx context.Context, sessionID string) error
}

type submitLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSubmitLock creates a Redis SETNX based submission lock
func NewSubmitLock(client *redis.Client, ttl time.Duration) SubmitLock {
	return &submitLock{client: client, ttl: ttl}
}

func submitKey(id string) string {
	return fmt.Sprintf("form:submit:%s", id)
}

func (l *submitLock) Acquire(ctx context.Context, sessionID string) (bool, error) {
	return l.client.SetNX(ctx, submitKey(sessionID), timeNow().UTC().Format(time.RFC3339), l.ttl).Result()
}

func (l *submitLock) Release(ctx context.Context, sessionID string) error {
	return l.client.Del(ctx, submitKey(sessionID)).Err()
}

type memorySubmitLock struct {
	mu   sync.Mutex
	held map[string]time.Time
	ttl  time.Duration
}

// NewMemorySubmitLock creates a process-local submission lock
func NewMemorySubmitLock(ttl time.Duration) SubmitLock {
	return &memorySubmitLock{held: make(map[string]time.Time), ttl: ttl}
}

func (l *memorySubmitLock) Acquire(_ context.Context, sessionID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := timeNow()
	if until, ok := l.held[sessionID]; ok && now.Before(until) {
		return false, nil
	}
	l.held[sessionID] = now.Add(l.ttl)
	return true, nil
}

func (l *memorySubmitLock) Release(_ context.Context, sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, sessionID)
	return nil
}
