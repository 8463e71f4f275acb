package cache

import (
	"context"
	"doraform/internal/model"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionCache keeps live session snapshots so a session survives a restart
type SessionCache interface {
	Set(ctx context.Context, snap *model.SessionSnapshot) error
	Get(ctx context.Context, id string) (*model.SessionSnapshot, error)
	Delete(ctx context.Context, id string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new Redis session cache
func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("form:session:%s", id)
}

func (c *sessionCache) Set(ctx context.Context, snap *model.SessionSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionKey(snap.SessionID), data, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.SessionSnapshot, error) {
	data, err := c.client.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap model.SessionSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, sessionKey(id)).Err()
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

type memorySessionCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewMemorySessionCache creates a process-local session cache with the same
// expiry semantics as the Redis one.
func NewMemorySessionCache(ttl time.Duration) SessionCache {
	return &memorySessionCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (c *memorySessionCache) Set(_ context.Context, snap *model.SessionSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[snap.SessionID] = memoryEntry{data: data, expires: timeNow().Add(c.ttl)}
	return nil
}

func (c *memorySessionCache) Get(_ context.Context, id string) (*model.SessionSnapshot, error) {
	c.mu.Lock()
	e, ok := c.entries[id]
	if ok && !timeNow().Before(e.expires) {
		delete(c.entries, id)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return nil, nil
	}

	var snap model.SessionSnapshot
	if err := json.Unmarshal(e.data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *memorySessionCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}
