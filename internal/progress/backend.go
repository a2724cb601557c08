package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var errMiss = errors.New("key not found")

// Backend stores JSON values with a TTL.
type Backend interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Ping(ctx context.Context) error
}

type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Get(ctx context.Context, key string, dest any) error {
	val, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return errMiss
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	return json.Unmarshal(val, dest)
}

func (b *RedisBackend) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	if err := b.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// MemoryBackend keeps values in process memory. It serves single-process
// deployments without Redis.
type MemoryBackend struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{now: time.Now, entries: make(map[string]memoryEntry)}
}

func (b *MemoryBackend) Get(_ context.Context, key string, dest any) error {
	b.mu.Lock()
	e, ok := b.entries[key]
	if ok && !e.expiresAt.IsZero() && b.now().After(e.expiresAt) {
		delete(b.entries, key)
		ok = false
	}
	b.mu.Unlock()
	if !ok {
		return errMiss
	}
	return json.Unmarshal(e.data, dest)
}

func (b *MemoryBackend) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expiresAt = b.now().Add(ttl)
	}
	b.mu.Lock()
	b.entries[key] = e
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Ping(context.Context) error { return nil }
