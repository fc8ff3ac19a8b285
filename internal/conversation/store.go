package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/shopsearch/shop-search/internal/pkg/errors"
	"github.com/shopsearch/shop-search/internal/pkg/logger"
)

// Store persists session context between turns. Implementations must be safe
// for concurrent use; per-session write exclusivity is the caller's job via
// SessionLocker.
type Store interface {
	// Load returns the session's context, or a fresh one for unknown
	// sessions. It never fails the search: storage errors surface to the
	// caller for the error trail, with an empty context as the result.
	Load(ctx context.Context, sessionID string) (*Context, error)

	// Save persists the session's context.
	Save(ctx context.Context, sessCtx *Context) error

	// Clear removes the session's context.
	Clear(ctx context.Context, sessionID string) error

	// Close releases resources.
	Close() error
}

func freshContext(sessionID string) *Context {
	return &Context{SessionID: sessionID}
}

// memoryEntry wraps a stored context with its expiry.
type memoryEntry struct {
	sessCtx   *Context
	expiresAt time.Time
}

// MemoryStore is an in-memory Store with TTL eviction, for tests and
// single-node deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates an in-memory store. ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*Context, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok || s.expired(entry) {
		return freshContext(sessionID), nil
	}

	// Copy so callers cannot mutate stored state outside Save.
	clone := *entry.sessCtx
	clone.Turns = append([]Turn(nil), entry.sessCtx.Turns...)
	return &clone, nil
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, sessCtx *Context) error {
	clone := *sessCtx
	clone.Turns = append([]Turn(nil), sessCtx.Turns...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessCtx.SessionID] = memoryEntry{
		sessCtx:   &clone,
		expiresAt: s.expiry(),
	}
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) expiry() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.ttl)
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && s.now().After(e.expiresAt)
}

// RedisStore persists session context in Redis with a TTL refreshed on
// every Save.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisStore creates a Redis-backed store from a redis URL.
func NewRedisStore(redisURL string, ttl time.Duration, log *logger.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	return &RedisStore{
		client: redis.NewClient(opts),
		ttl:    ttl,
		log:    log,
	}, nil
}

func sessionKey(sessionID string) string {
	return "shop:session:" + sessionID
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Context, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return freshContext(sessionID), nil
	}
	if err != nil {
		return freshContext(sessionID), apperrors.SessionError("loading session", err)
	}

	var sessCtx Context
	if err := json.Unmarshal(data, &sessCtx); err != nil {
		s.log.Warn("Corrupt session entry, starting fresh", "session", sessionID, "error", err)
		return freshContext(sessionID), nil
	}
	sessCtx.SessionID = sessionID
	return &sessCtx, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, sessCtx *Context) error {
	data, err := json.Marshal(sessCtx)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(sessCtx.SessionID), data, s.ttl).Err(); err != nil {
		return apperrors.SessionError("storing session", err)
	}
	return nil
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return apperrors.SessionError("clearing session", err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
