package personalize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopsearch/shop-search/internal/catalog"
	apperrors "github.com/shopsearch/shop-search/internal/pkg/errors"
	"github.com/shopsearch/shop-search/internal/pkg/logger"
)

// Store persists per-user preferences. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the user's preferences, or defaults for unknown users.
	Get(ctx context.Context, userID string) (Preferences, error)

	// Put stores the user's preferences.
	Put(ctx context.Context, userID string, prefs Preferences) error

	// Close releases resources.
	Close() error
}

// MemoryStore is an in-memory Store for tests and single-node deployments.
type MemoryStore struct {
	mu    sync.RWMutex
	prefs map[string]Preferences
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{prefs: make(map[string]Preferences)}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, userID string) (Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.prefs[userID]; ok {
		return p, nil
	}
	return Default(), nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, userID string, prefs Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[userID] = prefs
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

// RedisStore persists preferences in Redis.
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

func prefsKey(userID string) string {
	return "shop:prefs:" + userID
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, userID string) (Preferences, error) {
	data, err := s.client.Get(ctx, prefsKey(userID)).Bytes()
	if err == redis.Nil {
		return Default(), nil
	}
	if err != nil {
		return Default(), apperrors.SessionError("loading preferences", err)
	}

	var prefs Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		s.log.Warn("Corrupt preferences entry, using defaults", "user", userID, "error", err)
		return Default(), nil
	}
	return prefs, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, userID string, prefs Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}

	if err := s.client.Set(ctx, prefsKey(userID), data, s.ttl).Err(); err != nil {
		return apperrors.SessionError("storing preferences", err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// LearnFromResults folds brands and categories observed in the top results
// into the user's preference snapshot. A brand or category is promoted to
// the preference lists only after repeat exposure across searches.
func LearnFromResults(prefs Preferences, top []catalog.Product) Preferences {
	if prefs.Exposure == nil {
		prefs.Exposure = make(map[string]int)
	}

	for _, p := range top {
		if p.Brand != "" {
			key := "brand:" + strings.ToLower(p.Brand)
			prefs.Exposure[key]++
			if prefs.Exposure[key] >= 2 && !prefs.PrefersBrand(p.Brand) {
				prefs.PreferredBrands = append(prefs.PreferredBrands, p.Brand)
			}
		}
		if p.Category != "" {
			key := "category:" + strings.ToLower(p.Category)
			prefs.Exposure[key]++
			if prefs.Exposure[key] >= 2 && !prefs.PrefersCategory(p.Category) {
				prefs.CategoryAffinities = append(prefs.CategoryAffinities, p.Category)
			}
		}
	}
	return prefs
}
