package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"civic_reporter/internal/model"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix is the single key schema for persisted sessions.
const KeyPrefix = "session:v1:"

// Store persists sessions keyed by their id.
type Store interface {
	Save(ctx context.Context, s *model.Session) error
	// Load returns nil, nil when no live session exists under id.
	Load(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}

type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func Key(id string) string {
	return KeyPrefix + id
}

// Save stores the session in Redis until its expiry
func (r *RedisStore) Save(ctx context.Context, s *model.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("refusing to store invalid session: %w", err)
	}

	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, Key(s.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}
	return nil
}

// Load reads a session back. Entries that fail validation or are past their
// expiry are removed and read as absent.
func (r *RedisStore) Load(ctx context.Context, id string) (*model.Session, error) {
	if id == "" {
		return nil, nil
	}

	data, err := r.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session from redis: %w", err)
	}

	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil || s.ID != id || s.Validate() != nil || s.Expired(r.now()) {
		_ = r.client.Del(ctx, Key(id)).Err()
		return nil, nil
	}
	return &s, nil
}

// Delete removes the session. Deleting an absent session is not an error.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := r.client.Del(ctx, Key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}
