package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions in Redis; expiry is delegated to key TTLs.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the Redis instance at url (redis://host:port/db).
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

type redisSession struct {
	Username  string  `json:"username"`
	Flashes   []Flash `json:"flashes"`
	ExpiresAt int64   `json:"expiresAt"`
}

// Get loads a session by token.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var rs redisSession
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &Session{
		ID:        id,
		Username:  rs.Username,
		Flashes:   rs.Flashes,
		ExpiresAt: time.Unix(rs.ExpiresAt, 0),
	}, nil
}

// Create writes a new session with a TTL matching its expiry.
func (s *RedisStore) Create(ctx context.Context, sess *Session) error {
	payload, ttl, err := encodeRedisSession(sess)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, redisKeyPrefix+sess.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Save overwrites an existing session only. A deleted or evicted session
// yields ErrNotFound; an expired one is removed.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	payload, ttl, err := encodeRedisSession(sess)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return s.Delete(ctx, sess.ID)
	}
	ok, err := s.client.SetXX(ctx, redisKeyPrefix+sess.ID, payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func encodeRedisSession(sess *Session) ([]byte, time.Duration, error) {
	payload, err := json.Marshal(redisSession{
		Username:  sess.Username,
		Flashes:   sess.Flashes,
		ExpiresAt: sess.ExpiresAt.Unix(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode session: %w", err)
	}
	return payload, time.Until(sess.ExpiresAt), nil
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op; Redis evicts keys on their own.
func (s *RedisStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
