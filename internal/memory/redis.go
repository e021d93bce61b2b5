package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "zeon:memory:"

// RedisStore keeps each record as a JSON string key with an expiry that is
// refreshed on every save.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := redis.NewClient(opt)
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(sessionID string) string {
	return redisKeyPrefix + sessionID
}

// Load fetches the record for sessionID.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Record, error) {
	if sessionID == "" {
		return nil, ErrInvalidSessionID
	}
	data, err := s.client.Get(ctx, redisKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get memory %s: %w", sessionID, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode memory %s: %w", sessionID, err)
	}
	return &rec, nil
}

// Save stores rec and resets its expiry.
func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	if rec.SessionID == "" {
		return ErrInvalidSessionID
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode memory: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(rec.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set memory %s: %w", rec.SessionID, err)
	}
	return nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
