package passcode

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoRecord is returned when no passcode exists for a key.
var ErrNoRecord = errors.New("no passcode record")

// Record is a stored one-time passcode. Expiry is enforced lazily at
// verify time from ExpiresAt, not by a background sweep.
type Record struct {
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RecordStore persists passcode records keyed by normalized email.
// Put has upsert semantics: a new issuance overwrites the prior record.
type RecordStore interface {
	Put(ctx context.Context, key string, record Record) error
	Get(ctx context.Context, key string) (*Record, error)
	Delete(ctx context.Context, key string) error
}

const redisKeyPrefix = "passcode:"

// redisStore keeps records in Redis. Keys carry a hygiene TTL past the
// logical expiry so abandoned records eventually vanish on their own.
type redisStore struct {
	client *redis.Client
}

// NewRedisStore returns a Redis-backed RecordStore.
func NewRedisStore(client *redis.Client) RecordStore {
	return &redisStore{client: client}
}

func (s *redisStore) Put(ctx context.Context, key string, record Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	ttl := time.Until(record.ExpiresAt) + time.Minute
	return s.client.Set(ctx, redisKeyPrefix+key, raw, ttl).Err()
}

func (s *redisStore) Get(ctx context.Context, key string) (*Record, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoRecord
		}
		return nil, err
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKeyPrefix+key).Err()
}
