package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore keeps transient state in Redis so intake survives a process
// restart. TTL expiry is delegated to Redis.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed store.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func stateKey(chatID int64) string {
	return fmt.Sprintf("support:intake:%d", chatID)
}

func (s *redisStore) Get(ctx context.Context, chatID int64) (*State, error) {
	raw, err := s.client.Get(ctx, stateKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *redisStore) Put(ctx context.Context, chatID int64, state *State) error {
	copied := *state
	copied.UpdatedAt = time.Now()
	raw, err := json.Marshal(&copied)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, stateKey(chatID), raw, s.ttl).Err()
}

func (s *redisStore) Clear(ctx context.Context, chatID int64) error {
	return s.client.Del(ctx, stateKey(chatID)).Err()
}
