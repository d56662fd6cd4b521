package quizbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key the bank is stored under
const DefaultRedisKey = "quizbank:bank"

// RedisStore keeps the whole bank as one JSON value, so every SET is an atomic replace
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// OpenRedisStore connects to addr and checks the connection
func OpenRedisStore(ctx context.Context, addr, key string) (*RedisStore, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewRedisStore(client, key), nil
}

// Load reads the bank; a missing key is an empty bank
func (s *RedisStore) Load(ctx context.Context) (Bank, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Bank{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bank: %w", err)
	}

	var bank Bank
	if err := json.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to parse bank: %w", err)
	}
	return bank, nil
}

// Save replaces the stored bank
func (s *RedisStore) Save(ctx context.Context, bank Bank) error {
	if bank == nil {
		bank = Bank{}
	}
	data, err := json.Marshal(bank)
	if err != nil {
		return fmt.Errorf("failed to marshal bank: %w", err)
	}
	return s.client.Set(ctx, s.key, data, 0).Err()
}

// Clear deletes the key
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

// Close closes the client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
