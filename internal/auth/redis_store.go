package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore хранит попытки и сессии в Redis с TTL на ключах
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// NewRedisClient подключается к Redis и проверяет соединение
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) attemptsKey(userID int64) string {
	return fmt.Sprintf("%s:auth:attempts:%d", s.prefix, userID)
}

func (s *RedisStore) sessionKey(userID int64) string {
	return fmt.Sprintf("%s:auth:session:%d", s.prefix, userID)
}

func (s *RedisStore) GetAttempts(ctx context.Context, userID int64) (Attempts, error) {
	data, err := s.client.Get(ctx, s.attemptsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Attempts{}, nil
	}
	if err != nil {
		return Attempts{}, fmt.Errorf("redis get attempts: %w", err)
	}

	var a Attempts
	if err := json.Unmarshal(data, &a); err != nil {
		return Attempts{}, fmt.Errorf("decode attempts: %w", err)
	}
	return a, nil
}

func (s *RedisStore) SetAttempts(ctx context.Context, userID int64, a Attempts, ttl time.Duration) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode attempts: %w", err)
	}
	if err := s.client.Set(ctx, s.attemptsKey(userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set attempts: %w", err)
	}
	return nil
}

func (s *RedisStore) ResetAttempts(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, s.attemptsKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis reset attempts: %w", err)
	}
	return nil
}

func (s *RedisStore) SetSession(ctx context.Context, userID int64, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.sessionKey(userID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *RedisStore) HasSession(ctx context.Context, userID int64) (bool, error) {
	n, err := s.client.Exists(ctx, s.sessionKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check session: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) DeleteSession(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, s.sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
