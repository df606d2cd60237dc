package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedis constructs a redis-backed storage.
func NewRedis(cfg Config) (Storage, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = "storage:"
	}
	return &redisStorage{client: client, prefix: prefix}, nil
}

func (s *redisStorage) key(namespace, key string) string {
	return s.prefix + namespace + ":" + key
}

func (s *redisStorage) GetItem(ctx context.Context, namespace, key string) (string, bool, error) {
	if err := validate(namespace, key); err != nil {
		return "", false, err
	}
	val, err := s.client.Get(ctx, s.key(namespace, key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *redisStorage) SetItem(ctx context.Context, namespace, key, value string) error {
	if err := validate(namespace, key); err != nil {
		return err
	}
	// items live until removed, like localStorage
	return s.client.Set(ctx, s.key(namespace, key), value, 0).Err()
}

func (s *redisStorage) RemoveItem(ctx context.Context, namespace, key string) error {
	if err := validate(namespace, key); err != nil {
		return err
	}
	return s.client.Del(ctx, s.key(namespace, key)).Err()
}

func (s *redisStorage) Close(context.Context) error {
	return s.client.Close()
}
