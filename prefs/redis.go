package prefs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTimeout bounds every single Redis operation.
const RedisTimeout = 2 * time.Second

// RedisStore keeps scalar preferences in a hash at Key and every string
// list in a list at "<Key>:<name>". Errors are logged, reads fall back to
// the default value.
type RedisStore struct {
	client *redis.Client
	key    string
	log    *slog.Logger
}

// NewRedisStore creates a store using the given client.
func NewRedisStore(client *redis.Client, key string, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}
	return &RedisStore{client: client, key: key, log: log}
}

// Ping checks the connection to the server.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) GetBool(key string, def bool) bool {
	ctx, cancel := context.WithTimeout(context.Background(), RedisTimeout)
	defer cancel()

	v, err := s.client.HGet(ctx, s.key, key).Bool()
	if err != nil {
		s.readFailed(key, err)
		return def
	}
	return v
}

func (s *RedisStore) SetBool(key string, value bool) {
	ctx, cancel := context.WithTimeout(context.Background(), RedisTimeout)
	defer cancel()

	if err := s.client.HSet(ctx, s.key, key, value).Err(); err != nil {
		s.log.Error("unable to save preference", "key", key, "error", err)
	}
}

func (s *RedisStore) GetInt(key string, def int) int {
	ctx, cancel := context.WithTimeout(context.Background(), RedisTimeout)
	defer cancel()

	v, err := s.client.HGet(ctx, s.key, key).Int()
	if err != nil {
		s.readFailed(key, err)
		return def
	}
	return v
}

func (s *RedisStore) SetInt(key string, value int) {
	ctx, cancel := context.WithTimeout(context.Background(), RedisTimeout)
	defer cancel()

	if err := s.client.HSet(ctx, s.key, key, value).Err(); err != nil {
		s.log.Error("unable to save preference", "key", key, "error", err)
	}
}

func (s *RedisStore) GetStringList(key string) []string {
	ctx, cancel := context.WithTimeout(context.Background(), RedisTimeout)
	defer cancel()

	list, err := s.client.LRange(ctx, s.listKey(key), 0, -1).Result()
	if err != nil {
		s.readFailed(key, err)
		return nil
	}
	if len(list) == 0 {
		return nil
	}
	return list
}

// SetStringList replaces the list in a single transaction.
func (s *RedisStore) SetStringList(key string, value []string) {
	ctx, cancel := context.WithTimeout(context.Background(), RedisTimeout)
	defer cancel()

	lk := s.listKey(key)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, lk)
		if len(value) > 0 {
			args := make([]any, len(value))
			for i, v := range value {
				args[i] = v
			}
			pipe.RPush(ctx, lk, args...)
		}
		return nil
	})
	if err != nil {
		s.log.Error("unable to save preference", "key", key, "error", err)
	}
}

func (s *RedisStore) listKey(name string) string {
	return s.key + ":" + name
}

func (s *RedisStore) readFailed(key string, err error) {
	if errors.Is(err, redis.Nil) {
		return
	}
	s.log.Warn("unable to read preference", "key", key, "error", err)
}
