package migstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const setUnlessEqualScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return 0
	end
	redis.call("set", KEYS[1], ARGV[1])
	redis.call("set", KEYS[2], ARGV[2])
	return 1
`

const deleteIfEqualScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		redis.call("del", KEYS[2])
		return redis.call("del", KEYS[1])
	end
	return 0
`

// RedisStore keeps flags in redis so sessions on different hosts share
// them. Conditional writes run as Lua scripts.
type RedisStore struct {
	client *redis.Client
	prefix string
	owner  string
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "schema-mapper:"
	}
	return &RedisStore{client: client, prefix: prefix, owner: instanceID()}, nil
}

func (s *RedisStore) keys(key string) []string {
	return []string{s.prefix + key, s.prefix + key + ":owner"}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisStore) SetUnlessEqual(ctx context.Context, key, value string) (bool, error) {
	n, err := s.client.Eval(ctx, setUnlessEqualScript, s.keys(key), value, s.owner).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *RedisStore) DeleteIfEqual(ctx context.Context, key, value string) (bool, error) {
	n, err := s.client.Eval(ctx, deleteIfEqualScript, s.keys(key), value).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.keys(key)...).Err()
}

// Owner returns the host:pid that last started a migration, if recorded.
func (s *RedisStore) Owner(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.keys(key)[1]).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
