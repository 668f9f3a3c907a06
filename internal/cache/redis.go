package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	defaultRedisPrefix = "music:perm"
	// Entries of superseded generations are never read again; the TTL reclaims them.
	defaultRedisTTL = time.Hour
)

// RedisStore shares resolutions between API instances. Invalidation on one instance is
// visible to all because the generation counter lives in Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisStoreWithClient(client, opts.Prefix, opts.TTL), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) genKey() string {
	return s.prefix + ":gen"
}

func (s *RedisStore) entryKey(gen uint64, key string) string {
	return s.prefix + ":" + strconv.FormatUint(gen, 10) + ":" + key
}

func (s *RedisStore) Generation(ctx context.Context) (uint64, error) {
	raw, err := s.client.Get(ctx, s.genKey()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(raw, 10, 64)
}

func (s *RedisStore) Get(ctx context.Context, gen uint64, key string) ([]string, bool, error) {
	raw, err := s.client.Get(ctx, s.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var perms []string
	if err := json.Unmarshal(raw, &perms); err != nil {
		return nil, false, fmt.Errorf("decode cached permissions: %w", err)
	}
	return perms, true, nil
}

func (s *RedisStore) Set(ctx context.Context, gen uint64, key string, perms []string) error {
	data, err := json.Marshal(perms)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.entryKey(gen, key), data, s.ttl).Err()
}

func (s *RedisStore) Bump(ctx context.Context) error {
	return s.client.Incr(ctx, s.genKey()).Err()
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
