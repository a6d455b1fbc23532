package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hightemp/mapcode/internal/geo"
	"github.com/hightemp/mapcode/internal/mapcode"
)

// DefaultRedisPrefix is prepended to every Redis key.
const DefaultRedisPrefix = "mapcode:"

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTLDays  int
}

// RedisStore is a Store shared through Redis.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// OpenRedis connects to Redis and checks the connection.
func OpenRedis(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	rdb := redis.NewClient(&redis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return NewRedisStore(rdb, opts.Prefix, opts.TTLDays), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *redis.Client, prefix string, ttlDays int) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttlFromDays(ttlDays),
	}
}

func (s *RedisStore) codesKey(key string) string {
	return s.prefix + "codes:" + key
}

func (s *RedisStore) coordsKey(code string) string {
	return s.prefix + "coords:" + CodeKey(code)
}

// GetCodes returns the cached result for a coordinate key.
func (s *RedisStore) GetCodes(ctx context.Context, key string) (*mapcode.Result, error) {
	var r mapcode.Result
	if err := s.get(ctx, s.codesKey(key), &r); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, ErrMiss
	}
	return &r, nil
}

// PutCodes stores the result for a coordinate key.
func (s *RedisStore) PutCodes(ctx context.Context, key string, r *mapcode.Result) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("cache codes %s: %w", key, err)
	}
	return s.set(ctx, s.codesKey(key), r)
}

// GetCoords returns the cached location of a mapcode.
func (s *RedisStore) GetCoords(ctx context.Context, code string) (geo.Coordinate, error) {
	var c geo.Coordinate
	if err := s.get(ctx, s.coordsKey(code), &c); err != nil {
		return geo.Coordinate{}, err
	}
	return c, nil
}

// PutCoords stores the location of a mapcode.
func (s *RedisStore) PutCoords(ctx context.Context, code string, c geo.Coordinate) error {
	return s.set(ctx, s.coordsKey(code), c)
}

// Save is a no-op; Redis persists writes itself.
func (s *RedisStore) Save() error {
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) get(ctx context.Context, key string, out interface{}) error {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return ErrMiss
	}
	return nil
}

func (s *RedisStore) set(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
