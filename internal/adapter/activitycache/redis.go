package activitycache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "gtf:kp:"

// Redis is a Store backed by Redis, shared by every replica of the service.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedis connects to Redis and verifies the connection with a PING.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisFromClient(client, opts.TTL), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: defaultPrefix, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, slot time.Time) (float64, bool, error) {
	s, err := r.client.Get(ctx, r.key(slot)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get: %w", err)
	}
	kp, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("redis get: malformed kp %q: %w", s, err)
	}
	return kp, true, nil
}

func (r *Redis) Set(ctx context.Context, slot time.Time, kp float64) error {
	v := strconv.FormatFloat(kp, 'f', -1, 64)
	if err := r.client.Set(ctx, r.key(slot), v, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) key(slot time.Time) string {
	return r.prefix + slot.UTC().Format(time.RFC3339)
}
