package lock

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOptions tunes the Redis lock
type RedisOptions struct {
	Prefix        string
	TTL           time.Duration
	RetryInterval time.Duration
	MaxWait       time.Duration
}

// Redis is a lock table stored in Redis with SET NX PX. The TTL bounds how
// long a crashed holder can block the key.
type Redis struct {
	client *redis.Client
	opts   RedisOptions
}

// NewRedis creates a Redis-backed lock table
func NewRedis(client *redis.Client, opts RedisOptions) *Redis {
	if opts.Prefix == "" {
		opts.Prefix = "copydesk:lock:"
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 50 * time.Millisecond
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 10 * time.Second
	}
	return &Redis{client: client, opts: opts}
}

// Acquire polls SET NX until the key is taken, ctx is done or MaxWait elapses
func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	redisKey := r.opts.Prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(r.opts.MaxWait)

	ticker := time.NewTicker(r.opts.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.opts.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis SETNX %s: %w", redisKey, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		// release must run even when the request context is already cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err(); err != nil {
			log.Printf("[WARN] Failed to release lock %s: %v", redisKey, err)
		}
	}, nil
}
