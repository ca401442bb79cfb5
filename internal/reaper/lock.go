package reaper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lock keeps concurrent replicas from sweeping at the same time.
type Lock interface {
	// TryAcquire takes the lease. It returns false without error when
	// another holder has it.
	TryAcquire(ctx context.Context) (bool, error)
	// Release gives the lease up if this holder still owns it.
	Release(ctx context.Context) error
}

// LocalLock is a Lock for single-replica deployments. It always succeeds.
type LocalLock struct{}

func (LocalLock) TryAcquire(context.Context) (bool, error) { return true, nil }
func (LocalLock) Release(context.Context) error             { return nil }

const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

// NewRedisClient parses redisURL and returns a client that answered a ping.
func NewRedisClient(ctx context.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Redis client connected", "addr", options.Addr)
	return client, nil
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLock is a lease stored under a single Redis key. The lease expires
// after ttl so a crashed holder cannot block the sweeps forever.
type RedisLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// NewRedisLock creates a lease on key with the given ttl.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		client: client,
		key:    key,
		token:  uuid.New().String(),
		ttl:    ttl,
	}
}

// TryAcquire sets the key if it is absent.
func (l *RedisLock) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: acquire %s: %w", l.key, err)
	}
	return ok, nil
}

// Release deletes the key if this lock still owns it.
func (l *RedisLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("redis: release %s: %w", l.key, err)
	}
	return nil
}

// Redis keys shared by all replicas.
const (
	LockKey         = "groupshare:reaper:lock"
	ReminderKeyBase = "groupshare:reaper:reminders:"
)

// reminderKeyTTL outlives the day it marks.
const reminderKeyTTL = 48 * time.Hour

// RedisLedger records reminder days in Redis so that restarts and other
// replicas see them.
type RedisLedger struct {
	client *redis.Client
	prefix string
}

// NewRedisLedger creates a ledger storing one key per day under prefix.
func NewRedisLedger(client *redis.Client, prefix string) *RedisLedger {
	return &RedisLedger{client: client, prefix: prefix}
}

func (l *RedisLedger) key(day time.Time) string {
	return l.prefix + day.UTC().Format(time.DateOnly)
}

// Sent reports whether reminders for day were recorded.
func (l *RedisLedger) Sent(ctx context.Context, day time.Time) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(day)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: reminder day %s: %w", l.key(day), err)
	}
	return n > 0, nil
}

// MarkSent records day.
func (l *RedisLedger) MarkSent(ctx context.Context, day time.Time) error {
	if err := l.client.Set(ctx, l.key(day), 1, reminderKeyTTL).Err(); err != nil {
		return fmt.Errorf("redis: mark reminder day %s: %w", l.key(day), err)
	}
	return nil
}

// Open returns a RedisLock and RedisLedger when redisURL is set, and a
// LocalLock with a MemoryLedger otherwise. The close func releases the
// Redis client.
func Open(ctx context.Context, redisURL string, ttl time.Duration, logger *slog.Logger) (Lock, ReminderLedger, func() error, error) {
	if redisURL == "" {
		return LocalLock{}, &MemoryLedger{}, func() error { return nil }, nil
	}
	client, err := NewRedisClient(ctx, redisURL, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return NewRedisLock(client, LockKey, ttl), NewRedisLedger(client, ReminderKeyBase), client.Close, nil
}
