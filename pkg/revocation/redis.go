package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for RedisStore.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	KeyPrefix    string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultRedisConfig returns settings for a local Redis.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		KeyPrefix:    "schoolauth:",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// RedisStore shares the revocation list between service instances. Each
// entry is its own key carrying EXPIREAT exp, so Redis drops expired
// entries on its own; the lazy delete and Sweep still run so the contract
// holds even when clocks disagree.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
	grace  time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore dials Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig, opts ...Option) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("revocation: ping redis at %s: %w", cfg.Addr, err)
	}

	return NewRedisStoreFromClient(client, cfg.KeyPrefix, opts...), nil
}

// NewRedisStoreFromClient wraps an existing client. The store takes
// ownership and closes it on Close.
func NewRedisStoreFromClient(client redis.UniversalClient, prefix string, opts ...Option) *RedisStore {
	o := buildOptions(opts)
	return &RedisStore{client: client, prefix: prefix, now: o.now, grace: o.grace}
}

func (s *RedisStore) entryKey(fp string) string { return s.prefix + "revoked:" + fp }
func (s *RedisStore) entryPattern() string      { return s.prefix + "revoked:*" }
func (s *RedisStore) sweepKey() string          { return s.prefix + "meta:last_sweep" }

func (s *RedisStore) Revoke(ctx context.Context, token string) (bool, error) {
	exp, ok := expiry(token)
	if !ok {
		return false, nil
	}
	exp = exp.Add(s.grace)
	if !s.now().Before(exp) {
		return true, nil
	}

	key := s.entryKey(fingerprint(token))
	if err := s.client.SetArgs(ctx, key, exp.UnixMilli(), redis.SetArgs{ExpireAt: exp}).Err(); err != nil {
		return false, fmt.Errorf("revocation: set %s: %w", key, err)
	}
	return true, nil
}

func (s *RedisStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	key := s.entryKey(fingerprint(token))

	expMillis, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("revocation: get %s: %w", key, err)
	}

	if s.now().Before(time.UnixMilli(expMillis)) {
		return true, nil
	}

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return false, fmt.Errorf("revocation: lazy delete %s: %w", key, err)
	}
	return false, nil
}

func (s *RedisStore) Sweep(ctx context.Context) (int, error) {
	now := s.now()

	var expired []string
	iter := s.client.Scan(ctx, 0, s.entryPattern(), 500).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		expMillis, err := s.client.Get(ctx, key).Int64()
		if errors.Is(err, redis.Nil) {
			continue // expired natively between SCAN and GET
		}
		if err != nil {
			return 0, fmt.Errorf("revocation: sweep get %s: %w", key, err)
		}
		if !now.Before(time.UnixMilli(expMillis)) {
			expired = append(expired, key)
		}
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("revocation: sweep scan: %w", err)
	}

	removed, err := s.del(ctx, expired)
	if err != nil {
		return removed, err
	}

	if err := s.client.Set(ctx, s.sweepKey(), now.UnixMilli(), 0).Err(); err != nil {
		return removed, fmt.Errorf("revocation: record sweep: %w", err)
	}
	return removed, nil
}

func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	keys, err := s.scanAll(ctx)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{Count: len(keys)}

	raw, err := s.client.Get(ctx, s.sweepKey()).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return Stats{}, fmt.Errorf("revocation: get last sweep: %w", err)
	default:
		if ms, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			st.LastSweep = time.UnixMilli(ms).UTC()
		}
	}
	return st, nil
}

func (s *RedisStore) Clear(ctx context.Context) (int, error) {
	keys, err := s.scanAll(ctx)
	if err != nil {
		return 0, err
	}
	return s.del(ctx, keys)
}

func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) scanAll(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.entryPattern(), 500).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("revocation: scan: %w", err)
	}
	return keys, nil
}

// del removes keys in batches and returns how many actually existed.
func (s *RedisStore) del(ctx context.Context, keys []string) (int, error) {
	const batch = 500

	removed := 0
	for start := 0; start < len(keys); start += batch {
		end := min(start+batch, len(keys))
		n, err := s.client.Del(ctx, keys[start:end]...).Result()
		removed += int(n)
		if err != nil {
			return removed, fmt.Errorf("revocation: del: %w", err)
		}
	}
	return removed, nil
}
