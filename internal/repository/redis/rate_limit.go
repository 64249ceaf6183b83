package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mercato/storefront-identity/internal/core/port"
)

var errWindowNotPositive = errors.New("window must be positive")

// AttemptStoreConfig tunes the sorted-set attempt store.
type AttemptStoreConfig struct {
	// KeyPrefix namespaces attempt keys, e.g. "identity:rate-limit".
	KeyPrefix string
	// TTL bounds how long an idle key survives. Should exceed the
	// largest window the limiter queries.
	TTL time.Duration
}

// AttemptStore keeps per-identifier attempt timestamps in a Redis sorted
// set scored by nanosecond timestamp, giving a sliding window without
// bucketing artifacts.
type AttemptStore struct {
	client *redis.Client
	cfg    AttemptStoreConfig
}

// NewAttemptStore wraps client as a sliding-window attempt store.
func NewAttemptStore(client *redis.Client, cfg AttemptStoreConfig) *AttemptStore {
	return &AttemptStore{client: client, cfg: cfg}
}

// RecordAttempt appends one attempt at the given instant and refreshes the
// key TTL.
func (s *AttemptStore) RecordAttempt(ctx context.Context, identifier string, at time.Time) error {
	key := s.key(identifier)
	nanos := at.UnixNano()

	err := s.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(nanos),
		Member: strconv.FormatInt(nanos, 10),
	}).Err()
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}

	if s.cfg.TTL > 0 {
		if err := s.client.Expire(ctx, key, s.cfg.TTL).Err(); err != nil {
			return fmt.Errorf("refresh attempt key ttl: %w", err)
		}
	}

	return nil
}

// CountAttempts reports how many attempts fall inside the window ending at
// reference.
func (s *AttemptStore) CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	if window <= 0 {
		return 0, errWindowNotPositive
	}

	lo, hi := scoreRange(window, reference)
	count, err := s.client.ZCount(ctx, s.key(identifier), lo, hi).Result()
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}

	return int(count), nil
}

// TrimWindow drops attempts that fell out of the window ending at reference.
func (s *AttemptStore) TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error {
	if window <= 0 {
		return errWindowNotPositive
	}

	lo, _ := scoreRange(window, reference)
	if err := s.client.ZRemRangeByScore(ctx, s.key(identifier), "-inf", lo).Err(); err != nil {
		return fmt.Errorf("trim attempt window: %w", err)
	}

	return nil
}

// OldestAttempt returns the earliest attempt still inside the window, if any.
func (s *AttemptStore) OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	if window <= 0 {
		return time.Time{}, false, errWindowNotPositive
	}

	lo, hi := scoreRange(window, reference)
	members, err := s.client.ZRangeByScore(ctx, s.key(identifier), &redis.ZRangeBy{
		Min:   lo,
		Max:   hi,
		Count: 1,
	}).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read oldest attempt: %w", err)
	}
	if len(members) == 0 {
		return time.Time{}, false, nil
	}

	nanos, err := strconv.ParseInt(members[0], 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("decode attempt member %q: %w", members[0], err)
	}

	return time.Unix(0, nanos), true, nil
}

func (s *AttemptStore) key(identifier string) string {
	if s.cfg.KeyPrefix == "" {
		return identifier
	}
	return s.cfg.KeyPrefix + ":" + identifier
}

func scoreRange(window time.Duration, reference time.Time) (string, string) {
	lo := strconv.FormatInt(reference.Add(-window).UnixNano(), 10)
	hi := strconv.FormatInt(reference.UnixNano(), 10)
	return lo, hi
}

var _ port.RateLimitStore = (*AttemptStore)(nil)
