package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore keeps recorded step results for ttl (zero keeps them
// indefinitely). The ttl must comfortably outlive the longest possible run;
// an evicted record would re-execute the step, which at-least-once semantics
// tolerate but should not invite.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func stepKey(runID, stepID string) string {
	return fmt.Sprintf("saga:%s:%s", runID, stepID)
}

func (s *RedisStore) Lookup(ctx context.Context, runID, stepID string) ([]byte, bool, error) {
	raw, err := s.rdb.Get(ctx, stepKey(runID, stepID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *RedisStore) Record(ctx context.Context, runID, stepID string, result []byte) error {
	return s.rdb.Set(ctx, stepKey(runID, stepID), result, s.ttl).Err()
}
