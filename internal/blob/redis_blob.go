package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inboxlab/message-dispatch/internal/model"
)

type RedisContentStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisContentStore stores message bodies keyed by message id. A zero ttl
// keeps content indefinitely.
func NewRedisContentStore(rdb *redis.Client, ttl time.Duration) *RedisContentStore {
	return &RedisContentStore{rdb: rdb, ttl: ttl}
}

func contentKey(messageID string) string {
	return fmt.Sprintf("content:%s", messageID)
}

func (s *RedisContentStore) StoreContent(ctx context.Context, messageID string, content model.MessageContent) error {
	b, err := json.Marshal(content)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, contentKey(messageID), b, s.ttl).Err()
}

func (s *RedisContentStore) GetContent(ctx context.Context, messageID string) (*model.MessageContent, error) {
	raw, err := s.rdb.Get(ctx, contentKey(messageID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}

	var content model.MessageContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("failed to decode content for message %s: %w", messageID, err)
	}
	return &content, nil
}
