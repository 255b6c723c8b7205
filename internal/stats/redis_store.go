package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	statsKeyPrefix = "workbot:stats:"
	statsIndexKey  = "workbot:stats:ids"
)

// RedisStore persists conversation snapshots as JSON values with a set index
// of known conversation ids.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a Redis-backed stats store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		return nil
	}
	return &RedisStore{redis: redisClient}
}

func statsKey(conversationID string) string {
	return statsKeyPrefix + conversationID
}

// Save writes a snapshot and registers its conversation id.
func (s *RedisStore) Save(ctx context.Context, snap ConversationStats) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if snap.ConversationID == "" {
		return errors.New("stats: conversation id required")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("stats: marshal snapshot: %w", err)
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, statsKey(snap.ConversationID), data, 0)
	pipe.SAdd(ctx, statsIndexKey, snap.ConversationID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("stats: save snapshot: %w", err)
	}
	return nil
}

// Delete removes a snapshot and its index entry.
func (s *RedisStore) Delete(ctx context.Context, conversationID string) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if conversationID == "" {
		return errors.New("stats: conversation id required")
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, statsKey(conversationID))
	pipe.SRem(ctx, statsIndexKey, conversationID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("stats: delete snapshot: %w", err)
	}
	return nil
}

// LoadAll reads every persisted snapshot. Index entries whose value has gone
// missing are skipped.
func (s *RedisStore) LoadAll(ctx context.Context) ([]ConversationStats, error) {
	if s == nil || s.redis == nil {
		return nil, nil
	}

	ids, err := s.redis.SMembers(ctx, statsIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("stats: list conversation ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	snapshots := make([]ConversationStats, 0, len(ids))
	for _, id := range ids {
		data, err := s.redis.Get(ctx, statsKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stats: load snapshot %s: %w", id, err)
		}

		var snap ConversationStats
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("stats: decode snapshot %s: %w", id, err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}
