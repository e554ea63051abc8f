package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/claimrelay/internal/domain"
	"github.com/davidbz/claimrelay/internal/observability"
)

const (
	submissionKeyPrefix = "submission:"
	recentIndexKey      = "submissions:recent"
)

// RedisStore keeps each submission as a JSON string and a sorted-set index of
// IDs scored by creation time. With a TTL, expired IDs are pruned lazily from
// the index when listed.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a redis-backed store. ttl <= 0 keeps submissions forever.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Save stores a submission.
func (s *RedisStore) Save(ctx context.Context, sub *domain.Submission) error {
	if sub == nil || sub.ID == "" {
		return errors.New("submission requires an id")
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, submissionKeyPrefix+sub.ID, data, s.ttl)
	pipe.ZAdd(ctx, recentIndexKey, redis.Z{
		Score:  float64(sub.CreatedAt.UnixMilli()),
		Member: sub.ID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		observability.FromContext(ctx).Error("failed to save submission", observability.Error(err))
		return fmt.Errorf("failed to save submission: %w", err)
	}
	return nil
}

// Get returns the submission with id or domain.ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Submission, error) {
	data, err := s.client.Get(ctx, submissionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	var sub domain.Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("failed to decode submission: %w", err)
	}
	return &sub, nil
}

// ListRecent returns up to limit submissions, newest first. Index entries
// whose submission has expired are skipped and pruned, so older live
// submissions still fill the page.
func (s *RedisStore) ListRecent(ctx context.Context, limit int) ([]*domain.Submission, error) {
	logger := observability.FromContext(ctx)
	subs := make([]*domain.Submission, 0, limit)
	var expired []any

	for offset := int64(0); len(subs) < limit; {
		ids, err := s.client.ZRevRange(ctx, recentIndexKey, offset, offset+int64(limit)-1).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list submissions: %w", err)
		}
		if len(ids) == 0 {
			break
		}
		offset += int64(len(ids))

		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = submissionKeyPrefix + id
		}

		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to load submissions: %w", err)
		}

		for i, value := range values {
			raw, ok := value.(string)
			if !ok {
				expired = append(expired, ids[i])
				continue
			}
			var sub domain.Submission
			if err := json.Unmarshal([]byte(raw), &sub); err != nil {
				logger.Warn("skipping undecodable submission",
					observability.String("id", ids[i]),
					observability.Error(err))
				continue
			}
			subs = append(subs, &sub)
			if len(subs) == limit {
				break
			}
		}
	}

	if len(expired) > 0 {
		if err := s.client.ZRem(ctx, recentIndexKey, expired...).Err(); err != nil {
			logger.Warn("failed to prune expired submissions", observability.Error(err))
		}
	}

	if len(subs) == 0 {
		return nil, nil
	}
	return subs, nil
}
