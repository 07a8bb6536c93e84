package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// ConflictCacheRepository stores detection results in Redis, one key per
// term. A nil client degrades to a pass-through cache so the API keeps
// working without Redis.
type ConflictCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewConflictCacheRepository constructs a conflict cache.
func NewConflictCacheRepository(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ConflictCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictCacheRepository{client: client, ttl: ttl, logger: logger}
}

func conflictCacheKey(termID string) string {
	return "timetable:conflicts:" + termID
}

// Get retrieves the cached detection result for a term.
func (r *ConflictCacheRepository) Get(ctx context.Context, termID string) (*dto.DetectionResponse, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	key := conflictCacheKey(termID)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var detection dto.DetectionResponse
	if err := json.Unmarshal(raw, &detection); err != nil {
		return nil, fmt.Errorf("unmarshal cached conflicts for %s: %w", termID, err)
	}
	return &detection, nil
}

// Set stores the detection result for a term.
func (r *ConflictCacheRepository) Set(ctx context.Context, termID string, detection *dto.DetectionResponse) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(detection)
	if err != nil {
		return fmt.Errorf("marshal conflicts for %s: %w", termID, err)
	}
	key := conflictCacheKey(termID)
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Invalidate drops the cached detection result for a term.
func (r *ConflictCacheRepository) Invalidate(ctx context.Context, termID string) error {
	if r.client == nil {
		return nil
	}
	key := conflictCacheKey(termID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *ConflictCacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
