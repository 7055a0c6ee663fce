package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"myGroupBuy/business/recommendation"

	"github.com/redis/go-redis/v9"
)

const featureKeyPrefix = "reco:features:user:"

type FeatureCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ recommendation.FeatureCache = (*FeatureCache)(nil)

func NewFeatureCache(client *redis.Client, ttl time.Duration) *FeatureCache {
	return &FeatureCache{
		client: client,
		ttl:    ttl,
	}
}

func featureKey(userID uint) string {
	// key format: "reco:features:user:{user_id}"
	return fmt.Sprintf("%s%d", featureKeyPrefix, userID)
}

// SetFeatures writes every vector in one pipeline. Entries expire after ttl
// so users dropped from training do not linger.
func (r *FeatureCache) SetFeatures(ctx context.Context, vectors []recommendation.UserFeatureVector) error {
	if len(vectors) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for _, v := range vectors {
		jsonData, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal feature vector: %w", err)
		}
		pipe.Set(ctx, featureKey(v.UserID), jsonData, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store features in Redis: %w", err)
	}

	return nil
}

func (r *FeatureCache) GetFeatures(ctx context.Context, userID uint) (recommendation.UserFeatureVector, bool, error) {
	val, err := r.client.Get(ctx, featureKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return recommendation.UserFeatureVector{}, false, nil
		}
		return recommendation.UserFeatureVector{}, false, fmt.Errorf("failed to get features from Redis: %w", err)
	}

	var v recommendation.UserFeatureVector
	if err := json.Unmarshal([]byte(val), &v); err != nil {
		return recommendation.UserFeatureVector{}, false, fmt.Errorf("failed to unmarshal feature vector: %w", err)
	}

	return v, true, nil
}
