package redis

import (
	"context"
	"testing"
	"time"

	"myGroupBuy/business/recommendation"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*FeatureCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewFeatureCache(client, ttl), mr
}

func TestFeatureCache_RoundTrip(t *testing.T) {
	cache, mr := newTestCache(t, time.Hour)
	ctx := context.Background()
	at := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	err := cache.SetFeatures(ctx, []recommendation.UserFeatureVector{
		{UserID: 1, CategoryAffinity: map[string]float64{"grocery": 1}, Frequency: 3, HasHistory: true, ExtractedAt: at},
		{UserID: 2, CategoryAffinity: map[string]float64{}, ExtractedAt: at},
	})
	require.NoError(t, err)

	got, ok, err := cache.GetFeatures(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1.0, got.CategoryAffinity["grocery"])
	assert.Equal(t, 3, got.Frequency)
	assert.True(t, got.ExtractedAt.Equal(at))

	assert.True(t, mr.Exists("reco:features:user:2"))
	assert.Equal(t, time.Hour, mr.TTL("reco:features:user:2"))
}

func TestFeatureCache_MissAndExpiry(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.GetFeatures(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SetFeatures(ctx, []recommendation.UserFeatureVector{{UserID: 42}}))
	mr.FastForward(2 * time.Minute)

	_, ok, err = cache.GetFeatures(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFeatureCache_CorruptEntry(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set("reco:features:user:5", "{not json"))

	_, _, err := cache.GetFeatures(context.Background(), 5)
	assert.Error(t, err)
}

func TestFeatureCache_Unavailable(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	mr.Close()

	err := cache.SetFeatures(context.Background(), []recommendation.UserFeatureVector{{UserID: 1}})
	assert.Error(t, err)
}
