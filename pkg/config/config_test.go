package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_PASSWORD", "pw")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "posix", cfg.Blob.Driver)
	assert.Equal(t, "hybrid", cfg.Recommendation.ModelType)
	assert.Equal(t, 6*time.Hour, cfg.Recommendation.TrainInterval)
	assert.Zero(t, cfg.Recommendation.WCollaborative)
	assert.False(t, cfg.Redis.Enabled)
	assert.Empty(t, cfg.Redis.RedisUsername)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, 5, cfg.Redis.MinIdleConns)
	assert.Equal(t, 5*time.Second, cfg.Redis.DialTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("RECO_W_URGENCY", "0.4")
	t.Setenv("RECO_TRAIN_INTERVAL", "30m")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("RECO_DEFAULT_K", "25")
	t.Setenv("REDIS_USERNAME", "reco")
	t.Setenv("REDIS_POOL_SIZE", "40")
	t.Setenv("REDIS_MIN_IDLE_CONNS", "8")
	t.Setenv("REDIS_READ_TIMEOUT", "750ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 0.4, cfg.Recommendation.WUrgency, 1e-12)
	assert.Equal(t, 30*time.Minute, cfg.Recommendation.TrainInterval)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 25, cfg.Recommendation.DefaultK)
	assert.Equal(t, "reco", cfg.Redis.RedisUsername)
	assert.Equal(t, 40, cfg.Redis.PoolSize)
	assert.Equal(t, 8, cfg.Redis.MinIdleConns)
	assert.Equal(t, 750*time.Millisecond, cfg.Redis.ReadTimeout)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("missing jwt secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("DB_PASSWORD", "pw")
		_, err := Load()
		assert.EqualError(t, err, "missing jwt secret")
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("DB_PASSWORD", "pw")
		t.Setenv("BLOB_DRIVER", "s3")
		t.Setenv("BLOB_S3_ENDPOINT", "localhost:9000")
		t.Setenv("BLOB_S3_BUCKET", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("DB_PASSWORD", "pw")
		t.Setenv("BLOB_DRIVER", "ftp")
		_, err := Load()
		assert.Error(t, err)
	})
}
