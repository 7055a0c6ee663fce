package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App            AppConfig
	Server         ServerConfig
	Database       DatabaseConfig
	JWT            JWTConfig
	Redis          RedisConfig
	Blob           BlobConfig
	Recommendation RecommendationConfig
	Events         EventsConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
	TTL       time.Duration
}

type RedisConfig struct {
	Enabled       bool
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisDB       int
	PoolSize      int
	MinIdleConns  int
	DialTimeout   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	FeatureTTL    time.Duration
}

// BlobConfig selects where serialized model artifacts are stored.
type BlobConfig struct {
	Driver          string // posix | s3
	Dir             string
	Endpoint        string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// RecommendationConfig carries env overrides for the engine tunables.
// Zero values mean "keep the engine default".
type RecommendationConfig struct {
	ModelType        string
	TrainInterval    time.Duration
	RefreshInterval  time.Duration
	DefaultK         int
	WCollaborative   float64
	WContent         float64
	WUrgency         float64
	WZone            float64
	ConfidenceFloor  float64
	PopularityWindow time.Duration
	EligibilityExpr  string
	Seed             int64
}

type EventsConfig struct {
	InteractionTopic string
	BufferSize       int64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "MyGroupBuy API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "group_buy"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
			TTL:       getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			Enabled:       getEnvBool("REDIS_ENABLED", false),
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisUsername: getEnv("REDIS_USERNAME", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			PoolSize:      getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:  getEnvInt("REDIS_MIN_IDLE_CONNS", 5),
			DialTimeout:   getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:   getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:  getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			FeatureTTL:    getEnvDuration("REDIS_FEATURE_TTL", 48*time.Hour),
		},
		Blob: BlobConfig{
			Driver:          getEnv("BLOB_DRIVER", "posix"),
			Dir:             getEnv("BLOB_DIR", "./data/artifacts"),
			Endpoint:        getEnv("BLOB_S3_ENDPOINT", ""),
			Bucket:          getEnv("BLOB_S3_BUCKET", ""),
			Prefix:          getEnv("BLOB_S3_PREFIX", "artifacts"),
			AccessKeyID:     getEnv("BLOB_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BLOB_S3_SECRET_ACCESS_KEY", ""),
			UseSSL:          getEnvBool("BLOB_S3_USE_SSL", true),
		},
		Recommendation: RecommendationConfig{
			ModelType:        getEnv("RECO_MODEL_TYPE", "hybrid"),
			TrainInterval:    getEnvDuration("RECO_TRAIN_INTERVAL", 6*time.Hour),
			RefreshInterval:  getEnvDuration("RECO_REFRESH_INTERVAL", time.Minute),
			DefaultK:         getEnvInt("RECO_DEFAULT_K", 0),
			WCollaborative:   getEnvFloat("RECO_W_COLLABORATIVE", 0),
			WContent:         getEnvFloat("RECO_W_CONTENT", 0),
			WUrgency:         getEnvFloat("RECO_W_URGENCY", 0),
			WZone:            getEnvFloat("RECO_W_ZONE", 0),
			ConfidenceFloor:  getEnvFloat("RECO_CONFIDENCE_FLOOR", 0),
			PopularityWindow: getEnvDuration("RECO_POPULARITY_WINDOW", 0),
			EligibilityExpr:  getEnv("RECO_ELIGIBILITY_EXPR", ""),
			Seed:             int64(getEnvInt("RECO_SEED", 0)),
		},
		Events: EventsConfig{
			InteractionTopic: getEnv("EVENTS_INTERACTION_TOPIC", "recommendation.interactions"),
			BufferSize:       int64(getEnvInt("EVENTS_BUFFER_SIZE", 256)),
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	switch strings.ToLower(cfg.Blob.Driver) {
	case "posix":
	case "s3":
		if cfg.Blob.Endpoint == "" || cfg.Blob.Bucket == "" {
			return nil, errors.New("missing s3 endpoint or bucket")
		}
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Blob.Driver)
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}
