// Package bootstrap builds the storage and service graph shared by the API
// server and the trainer.
package bootstrap

import (
	"fmt"

	"myGroupBuy/business/groupbuy"
	"myGroupBuy/business/recommendation"
	"myGroupBuy/business/user"
	"myGroupBuy/internal/repository/blob"
	psqlRepo "myGroupBuy/internal/repository/postgres"
	redisRepo "myGroupBuy/internal/repository/redis"
	"myGroupBuy/pkg/config"
	"myGroupBuy/pkg/database"
	redisdb "myGroupBuy/pkg/database/redis"
	"myGroupBuy/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Deps struct {
	DB    *gorm.DB
	Redis *redis.Client

	Users      *psqlRepo.UserRepository
	GroupBuys  *psqlRepo.GroupBuyRepository
	RecoEvents *psqlRepo.RecommendationEventRepository

	Recommendation  *recommendation.Service
	GroupBuyService *groupbuy.Service
	UserService     *user.Service
}

// EngineConfig applies the env overrides on top of the engine defaults.
func EngineConfig(rc config.RecommendationConfig) recommendation.Config {
	cfg := recommendation.DefaultConfig()
	if rc.ModelType != "" {
		cfg.ModelType = rc.ModelType
	}
	if rc.WCollaborative != 0 || rc.WContent != 0 || rc.WUrgency != 0 || rc.WZone != 0 {
		// weights only make sense as a set
		cfg.WCollaborative = rc.WCollaborative
		cfg.WContent = rc.WContent
		cfg.WUrgency = rc.WUrgency
		cfg.WZone = rc.WZone
	}
	if rc.DefaultK > 0 {
		cfg.DefaultK = rc.DefaultK
	}
	if rc.ConfidenceFloor > 0 {
		cfg.ConfidenceFloor = rc.ConfidenceFloor
	}
	if rc.PopularityWindow > 0 {
		cfg.PopularityWindow = rc.PopularityWindow
	}
	if rc.EligibilityExpr != "" {
		cfg.EligibilityExpr = rc.EligibilityExpr
	}
	if rc.Seed != 0 {
		cfg.Seed = rc.Seed
	}
	return cfg
}

func Build(cfg *config.Config) (*Deps, error) {
	engineCfg := EngineConfig(cfg.Recommendation)
	if err := engineCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recommendation config: %w", err)
	}

	db, err := database.InitPostgres(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	blobs, err := blob.Open(cfg.Blob)
	if err != nil {
		return nil, err
	}

	d := &Deps{
		DB:         db,
		Users:      psqlRepo.NewUserRepository(db),
		GroupBuys:  psqlRepo.NewGroupBuyRepository(db),
		RecoEvents: psqlRepo.NewRecommendationEventRepository(db),
	}

	repos := recommendation.Repositories{
		Users:         d.Users,
		GroupBuys:     d.GroupBuys,
		Contributions: psqlRepo.NewContributionRepository(db),
		Behavior:      psqlRepo.NewBehaviorEventRepository(db),
		Clusters:      psqlRepo.NewClusterAssignmentRepository(db),
		Events:        d.RecoEvents,
		Config:        psqlRepo.NewRecommendationConfigRepository(db),
	}

	if cfg.Redis.Enabled {
		client, err := redisdb.NewRedisClient(cfg)
		if err != nil {
			// the cache is only for inspection, serving works without it
			logger.Warn("redis unavailable, feature cache disabled", "error", err)
		} else {
			d.Redis = client
			repos.FeatureCache = redisRepo.NewFeatureCache(client, cfg.Redis.FeatureTTL)
		}
	}

	registry := recommendation.NewRegistry(psqlRepo.NewModelArtifactRepository(db), blobs)
	d.Recommendation = recommendation.NewService(repos, registry, nil, engineCfg)
	d.GroupBuyService = groupbuy.NewService(d.GroupBuys)
	d.UserService = user.NewService(d.Users, validator.New())

	return d, nil
}

func (d *Deps) Close() {
	if err := redisdb.CloseRedisClient(d.Redis); err != nil {
		logger.Warn("failed to close redis", "error", err)
	}
	if sqlDB, err := d.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
