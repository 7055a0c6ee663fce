package recommendation

import (
	"context"
	"time"

	"myGroupBuy/domain"
	"myGroupBuy/pkg/logger"
)

// loadConfig reads the override row for the model type and lays it over the
// defaults. Zero fields keep the default; a row that fails validation is
// ignored as a whole.
func (s *Service) loadConfig(ctx context.Context) Config {
	if s.cfgRepo == nil {
		return s.defaultCfg
	}

	dbCfg, ok, err := s.cfgRepo.GetConfig(ctx, s.defaultCfg.ModelType)
	if err != nil {
		logger.Warn("recommendation config lookup failed, using defaults", "error", err)
		return s.defaultCfg
	}
	if !ok {
		return s.defaultCfg
	}

	cfg := overlayConfig(s.defaultCfg, dbCfg)
	if err := cfg.Validate(); err != nil {
		logger.Warn("invalid recommendation config override, using defaults",
			"name", dbCfg.Name,
			"error", err,
		)
		return s.defaultCfg
	}

	return cfg
}

func overlayConfig(cfg Config, dbCfg domain.RecommendationConfig) Config {
	if dbCfg.WCollaborative > 0 || dbCfg.WContent > 0 || dbCfg.WUrgency > 0 || dbCfg.WZone > 0 {
		// weights are overridden as a set so a partial row can't silently mix
		cfg.WCollaborative = dbCfg.WCollaborative
		cfg.WContent = dbCfg.WContent
		cfg.WUrgency = dbCfg.WUrgency
		cfg.WZone = dbCfg.WZone
	}
	if dbCfg.ConfidenceFloor > 0 {
		cfg.ConfidenceFloor = dbCfg.ConfidenceFloor
	}
	if dbCfg.DefaultK > 0 {
		cfg.DefaultK = dbCfg.DefaultK
		if cfg.MaxK < cfg.DefaultK {
			cfg.MaxK = cfg.DefaultK
		}
	}
	if dbCfg.MaxReasons > 0 {
		cfg.MaxReasons = dbCfg.MaxReasons
	}
	if dbCfg.ColdStartTarget > 0 {
		cfg.ColdStartTarget = dbCfg.ColdStartTarget
	}
	if dbCfg.PopularityWindowDays > 0 {
		cfg.PopularityWindow = time.Duration(dbCfg.PopularityWindowDays) * 24 * time.Hour
	}
	if dbCfg.UrgencyHorizonHours > 0 {
		cfg.UrgencyHorizon = time.Duration(dbCfg.UrgencyHorizonHours * float64(time.Hour))
	}
	if dbCfg.EligibilityExpr != "" {
		cfg.EligibilityExpr = dbCfg.EligibilityExpr
	}
	return cfg
}
