package postgres

import (
	"context"
	"errors"

	"myGroupBuy/business/recommendation"
	"myGroupBuy/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecommendationConfigRepository struct {
	DB *gorm.DB
}

var _ recommendation.ConfigRepository = (*RecommendationConfigRepository)(nil)

func NewRecommendationConfigRepository(db *gorm.DB) *RecommendationConfigRepository {
	return &RecommendationConfigRepository{DB: db}
}

func (r *RecommendationConfigRepository) GetConfig(ctx context.Context, name string) (domain.RecommendationConfig, bool, error) {
	var cfg domain.RecommendationConfig

	err := r.DB.WithContext(ctx).
		Where("name = ?", name).
		First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.RecommendationConfig{}, false, nil
	}
	if err != nil {
		return domain.RecommendationConfig{}, false, err
	}
	return cfg, true, nil
}

func (r *RecommendationConfigRepository) UpsertConfig(ctx context.Context, cfg domain.RecommendationConfig) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"w_collaborative",
				"w_content",
				"w_urgency",
				"w_zone",
				"confidence_floor",
				"default_k",
				"max_reasons",
				"cold_start_target",
				"popularity_window_days",
				"urgency_horizon_hours",
				"eligibility_expr",
				"updated_at",
			}),
		}).
		Create(&cfg).Error
}
