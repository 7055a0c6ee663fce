package postgres

import (
	"context"
	"fmt"
	"time"

	"myGroupBuy/business/recommendation"
	"myGroupBuy/domain"

	"gorm.io/gorm"
)

type BehaviorEventRepository struct {
	DB *gorm.DB
}

var _ recommendation.BehaviorEventRepository = (*BehaviorEventRepository)(nil)

func NewBehaviorEventRepository(db *gorm.DB) *BehaviorEventRepository {
	return &BehaviorEventRepository{DB: db}
}

func (r *BehaviorEventRepository) Create(ctx context.Context, ev *domain.BehaviorEvent) error {
	return r.DB.WithContext(ctx).Create(ev).Error
}

func (r *BehaviorEventRepository) FindSince(ctx context.Context, since time.Time) ([]domain.BehaviorEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.BehaviorEvent
	err := r.DB.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find behavior events: %w", err)
	}

	return rows, nil
}
