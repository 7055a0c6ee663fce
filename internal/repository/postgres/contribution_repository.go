package postgres

import (
	"context"
	"fmt"
	"time"

	"myGroupBuy/business/recommendation"
	"myGroupBuy/domain"

	"gorm.io/gorm"
)

type ContributionRepository struct {
	DB *gorm.DB
}

var _ recommendation.ContributionRepository = (*ContributionRepository)(nil)

func NewContributionRepository(db *gorm.DB) *ContributionRepository {
	return &ContributionRepository{DB: db}
}

func (r *ContributionRepository) FindSince(ctx context.Context, since time.Time) ([]domain.Contribution, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.Contribution
	err := r.DB.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find contributions: %w", err)
	}

	return rows, nil
}

func (r *ContributionRepository) FindByUser(ctx context.Context, userID uint) ([]domain.Contribution, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.Contribution
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find user contributions: %w", err)
	}

	return rows, nil
}

func (r *ContributionRepository) CountJoinsSince(ctx context.Context, since time.Time) (map[uint64]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []struct {
		GroupBuyID uint64
		Joins      int
	}
	err := r.DB.WithContext(ctx).
		Model(&domain.Contribution{}).
		Select("group_buy_id, COUNT(*) AS joins").
		Where("created_at >= ?", since).
		Group("group_buy_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count joins: %w", err)
	}

	counts := make(map[uint64]int, len(rows))
	for _, row := range rows {
		counts[row.GroupBuyID] = row.Joins
	}
	return counts, nil
}
