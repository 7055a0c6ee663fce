package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myGroupBuy/business/interaction"
	"myGroupBuy/business/recommendation"
	"myGroupBuy/domain"

	"gorm.io/gorm"
)

type RecommendationEventRepository struct {
	DB *gorm.DB
}

var (
	_ recommendation.EventRepository = (*RecommendationEventRepository)(nil)
	_ interaction.EventRepository    = (*RecommendationEventRepository)(nil)
)

func NewRecommendationEventRepository(db *gorm.DB) *RecommendationEventRepository {
	return &RecommendationEventRepository{DB: db}
}

func (r *RecommendationEventRepository) SaveEvents(ctx context.Context, events []domain.RecommendationEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := r.DB.WithContext(ctx).CreateInBatches(events, 100).Error; err != nil {
		return fmt.Errorf("failed to save recommendation events: %w", err)
	}
	return nil
}

func (r *RecommendationEventRepository) GetEvent(ctx context.Context, id string) (domain.RecommendationEvent, error) {
	var ev domain.RecommendationEvent
	err := r.DB.WithContext(ctx).First(&ev, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecommendationEvent{}, domain.ErrEventNotFound
		}
		return domain.RecommendationEvent{}, err
	}
	return ev, nil
}

// ApplyInteraction sets the clicked or joined flag once. Later updates for
// the same flag are no-ops, and timestamps are never earlier than shown_at.
func (r *RecommendationEventRepository) ApplyInteraction(ctx context.Context, id, kind string, at time.Time) (bool, error) {
	var flag, stamp string
	switch kind {
	case interaction.KindClicked:
		flag, stamp = "clicked", "clicked_at"
	case interaction.KindJoined:
		flag, stamp = "joined", "joined_at"
	default:
		return false, interaction.ErrInvalidKind
	}

	applied := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev domain.RecommendationEvent
		if err := tx.First(&ev, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrEventNotFound
			}
			return err
		}
		if at.Before(ev.ShownAt) {
			at = ev.ShownAt
		}

		result := tx.Model(&domain.RecommendationEvent{}).
			Where("id = ? AND "+flag+" = ?", id, false).
			Updates(map[string]interface{}{flag: true, stamp: at})
		if result.Error != nil {
			return result.Error
		}
		applied = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}
