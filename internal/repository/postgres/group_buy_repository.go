package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myGroupBuy/business/groupbuy"
	"myGroupBuy/business/recommendation"
	"myGroupBuy/domain"

	"gorm.io/gorm"
)

type GroupBuyRepository struct {
	DB *gorm.DB
}

var (
	_ recommendation.GroupBuyRepository = (*GroupBuyRepository)(nil)
	_ groupbuy.GroupBuyRepository       = (*GroupBuyRepository)(nil)
)

func NewGroupBuyRepository(db *gorm.DB) *GroupBuyRepository {
	return &GroupBuyRepository{
		DB: db,
	}
}

func (r *GroupBuyRepository) Create(ctx context.Context, gb *domain.GroupBuy) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(gb).Error; err != nil {
		return fmt.Errorf("failed to create group-buy: %w", err)
	}

	return nil
}

func (r *GroupBuyRepository) FindByID(ctx context.Context, id uint64) (domain.GroupBuy, error) {
	if err := ctx.Err(); err != nil {
		return domain.GroupBuy{}, fmt.Errorf("context error: %w", err)
	}

	var gb domain.GroupBuy

	err := r.DB.WithContext(ctx).First(&gb, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.GroupBuy{}, domain.ErrGroupBuyNotFound
		}
		return domain.GroupBuy{}, fmt.Errorf("failed to find group-buy: %w", err)
	}

	return gb, nil
}

func (r *GroupBuyRepository) FindOpen(ctx context.Context, now time.Time) ([]domain.GroupBuy, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var gbs []domain.GroupBuy
	err := r.DB.WithContext(ctx).
		Where("status = ? AND deadline > ?", domain.GroupBuyOpen, now).
		Order("deadline, id").
		Find(&gbs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find open group-buys: %w", err)
	}

	return gbs, nil
}

func (r *GroupBuyRepository) FindActiveSince(ctx context.Context, since time.Time) ([]domain.GroupBuy, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var gbs []domain.GroupBuy
	err := r.DB.WithContext(ctx).
		Where("created_at >= ? OR deadline >= ?", since, since).
		Order("id").
		Find(&gbs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find group-buys: %w", err)
	}

	return gbs, nil
}

func (r *GroupBuyRepository) Update(ctx context.Context, gb *domain.GroupBuy) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	updateData := map[string]interface{}{
		"title":         gb.Title,
		"category":      gb.Category,
		"description":   gb.Description,
		"location_zone": gb.LocationZone,
		"unit_price":    gb.UnitPrice,
		"bulk_price":    gb.BulkPrice,
		"moq":           gb.MOQ,
		"deadline":      gb.Deadline,
		"status":        gb.Status,
		"updated_at":    time.Now(),
	}

	result := r.DB.WithContext(ctx).Model(&domain.GroupBuy{}).Where("id = ?", gb.ID).Updates(updateData)
	if result.Error != nil {
		return fmt.Errorf("failed to update group-buy: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrGroupBuyNotFound
	}

	return nil
}

// Join inserts the contribution and bumps current_quantity in one
// transaction. The status guard in the UPDATE keeps a concurrent cancel from
// racing a join.
func (r *GroupBuyRepository) Join(ctx context.Context, c *domain.Contribution) (domain.GroupBuy, error) {
	if err := ctx.Err(); err != nil {
		return domain.GroupBuy{}, fmt.Errorf("context error: %w", err)
	}

	var gb domain.GroupBuy
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.GroupBuy{}).
			Where("id = ? AND status = ?", c.GroupBuyID, domain.GroupBuyOpen).
			Updates(map[string]interface{}{
				"current_quantity": gorm.Expr("current_quantity + ?", c.Quantity),
				"updated_at":       time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrGroupBuyClosed
		}

		if err := tx.First(&gb, c.GroupBuyID).Error; err != nil {
			return err
		}
		c.GroupSize = gb.CurrentQuantity

		return tx.Create(c).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrGroupBuyClosed) {
			return domain.GroupBuy{}, err
		}
		return domain.GroupBuy{}, fmt.Errorf("failed to join group-buy: %w", err)
	}

	return gb, nil
}
