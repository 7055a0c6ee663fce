package postgres

import (
	"context"
	"errors"
	"fmt"

	"myGroupBuy/business/recommendation"
	"myGroupBuy/domain"

	"gorm.io/gorm"
)

type ModelArtifactRepository struct {
	DB *gorm.DB
}

var _ recommendation.ArtifactRepository = (*ModelArtifactRepository)(nil)

func NewModelArtifactRepository(db *gorm.DB) *ModelArtifactRepository {
	return &ModelArtifactRepository{DB: db}
}

func (r *ModelArtifactRepository) Create(ctx context.Context, artifact *domain.ModelArtifact) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	// rows are always inserted inactive, Activate is the only way in
	artifact.IsActive = false
	if err := r.DB.WithContext(ctx).Create(artifact).Error; err != nil {
		return fmt.Errorf("failed to create model artifact: %w", err)
	}
	return nil
}

// Activate clears the active flag for the model type and sets it on version
// in one transaction, so at most one row per type is ever active.
func (r *ModelArtifactRepository) Activate(ctx context.Context, modelType, version string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target domain.ModelArtifact
		err := tx.Where("model_type = ? AND version = ?", modelType, version).First(&target).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return recommendation.ErrArtifactNotFound
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&domain.ModelArtifact{}).
			Where("model_type = ? AND is_active = ?", modelType, true).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate artifacts: %w", err)
		}
		if err := tx.Model(&domain.ModelArtifact{}).
			Where("id = ?", target.ID).
			Update("is_active", true).Error; err != nil {
			return fmt.Errorf("failed to activate artifact: %w", err)
		}
		return nil
	})
}

func (r *ModelArtifactRepository) GetActive(ctx context.Context, modelType string) (domain.ModelArtifact, bool, error) {
	var row domain.ModelArtifact
	err := r.DB.WithContext(ctx).
		Where("model_type = ? AND is_active = ?", modelType, true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ModelArtifact{}, false, nil
	}
	if err != nil {
		return domain.ModelArtifact{}, false, err
	}
	return row, true, nil
}

func (r *ModelArtifactRepository) GetByVersion(ctx context.Context, version string) (domain.ModelArtifact, bool, error) {
	var row domain.ModelArtifact
	err := r.DB.WithContext(ctx).Where("version = ?", version).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ModelArtifact{}, false, nil
	}
	if err != nil {
		return domain.ModelArtifact{}, false, err
	}
	return row, true, nil
}

// List returns the newest artifacts of a model type first.
func (r *ModelArtifactRepository) List(ctx context.Context, modelType string, limit int) ([]domain.ModelArtifact, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []domain.ModelArtifact
	err := r.DB.WithContext(ctx).
		Where("model_type = ?", modelType).
		Order("trained_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list model artifacts: %w", err)
	}
	return rows, nil
}
