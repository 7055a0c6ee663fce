package postgres

import (
	"context"
	"errors"
	"fmt"

	"myGroupBuy/business/recommendation"
	"myGroupBuy/domain"

	"gorm.io/gorm"
)

const assignmentBatchSize = 500

type ClusterAssignmentRepository struct {
	DB *gorm.DB
}

var _ recommendation.ClusterAssignmentRepository = (*ClusterAssignmentRepository)(nil)

func NewClusterAssignmentRepository(db *gorm.DB) *ClusterAssignmentRepository {
	return &ClusterAssignmentRepository{DB: db}
}

// ReplaceAll swaps the whole assignment table for the new run so readers
// never see a mix of two trainings.
func (r *ClusterAssignmentRepository) ReplaceAll(ctx context.Context, assignments []domain.ClusterAssignment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&domain.ClusterAssignment{}).Error; err != nil {
			return fmt.Errorf("failed to clear cluster assignments: %w", err)
		}
		if len(assignments) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(assignments, assignmentBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert cluster assignments: %w", err)
		}
		return nil
	})
}

func (r *ClusterAssignmentRepository) GetAssignment(ctx context.Context, userID uint) (domain.ClusterAssignment, bool, error) {
	var row domain.ClusterAssignment
	err := r.DB.WithContext(ctx).First(&row, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ClusterAssignment{}, false, nil
	}
	if err != nil {
		return domain.ClusterAssignment{}, false, err
	}
	return row, true, nil
}
