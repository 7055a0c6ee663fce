package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ModelArtifact is the metadata row for a trained model. The payload itself
// lives in blob storage under BlobKey. Rows are append-only; only IsActive
// ever changes.
type ModelArtifact struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	ModelType       string            `gorm:"column:model_type;not null;index" json:"model_type"`
	Version         string            `gorm:"column:version;not null;uniqueIndex" json:"version"`
	TrainedAt       time.Time         `gorm:"column:trained_at;not null" json:"trained_at"`
	QualityMetrics  datatypes.JSONMap `gorm:"column:quality_metrics" json:"quality_metrics"`
	Hyperparameters datatypes.JSONMap `gorm:"column:hyperparameters" json:"hyperparameters"`
	DataFrom        time.Time         `gorm:"column:data_from" json:"data_from"`
	DataTo          time.Time         `gorm:"column:data_to" json:"data_to"`
	BlobKey         string            `gorm:"column:blob_key;not null" json:"blob_key"`
	Checksum        string            `gorm:"column:checksum" json:"checksum"`
	SizeBytes       int64             `gorm:"column:size_bytes" json:"size_bytes"`
	IsActive        bool              `gorm:"column:is_active;default:false;index" json:"is_active"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ModelArtifact) TableName() string {
	return "model_artifacts"
}
