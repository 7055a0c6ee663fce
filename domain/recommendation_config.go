package domain

import "time"

// RecommendationConfig is an admin override of the engine tunables, keyed by
// name (usually the model type). Zero fields fall back to the defaults.
type RecommendationConfig struct {
	Name string `json:"name" gorm:"column:name;primaryKey"`

	WCollaborative float64 `json:"w_collaborative" gorm:"column:w_collaborative"`
	WContent       float64 `json:"w_content" gorm:"column:w_content"`
	WUrgency       float64 `json:"w_urgency" gorm:"column:w_urgency"`
	WZone          float64 `json:"w_zone" gorm:"column:w_zone"`

	ConfidenceFloor float64 `json:"confidence_floor" gorm:"column:confidence_floor"`
	DefaultK        int     `json:"default_k" gorm:"column:default_k"`
	MaxReasons      int     `json:"max_reasons" gorm:"column:max_reasons"`

	ColdStartTarget      int     `json:"cold_start_target" gorm:"column:cold_start_target"`
	PopularityWindowDays int     `json:"popularity_window_days" gorm:"column:popularity_window_days"`
	UrgencyHorizonHours  float64 `json:"urgency_horizon_hours" gorm:"column:urgency_horizon_hours"`

	EligibilityExpr string `json:"eligibility_expr" gorm:"column:eligibility_expr;type:text"`

	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (RecommendationConfig) TableName() string {
	return "recommendation_configs"
}
