package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// SignalSource tags where a recommendation came from.
type SignalSource string

const (
	SourceCollaborative     SignalSource = "collaborative"
	SourceContent           SignalSource = "content"
	SourceColdStartZone     SignalSource = "cold_start_zone"
	SourceColdStartCategory SignalSource = "cold_start_category"
	SourceColdStartGlobal   SignalSource = "cold_start_global"
)

func (s SignalSource) IsColdStart() bool {
	return strings.HasPrefix(string(s), "cold_start")
}

// Recommendation is what the serving path hands back to callers.
type Recommendation struct {
	EventID    string       `json:"event_id"`
	GroupBuyID uint64       `json:"group_buy_id"`
	Score      float64      `json:"score"`
	Source     SignalSource `json:"source"`
	Reasons    []string     `json:"reasons"`
	Deadline   time.Time    `json:"deadline"`
}

// RecommendationEvent records one item shown to one user. Clicked/joined
// are filled in later by the interaction tracker and only move forward.
type RecommendationEvent struct {
	ID              string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID          uint                        `gorm:"column:user_id;not null;index" json:"user_id"`
	GroupBuyID      uint64                      `gorm:"column:group_buy_id;not null;index" json:"group_buy_id"`
	Score           float64                     `gorm:"column:score" json:"score"`
	Rank            int                         `gorm:"column:rank" json:"rank"`
	Source          string                      `gorm:"column:source" json:"source"`
	Reasons         datatypes.JSONSlice[string] `gorm:"column:reasons" json:"reasons"`
	ArtifactVersion string                      `gorm:"column:artifact_version" json:"artifact_version"`
	ShownAt         time.Time                   `gorm:"column:shown_at;not null" json:"shown_at"`
	Clicked         bool                        `gorm:"column:clicked;default:false" json:"clicked"`
	ClickedAt       *time.Time                  `gorm:"column:clicked_at" json:"clicked_at,omitempty"`
	Joined          bool                        `gorm:"column:joined;default:false" json:"joined"`
	JoinedAt        *time.Time                  `gorm:"column:joined_at" json:"joined_at,omitempty"`
}

func (RecommendationEvent) TableName() string {
	return "recommendation_events"
}

// ClusterAssignment maps a user to a behavioral cluster for one training run.
// Rows are replaced wholesale per retrain.
type ClusterAssignment struct {
	UserID     uint      `gorm:"column:user_id;primaryKey" json:"user_id"`
	ClusterID  int       `gorm:"column:cluster_id;not null;index" json:"cluster_id"`
	Distance   float64   `gorm:"column:distance" json:"distance"`
	Version    string    `gorm:"column:version" json:"version"`
	AssignedAt time.Time `gorm:"column:assigned_at" json:"assigned_at"`
}

func (ClusterAssignment) TableName() string {
	return "cluster_assignments"
}
