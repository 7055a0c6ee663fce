package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	BehaviorView  = "view"
	BehaviorClick = "click"
	BehaviorShare = "share"
	BehaviorJoin  = "join"
)

// BehaviorEvent is a raw analytics event ingested elsewhere and read back
// during training.
type BehaviorEvent struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	UserID     uint              `gorm:"column:user_id;not null;index" json:"user_id"`
	GroupBuyID uint64            `gorm:"column:group_buy_id;not null" json:"group_buy_id"`
	Category   string            `gorm:"column:category" json:"category"`
	EventType  string            `gorm:"column:event_type;not null" json:"event_type"`
	Context    datatypes.JSONMap `gorm:"column:context" json:"context"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

func (BehaviorEvent) TableName() string {
	return "behavior_events"
}
