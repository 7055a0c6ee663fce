package domain

import "time"

// Contribution is one user's committed participation in a group-buy.
type Contribution struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           uint      `gorm:"column:user_id;not null;index" json:"user_id"`
	GroupBuyID       uint64    `gorm:"column:group_buy_id;not null;index" json:"group_buy_id"`
	Category         string    `gorm:"column:category;type:text" json:"category"`
	Amount           float64   `gorm:"column:amount;type:numeric" json:"amount"`
	Quantity         int       `gorm:"column:quantity;default:1" json:"quantity"`
	GroupSize        int       `gorm:"column:group_size;default:0" json:"group_size"`
	DiscountOffered  bool      `gorm:"column:discount_offered;default:false" json:"discount_offered"`
	DiscountAccepted bool      `gorm:"column:discount_accepted;default:false" json:"discount_accepted"`
	CreatedAt        time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (Contribution) TableName() string {
	return "contributions"
}
