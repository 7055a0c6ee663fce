package domain

import (
	"time"
)

// CREATE TABLE public.group_buys (
//     id               BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     product_id       BIGINT,
//     title            TEXT NOT NULL,
//     category         TEXT NOT NULL,
//     description      TEXT,
//     location_zone    TEXT,
//     unit_price       NUMERIC,
//     bulk_price       NUMERIC,
//     moq              INT NOT NULL,
//     current_quantity INT DEFAULT 0,
//     deadline         TIMESTAMPTZ NOT NULL,
//     status           TEXT DEFAULT 'open',
//     created_at       TIMESTAMPTZ DEFAULT NOW(),
//     updated_at       TIMESTAMPTZ DEFAULT NOW()
// );

const (
	GroupBuyOpen      = "open"
	GroupBuyClosed    = "closed"
	GroupBuyFulfilled = "fulfilled"
	GroupBuyCancelled = "cancelled"
)

type GroupBuy struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID       uint64    `gorm:"column:product_id" json:"product_id"`
	Title           string    `gorm:"column:title;type:text;not null" json:"title"`
	Category        string    `gorm:"column:category;type:text;not null;index" json:"category"`
	Description     string    `gorm:"column:description;type:text" json:"description"`
	LocationZone    string    `gorm:"column:location_zone;index" json:"location_zone"`
	UnitPrice       float64   `gorm:"column:unit_price;type:numeric" json:"unit_price"`
	BulkPrice       float64   `gorm:"column:bulk_price;type:numeric" json:"bulk_price"`
	MOQ             int       `gorm:"column:moq;not null" json:"moq"`
	CurrentQuantity int       `gorm:"column:current_quantity;default:0" json:"current_quantity"`
	Deadline        time.Time `gorm:"column:deadline;not null;index" json:"deadline"`
	Status          string    `gorm:"column:status;default:open;index" json:"status"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (GroupBuy) TableName() string {
	return "group_buys"
}

// MOQProgress is the fraction of the minimum order quantity already
// committed, capped at 1.
func (g GroupBuy) MOQProgress() float64 {
	if g.MOQ <= 0 {
		return 1
	}
	p := float64(g.CurrentQuantity) / float64(g.MOQ)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

func (g GroupBuy) IsOpen(now time.Time) bool {
	return g.Status == GroupBuyOpen && g.Deadline.After(now)
}

// Document is the text the content model factorizes.
func (g GroupBuy) Document() string {
	return g.Title + " " + g.Category + " " + g.Description
}
