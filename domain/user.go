package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleSupplier = "supplier"
)

type User struct {
	ID                  uint                        `gorm:"primaryKey" json:"id"`
	FullName            string                      `gorm:"column:full_name;not null" json:"full_name"`
	Email               string                      `gorm:"column:email;unique;not null" json:"email"`
	Role                string                      `gorm:"column:role;default:customer" json:"role"`
	LocationZone        string                      `gorm:"column:location_zone;index" json:"location_zone"`
	PreferredCategories datatypes.JSONSlice[string] `gorm:"column:preferred_categories" json:"preferred_categories"`
	BudgetMin           float64                     `gorm:"column:budget_min;default:0" json:"budget_min"`
	BudgetMax           float64                     `gorm:"column:budget_max;default:0" json:"budget_max"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
	DeletedAt           gorm.DeletedAt              `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u User) IsAdmin() bool {
	return strings.EqualFold(u.Role, RoleAdmin)
}

func (u User) IsSupplier() bool {
	return strings.EqualFold(u.Role, RoleSupplier)
}
