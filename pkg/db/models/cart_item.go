package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem persists one line item snapshot; name, price and image are the
// values captured when the product was first added.
type CartItem struct {
	SessionID string          `gorm:"column:session_id;primaryKey"`
	ProductID string          `gorm:"column:product_id;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric;not null"`
	Image     string          `gorm:"column:image;not null;default:''"`
	Quantity  int             `gorm:"column:quantity;type:bigint;not null"`
	Position  int             `gorm:"column:position;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartItem) TableName() string { return "cart_items" }
