package models

import "time"

// CartRecord is the persisted header of a session cart.
type CartRecord struct {
	SessionID string     `gorm:"column:session_id;primaryKey"`
	IsOpen    bool       `gorm:"column:is_open;not null;default:false"`
	Items     []CartItem `gorm:"foreignKey:SessionID;references:SessionID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartRecord) TableName() string { return "cart_records" }
