package model

import "time"

type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64     `gorm:"not null;index" json:"cart_id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	VariantID *int64    `gorm:"index" json:"variant_id,omitempty"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
