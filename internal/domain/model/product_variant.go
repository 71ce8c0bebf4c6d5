package model

import "time"

// ProductVariant overrides price and carries its own stock counter.
type ProductVariant struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID     int64     `gorm:"not null;index" json:"product_id"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	SKU           string    `gorm:"type:varchar(100)" json:"sku"`
	Price         int64     `gorm:"not null" json:"price"`
	StockQuantity int64     `gorm:"not null" json:"stock_quantity"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
