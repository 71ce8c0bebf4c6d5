package model

import "time"

// OrderItem is a frozen line-item snapshot. Name, sku and price are copied
// at purchase time and never follow later catalog changes.
type OrderItem struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64  `gorm:"not null;index" json:"order_id"`
	ProductID int64  `gorm:"not null;index" json:"product_id"`
	VariantID *int64 `gorm:"index" json:"variant_id,omitempty"`

	Name     string `gorm:"type:varchar(255);not null" json:"name"`
	SKU      string `gorm:"type:varchar(100)" json:"sku"`
	Price    int64  `gorm:"not null" json:"price"`
	Quantity int64  `gorm:"not null" json:"quantity"`
	Subtotal int64  `gorm:"not null" json:"subtotal"`
	Image    string `gorm:"type:varchar(500)" json:"image,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
