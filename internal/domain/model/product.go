package model

import (
	"time"

	"gorm.io/gorm"
)

// Product is a catalog entity. This service only ever mutates its stock
// counter; everything else belongs to catalog management.
type Product struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Slug          string         `gorm:"type:varchar(255);uniqueIndex" json:"slug"`
	SKU           string         `gorm:"type:varchar(100)" json:"sku"`
	Price         int64          `gorm:"not null" json:"price"`
	Thumbnail     string         `gorm:"type:varchar(500)" json:"thumbnail"`
	InStock       bool           `gorm:"not null;default:true" json:"in_stock"`
	StockQuantity int64          `gorm:"not null" json:"stock_quantity"`
	CreatedAt     time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
