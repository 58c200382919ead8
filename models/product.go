package models

import "time"

type Product struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	CategoryID uint     `gorm:"not null" json:"category_id"`
	Category   Category `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category"`
	Name       string   `gorm:"type:varchar(255);not null" json:"name"`
	Price      float64  `gorm:"type:decimal(12,2);not null" json:"price"`
	VIPPrice   float64  `gorm:"type:decimal(12,2);not null;default:0.00" json:"vip_price"`
	// Stock adalah counter ter-denormalisasi; sumber kebenaran tetap stock_movements
	Stock             int       `gorm:"not null;default:0" json:"stock"`
	LowStockThreshold int       `gorm:"not null;default:5" json:"low_stock_threshold"`
	Description       string    `gorm:"type:text" json:"description"`
	Active            bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt         time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null" json:"updated_at"`
}
