package models

import "time"

// Package adalah bundel beberapa product dengan satu harga (mis. paket nasi + es teh).
type Package struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"type:varchar(255);not null" json:"name"`
	Price       float64       `gorm:"type:decimal(12,2);not null" json:"price"`
	VIPPrice    float64       `gorm:"type:decimal(12,2);not null;default:0.00" json:"vip_price"`
	Description string        `gorm:"type:text" json:"description"`
	Active      bool          `gorm:"not null;default:true" json:"active"`
	Items       []PackageItem `gorm:"foreignKey:PackageID" json:"items"`
	CreatedAt   time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null" json:"updated_at"`
}

type PackageItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	PackageID uint    `gorm:"not null;index" json:"package_id"`
	ProductID uint    `gorm:"not null" json:"product_id"`
	Product   Product `gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"product"`
	Quantity  int     `gorm:"not null;default:1" json:"quantity"`
}
