package models

import "time"

// OrderItem mengacu tepat ke satu product ATAU satu package, tidak keduanya.
type OrderItem struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	OrderID uint  `gorm:"not null;index" json:"order_id"`
	Order   Order `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`

	ProductID *uint    `gorm:"index" json:"product_id,omitempty"`
	Product   *Product `gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"product,omitempty"`
	PackageID *uint    `gorm:"index" json:"package_id,omitempty"`
	Package   *Package `gorm:"foreignKey:PackageID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"package,omitempty"`

	Quantity      int     `gorm:"not null" json:"quantity"`
	UnitPrice     float64 `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Subtotal      float64 `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Total         float64 `gorm:"type:decimal(12,2);not null" json:"total"`
	VIPPrice      bool    `gorm:"not null;default:false" json:"vip_price"`
	Complimentary bool    `gorm:"not null;default:false" json:"complimentary"`
	Notes         string  `gorm:"type:text" json:"notes"`

	// Add-on menunjuk ke item induknya, dengan harga dan qty sendiri
	ParentItemID *uint      `json:"parent_item_id,omitempty"`
	ParentItem   *OrderItem `gorm:"foreignKey:ParentItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"parent_item,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
