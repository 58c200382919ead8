package models

import "time"

// Session adalah tab untuk satu kunjungan meja/customer.
// Subtotal/total bersifat turunan dari order non-void, tidak pernah di-set
// langsung; tendered dan change diisi sekali saat close.
type Session struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	SessionNumber string     `gorm:"type:varchar(30);not null;uniqueIndex" json:"session_number"`
	SessionKey    string     `gorm:"type:varchar(64)" json:"session_key"`
	TableID       *uint      `gorm:"index" json:"table_id,omitempty"`
	Table         *Table     `gorm:"foreignKey:TableID" json:"table,omitempty"`
	CustomerID    *uint      `gorm:"index" json:"customer_id,omitempty"`
	Customer      *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Status        string     `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	Subtotal      float64    `gorm:"type:decimal(12,2);not null;default:0.00" json:"subtotal"`
	Discount      float64    `gorm:"type:decimal(12,2);not null;default:0.00" json:"discount"`
	Tax           float64    `gorm:"type:decimal(12,2);not null;default:0.00" json:"tax"`
	Total         float64    `gorm:"type:decimal(12,2);not null;default:0.00" json:"total"`
	PaymentMethod string     `gorm:"type:varchar(20)" json:"payment_method,omitempty"`
	Tendered      float64    `gorm:"type:decimal(12,2);not null;default:0.00" json:"tendered"`
	Change        float64    `gorm:"type:decimal(12,2);not null;default:0.00" json:"change"`
	OpenedByID    uint       `gorm:"not null" json:"opened_by_id"`
	OpenedBy      User       `gorm:"foreignKey:OpenedByID" json:"-"`
	ClosedByID    *uint      `json:"closed_by_id,omitempty"`
	OpenedAt      time.Time  `gorm:"not null" json:"opened_at"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
	Orders        []Order    `gorm:"foreignKey:SessionID" json:"orders,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}
