package models

import "time"

// Kategori notifikasi internal
const (
	NotifLowStock       = "low_stock"
	NotifReconciliation = "stock_reconciliation"
	NotifOrderReady     = "order_ready"
)

type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `json:"user_id,omitempty"`
	User      *User     `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Kind      string    `gorm:"type:varchar(50);not null;index" json:"kind"`
	Title     string    `gorm:"type:varchar(100)" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
