package models

import "time"

// PrepTicket adalah unit kerja untuk satu order item di satu destinasi.
// Item yang dirutekan ke "both" menghasilkan dua ticket.
type PrepTicket struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"not null;index" json:"order_id"`
	OrderItemID uint      `gorm:"not null;index" json:"order_item_id"`
	OrderItem   OrderItem `gorm:"foreignKey:OrderItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"order_item"`
	Destination string    `gorm:"type:varchar(20);not null" json:"destination"` // kitchen | bar
	Status      string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	// Routing hasil heuristik nama ditandai supaya bisa dibersihkan di katalog
	Inferred bool `gorm:"not null;default:false" json:"inferred"`
	Urgent   bool `gorm:"not null;default:false" json:"urgent"`

	StartedAt *time.Time `json:"started_at,omitempty"`
	ReadyAt   *time.Time `json:"ready_at,omitempty"`
	ServedAt  *time.Time `json:"served_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}
