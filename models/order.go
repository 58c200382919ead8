package models

import (
	"fmt"
	"time"
)

type Order struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderNumber string    `gorm:"type:varchar(30);not null;uniqueIndex" json:"order_number"`
	SessionID   *uint     `gorm:"index" json:"session_id,omitempty"` // nil = express sale
	Session     *Session  `gorm:"foreignKey:SessionID" json:"-"`
	CashierID   uint      `gorm:"not null" json:"cashier_id"`
	Cashier     User      `gorm:"foreignKey:CashierID" json:"-"`
	CustomerID  *uint     `json:"customer_id,omitempty"`
	Customer    *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	TableID     *uint     `json:"table_id,omitempty"`
	Status      string    `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	Subtotal    float64   `gorm:"type:decimal(12,2);not null;default:0.00" json:"subtotal"`
	Discount    float64   `gorm:"type:decimal(12,2);not null;default:0.00" json:"discount"`
	Total       float64   `gorm:"type:decimal(12,2);not null;default:0.00" json:"total"`

	// Field pembayaran hanya terisi saat order completed
	PaymentMethod string  `gorm:"type:varchar(20)" json:"payment_method,omitempty"`
	Tendered      float64 `gorm:"type:decimal(12,2);not null;default:0.00" json:"tendered"`
	Change        float64 `gorm:"type:decimal(12,2);not null;default:0.00" json:"change"`

	// Metadata void
	VoidReason string     `gorm:"type:varchar(255)" json:"void_reason,omitempty"`
	VoidedByID *uint      `json:"voided_by_id,omitempty"`
	VoidedAt   *time.Time `json:"voided_at,omitempty"`

	OrderItems  []OrderItem  `gorm:"foreignKey:OrderID" json:"order_items"`
	PrepTickets []PrepTicket `gorm:"foreignKey:OrderID" json:"prep_tickets,omitempty"`
	ConfirmedAt *time.Time   `json:"confirmed_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

// IsExpress -> order tanpa session (quick sale), lifecycle sama tapi satu pass.
func (o *Order) IsExpress() bool {
	return o.SessionID == nil
}

func (o *Order) Reference() string {
	return fmt.Sprintf("ORD-%d (%s)", o.ID, o.OrderNumber)
}
