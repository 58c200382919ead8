package services

// Status order
const (
	OrderStatusDraft     = "draft"
	OrderStatusOnHold    = "on_hold"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusServed    = "served"
	OrderStatusCompleted = "completed"
	OrderStatusVoided    = "voided"
)

// Status session (tab)
const (
	SessionStatusOpen      = "open"
	SessionStatusClosed    = "closed"
	SessionStatusAbandoned = "abandoned"
)

// Status prep ticket
const (
	TicketStatusPending   = "pending"
	TicketStatusPreparing = "preparing"
	TicketStatusReady     = "ready"
	TicketStatusServed    = "served"
	TicketStatusCancelled = "cancelled"
)

// Status meja
const (
	TableStatusAvailable = "available"
	TableStatusOccupied  = "occupied"
	TableStatusDirty     = "dirty"
)

// Metode pembayaran
const (
	PaymentMethodCash         = "cash"
	PaymentMethodQRIS         = "qris"
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank_transfer"
)

// isPreCompleted -> void hanya boleh dari state sebelum completed.
func isPreCompleted(status string) bool {
	switch status {
	case OrderStatusDraft, OrderStatusOnHold, OrderStatusConfirmed,
		OrderStatusPreparing, OrderStatusReady, OrderStatusServed:
		return true
	}
	return false
}
