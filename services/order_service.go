package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/adiwarsito/resto-pos/kds"
	"github.com/adiwarsito/resto-pos/models"
	"github.com/adiwarsito/resto-pos/utils"
)

// OrderService mengorkestrasi lifecycle order:
// draft -> confirmed -> preparing -> ready -> served -> completed,
// dengan voided dari semua state pre-completed dan on_hold dari draft.
type OrderService struct {
	db      *gorm.DB
	stock   *StockService
	routing *RoutingService
}

func NewOrderService(db *gorm.DB, stock *StockService, routing *RoutingService) *OrderService {
	return &OrderService{db: db, stock: stock, routing: routing}
}

type OrderItemRequest struct {
	ProductID     *uint              `json:"product_id,omitempty"`
	PackageID     *uint              `json:"package_id,omitempty"`
	Quantity      int                `json:"quantity"`
	Notes         string             `json:"notes"`
	Complimentary bool               `json:"complimentary"`
	AddOns        []OrderItemRequest `json:"add_ons,omitempty"`
}

type CreateOrderRequest struct {
	SessionID  *uint              `json:"session_id,omitempty"` // nil = express sale
	CustomerID *uint              `json:"customer_id,omitempty"`
	TableID    *uint              `json:"table_id,omitempty"`
	CashierID  uint               `json:"-"`
	Discount   float64            `json:"discount"`
	Items      []OrderItemRequest `json:"items"`
}

// Create membuat order berstatus draft. Memvalidasi daftar item tidak
// kosong, tiap item mengacu tepat ke satu product atau package yang ada,
// dan semua quantity positif. Harga di-snapshot dari katalog saat ini.
func (s *OrderService) Create(req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, &ValidationError{Message: "order harus punya minimal satu item"}
	}
	if req.Discount < 0 {
		return nil, &ValidationError{Message: "discount tidak boleh negatif"}
	}

	vip := false
	if req.CustomerID != nil {
		var customer models.Customer
		if err := s.db.First(&customer, *req.CustomerID).Error; err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("customer %d tidak ditemukan", *req.CustomerID)}
		}
		vip = customer.VIP
	}

	// Mutasi total session diserialisasi per session id
	if req.SessionID != nil {
		unlock := sessionLocks.Lock(fmt.Sprintf("session-%d", *req.SessionID))
		defer unlock()
	}

	var order models.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if req.SessionID != nil {
			var session models.Session
			if err := tx.First(&session, *req.SessionID).Error; err != nil {
				return &ValidationError{Message: fmt.Sprintf("session %d tidak ditemukan", *req.SessionID)}
			}
			if session.Status != SessionStatusOpen {
				return &ConflictError{Resource: "session", Current: session.Status, Message: "session sudah tidak terbuka"}
			}
			if req.CustomerID == nil && session.CustomerID != nil {
				req.CustomerID = session.CustomerID
				var customer models.Customer
				if err := tx.First(&customer, *session.CustomerID).Error; err == nil {
					vip = customer.VIP
				}
			}
			if req.TableID == nil {
				req.TableID = session.TableID
			}
		}

		now := time.Now()
		var createErr error
		for attempt := 0; attempt < numberAttempts; attempt++ {
			number, err := nextOrderNumber(tx, now, attempt)
			if err != nil {
				return err
			}

			order = models.Order{
				OrderNumber: number,
				SessionID:   req.SessionID,
				CashierID:   req.CashierID,
				CustomerID:  req.CustomerID,
				TableID:     req.TableID,
				Status:      OrderStatusDraft,
				Discount:    req.Discount,
			}
			if createErr = tx.Create(&order).Error; createErr == nil {
				break
			}
			if !isDuplicateNumber(createErr) {
				return createErr
			}
		}
		if createErr != nil {
			return createErr
		}

		var subtotal float64
		for _, itemReq := range req.Items {
			item, err := s.createItem(tx, order.ID, itemReq, nil, vip)
			if err != nil {
				return err
			}
			subtotal += item.Total
			for _, addOnReq := range itemReq.AddOns {
				addOn, err := s.createItem(tx, order.ID, addOnReq, &item.ID, vip)
				if err != nil {
					return err
				}
				subtotal += addOn.Total
			}
		}

		order.Subtotal = subtotal
		order.Total = subtotal - order.Discount
		if order.Total < 0 {
			return &ValidationError{Message: "discount melebihi subtotal order"}
		}
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		if order.SessionID != nil {
			return recomputeSessionTotals(tx, *order.SessionID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Preload("OrderItems").First(&order, order.ID).Error; err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Order %s created (draft, %d items, total %.2f)", order.OrderNumber, len(order.OrderItems), order.Total)
	return &order, nil
}

// createItem memvalidasi dan menyimpan satu order item (atau add-on).
func (s *OrderService) createItem(tx *gorm.DB, orderID uint, req OrderItemRequest, parentID *uint, vip bool) (*models.OrderItem, error) {
	if req.Quantity <= 0 {
		return nil, &ValidationError{Message: "quantity harus lebih dari nol"}
	}
	if (req.ProductID == nil) == (req.PackageID == nil) {
		return nil, &ValidationError{Message: "item harus mengacu tepat ke satu product atau package"}
	}

	var unitPrice float64
	vipApplied := false

	if req.ProductID != nil {
		var product models.Product
		if err := tx.First(&product, *req.ProductID).Error; err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("product %d tidak ditemukan", *req.ProductID)}
		}
		unitPrice = product.Price
		if vip && product.VIPPrice > 0 {
			unitPrice = product.VIPPrice
			vipApplied = true
		}
	} else {
		var pkg models.Package
		if err := tx.First(&pkg, *req.PackageID).Error; err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("package %d tidak ditemukan", *req.PackageID)}
		}
		unitPrice = pkg.Price
		if vip && pkg.VIPPrice > 0 {
			unitPrice = pkg.VIPPrice
			vipApplied = true
		}
	}

	subtotal := unitPrice * float64(req.Quantity)
	total := subtotal
	if req.Complimentary {
		total = 0
	}

	item := models.OrderItem{
		OrderID:       orderID,
		ProductID:     req.ProductID,
		PackageID:     req.PackageID,
		Quantity:      req.Quantity,
		UnitPrice:     unitPrice,
		Subtotal:      subtotal,
		Total:         total,
		VIPPrice:      vipApplied,
		Complimentary: req.Complimentary,
		Notes:         req.Notes,
		ParentItemID:  parentID,
	}
	if err := tx.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Confirm menjalankan transisi draft|on_hold -> confirmed dalam satu
// transaksi: evaluasi stok, pembuatan ticket, dan pemotongan stok harus
// sukses atomik dengan perubahan status. Kekurangan pada kategori strict
// (termasuk yang baru muncul karena order lain menang race) memblokir
// seluruhnya. Gagal di mana pun -> order tetap di state semula.
func (s *OrderService) Confirm(orderID uint, actorID uint) (*models.Order, []StockWarning, error) {
	var order models.Order
	var warnings []StockWarning
	var tickets []models.PrepTicket

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("OrderItems").First(&order, orderID).Error; err != nil {
			return err
		}

		if order.Status != OrderStatusDraft && order.Status != OrderStatusOnHold {
			return &ConflictError{Resource: "order", Current: order.Status,
				Message: fmt.Sprintf("order berstatus %s, tidak bisa dikonfirmasi", order.Status)}
		}

		// Klaim transisinya dulu, sebelum ada efek samping. Di isolation
		// level REPEATABLE READ dua transaksi bisa sama-sama membaca draft;
		// update kondisional memastikan hanya satu yang lolos ke pembuatan
		// ticket dan pemotongan stok.
		if err := claimConfirm(tx, &order, time.Now()); err != nil {
			return err
		}

		var err error
		warnings, err = s.stock.EvaluateItems(tx, order.OrderItems)
		if err != nil {
			return err
		}

		tickets, err = s.routing.CreateTickets(tx, &order)
		if err != nil {
			return err
		}

		return s.stock.DeductOnConfirm(tx, &order, actorID)
	})
	if err != nil {
		return nil, nil, err
	}

	s.stock.NotifyLowStock(order.ID)
	kds.BroadcastOrderUpdate(order)
	for _, t := range tickets {
		kds.BroadcastTicketUpdate(t)
	}
	for _, w := range warnings {
		kds.BroadcastStaffNotification(w.Message)
	}

	utils.InfoLogger.Printf("Order %s confirmed (%d tickets, %d warnings)", order.OrderNumber, len(tickets), len(warnings))
	return &order, warnings, nil
}

// claimConfirm memindahkan order ke confirmed lewat update kondisional:
// hanya transaksi yang benar-benar mengubah baris yang boleh lanjut.
// RowsAffected nol berarti transisi sudah diambil pihak lain (atau status
// berubah sejak dibaca) dan dilaporkan sebagai conflict.
func claimConfirm(tx *gorm.DB, order *models.Order, now time.Time) error {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status IN ?", order.ID, []string{OrderStatusDraft, OrderStatusOnHold}).
		Updates(map[string]interface{}{"status": OrderStatusConfirmed, "confirmed_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var current models.Order
		if err := tx.First(&current, order.ID).Error; err == nil {
			order.Status = current.Status
		}
		return &ConflictError{Resource: "order", Current: order.Status,
			Message: fmt.Sprintf("order berstatus %s, tidak bisa dikonfirmasi", order.Status)}
	}
	order.Status = OrderStatusConfirmed
	order.ConfirmedAt = &now
	return nil
}

// Hold -> draft ke on_hold (order ditunda cashier).
func (s *OrderService) Hold(orderID uint) (*models.Order, error) {
	return s.simpleTransition(orderID, []string{OrderStatusDraft}, OrderStatusOnHold)
}

// Resume -> on_hold kembali ke draft.
func (s *OrderService) Resume(orderID uint) (*models.Order, error) {
	return s.simpleTransition(orderID, []string{OrderStatusOnHold}, OrderStatusDraft)
}

func (s *OrderService) simpleTransition(orderID uint, from []string, to string) (*models.Order, error) {
	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			return err
		}
		allowed := false
		for _, f := range from {
			if order.Status == f {
				allowed = true
			}
		}
		if !allowed {
			return &ConflictError{Resource: "order", Current: order.Status,
				Message: fmt.Sprintf("order berstatus %s, tidak bisa ke %s", order.Status, to)}
		}
		order.Status = to
		return tx.Save(&order).Error
	})
	if err != nil {
		return nil, err
	}
	kds.BroadcastOrderUpdate(order)
	return &order, nil
}

// Urutan transisi ticket yang diizinkan station
var ticketFlow = map[string]string{
	TicketStatusPending:   TicketStatusPreparing,
	TicketStatusPreparing: TicketStatusReady,
	TicketStatusReady:     TicketStatusServed,
}

// UpdateTicketStatus mencatat laporan station untuk satu ticket dan
// menaikkan status order secara best-effort: order "ready" hanya saat
// SEMUA ticket non-cancelled ready, "served" saat semua served.
func (s *OrderService) UpdateTicketStatus(ticketID uint, status string) (*models.PrepTicket, error) {
	var ticket models.PrepTicket
	var order models.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ticket, ticketID).Error; err != nil {
			return err
		}

		if ticketFlow[ticket.Status] != status {
			return &ConflictError{Resource: "ticket", Current: ticket.Status,
				Message: fmt.Sprintf("ticket berstatus %s, tidak bisa ke %s", ticket.Status, status)}
		}

		now := time.Now()
		ticket.Status = status
		switch status {
		case TicketStatusPreparing:
			ticket.StartedAt = &now
		case TicketStatusReady:
			ticket.ReadyAt = &now
		case TicketStatusServed:
			ticket.ServedAt = &now
		}
		if err := tx.Save(&ticket).Error; err != nil {
			return err
		}

		if err := tx.First(&order, ticket.OrderID).Error; err != nil {
			return err
		}
		return s.bubbleOrderStatus(tx, &order)
	})
	if err != nil {
		return nil, err
	}

	kds.BroadcastTicketUpdate(ticket)
	kds.BroadcastOrderUpdate(order)
	return &ticket, nil
}

// bubbleOrderStatus menurunkan status order dari agregat ticket-nya.
func (s *OrderService) bubbleOrderStatus(tx *gorm.DB, order *models.Order) error {
	if order.Status == OrderStatusCompleted || order.Status == OrderStatusVoided {
		return nil
	}

	var tickets []models.PrepTicket
	if err := tx.Where("order_id = ? AND status <> ?", order.ID, TicketStatusCancelled).
		Find(&tickets).Error; err != nil {
		return err
	}
	if len(tickets) == 0 {
		return nil
	}

	allReady, allServed, anyStarted := true, true, false
	for _, t := range tickets {
		if t.Status != TicketStatusServed {
			allServed = false
		}
		if t.Status != TicketStatusReady && t.Status != TicketStatusServed {
			allReady = false
		}
		if t.Status != TicketStatusPending {
			anyStarted = true
		}
	}

	next := order.Status
	switch {
	case allServed:
		next = OrderStatusServed
	case allReady:
		next = OrderStatusReady
	case anyStarted:
		next = OrderStatusPreparing
	}
	if next == order.Status {
		return nil
	}

	order.Status = next
	if err := tx.Save(order).Error; err != nil {
		return err
	}

	if next == OrderStatusReady {
		notif := models.Notification{
			Kind:    models.NotifOrderReady,
			Title:   "Order siap",
			Message: fmt.Sprintf("Order %s siap disajikan", order.OrderNumber),
		}
		if err := tx.Create(&notif).Error; err != nil {
			return err
		}
		kds.BroadcastStaffNotification(notif.Message)
	}
	return nil
}

type PaymentInfo struct {
	Method   string  `json:"method"`
	Tendered float64 `json:"tendered"`
}

// PayExpress menyelesaikan express sale (order tanpa session): pembayaran
// ditangkap, order -> completed, lalu stok dipotong. Deduksi yang gagal
// tidak menggagalkan transaksi - customer sudah membayar.
func (s *OrderService) PayExpress(orderID uint, payment PaymentInfo, actorID uint) (*models.Order, error) {
	var order models.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			return err
		}
		if !order.IsExpress() {
			return &ConflictError{Resource: "order", Current: order.Status,
				Message: "order ini bagian dari tab, selesaikan lewat close session"}
		}
		switch order.Status {
		case OrderStatusConfirmed, OrderStatusPreparing, OrderStatusReady, OrderStatusServed:
		default:
			return &ConflictError{Resource: "order", Current: order.Status,
				Message: fmt.Sprintf("order berstatus %s, belum bisa dibayar", order.Status)}
		}
		return completeOrder(tx, &order, payment, order.Total)
	})
	if err != nil {
		return nil, err
	}

	// Deduksi dijalankan setelah commit: idempoten per order dan kegagalannya
	// hanya di-flag untuk rekonsiliasi.
	if err := s.stock.Deduct(order.ID, actorID); err != nil {
		utils.ErrorLogger.Printf("Stock deduction error for order #%d: %v", order.ID, err)
	}

	kds.BroadcastOrderUpdate(order)
	utils.InfoLogger.Printf("Express order %s completed (paid %.2f via %s)", order.OrderNumber, payment.Tendered, payment.Method)
	return &order, nil
}

// completeOrder mengisi field pembayaran dan menandai completed.
// outstanding = nominal yang harus tertutup oleh tendered.
func completeOrder(tx *gorm.DB, order *models.Order, payment PaymentInfo, outstanding float64) error {
	if payment.Method == "" {
		payment.Method = PaymentMethodCash
	}
	if payment.Tendered < outstanding {
		return &ValidationError{Message: fmt.Sprintf("pembayaran %.2f kurang dari tagihan %.2f", payment.Tendered, outstanding)}
	}

	now := time.Now()
	order.Status = OrderStatusCompleted
	order.PaymentMethod = payment.Method
	order.Tendered = payment.Tendered
	order.Change = payment.Tendered - outstanding
	order.CompletedAt = &now
	return tx.Save(order).Error
}

// Void membatalkan order dari state mana pun selain voided; stok yang
// sudah terpotong (order confirmed ke atas) otomatis di-reverse lewat
// ledger. Ticket yang masih terbuka di-cancel supaya station mengabaikannya.
func (s *OrderService) Void(orderID uint, reason string, actorID uint) (*models.Order, error) {
	if reason == "" {
		return nil, &ValidationError{Message: "alasan void wajib diisi"}
	}

	var order models.Order

	if err := s.db.First(&order, orderID).Error; err != nil {
		return nil, err
	}
	if order.SessionID != nil {
		unlock := sessionLocks.Lock(fmt.Sprintf("session-%d", *order.SessionID))
		defer unlock()
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			return err
		}
		if order.Status == OrderStatusVoided {
			return &ConflictError{Resource: "order", Current: order.Status, Message: "order sudah di-void"}
		}
		if order.Status != OrderStatusCompleted && !isPreCompleted(order.Status) {
			return &ConflictError{Resource: "order", Current: order.Status,
				Message: fmt.Sprintf("order berstatus %s, tidak bisa di-void", order.Status)}
		}

		now := time.Now()
		order.Status = OrderStatusVoided
		order.VoidReason = reason
		order.VoidedByID = &actorID
		order.VoidedAt = &now
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.PrepTicket{}).
			Where("order_id = ? AND status IN ?", order.ID,
				[]string{TicketStatusPending, TicketStatusPreparing, TicketStatusReady}).
			Update("status", TicketStatusCancelled).Error; err != nil {
			return err
		}

		if order.SessionID != nil {
			return recomputeSessionTotals(tx, *order.SessionID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Auto-reversal untuk order yang stoknya sudah terpotong (confirmed ke
	// atas). Restore idempoten dan no-op kalau belum pernah ada deduksi,
	// jadi aman dipanggil tanpa melihat state asal. Kegagalan mengikuti
	// kebijakan yang sama dengan deduksi: catat, jangan blokir.
	if err := s.stock.Restore(order.ID, actorID); err != nil {
		utils.ErrorLogger.Printf("Stock restore error for voided order #%d: %v", order.ID, err)
	}

	kds.BroadcastOrderUpdate(order)
	kds.BroadcastStaffNotification(fmt.Sprintf("Order %s di-void: %s", order.OrderNumber, reason))
	utils.InfoLogger.Printf("Order %s voided by user #%d (%s)", order.OrderNumber, actorID, reason)
	return &order, nil
}
