package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiwarsito/resto-pos/kds"
	"github.com/adiwarsito/resto-pos/models"
	"github.com/adiwarsito/resto-pos/utils"
)

// SessionService mengorkestrasi lifecycle tab: open -> (order-order) ->
// close (pembayaran) atau abandon (walkout). Satu meja maksimal satu
// session terbuka.
type SessionService struct {
	db     *gorm.DB
	orders *OrderService
	stock  *StockService
}

func NewSessionService(db *gorm.DB, orders *OrderService, stock *StockService) *SessionService {
	return &SessionService{db: db, orders: orders, stock: stock}
}

// Open membuka tab baru dan menempati meja. Meja yang sudah punya session
// terbuka ditolak dengan ConflictError tanpa membuat session kedua.
func (s *SessionService) Open(tableID *uint, customerID *uint, actorID uint) (*models.Session, error) {
	if customerID != nil {
		var customer models.Customer
		if err := s.db.First(&customer, *customerID).Error; err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("customer %d tidak ditemukan", *customerID)}
		}
	}

	if tableID != nil {
		unlock := tableLocks.Lock(fmt.Sprintf("table-%d", *tableID))
		defer unlock()
	}

	var session models.Session

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if tableID != nil {
			if err := tx.First(&table, *tableID).Error; err != nil {
				return &ValidationError{Message: fmt.Sprintf("meja %d tidak ditemukan", *tableID)}
			}
			if table.OpenSessionID != nil {
				return &ConflictError{Resource: "table", Current: table.Status,
					Message: fmt.Sprintf("meja %s sudah punya tab terbuka", table.TableNumber)}
			}
		}

		now := time.Now()
		var createErr error
		for attempt := 0; attempt < numberAttempts; attempt++ {
			number, err := nextSessionNumber(tx, now, attempt)
			if err != nil {
				return err
			}

			session = models.Session{
				SessionNumber: number,
				SessionKey:    uuid.NewString(),
				TableID:       tableID,
				CustomerID:    customerID,
				Status:        SessionStatusOpen,
				OpenedByID:    actorID,
				OpenedAt:      now,
			}
			if createErr = tx.Create(&session).Error; createErr == nil {
				break
			}
			if !isDuplicateNumber(createErr) {
				return createErr
			}
		}
		if createErr != nil {
			return createErr
		}

		if tableID != nil {
			table.OpenSessionID = &session.ID
			table.Status = TableStatusOccupied
			if err := tx.Save(&table).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	kds.BroadcastSessionUpdate(session)
	utils.InfoLogger.Printf("Session %s opened by user #%d", session.SessionNumber, actorID)
	return &session, nil
}

// BillPreview adalah agregasi read-only lintas order sebuah session.
type BillPreview struct {
	Session     models.Session `json:"session"`
	Orders      []models.Order `json:"orders"`
	Outstanding float64        `json:"outstanding"`
	Display     string         `json:"display"`
}

// PreviewBill membaca tagihan berjalan tanpa memutasi apa pun.
// Outstanding = total order non-void yang belum completed.
func (s *SessionService) PreviewBill(sessionID uint) (*BillPreview, error) {
	var session models.Session
	if err := s.db.First(&session, sessionID).Error; err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := s.db.Preload("OrderItems").
		Where("session_id = ?", sessionID).
		Order("created_at asc").
		Find(&orders).Error; err != nil {
		return nil, err
	}

	var outstanding float64
	for _, o := range orders {
		if o.Status != OrderStatusVoided && o.Status != OrderStatusCompleted {
			outstanding += o.Total
		}
	}

	return &BillPreview{
		Session:     session,
		Orders:      orders,
		Outstanding: outstanding,
		Display:     utils.FormatCurrencyIDR(outstanding),
	}, nil
}

// Close menutup tab: memvalidasi pembayaran >= tagihan, menyelesaikan semua
// order non-void (masing-masing memotong stok, idempoten), menandai session
// closed, dan melepas meja. Perubahan status dilakukan dalam satu transaksi;
// deduksi stok jalan setelah commit dan kegagalannya hanya di-flag.
func (s *SessionService) Close(sessionID uint, payment PaymentInfo, actorID uint) (*models.Session, error) {
	unlock := sessionLocks.Lock(fmt.Sprintf("session-%d", sessionID))
	defer unlock()

	var session models.Session
	var completed []uint
	var released *models.Table

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}
		if session.Status != SessionStatusOpen {
			return &ConflictError{Resource: "session", Current: session.Status,
				Message: fmt.Sprintf("session berstatus %s, tidak bisa ditutup", session.Status)}
		}

		var orders []models.Order
		if err := tx.Where("session_id = ? AND status <> ?", sessionID, OrderStatusVoided).
			Find(&orders).Error; err != nil {
			return err
		}

		var outstanding float64
		for _, o := range orders {
			if o.Status != OrderStatusCompleted {
				outstanding += o.Total
			}
		}
		if payment.Tendered < outstanding {
			return &ValidationError{Message: fmt.Sprintf("pembayaran %.2f kurang dari tagihan %.2f", payment.Tendered, outstanding)}
		}
		if payment.Method == "" {
			payment.Method = PaymentMethodCash
		}

		change := payment.Tendered - outstanding
		for i := range orders {
			if orders[i].Status == OrderStatusCompleted {
				continue
			}
			// Tendered per order = totalnya; kembalian dicatat di level session
			if err := completeOrder(tx, &orders[i], PaymentInfo{Method: payment.Method, Tendered: orders[i].Total}, orders[i].Total); err != nil {
				return err
			}
			completed = append(completed, orders[i].ID)
		}

		now := time.Now()
		session.Status = SessionStatusClosed
		session.PaymentMethod = payment.Method
		session.Tendered = payment.Tendered
		session.Change = change
		session.ClosedByID = &actorID
		session.ClosedAt = &now
		if err := tx.Save(&session).Error; err != nil {
			return err
		}
		if err := recomputeSessionTotals(tx, session.ID); err != nil {
			return err
		}

		var err error
		released, err = s.releaseTable(tx, &session)
		if err != nil {
			return err
		}

		utils.InfoLogger.Printf("Session %s closed: outstanding %.2f, tendered %.2f, change %.2f",
			session.SessionNumber, outstanding, payment.Tendered, change)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Deduksi per order di luar transaksi close: idempoten, dan kegagalannya
	// tidak boleh membatalkan pembayaran yang sudah tertangkap.
	for _, orderID := range completed {
		if err := s.stock.Deduct(orderID, actorID); err != nil {
			utils.ErrorLogger.Printf("Stock deduction error for order #%d: %v", orderID, err)
		}
	}

	if err := s.db.First(&session, sessionID).Error; err != nil {
		return nil, err
	}
	kds.BroadcastSessionUpdate(session)
	if released != nil {
		kds.BroadcastTableUpdate(*released)
	}
	return &session, nil
}

// Abandon menandai walkout: session ditutup tanpa pembayaran, meja dilepas,
// ticket yang masih terbuka di-cancel supaya station berhenti mengerjakannya.
func (s *SessionService) Abandon(sessionID uint, actorID uint) (*models.Session, error) {
	unlock := sessionLocks.Lock(fmt.Sprintf("session-%d", sessionID))
	defer unlock()

	var session models.Session
	var released *models.Table

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}
		if session.Status != SessionStatusOpen {
			return &ConflictError{Resource: "session", Current: session.Status,
				Message: fmt.Sprintf("session berstatus %s, tidak bisa di-abandon", session.Status)}
		}

		now := time.Now()
		session.Status = SessionStatusAbandoned
		session.ClosedByID = &actorID
		session.ClosedAt = &now
		if err := tx.Save(&session).Error; err != nil {
			return err
		}

		var orderIDs []uint
		if err := tx.Model(&models.Order{}).
			Where("session_id = ? AND status NOT IN ?", sessionID,
				[]string{OrderStatusCompleted, OrderStatusVoided}).
			Pluck("id", &orderIDs).Error; err != nil {
			return err
		}
		if len(orderIDs) > 0 {
			if err := tx.Model(&models.PrepTicket{}).
				Where("order_id IN ? AND status IN ?", orderIDs,
					[]string{TicketStatusPending, TicketStatusPreparing, TicketStatusReady}).
				Update("status", TicketStatusCancelled).Error; err != nil {
				return err
			}
		}

		var err error
		released, err = s.releaseTable(tx, &session)
		return err
	})
	if err != nil {
		return nil, err
	}

	kds.BroadcastSessionUpdate(session)
	if released != nil {
		kds.BroadcastTableUpdate(*released)
	}
	kds.BroadcastStaffNotification(fmt.Sprintf("Session %s ditinggalkan tanpa pembayaran", session.SessionNumber))
	utils.InfoLogger.Printf("Session %s abandoned by user #%d", session.SessionNumber, actorID)
	return &session, nil
}

// releaseTable melepas slot open-session meja dan menandainya dirty untuk
// dibersihkan (nicety UI, bukan transisi inti). Meja yang dilepas
// dikembalikan ke caller supaya broadcast-nya jalan setelah commit,
// seperti broadcast lainnya; tidak ada event keluar dari dalam transaksi.
func (s *SessionService) releaseTable(tx *gorm.DB, session *models.Session) (*models.Table, error) {
	if session.TableID == nil {
		return nil, nil
	}
	var table models.Table
	if err := tx.First(&table, *session.TableID).Error; err != nil {
		return nil, err
	}
	table.OpenSessionID = nil
	table.Status = TableStatusDirty
	if err := tx.Save(&table).Error; err != nil {
		return nil, err
	}
	return &table, nil
}
