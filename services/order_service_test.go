package services

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/adiwarsito/resto-pos/models"
)

func TestCreateOrderValidation(t *testing.T) {
	db := newTestDB(t, "order_create_validation")
	_, orders, _ := newServices(db)

	kitchen := seedCategory(t, db, "Makanan", models.StockPolicyFlexible, models.DestinationKitchen)
	nasi := seedProduct(t, db, kitchen.ID, "Nasi Goreng", 25000, 10)
	nasiID := nasi.ID

	var validation *ValidationError

	// Tanpa item
	_, err := orders.Create(CreateOrderRequest{CashierID: 1})
	assert.True(t, errors.As(err, &validation))

	// Quantity nol
	_, err = orders.Create(CreateOrderRequest{
		CashierID: 1,
		Items:     []OrderItemRequest{{ProductID: &nasiID, Quantity: 0}},
	})
	assert.True(t, errors.As(err, &validation))

	// Product dan package sekaligus
	pkgID := uint(1)
	_, err = orders.Create(CreateOrderRequest{
		CashierID: 1,
		Items:     []OrderItemRequest{{ProductID: &nasiID, PackageID: &pkgID, Quantity: 1}},
	})
	assert.True(t, errors.As(err, &validation))

	// Product tidak ada
	ghost := uint(999)
	_, err = orders.Create(CreateOrderRequest{
		CashierID: 1,
		Items:     []OrderItemRequest{{ProductID: &ghost, Quantity: 1}},
	})
	assert.True(t, errors.As(err, &validation))

	// Discount melebihi subtotal
	_, err = orders.Create(CreateOrderRequest{
		CashierID: 1,
		Discount:  1000000,
		Items:     []OrderItemRequest{{ProductID: &nasiID, Quantity: 1}},
	})
	assert.True(t, errors.As(err, &validation))
}

func TestCreateOrderDraftWithAddOns(t *testing.T) {
	db := newTestDB(t, "order_create_addons")
	_, orders, _ := newServices(db)

	kitchen := seedCategory(t, db, "Makanan", models.StockPolicyFlexible, models.DestinationKitchen)
	nasi := seedProduct(t, db, kitchen.ID, "Nasi Goreng", 25000, 10)
	telur := seedProduct(t, db, kitchen.ID, "Telur Ceplok", 5000, 10)
	kerupuk := seedProduct(t, db, kitchen.ID, "Kerupuk", 3000, 10)
	nasiID, telurID, kerupukID := nasi.ID, telur.ID, kerupuk.ID

	order, err := orders.Create(CreateOrderRequest{
		CashierID: 1,
		Items: []OrderItemRequest{
			{
				ProductID: &nasiID,
				Quantity:  2,
				AddOns: []OrderItemRequest{
					{ProductID: &telurID, Quantity: 2},
					{ProductID: &kerupukID, Quantity: 1, Complimentary: true},
				},
			},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusDraft, order.Status)
	assert.Len(t, order.OrderItems, 3)

	// 2x25000 + 2x5000, kerupuk gratis (complimentary -> total 0)
	assert.Equal(t, 60000.0, order.Total)

	var addOns int
	for _, item := range order.OrderItems {
		if item.ParentItemID != nil {
			addOns++
		}
		if item.Complimentary {
			assert.Equal(t, 0.0, item.Total)
			assert.Equal(t, 3000.0, item.Subtotal) // nilai tetap tercatat
		}
	}
	assert.Equal(t, 2, addOns)
}

func TestCreateOrderSnapshotsVIPPrice(t *testing.T) {
	db := newTestDB(t, "order_create_vip")
	_, orders, _ := newServices(db)

	kitchen := seedCategory(t, db, "Makanan", models.StockPolicyFlexible, models.DestinationKitchen)
	steak := models.Product{CategoryID: kitchen.ID, Name: "Steak Wagyu", Price: 250000, VIPPrice: 200000, Stock: 5, Active: true}
	assert.NoError(t, db.Create(&steak).Error)

	vip := models.Customer{Name: "Bu Ratna", VIP: true}
	assert.NoError(t, db.Create(&vip).Error)

	steakID, vipID := steak.ID, vip.ID
	order, err := orders.Create(CreateOrderRequest{
		CashierID:  1,
		CustomerID: &vipID,
		Items:      []OrderItemRequest{{ProductID: &steakID, Quantity: 1}},
	})
	assert.NoError(t, err)
	assert.Equal(t, 200000.0, order.Total)
	assert.True(t, order.OrderItems[0].VIPPrice)
}

func TestConfirmCreatesTicketsAndDeductsStock(t *testing.T) {
	db := newTestDB(t, "order_confirm_happy")
	_, orders, _ := newServices(db)

	strict := seedCategory(t, db, "Wine", models.StockPolicyStrict, models.DestinationBar)
	wine := seedProduct(t, db, strict.ID, "House Wine", 85000, 5)
	wineID := wine.ID

	order, err := orders.Create(CreateOrderRequest{
		CashierID: 1,
		Items:     []OrderItemRequest{{ProductID: &wineID, Quantity: 2}},
	})
	assert.NoError(t, err)

	confirmed, warnings, err := orders.Confirm(order.ID, 1)
	assert.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, OrderStatusConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.ConfirmedAt)

	// Stok terpotong saat confirm, tercatat di ledger
	assert.Equal(t, 3, productStock(t, db, wine.ID))
	assert.EqualValues(t, 1, countMovements(t, db, order.ID, models.StockCauseSale))

	var tickets []models.PrepTicket
	assert.NoError(t, db.Where("order_id = ?", order.ID).Find(&tickets).Error)
	assert.Len(t, tickets, 1)
	assert.Equal(t, models.DestinationBar, tickets[0].Destination)
	assert.Equal(t, TicketStatusPending, tickets[0].Status)
}

func TestConfirmInsufficientStrictStockRollsBack(t *testing.T) {
	db := newTestDB(t, "order_confirm_shortage")
	_, orders, _ := newServices(db)

	strict := seedCategory(t, db, "Wine", models.StockPolicyStrict, models.DestinationBar)
	wine := seedProduct(t, db, strict.ID, "House Wine", 85000, 1)
	wineID := wine.ID

	order, err := orders.Create(CreateOrderRequest{
		CashierID: 1,
		Items:     []OrderItemRequest{{ProductID: &wineID, Quantity: 3}},
	})
	assert.NoError(t, err)

	_, _, err = orders.Confirm(order.ID, 1)
	var insufficient *InsufficientStockError
	assert.True(t, errors.As(err, &insufficient))

	// Seluruh transisi batal: status, ticket, stok, ledger
	var reloaded models.Order
	assert.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, OrderStatusDraft, reloaded.Status)

	var tickets int64
	assert.NoError(t, db.Model(&models.PrepTicket{}).Where("order_id = ?", order.ID).Count(&tickets).Error)
	assert.EqualValues(t, 0, tickets)

	assert.Equal(t, 1, productStock(t, db, wine.ID))
	assert.EqualValues(t, 0, countMovements(t, db, order.ID, models.StockCauseSale))
}

func TestConfirmFlexibleOversellsWithWarning(t *testing.T) {
	db := newTestDB(t, "order_confirm_flexible")
	_, orders, _ := newServices(db)

	flexible := seedCategory(t, db, "Makanan", models.StockPolicyFlexible, models.DestinationKitchen)
	nasi := seedProduct(t, db, flexible.ID, "Nasi Goreng", 25000, 1)
	nasiID := nasi.ID

	order, err := orders.Create(CreateOrderRequest{
		CashierID: 1,
		Items:     []OrderItemRequest{{ProductID: &nasiID, Quantity: 4}},
	})
	assert.NoError(t, err)

	confirmed, warnings, err := orders.Confirm(order.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusConfirmed, confirmed.Status)
	assert.Len(t, warnings, 1)

	// Flexible boleh minus; angka minus jadi sinyal rekonsiliasi katalog
	assert.Equal(t, -3, productStock(t, db, nasi.ID))
}

func TestConfirmTwiceConflicts(t *testing.T) {
	db := newTestDB(t, "order_confirm_twice")
	_, orders, _ := newServices(db)

	strict := seedCategory(t, db, "Wine", models.StockPolicyStrict, models.DestinationBar)
	wine := seedProduct(t, db, strict.ID, "House Wine", 85000, 5)
	wineID := wine.ID

	order, err := orders.Create(CreateOrderRequest{
		CashierID: 1,
		Items:     []OrderItemRequest{{ProductID: &wineID, Quantity: 2}},
	})
	assert.NoError(t, err)

	_, _, err = orders.Confirm(order.ID, 1)
	assert.NoError(t, err)

	_, _, err = orders.Confirm(order.ID, 1)
	var conflict *ConflictError
	assert.True(t, errors.As(err, &conflict))
	assert.Equal(t, "order", conflict.Resource)
	assert.Equal(t, OrderStatusConfirmed, conflict.Current)

	// Tidak ada deduksi ganda
	assert.Equal(t, 3, productStock(t, db, wine.ID))
	assert.EqualValues(t, 1, countMovements(t, db, order.ID, models.StockCauseSale))
}

func TestConcurrentConfirmExhaustsStockExactly(t *testing.T) {
	db := newTestDB(t, "order_confirm_race")
	_, orders, _ := newServices(db)

	strict := seedCategory(t, db, "Wine", models.StockPolicyStrict, models.DestinationBar)
	wine := seedProduct(t, db, strict.ID, "House Wine", 85000, 4)
	wineID := wine.ID

	// 4 order masing-masing minta 2, stok hanya cukup untuk 2 order
	var ids []uint
	for i := 0; i < 4; i++ {
		order, err := orders.Create(CreateOrderRequest{
			CashierID: 1,
			Items:     []OrderItemRequest{{ProductID: &wineID, Quantity: 2}},
		})
		assert.NoError(t, err)
		ids = append(ids, order.ID)
	}

	var confirmedCount, rejectedCount int64
	var g errgroup.Group
	for _, id := range ids {
		orderID := id
		g.Go(func() error {
			_, _, err := orders.Confirm(orderID, 1)
			if err == nil {
				atomic.AddInt64(&confirmedCount, 1)
				return nil
			}
			var insufficient *InsufficientStockError
			if errors.As(err, &insufficient) {
				atomic.AddInt64(&rejectedCount, 1)
				return nil
			}
			return fmt.Errorf("unexpected confirm error: %w", err)
		})
	}
	assert.NoError(t, g.Wait())

	assert.EqualValues(t, 2, confirmedCount)
	assert.EqualValues(t, 2, rejectedCount)
	assert.Equal(t, 0, productStock(t, db, wine.ID))

	// Ledger hanya berisi movement milik order yang lolos
	var movements int64
	assert.NoError(t, db.Model(&models.StockMovement{}).
		Where("cause = ?", models.StockCauseSale).
		Count(&movements).Error)
	assert.EqualValues(t, 2, movements)
}

func TestHoldAndResume(t *testing.T) {
	db := newTestDB(t, "order_hold_resume")
	_, orders, _ := newServices(db)

	kitchen := seedCategory(t, db, "Makanan", models.StockPolicyFlexible, models.DestinationKitchen)
	nasi := seedProduct(t, db, kitchen.ID, "Nasi Goreng", 25000, 10)
	nasiID := nasi.ID

	order, err := orders.Create(CreateOrderRequest{
		CashierID: 1,
		Items:     []OrderItemRequest{{ProductID: &nasiID, Quantity: 1}},
	})
	assert.NoError(t, err)

	held, err := orders.Hold(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusOnHold, held.Status)

	// Order on_hold tidak bisa ditunda lagi
	_, err = orders.Hold(order.ID)
	var conflict *ConflictError
	assert.True(t, errors.As(err, &conflict))

	resumed, err := orders.Resume(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusDraft, resumed.Status)

	// on_hold juga boleh langsung dikonfirmasi
	_, err = orders.Hold(order.ID)
	assert.NoError(t, err)
	confirmed, _, err := orders.Confirm(order.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusConfirmed, confirmed.Status)
}

func TestTicketStatusBubblesToOrder(t *testing.T) {
	db := newTestDB(t, "order_ticket_bubble")
	_, orders, _ := newServices(db)

	kitchen := seedCategory(t, db, "Makanan", models.StockPolicyFlexible, models.DestinationKitchen)
	nasi := seedProduct(t, db, kitchen.ID, "Nasi Goreng", 25000, 10)
	sate := seedProduct(t, db, kitchen.ID, "Sate Ayam", 30000, 10)
	nasiID, sateID := nasi.ID, sate.ID

	order, err := orders.Create(CreateOrderRequest{
		CashierID: 1,
		Items: []OrderItemRequest{
			{ProductID: &nasiID, Quantity: 1},
			{ProductID: &sateID, Quantity: 1},
		},
	})
	assert.NoError(t, err)
	_, _, err = orders.Confirm(order.ID, 1)
	assert.NoError(t, err)

	var tickets []models.PrepTicket
	assert.NoError(t, db.Where("order_id = ?", order.ID).Order("id asc").Find(&tickets).Error)
	assert.Len(t, tickets, 2)

	orderStatus := func() string {
		var o models.Order
		assert.NoError(t, db.First(&o, order.ID).Error)
		return o.Status
	}

	// Transisi ilegal ditolak (pending tidak bisa lompat ke ready)
	_, err = orders.UpdateTicketStatus(tickets[0].ID, TicketStatusReady)
	var conflict *ConflictError
	assert.True(t, errors.As(err, &conflict))

	// Satu ticket mulai -> order preparing
	_, err = orders.UpdateTicketStatus(tickets[0].ID, TicketStatusPreparing)
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusPreparing, orderStatus())

	// Satu ready, satunya belum -> masih preparing
	_, err = orders.UpdateTicketStatus(tickets[0].ID, TicketStatusReady)
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusPreparing, orderStatus())

	// Semua ready -> order ready + notifikasi
	_, err = orders.UpdateTicketStatus(tickets[1].ID, TicketStatusPreparing)
	assert.NoError(t, err)
	_, err = orders.UpdateTicketStatus(tickets[1].ID, TicketStatusReady)
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusReady, orderStatus())

	var readyNotifs int64
	assert.NoError(t, db.Model(&models.Notification{}).
		Where("kind = ?", models.NotifOrderReady).
		Count(&readyNotifs).Error)
	assert.EqualValues(t, 1, readyNotifs)

	// Semua served -> order served
	_, err = orders.UpdateTicketStatus(tickets[0].ID, TicketStatusServed)
	assert.NoError(t, err)
	_, err = orders.UpdateTicketStatus(tickets[1].ID, TicketStatusServed)
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusServed, orderStatus())
}

func TestPayExpressCompletesWithChange(t *testing.T) {
	db := newTestDB(t, "order_pay_express")
	_, orders, _ := newServices(db)

	strict := seedCategory(t, db, "Wine", models.StockPolicyStrict, models.DestinationBar)
	wine := seedProduct(t, db, strict.ID, "House Wine", 85000, 5)
	wineID := wine.ID

	order, err := orders.Create(CreateOrderRequest{
		CashierID: 1,
		Items:     []OrderItemRequest{{ProductID: &wineID, Quantity: 1}},
	})
	assert.NoError(t, err)

	// Draft belum bisa dibayar
	_, err = orders.PayExpress(order.ID, PaymentInfo{Tendered: 100000}, 1)
	var conflict *ConflictError
	assert.True(t, errors.As(err, &conflict))

	_, _, err = orders.Confirm(order.ID, 1)
	assert.NoError(t, err)

	// Tendered kurang dari tagihan
	_, err = orders.PayExpress(order.ID, PaymentInfo{Tendered: 50000}, 1)
	var validation *ValidationError
	assert.True(t, errors.As(err, &validation))

	paid, err := orders.PayExpress(order.ID, PaymentInfo{Method: PaymentMethodCash, Tendered: 100000}, 1)
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusCompleted, paid.Status)
	assert.Equal(t, 15000.0, paid.Change)
	assert.NotNil(t, paid.CompletedAt)

	// Deduksi completion idempoten: sudah terpotong saat confirm
	assert.Equal(t, 4, productStock(t, db, wine.ID))
	assert.EqualValues(t, 1, countMovements(t, db, order.ID, models.StockCauseSale))
}

func TestPayExpressRejectsSessionOrder(t *testing.T) {
	db := newTestDB(t, "order_pay_session_guard")
	_, orders, sessions := newServices(db)

	kitchen := seedCategory(t, db, "Makanan", models.StockPolicyFlexible, models.DestinationKitchen)
	nasi := seedProduct(t, db, kitchen.ID, "Nasi Goreng", 25000, 10)
	nasiID := nasi.ID

	table := seedTable(t, db, "T-01")
	tableID := table.ID
	session, err := sessions.Open(&tableID, nil, 1)
	assert.NoError(t, err)

	order, err := orders.Create(CreateOrderRequest{
		SessionID: &session.ID,
		CashierID: 1,
		Items:     []OrderItemRequest{{ProductID: &nasiID, Quantity: 1}},
	})
	assert.NoError(t, err)
	_, _, err = orders.Confirm(order.ID, 1)
	assert.NoError(t, err)

	_, err = orders.PayExpress(order.ID, PaymentInfo{Tendered: 100000}, 1)
	var conflict *ConflictError
	assert.True(t, errors.As(err, &conflict))
}

func TestVoidConfirmedOrderRestoresEverything(t *testing.T) {
	db := newTestDB(t, "order_void_confirmed")
	_, orders, sessions := newServices(db)

	strict := seedCategory(t, db, "Wine", models.StockPolicyStrict, models.DestinationBar)
	wine := seedProduct(t, db, strict.ID, "House Wine", 85000, 5)
	wineID := wine.ID

	table := seedTable(t, db, "T-02")
	tableID := table.ID
	session, err := sessions.Open(&tableID, nil, 1)
	assert.NoError(t, err)

	order, err := orders.Create(CreateOrderRequest{
		SessionID: &session.ID,
		CashierID: 1,
		Items:     []OrderItemRequest{{ProductID: &wineID, Quantity: 2}},
	})
	assert.NoError(t, err)
	_, _, err = orders.Confirm(order.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, 3, productStock(t, db, wine.ID))

	// Alasan wajib
	_, err = orders.Void(order.ID, "", 2)
	var validation *ValidationError
	assert.True(t, errors.As(err, &validation))

	voided, err := orders.Void(order.ID, "customer batal", 2)
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusVoided, voided.Status)
	assert.Equal(t, "customer batal", voided.VoidReason)
	assert.NotNil(t, voided.VoidedAt)

	// Ticket terbuka di-cancel
	var open int64
	assert.NoError(t, db.Model(&models.PrepTicket{}).
		Where("order_id = ? AND status <> ?", order.ID, TicketStatusCancelled).
		Count(&open).Error)
	assert.EqualValues(t, 0, open)

	// Stok kembali lewat reversal ledger, total session turun
	assert.Equal(t, 5, productStock(t, db, wine.ID))
	assert.EqualValues(t, 1, countMovements(t, db, order.ID, models.StockCauseSaleReturn))

	var reloaded models.Session
	assert.NoError(t, db.First(&reloaded, session.ID).Error)
	assert.Equal(t, 0.0, reloaded.Total)

	// Void kedua ditolak
	_, err = orders.Void(order.ID, "lagi", 2)
	var conflict *ConflictError
	assert.True(t, errors.As(err, &conflict))
}

func TestVoidCompletedOrderAutoReverses(t *testing.T) {
	db := newTestDB(t, "order_void_completed")
	_, orders, _ := newServices(db)

	strict := seedCategory(t, db, "Wine", models.StockPolicyStrict, models.DestinationBar)
	wine := seedProduct(t, db, strict.ID, "House Wine", 85000, 5)
	wineID := wine.ID

	order, err := orders.Create(CreateOrderRequest{
		CashierID: 1,
		Items:     []OrderItemRequest{{ProductID: &wineID, Quantity: 2}},
	})
	assert.NoError(t, err)
	_, _, err = orders.Confirm(order.ID, 1)
	assert.NoError(t, err)
	_, err = orders.PayExpress(order.ID, PaymentInfo{Tendered: 170000}, 1)
	assert.NoError(t, err)
	assert.Equal(t, 3, productStock(t, db, wine.ID))

	voided, err := orders.Void(order.ID, "salah input, sudah terlanjur dibayar", 2)
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusVoided, voided.Status)
	assert.Equal(t, 5, productStock(t, db, wine.ID))
	assert.EqualValues(t, 1, countMovements(t, db, order.ID, models.StockCauseSaleReturn))
}

// Klaim confirmed dilakukan lewat update kondisional: snapshot kedua yang
// masih membaca draft harus kalah di klaim, bukan ikut membuat ticket dan
// memotong stok dua kali.
func TestConfirmClaimRejectsStaleSnapshot(t *testing.T) {
	db := newTestDB(t, "order_confirm_claim")
	_, orders, _ := newServices(db)

	kitchen := seedCategory(t, db, "Makanan", models.StockPolicyFlexible, models.DestinationKitchen)
	nasi := seedProduct(t, db, kitchen.ID, "Nasi Goreng", 25000, 10)
	nasiID := nasi.ID

	order, err := orders.Create(CreateOrderRequest{
		CashierID: 1,
		Items:     []OrderItemRequest{{ProductID: &nasiID, Quantity: 1}},
	})
	assert.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		var winner models.Order
		assert.NoError(t, tx.First(&winner, order.ID).Error)
		assert.NoError(t, claimConfirm(tx, &winner, now))
		assert.Equal(t, OrderStatusConfirmed, winner.Status)
		assert.NotNil(t, winner.ConfirmedAt)

		// Pembaca kedua masih memegang status draft dari sebelum klaim
		stale := models.Order{ID: order.ID, Status: OrderStatusDraft}
		claimErr := claimConfirm(tx, &stale, now)
		var conflict *ConflictError
		assert.True(t, errors.As(claimErr, &conflict))
		assert.Equal(t, OrderStatusConfirmed, stale.Status)
		return nil
	})
	assert.NoError(t, err)
}

// Penomoran count-then-insert bisa membangun nomor yang sudah terpakai
// kalau urutannya renggang; bentrokan di unique index harus dicoba ulang
// dengan suffix berikutnya, bukan menggagalkan create yang valid.
func TestCreateOrderRetriesOnNumberCollision(t *testing.T) {
	db := newTestDB(t, "order_number_collision")
	_, orders, _ := newServices(db)

	kitchen := seedCategory(t, db, "Makanan", models.StockPolicyFlexible, models.DestinationKitchen)
	nasi := seedProduct(t, db, kitchen.ID, "Nasi Goreng", 25000, 10)
	nasiID := nasi.ID

	// Dua order lama dengan urutan renggang: count=2, generator membangun
	// -0003 yang sudah terpakai.
	date := time.Now().Format("20060102")
	for _, suffix := range []string{"0001", "0003"} {
		seeded := models.Order{
			OrderNumber: fmt.Sprintf("ORD-%s-%s", date, suffix),
			CashierID:   1,
			Status:      OrderStatusCompleted,
		}
		assert.NoError(t, db.Create(&seeded).Error)
	}

	order, err := orders.Create(CreateOrderRequest{
		CashierID: 1,
		Items:     []OrderItemRequest{{ProductID: &nasiID, Quantity: 1}},
	})
	assert.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("ORD-%s-0004", date), order.OrderNumber)
}
