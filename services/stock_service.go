package services

import (
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/adiwarsito/resto-pos/kds"
	"github.com/adiwarsito/resto-pos/models"
	"github.com/adiwarsito/resto-pos/utils"
)

// StockService memegang ledger stok (stock_movements) dan policy evaluator.
// Kategori strict tidak boleh dijual melewati nol; kategori flexible selalu
// bisa dijual dan kekurangan stok hanya menghasilkan warning.
//
// Pemotongan stok terjadi saat KONFIRMASI order, atomik dengan pembuatan
// ticket: conditional update (decrement hanya kalau hasil >= 0) menjadi
// gerbang serialisasi antar order untuk item strict. Deduct saat completion
// tinggal no-op idempoten untuk order yang sudah terpotong.
type StockService struct {
	db *gorm.DB
}

func NewStockService(db *gorm.DB) *StockService {
	return &StockService{db: db}
}

// productDemand melipat item order menjadi kebutuhan qty per product.
// Item berbasis package diurai ke product penyusunnya.
func productDemand(tx *gorm.DB, items []models.OrderItem) (map[uint]int, error) {
	demand := make(map[uint]int)

	for _, item := range items {
		switch {
		case item.ProductID != nil:
			demand[*item.ProductID] += item.Quantity
		case item.PackageID != nil:
			var pkg models.Package
			if err := tx.Preload("Items").First(&pkg, *item.PackageID).Error; err != nil {
				return nil, err
			}
			for _, pi := range pkg.Items {
				demand[pi.ProductID] += pi.Quantity * item.Quantity
			}
		}
	}

	return demand, nil
}

// EvaluateItems dijalankan saat konfirmasi order sebelum pemotongan.
// Kekurangan pada kategori strict mengembalikan InsufficientStockError yang
// menyebut item dan jumlah kurangnya; kategori flexible menghasilkan warning
// advisory yang tidak pernah memblokir.
func (s *StockService) EvaluateItems(tx *gorm.DB, items []models.OrderItem) ([]StockWarning, error) {
	demand, err := productDemand(tx, items)
	if err != nil {
		return nil, err
	}

	var shortages []StockShortage
	var warnings []StockWarning

	for _, productID := range sortedKeys(demand) {
		qty := demand[productID]

		var product models.Product
		if err := tx.Preload("Category").First(&product, productID).Error; err != nil {
			return nil, err
		}

		if product.Stock >= qty {
			continue
		}

		if product.Category.IsStrict() {
			shortages = append(shortages, StockShortage{
				ProductID: product.ID,
				Name:      product.Name,
				Requested: qty,
				Available: product.Stock,
			})
			continue
		}

		// Flexible: staff dapur konfirmasi ketersediaan di luar sistem
		warnings = append(warnings, StockWarning{
			ProductID: product.ID,
			Name:      product.Name,
			Requested: qty,
			Available: product.Stock,
			Message:   fmt.Sprintf("%s stok tercatat %d, minta %d - konfirmasi ke dapur", product.Name, product.Stock, qty),
		})
	}

	if len(shortages) > 0 {
		return warnings, &InsufficientStockError{Shortages: shortages}
	}

	return warnings, nil
}

// ListSellable mengembalikan product yang boleh ditawarkan: product strict
// dengan stok nol disembunyikan, product flexible selalu tampil.
func (s *StockService) ListSellable() ([]models.Product, error) {
	var products []models.Product
	err := s.db.Preload("Category").
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("products.active = ?", true).
		Where("categories.stock_policy <> ? OR products.stock > 0", models.StockPolicyStrict).
		Order("products.name asc").
		Find(&products).Error
	return products, err
}

// DeductOnConfirm memotong stok untuk semua item order di dalam transaksi
// konfirmasi. All-or-nothing: kegagalan conditional update pada item strict
// mengembalikan InsufficientStockError sehingga transaksi pemanggil
// (status + ticket) ikut batal. Idempoten per orderID.
func (s *StockService) DeductOnConfirm(tx *gorm.DB, order *models.Order, actorID uint) error {
	var prior int64
	if err := tx.Model(&models.StockMovement{}).
		Where("order_id = ? AND cause = ?", order.ID, models.StockCauseSale).
		Count(&prior).Error; err != nil {
		return err
	}
	if prior > 0 {
		return nil
	}

	demand, err := productDemand(tx, order.OrderItems)
	if err != nil {
		return err
	}

	var shortages []StockShortage

	for _, productID := range sortedKeys(demand) {
		qty := demand[productID]

		var product models.Product
		if err := tx.Preload("Category").First(&product, productID).Error; err != nil {
			return err
		}

		if product.Category.IsStrict() {
			// Conditional update atomik: decrement hanya kalau hasilnya >= 0.
			// Serialisasi antar order terjadi di sini, bukan lewat lock aplikasi.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", productID, qty).
				UpdateColumn("stock", gorm.Expr("stock - ?", qty))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				shortages = append(shortages, StockShortage{
					ProductID: product.ID,
					Name:      product.Name,
					Requested: qty,
					Available: product.Stock,
				})
				continue
			}
		} else {
			// Flexible boleh negatif - kebijakan per kategori, bukan keharusan.
			if err := tx.Model(&models.Product{}).
				Where("id = ?", productID).
				UpdateColumn("stock", gorm.Expr("stock - ?", qty)).Error; err != nil {
				return err
			}
		}

		var after models.Product
		if err := tx.First(&after, productID).Error; err != nil {
			return err
		}

		oid := order.ID
		movement := models.StockMovement{
			ProductID: productID,
			QtyChange: -qty,
			QtyBefore: after.Stock + qty,
			QtyAfter:  after.Stock,
			Cause:     models.StockCauseSale,
			OrderID:   &oid,
			ActorID:   actorID,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return err
		}
	}

	if len(shortages) > 0 {
		return &InsufficientStockError{Shortages: shortages}
	}
	return nil
}

// NotifyLowStock mengecek ambang bawah untuk product yang stoknya baru
// berubah. Dipanggil setelah transaksi konfirmasi commit.
func (s *StockService) NotifyLowStock(orderID uint) {
	var movements []models.StockMovement
	if err := s.db.Where("order_id = ? AND cause = ?", orderID, models.StockCauseSale).
		Find(&movements).Error; err != nil {
		return
	}
	for _, m := range movements {
		var product models.Product
		if err := s.db.First(&product, m.ProductID).Error; err != nil {
			continue
		}
		s.checkLowStock(product, m.QtyBefore)
	}
}

// Deduct adalah pemanggilan deduksi saat order completed (express pay atau
// close session). Normalnya no-op karena stok sudah terpotong saat confirm;
// kalau belum (jalur lama atau data janggal), deduksi dijalankan di sini dan
// kegagalan per item TIDAK membatalkan item lain maupun transaksinya -
// pembayaran sudah tertangkap, jadi kegagalan hanya di-flag untuk
// rekonsiliasi manual.
func (s *StockService) Deduct(orderID uint, actorID uint) error {
	var prior int64
	if err := s.db.Model(&models.StockMovement{}).
		Where("order_id = ? AND cause = ?", orderID, models.StockCauseSale).
		Count(&prior).Error; err != nil {
		return err
	}
	if prior > 0 {
		return nil
	}

	var items []models.OrderItem
	if err := s.db.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}

	demand, err := productDemand(s.db, items)
	if err != nil {
		return err
	}

	for _, productID := range sortedKeys(demand) {
		qty := demand[productID]

		var product models.Product
		if err := s.db.Preload("Category").First(&product, productID).Error; err != nil {
			s.flagReconciliation(orderID, productID, qty, fmt.Sprintf("product %d tidak ditemukan saat potong stok", productID))
			continue
		}

		if product.Category.IsStrict() {
			res := s.db.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", productID, qty).
				UpdateColumn("stock", gorm.Expr("stock - ?", qty))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				s.flagReconciliation(orderID, productID, qty,
					fmt.Sprintf("stok %s tidak cukup saat deduksi order #%d (minta %d, ada %d)", product.Name, orderID, qty, product.Stock))
				continue
			}
		} else {
			if err := s.db.Model(&models.Product{}).
				Where("id = ?", productID).
				UpdateColumn("stock", gorm.Expr("stock - ?", qty)).Error; err != nil {
				return err
			}
		}

		var after models.Product
		if err := s.db.First(&after, productID).Error; err != nil {
			return err
		}

		oid := orderID
		movement := models.StockMovement{
			ProductID: productID,
			QtyChange: -qty,
			QtyBefore: after.Stock + qty,
			QtyAfter:  after.Stock,
			Cause:     models.StockCauseSale,
			OrderID:   &oid,
			ActorID:   actorID,
		}
		if err := s.db.Create(&movement).Error; err != nil {
			return err
		}

		s.checkLowStock(after, movement.QtyBefore)
	}

	return nil
}

// Restore mengembalikan stok untuk order void yang sudah terlanjur
// terpotong. Membuat movement sama-dan-berlawanan per sale movement order
// tersebut. Idempoten: kalau sale_return sudah ada, no-op; kalau tidak
// pernah ada sale movement, juga no-op.
func (s *StockService) Restore(orderID uint, actorID uint) error {
	var prior int64
	if err := s.db.Model(&models.StockMovement{}).
		Where("order_id = ? AND cause = ?", orderID, models.StockCauseSaleReturn).
		Count(&prior).Error; err != nil {
		return err
	}
	if prior > 0 {
		return nil
	}

	var sales []models.StockMovement
	if err := s.db.Where("order_id = ? AND cause = ?", orderID, models.StockCauseSale).
		Find(&sales).Error; err != nil {
		return err
	}
	if len(sales) == 0 {
		return nil
	}

	for _, sale := range sales {
		qty := -sale.QtyChange
		if err := s.db.Model(&models.Product{}).
			Where("id = ?", sale.ProductID).
			UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error; err != nil {
			return err
		}

		var after models.Product
		if err := s.db.First(&after, sale.ProductID).Error; err != nil {
			return err
		}

		oid := orderID
		movement := models.StockMovement{
			ProductID: sale.ProductID,
			QtyChange: qty,
			QtyBefore: after.Stock - qty,
			QtyAfter:  after.Stock,
			Cause:     models.StockCauseSaleReturn,
			OrderID:   &oid,
			ActorID:   actorID,
			Note:      fmt.Sprintf("reversal order #%d", orderID),
		}
		if err := s.db.Create(&movement).Error; err != nil {
			return err
		}
	}

	utils.InfoLogger.Printf("Stock restored for voided order #%d (%d movements)", orderID, len(sales))
	return nil
}

// Adjust adalah penyesuaian stok manual (stock opname, barang rusak, dsb.).
// Delta negatif pada kategori strict tetap lewat conditional update.
func (s *StockService) Adjust(productID uint, delta int, actorID uint, note string) (*models.StockMovement, error) {
	if delta == 0 {
		return nil, &ValidationError{Message: "delta penyesuaian tidak boleh nol"}
	}

	var product models.Product
	if err := s.db.Preload("Category").First(&product, productID).Error; err != nil {
		return nil, err
	}

	if delta < 0 && product.Category.IsStrict() {
		res := s.db.Model(&models.Product{}).
			Where("id = ? AND stock >= ?", productID, -delta).
			UpdateColumn("stock", gorm.Expr("stock + ?", delta))
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, &InsufficientStockError{Shortages: []StockShortage{{
				ProductID: product.ID,
				Name:      product.Name,
				Requested: -delta,
				Available: product.Stock,
			}}}
		}
	} else {
		if err := s.db.Model(&models.Product{}).
			Where("id = ?", productID).
			UpdateColumn("stock", gorm.Expr("stock + ?", delta)).Error; err != nil {
			return nil, err
		}
	}

	var after models.Product
	if err := s.db.First(&after, productID).Error; err != nil {
		return nil, err
	}

	movement := models.StockMovement{
		ProductID: productID,
		QtyChange: delta,
		QtyBefore: after.Stock - delta,
		QtyAfter:  after.Stock,
		Cause:     models.StockCauseManualAdjust,
		ActorID:   actorID,
		Note:      note,
	}
	if err := s.db.Create(&movement).Error; err != nil {
		return nil, err
	}

	s.checkLowStock(after, movement.QtyBefore)
	return &movement, nil
}

// Movements mengembalikan ledger sebuah product, terbaru dulu.
func (s *StockService) Movements(productID uint, limit int) ([]models.StockMovement, error) {
	if limit <= 0 {
		limit = 100
	}
	var movements []models.StockMovement
	err := s.db.Where("product_id = ?", productID).
		Order("id desc").
		Limit(limit).
		Find(&movements).Error
	return movements, err
}

// flagReconciliation mencatat kegagalan deduksi untuk view rekonsiliasi
// operator. Tidak pernah di-propagate: customer sudah membayar.
func (s *StockService) flagReconciliation(orderID, productID uint, qty int, message string) {
	utils.ErrorLogger.Printf("Stock reconciliation needed: %s", message)

	notif := models.Notification{
		Kind:    models.NotifReconciliation,
		Title:   "Rekonsiliasi stok diperlukan",
		Message: message,
	}
	if err := s.db.Create(&notif).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to record reconciliation flag: %v", err)
		return
	}

	kds.BroadcastStockAlert(map[string]interface{}{
		"kind":       models.NotifReconciliation,
		"order_id":   orderID,
		"product_id": productID,
		"quantity":   qty,
		"message":    message,
	})
}

// checkLowStock mengirim notifikasi saat stok menembus ambang bawah.
func (s *StockService) checkLowStock(product models.Product, before int) {
	if product.Stock > product.LowStockThreshold || before <= product.LowStockThreshold {
		return
	}

	notif := models.Notification{
		Kind:    models.NotifLowStock,
		Title:   "Stok menipis",
		Message: fmt.Sprintf("%s tersisa %d (ambang %d)", product.Name, product.Stock, product.LowStockThreshold),
	}
	if err := s.db.Create(&notif).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to record low stock notification: %v", err)
	}

	kds.BroadcastStockAlert(map[string]interface{}{
		"kind":       models.NotifLowStock,
		"product_id": product.ID,
		"name":       product.Name,
		"stock":      product.Stock,
		"threshold":  product.LowStockThreshold,
	})
}

func sortedKeys(m map[uint]int) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
