package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/adiwarsito/resto-pos/kds"
	"github.com/adiwarsito/resto-pos/models"
	"github.com/adiwarsito/resto-pos/utils"
)

// StockMonitor menyapu stok secara periodik dan menyiarkan product strict
// yang berada di bawah ambang. Jaring pengaman untuk perubahan stok yang
// tidak lewat jalur notifikasi sinkron (mis. adjustment langsung di DB).
type StockMonitor struct {
	DB       *gorm.DB
	StopChan chan struct{}
	Interval time.Duration

	lastAlerted map[uint]int // product id -> stok saat terakhir dialert
}

func NewStockMonitor(db *gorm.DB) *StockMonitor {
	return &StockMonitor{
		DB:          db,
		StopChan:    make(chan struct{}),
		Interval:    30 * time.Second,
		lastAlerted: make(map[uint]int),
	}
}

func (sm *StockMonitor) Start() {
	go func() {
		ticker := time.NewTicker(sm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sm.sweep()
			case <-sm.StopChan:
				return
			}
		}
	}()
}

func (sm *StockMonitor) Stop() {
	close(sm.StopChan)
}

func (sm *StockMonitor) sweep() {
	var products []models.Product
	if err := sm.DB.Preload("Category").
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("products.active = ? AND products.stock <= products.low_stock_threshold", true).
		Find(&products).Error; err != nil {
		utils.ErrorLogger.Printf("Stock sweep error: %v", err)
		return
	}

	for _, p := range products {
		// Jangan alert ulang selama stoknya belum berubah
		if last, ok := sm.lastAlerted[p.ID]; ok && last == p.Stock {
			continue
		}
		sm.lastAlerted[p.ID] = p.Stock

		kds.BroadcastStockAlert(map[string]interface{}{
			"kind":       models.NotifLowStock,
			"product_id": p.ID,
			"name":       p.Name,
			"stock":      p.Stock,
			"threshold":  p.LowStockThreshold,
		})
	}
}
