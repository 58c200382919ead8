package database

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/adiwarsito/resto-pos/models"
	"github.com/adiwarsito/resto-pos/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

func newConstraintsDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:db_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Table{},
		&models.Category{},
		&models.Product{},
		&models.Package{},
		&models.PackageItem{},
		&models.Session{},
		&models.Order{},
		&models.OrderItem{},
		&models.PrepTicket{},
		&models.StockMovement{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// Pemasangan harus idempoten: pemanggilan kedua (restart aplikasi) tidak
// boleh gagal atau menduplikasi index.
func TestInstallConstraintsIsIdempotent(t *testing.T) {
	db := newConstraintsDB(t, "constraints_idempotent")

	assert.NoError(t, InstallConstraints(db))
	assert.NoError(t, InstallConstraints(db))

	assert.True(t, db.Migrator().HasIndex(&models.Table{}, "idx_tables_open_session"))
	assert.True(t, db.Migrator().HasIndex(&models.OrderItem{}, "idx_order_items_product"))
	assert.True(t, db.Migrator().HasIndex(&models.OrderItem{}, "idx_order_items_package"))
	assert.True(t, db.Migrator().HasIndex(&models.StockMovement{}, "idx_stock_movements_order_sale"))
}

// Index unik (order, product, cause) menegakkan idempotensi deduksi di
// level storage: movement sale kedua untuk pasangan yang sama ditolak,
// sementara movement manual tanpa order tidak terkena.
func TestSaleMovementUniquePerOrderProduct(t *testing.T) {
	db := newConstraintsDB(t, "constraints_sale_unique")
	assert.NoError(t, InstallConstraints(db))

	orderID := uint(7)
	first := models.StockMovement{
		ProductID: 3,
		OrderID:   &orderID,
		Cause:     models.StockCauseSale,
		QtyChange: -2,
		ActorID:   1,
	}
	assert.NoError(t, db.Create(&first).Error)

	duplicate := models.StockMovement{
		ProductID: 3,
		OrderID:   &orderID,
		Cause:     models.StockCauseSale,
		QtyChange: -2,
		ActorID:   1,
	}
	assert.Error(t, db.Create(&duplicate).Error)

	// Pasangan sale_return untuk order yang sama tetap boleh
	reversal := models.StockMovement{
		ProductID: 3,
		OrderID:   &orderID,
		Cause:     models.StockCauseSaleReturn,
		QtyChange: 2,
		ActorID:   1,
	}
	assert.NoError(t, db.Create(&reversal).Error)

	// Movement manual (order_id NULL) di luar jangkauan index parsial
	for i := 0; i < 2; i++ {
		manual := models.StockMovement{
			ProductID: 3,
			Cause:     models.StockCauseManualAdjust,
			QtyChange: 1,
			ActorID:   1,
		}
		assert.NoError(t, db.Create(&manual).Error)
	}
}
