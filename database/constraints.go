package database

import (
	"gorm.io/gorm"

	"github.com/adiwarsito/resto-pos/models"
	"github.com/adiwarsito/resto-pos/utils"
)

type storageConstraint struct {
	model interface{}
	name  string
	ddl   string
}

// InstallConstraints memasang pengaman lapis kedua di level storage:
// invariant satu-session-terbuka-per-meja dan satu-movement-sale-per
// (order, product) ditegakkan lagi oleh database, bukan cuma aplikasi.
//
// DDL-nya per dialek: SQLite mendukung partial index (baris NULL tidak
// ikut diuji unik), MySQL tidak - tapi unique index MySQL memang
// mengizinkan banyak NULL, jadi versi tanpa klausa WHERE setara.
// Keberadaan index dicek lewat Migrator supaya pemasangan idempoten.
func InstallConstraints(db *gorm.DB) error {
	var constraints []storageConstraint
	if db.Dialector.Name() == "sqlite" {
		constraints = []storageConstraint{
			// Satu meja maksimal satu session terbuka
			{&models.Table{}, "idx_tables_open_session",
				`CREATE UNIQUE INDEX idx_tables_open_session ON tables(open_session_id) WHERE open_session_id IS NOT NULL`},
			{&models.OrderItem{}, "idx_order_items_product",
				`CREATE INDEX idx_order_items_product ON order_items(product_id)`},
			{&models.OrderItem{}, "idx_order_items_package",
				`CREATE INDEX idx_order_items_package ON order_items(package_id)`},
			// Kunci idempotensi deduksi: satu movement sale per (order, product)
			{&models.StockMovement{}, "idx_stock_movements_order_sale",
				`CREATE UNIQUE INDEX idx_stock_movements_order_sale ON stock_movements(order_id, product_id, cause) WHERE order_id IS NOT NULL`},
		}
	} else {
		constraints = []storageConstraint{
			{&models.Table{}, "idx_tables_open_session",
				`CREATE UNIQUE INDEX idx_tables_open_session ON tables(open_session_id)`},
			{&models.OrderItem{}, "idx_order_items_product",
				`CREATE INDEX idx_order_items_product ON order_items(product_id)`},
			{&models.OrderItem{}, "idx_order_items_package",
				`CREATE INDEX idx_order_items_package ON order_items(package_id)`},
			{&models.StockMovement{}, "idx_stock_movements_order_sale",
				`CREATE UNIQUE INDEX idx_stock_movements_order_sale ON stock_movements(order_id, product_id, cause)`},
		}
	}

	for _, c := range constraints {
		if db.Migrator().HasIndex(c.model, c.name) {
			continue
		}
		if err := db.Exec(c.ddl).Error; err != nil {
			utils.ErrorLogger.Printf("Constraint install failed: %v\nStatement: %s", err, c.ddl)
			continue
		}
	}

	utils.InfoLogger.Println("Storage constraints installed.")
	return nil
}
