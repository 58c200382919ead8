package models

import "time"

// Penyebab perubahan stok
const (
	StockCauseSale         = "sale"
	StockCauseSaleReturn   = "sale_return"
	StockCauseManualAdjust = "manual_adjust"
	StockCauseInitial      = "initial"
)

// StockMovement mencatat setiap perubahan stok sebagai entri append-only.
// Stok berjalan product adalah lipatan dari movement; kolom Stock di products
// hanya proyeksi untuk query cepat.
type StockMovement struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	ProductID uint    `gorm:"not null;index" json:"product_id"`
	Product   Product `gorm:"foreignKey:ProductID" json:"-"`
	QtyChange int     `gorm:"not null" json:"qty_change"` // positif = masuk, negatif = keluar
	QtyBefore int     `gorm:"not null" json:"qty_before"`
	QtyAfter  int     `gorm:"not null" json:"qty_after"`
	Cause     string  `gorm:"type:varchar(30);not null;index" json:"cause"`
	// OrderID menjadi kunci idempotensi untuk sale / sale_return
	OrderID   *uint     `gorm:"index" json:"order_id,omitempty"`
	ActorID   uint      `gorm:"not null" json:"actor_id"`
	Note      string    `gorm:"type:varchar(255)" json:"note"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
