package models

import "time"

// Kebijakan stok per kategori
const (
	StockPolicyStrict   = "strict"   // tidak boleh jual di bawah nol
	StockPolicyFlexible = "flexible" // selalu bisa dijual, stok nol hanya jadi warning
)

// Destinasi preparasi yang dideklarasikan kategori
const (
	DestinationKitchen = "kitchen"
	DestinationBar     = "bar"
	DestinationBoth    = "both"
)

type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(100);not null;unique" json:"name"`
	StockPolicy string `gorm:"type:varchar(20);not null;default:'flexible'" json:"stock_policy"`
	// Destination kosong = tidak dideklarasikan, routing jatuh ke heuristik nama
	Destination string    `gorm:"type:varchar(20)" json:"destination"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (c *Category) IsStrict() bool {
	return c.StockPolicy == StockPolicyStrict
}
