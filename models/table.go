package models

import "time"

type Table struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	TableNumber string `gorm:"type:varchar(50);not null;unique" json:"table_number"`
	Capacity    int    `gorm:"not null;default:2" json:"capacity"`
	Area        string `gorm:"type:varchar(50)" json:"area"`
	Status      string `gorm:"type:varchar(50);not null;default:'available'" json:"status"`
	// Maksimal satu session terbuka per meja (unique index sebagai pengaman kedua)
	OpenSessionID *uint     `gorm:"uniqueIndex" json:"open_session_id,omitempty"`
	OpenSession   *Session  `gorm:"foreignKey:OpenSessionID" json:"open_session,omitempty"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}
