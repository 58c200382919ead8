package services

import (
	"fmt"
	"strings"
)

// ValidationError -> input cacat, ditolak sebelum ada perubahan state.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConflictError -> resource sedang dalam state yang tidak kompatibel dengan
// transisi yang diminta. Status saat ini disertakan supaya caller bisa
// melakukan resinkronisasi.
type ConflictError struct {
	Resource string
	Current  string
	Message  string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is currently %s", e.Resource, e.Current)
}

// StockShortage -> satu item strict yang kurang stok.
type StockShortage struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// InsufficientStockError memblokir confirm untuk seluruh order, tidak ada
// konfirmasi parsial. Menyebut item dan jumlah yang kurang.
type InsufficientStockError struct {
	Shortages []StockShortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", s.Name, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

// StockWarning -> peringatan advisory untuk kategori flexible; tidak pernah
// memblokir konfirmasi.
type StockWarning struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Message   string `json:"message"`
}
