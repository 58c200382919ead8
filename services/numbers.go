package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/adiwarsito/resto-pos/models"
)

// Generator nomor bergaya count-then-insert bisa kalah race antar
// transaksi: dua-duanya membaca count yang sama dan membangun nomor yang
// sama. Bentrokan tertangkap di unique index nomor, lalu insert diulang
// dengan suffix bergeser sebanyak attempt.
const numberAttempts = 3

// nextSessionNumber menghasilkan nomor tab ber-scope tanggal,
// mis. TAB-20240131-0007. Dipanggil di dalam transaksi + session lock;
// attempt > 0 menggeser suffix setelah insert sebelumnya bentrok.
func nextSessionNumber(tx *gorm.DB, now time.Time, attempt int) (string, error) {
	prefix := fmt.Sprintf("TAB-%s-", now.Format("20060102"))
	var count int64
	if err := tx.Model(&models.Session{}).
		Where("session_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1+int64(attempt)), nil
}

// nextOrderNumber -> nomor order ber-scope tanggal, mis. ORD-20240131-0042.
func nextOrderNumber(tx *gorm.DB, now time.Time, attempt int) (string, error) {
	prefix := fmt.Sprintf("ORD-%s-", now.Format("20060102"))
	var count int64
	if err := tx.Model(&models.Order{}).
		Where("order_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1+int64(attempt)), nil
}

// isDuplicateNumber mengenali pelanggaran unique index dari MySQL maupun
// SQLite. TranslateError gorm tidak diaktifkan, jadi cek pesannya langsung.
func isDuplicateNumber(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}

// recomputeSessionTotals menghitung ulang total session dari order
// non-void. Dipanggil secara sinkron setiap kali field nominal order anak
// berubah, selalu di dalam transaksi dan session lock yang sama.
func recomputeSessionTotals(tx *gorm.DB, sessionID uint) error {
	var session models.Session
	if err := tx.First(&session, sessionID).Error; err != nil {
		return err
	}

	var subtotal float64
	row := tx.Model(&models.Order{}).
		Where("session_id = ? AND status <> ?", sessionID, OrderStatusVoided).
		Select("COALESCE(SUM(total), 0)").
		Row()
	if err := row.Scan(&subtotal); err != nil {
		return err
	}

	session.Subtotal = subtotal
	session.Total = subtotal - session.Discount + session.Tax
	return tx.Save(&session).Error
}
