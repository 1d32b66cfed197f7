package repository

import (
	"errors"
	"math"

	"avalon/internal/domain"
	"avalon/internal/models"

	"gorm.io/gorm"
)

// ErrVoucherExhausted is returned when a redemption would push a voucher
// past its usage limit.
var ErrVoucherExhausted = errors.New("voucher usage limit reached")

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(t *models.Transaction) error {
	return r.db.Create(t).Error
}

// CreateWithVoucher persists the order and burns one voucher use in the same
// database transaction. The conditional increment keeps current_usage within
// max_usage under concurrent redemptions; when the limit is hit nothing is
// written and ErrVoucherExhausted is returned.
func (r *TransactionRepository) CreateWithVoucher(t *models.Transaction, voucherID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Voucher{}).
			Where("id = ? AND current_usage < max_usage", voucherID).
			UpdateColumn("current_usage", gorm.Expr("current_usage + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVoucherExhausted
		}
		return tx.Create(t).Error
	})
}

func (r *TransactionRepository) GetByID(id string) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) ListByUser(userID string) ([]models.Transaction, error) {
	var list []models.Transaction
	err := r.db.Where("user_id = ?", userID).Order("timestamp DESC").Find(&list).Error
	return list, err
}

func (r *TransactionRepository) ListAll() ([]models.Transaction, error) {
	var list []models.Transaction
	err := r.db.Order("timestamp DESC").Find(&list).Error
	return list, err
}

// CompareAndSwapStatus transitions an order from one status to another with
// a single conditional UPDATE. It reports whether this caller won the
// transition; a false result means another trigger got there first (or the
// order was never in `from`). This is the serialization point between the
// webhook and the poller.
func (r *TransactionRepository) CompareAndSwapStatus(id, from, to string, updates map[string]interface{}) (bool, error) {
	res := r.db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(statusUpdate(to, updates))
	return res.RowsAffected == 1, res.Error
}

// statusUpdate builds the column set for a status transition without
// touching the caller's map.
func statusUpdate(to string, updates map[string]interface{}) map[string]interface{} {
	set := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		set[k] = v
	}
	set["status"] = to
	return set
}

func (r *TransactionRepository) Delete(id string) error {
	return r.db.Delete(&models.Transaction{}, "id = ?", id).Error
}

type Stats struct {
	TotalRevenue int64   `json:"totalRevenue"`
	TotalOrders  int64   `json:"totalOrders"`
	SuccessRate  float64 `json:"successRate"`
	ActiveGames  int64   `json:"activeGames"`
}

func (r *TransactionRepository) GetStats() (*Stats, error) {
	var s Stats

	var rev struct{ Total int64 }
	if err := r.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(price), 0) as total").
		Where("status = ?", domain.StatusSuccess).
		Scan(&rev).Error; err != nil {
		return nil, err
	}
	s.TotalRevenue = rev.Total

	if err := r.db.Model(&models.Transaction{}).Count(&s.TotalOrders).Error; err != nil {
		return nil, err
	}
	var successCount int64
	if err := r.db.Model(&models.Transaction{}).
		Where("status = ?", domain.StatusSuccess).
		Count(&successCount).Error; err != nil {
		return nil, err
	}
	s.SuccessRate = SuccessRate(successCount, s.TotalOrders)

	if err := r.db.Model(&models.Game{}).Count(&s.ActiveGames).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// SuccessRate is successCount/totalCount*100 rounded to one decimal, 0 when
// there are no orders.
func SuccessRate(successCount, totalCount int64) float64 {
	if totalCount == 0 {
		return 0
	}
	rate := float64(successCount) / float64(totalCount) * 100
	return math.Round(rate*10) / 10
}
