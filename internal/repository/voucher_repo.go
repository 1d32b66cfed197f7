package repository

import (
	"strings"

	"avalon/internal/models"

	"gorm.io/gorm"
)

type VoucherRepository struct {
	db *gorm.DB
}

func NewVoucherRepository(db *gorm.DB) *VoucherRepository {
	return &VoucherRepository{db: db}
}

// Create stores a voucher. Codes are normalized to upper case so lookups
// stay case-insensitive.
func (r *VoucherRepository) Create(v *models.Voucher) error {
	v.Code = strings.ToUpper(v.Code)
	return r.db.Create(v).Error
}

func (r *VoucherRepository) GetByCode(code string) (*models.Voucher, error) {
	var v models.Voucher
	if err := r.db.Where("code = ?", strings.ToUpper(code)).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VoucherRepository) ListAll() ([]models.Voucher, error) {
	var list []models.Voucher
	err := r.db.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *VoucherRepository) Delete(id uint) error {
	return r.db.Delete(&models.Voucher{}, id).Error
}
