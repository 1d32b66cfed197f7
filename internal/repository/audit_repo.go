package repository

import (
	"avalon/internal/models"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(entry *models.AuditLog) error {
	return r.db.Create(entry).Error
}

func (r *AuditLogRepository) ListAll() ([]models.AuditLog, error) {
	var list []models.AuditLog
	err := r.db.Order("created_at DESC").Find(&list).Error
	return list, err
}

// PurgeAll deletes every ledger entry and returns how many were removed.
func (r *AuditLogRepository) PurgeAll() (int64, error) {
	res := r.db.Where("1 = 1").Delete(&models.AuditLog{})
	return res.RowsAffected, res.Error
}
