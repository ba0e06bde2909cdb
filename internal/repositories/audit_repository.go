package repositories

import (
	"time"

	"torres_backend/internal/models"

	"gorm.io/gorm"
)

type AuditRepository interface {
	Create(db *gorm.DB, entry *models.AuditLog) error
	FindByUserID(db *gorm.DB, userID string) ([]models.AuditLog, error)
	DeleteOlderThan(db *gorm.DB, cutoff time.Time) (int64, error)
	CountAll(db *gorm.DB) (int64, error)
}

type AuditRepositoryImpl struct{}

func NewAuditRepository() AuditRepository {
	return &AuditRepositoryImpl{}
}

func (r *AuditRepositoryImpl) Create(db *gorm.DB, entry *models.AuditLog) error {
	return db.Create(entry).Error
}

func (r *AuditRepositoryImpl) FindByUserID(db *gorm.DB, userID string) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := db.Where("user_id = ?", userID).Order("created_at ASC").Find(&entries).Error
	return entries, err
}

// DeleteOlderThan removes entries created strictly before cutoff.
func (r *AuditRepositoryImpl) DeleteOlderThan(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	return result.RowsAffected, result.Error
}

func (r *AuditRepositoryImpl) CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.AuditLog{}).Count(&count).Error
	return count, err
}
