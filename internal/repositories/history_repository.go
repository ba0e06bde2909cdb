package repositories

import (
	"database/sql"
	"time"

	"torres_backend/internal/models"

	"gorm.io/gorm"
)

type HistoryRepository interface {
	Create(db *gorm.DB, entry *models.QueryHistory) error
	CreateBatch(db *gorm.DB, entries []models.QueryHistory) error
	FindByUserID(db *gorm.DB, userID string, limit int) ([]models.QueryHistory, error)
	CountAll(db *gorm.DB) (int64, error)
	CountSince(db *gorm.DB, since time.Time) (int64, error)
	CountByUserSince(db *gorm.DB, userID string, since time.Time) (int64, error)
	AverageCalculationTime(db *gorm.DB) (float64, error)
}

type HistoryRepositoryImpl struct{}

func NewHistoryRepository() HistoryRepository {
	return &HistoryRepositoryImpl{}
}

func (r *HistoryRepositoryImpl) Create(db *gorm.DB, entry *models.QueryHistory) error {
	return db.Create(entry).Error
}

func (r *HistoryRepositoryImpl) CreateBatch(db *gorm.DB, entries []models.QueryHistory) error {
	if len(entries) == 0 {
		return nil
	}
	return db.Create(&entries).Error
}

// FindByUserID returns the newest entries first; limit <= 0 means no limit.
func (r *HistoryRepositoryImpl) FindByUserID(db *gorm.DB, userID string, limit int) ([]models.QueryHistory, error) {
	var entries []models.QueryHistory
	query := db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&entries).Error
	return entries, err
}

func (r *HistoryRepositoryImpl) CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.QueryHistory{}).Count(&count).Error
	return count, err
}

func (r *HistoryRepositoryImpl) CountSince(db *gorm.DB, since time.Time) (int64, error) {
	var count int64
	err := db.Model(&models.QueryHistory{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

func (r *HistoryRepositoryImpl) CountByUserSince(db *gorm.DB, userID string, since time.Time) (int64, error) {
	var count int64
	err := db.Model(&models.QueryHistory{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

// AverageCalculationTime returns 0 for an empty table.
func (r *HistoryRepositoryImpl) AverageCalculationTime(db *gorm.DB) (float64, error) {
	var avg sql.NullFloat64
	err := db.Model(&models.QueryHistory{}).
		Select("AVG(calculation_time_ms)").
		Row().
		Scan(&avg)
	if err != nil {
		return 0, err
	}
	return avg.Float64, nil
}
