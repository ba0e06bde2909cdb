package repositories

import (
	"torres_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SelicRepository interface {
	Upsert(db *gorm.DB, rates []models.SelicRate) error
	Find(db *gorm.DB, year, month int) (*models.SelicRate, error)
	CountAll(db *gorm.DB) (int64, error)
}

type SelicRepositoryImpl struct{}

func NewSelicRepository() SelicRepository {
	return &SelicRepositoryImpl{}
}

// Upsert inserts the rates; an existing (year, month) gets its rate overwritten.
func (r *SelicRepositoryImpl) Upsert(db *gorm.DB, rates []models.SelicRate) error {
	if len(rates) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "year"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate"}),
	}).Create(&rates).Error
}

func (r *SelicRepositoryImpl) Find(db *gorm.DB, year, month int) (*models.SelicRate, error) {
	var rate models.SelicRate
	if err := db.Where("year = ? AND month = ?", year, month).First(&rate).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *SelicRepositoryImpl) CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.SelicRate{}).Count(&count).Error
	return count, err
}
