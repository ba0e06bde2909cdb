package repositories

import (
	"errors"

	"torres_backend/internal/models"

	"gorm.io/gorm"
)

var ErrCreditTransactionNotFound = errors.New("credit transaction not found")

type CreditTransactionRepository interface {
	Create(db *gorm.DB, entry *models.CreditTransaction) error
	FindByUserID(db *gorm.DB, userID string) ([]models.CreditTransaction, error)
	FindByReference(db *gorm.DB, reference string) (*models.CreditTransaction, error)
}

type CreditTransactionRepositoryImpl struct{}

func NewCreditTransactionRepository() CreditTransactionRepository {
	return &CreditTransactionRepositoryImpl{}
}

func (r *CreditTransactionRepositoryImpl) Create(db *gorm.DB, entry *models.CreditTransaction) error {
	return db.Create(entry).Error
}

func (r *CreditTransactionRepositoryImpl) FindByUserID(db *gorm.DB, userID string) ([]models.CreditTransaction, error) {
	var entries []models.CreditTransaction
	err := db.Where("user_id = ?", userID).Order("created_at ASC").Find(&entries).Error
	return entries, err
}

// FindByReference ищет проводку по внешней ссылке (платеж, реферал).
func (r *CreditTransactionRepositoryImpl) FindByReference(db *gorm.DB, reference string) (*models.CreditTransaction, error) {
	var entry models.CreditTransaction
	err := db.Where("reference_id = ?", reference).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCreditTransactionNotFound
		}
		return nil, err
	}
	return &entry, nil
}
