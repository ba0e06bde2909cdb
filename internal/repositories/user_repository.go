package repositories

import (
	"errors"
	"time"

	"torres_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserRepository methods take the session handle explicitly, so callers decide
// which transaction the statement belongs to.
type UserRepository interface {
	Create(db *gorm.DB, user *models.User) error
	FindByID(db *gorm.DB, id string) (*models.User, error)
	FindByIDForUpdate(db *gorm.DB, id string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	UpdateCredits(db *gorm.DB, userID string, credits int) error
	MarkAdmin(db *gorm.DB, userID string) error
	IncrementReferralCredits(db *gorm.DB, userID string) error
	CountAll(db *gorm.DB) (int64, error)
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (r *UserRepositoryImpl) Create(db *gorm.DB, user *models.User) error {
	// Check if user already exists
	var existing models.User
	err := db.Select("id").Where("email = ?", user.Email).First(&existing).Error
	if err == nil {
		return ErrUserAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	// Параллельная вставка того же email упирается в уникальный индекс
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByIDForUpdate locks the user row until the surrounding transaction ends.
// Balance changes go through it so concurrent debits and grants serialize.
func (r *UserRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail is case-sensitive: "A@x.com" and "a@x.com" are different users.
func (r *UserRepositoryImpl) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) UpdateCredits(db *gorm.DB, userID string, credits int) error {
	return r.updateFields(db, userID, map[string]interface{}{
		"credits":    credits,
		"updated_at": time.Now(),
	})
}

func (r *UserRepositoryImpl) MarkAdmin(db *gorm.DB, userID string) error {
	return r.updateFields(db, userID, map[string]interface{}{
		"is_admin":   true,
		"updated_at": time.Now(),
	})
}

func (r *UserRepositoryImpl) IncrementReferralCredits(db *gorm.DB, userID string) error {
	return r.updateFields(db, userID, map[string]interface{}{
		"referral_credits_earned": gorm.Expr("referral_credits_earned + 1"),
		"updated_at":              time.Now(),
	})
}

func (r *UserRepositoryImpl) CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.User{}).Count(&count).Error
	return count, err
}

func (r *UserRepositoryImpl) updateFields(db *gorm.DB, userID string, fields map[string]interface{}) error {
	result := db.Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
