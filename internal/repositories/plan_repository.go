package repositories

import (
	"errors"
	"time"

	"torres_backend/internal/models"

	"gorm.io/gorm"
)

var ErrPlanNotFound = errors.New("active plan not found")

type PlanRepository interface {
	Create(db *gorm.DB, plan *models.UserPlan) error
	FindActiveByUserID(db *gorm.DB, userID string) (*models.UserPlan, error)
	FindByUserID(db *gorm.DB, userID string) ([]models.UserPlan, error)
	FindExpiredActive(db *gorm.DB, now time.Time) ([]models.UserPlan, error)
	DeactivateActive(db *gorm.DB, userID string) (int64, error)
	CountActiveUsersByPlanType(db *gorm.DB) (map[models.PlanType]int64, error)
	CountUsersWithActivePlan(db *gorm.DB) (int64, error)
}

type PlanRepositoryImpl struct{}

func NewPlanRepository() PlanRepository {
	return &PlanRepositoryImpl{}
}

func (r *PlanRepositoryImpl) Create(db *gorm.DB, plan *models.UserPlan) error {
	return db.Create(plan).Error
}

func (r *PlanRepositoryImpl) FindActiveByUserID(db *gorm.DB, userID string) (*models.UserPlan, error) {
	var plan models.UserPlan
	err := db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepositoryImpl) FindByUserID(db *gorm.DB, userID string) ([]models.UserPlan, error) {
	var plans []models.UserPlan
	err := db.Where("user_id = ?", userID).Order("created_at ASC").Find(&plans).Error
	return plans, err
}

// FindExpiredActive returns active plans whose expiry is already in the past.
// Plans without an expiry never expire.
func (r *PlanRepositoryImpl) FindExpiredActive(db *gorm.DB, now time.Time) ([]models.UserPlan, error) {
	var plans []models.UserPlan
	err := db.Where("is_active = ? AND expires_at IS NOT NULL AND expires_at < ?", true, now).
		Order("expires_at ASC").
		Find(&plans).Error
	return plans, err
}

// DeactivateActive clears the active flag on every active plan of the user and
// returns how many rows were switched off.
func (r *PlanRepositoryImpl) DeactivateActive(db *gorm.DB, userID string) (int64, error) {
	result := db.Model(&models.UserPlan{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *PlanRepositoryImpl) CountActiveUsersByPlanType(db *gorm.DB) (map[models.PlanType]int64, error) {
	var rows []struct {
		PlanType models.PlanType
		Count    int64
	}
	err := db.Model(&models.UserPlan{}).
		Select("plan_type, COUNT(DISTINCT user_id) AS count").
		Where("is_active = ?", true).
		Group("plan_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	// "premium" и "pro" после Scan дают один ключ
	counts := make(map[models.PlanType]int64, len(rows))
	for _, row := range rows {
		counts[row.PlanType] += row.Count
	}
	return counts, nil
}

func (r *PlanRepositoryImpl) CountUsersWithActivePlan(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.UserPlan{}).
		Where("is_active = ?", true).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}
