package models

import "time"

// UserPlan is one plan record of a user. Several rows may exist per user,
// but only one of them is active at a time.
type UserPlan struct {
	BaseModel
	UserID                string     `gorm:"type:uuid;not null;index;uniqueIndex:idx_user_plans_one_active,where:is_active = true"`
	PlanType              PlanType   `gorm:"type:varchar(20);not null;default:'free'"`
	CreditsPerMonth       int        `gorm:"not null;default:3"`
	MaxCalculationsPerDay int        `gorm:"not null;default:10"`
	ExpiresAt             *time.Time `gorm:"default:null"`
	IsActive              bool       `gorm:"not null;default:true"`

	// Relations
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// PlanSpec is the shape of a plan to be attached to a user.
type PlanSpec struct {
	PlanType              PlanType   `json:"plan_type" validate:"required,is-plan-type"`
	CreditsPerMonth       int        `json:"credits_per_month" validate:"gte=0"`
	MaxCalculationsPerDay int        `json:"max_calculations_per_day" validate:"gte=0"`
	ExpiresAt             *time.Time `json:"expires_at,omitempty"`
}

// FreePlan is the default plan attached at registration.
func FreePlan() PlanSpec {
	return PlanSpec{
		PlanType:              PlanTypeFree,
		CreditsPerMonth:       3,
		MaxCalculationsPerDay: 10,
	}
}

// EnterpriseAdminPlan is the plan given to bootstrapped administrators.
func EnterpriseAdminPlan() PlanSpec {
	return PlanSpec{
		PlanType:              PlanTypeEnterprise,
		CreditsPerMonth:       AdminCredits,
		MaxCalculationsPerDay: AdminCredits,
	}
}
