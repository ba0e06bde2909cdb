package models

const (
	// WelcomeCredits is the starting balance of a freshly registered user.
	WelcomeCredits = 3
	// AdminCredits is the one-time grant given by the admin bootstrap.
	AdminCredits = 1000
	// ReferralBonusCredits is paid to the referrer on the first purchase of a referred user.
	ReferralBonusCredits = 1
	// MaxReferralBonuses caps how many referral bonuses one referrer can earn.
	MaxReferralBonuses = 3
)

type User struct {
	BaseModel
	Email          string `gorm:"type:varchar(255);uniqueIndex;not null"`
	HashedPassword string `gorm:"not null"`
	Credits        int    `gorm:"not null;default:0"`
	IsVerified     bool   `gorm:"not null;default:false"`
	IsActive       bool   `gorm:"not null;default:true"`
	IsAdmin        bool   `gorm:"not null;default:false"`

	ReferredByID          *string `gorm:"type:uuid;index"`
	ReferralCreditsEarned int     `gorm:"not null;default:0"`

	// Relations
	Plans   []UserPlan     `gorm:"foreignKey:UserID"`
	History []QueryHistory `gorm:"foreignKey:UserID"`
}
