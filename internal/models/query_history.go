package models

import "github.com/shopspring/decimal"

// QueryHistory records one billable calculation. Rows are never updated.
type QueryHistory struct {
	ImmutableModel
	UserID            string          `gorm:"type:uuid;not null;index"`
	IcmsValue         decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Months            int             `gorm:"not null"`
	CalculatedValue   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CalculationTimeMs int             `gorm:"not null;default:0"`
	IPAddress         string          `gorm:"type:varchar(45)"`
	UserAgent         string          `gorm:"type:text"`

	// Relations
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (QueryHistory) TableName() string {
	return "query_histories"
}
