package models

import "github.com/shopspring/decimal"

// SelicRate is the monthly SELIC rate as a fraction (1.16% is stored as 0.0116).
type SelicRate struct {
	ID    uint            `gorm:"primaryKey"`
	Year  int             `gorm:"not null;uniqueIndex:idx_selic_year_month"`
	Month int             `gorm:"not null;uniqueIndex:idx_selic_year_month"`
	Rate  decimal.Decimal `gorm:"type:numeric(10,5);not null"`
}
