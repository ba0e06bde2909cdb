package dto

import (
	"torres_backend/internal/models"

	"github.com/shopspring/decimal"
)

// UserCreate is a registration candidate. Password is the raw secret and is
// never stored; 72 bytes is the bcrypt input limit.
type UserCreate struct {
	Email        string `json:"email" validate:"required,email,max=255"`
	Password     string `json:"password" validate:"required,max=72"`
	ReferredByID string `json:"referred_by_id,omitempty" validate:"omitempty,uuid"`
}

// CreditPurchase is a paid credit package confirmed by the payment gateway.
type CreditPurchase struct {
	Amount    int    `json:"amount" validate:"gt=0"`
	PaymentID string `json:"payment_id" validate:"required,max=90"`
}

// PurchaseResult reports what a purchase changed. Duplicate is set when the
// payment had already been credited and nothing was written.
type PurchaseResult struct {
	Balance         int
	Duplicate       bool
	ReferrerID      string
	ReferralGranted bool
}

// CalculationRecord is what the calculation engine reports for one billable run.
type CalculationRecord struct {
	IcmsValue         decimal.Decimal `json:"icms_value" validate:"gte=0"`
	CalculatedValue   decimal.Decimal `json:"calculated_value"`
	Months            int             `json:"months" validate:"gt=0"`
	CalculationTimeMs int             `json:"calculation_time_ms" validate:"gte=0"`
	IPAddress         string          `json:"ip_address,omitempty" validate:"omitempty,ip"`
	UserAgent         string          `json:"user_agent,omitempty"`
}

// AuditEntry describes one event to be written to the audit log. A non-empty
// ErrorMessage marks the event as failed.
type AuditEntry struct {
	UserID       *string
	Action       models.AuditAction
	ResourceType string
	ResourceID   string
	OldValues    interface{}
	NewValues    interface{}
	IPAddress    string
	UserAgent    string
	ErrorMessage string
}
