package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

type PlanType string
type AuditAction string
type CreditTransactionType string

const (
	PlanTypeFree       PlanType = "free"
	PlanTypePro        PlanType = "pro"
	PlanTypeEnterprise PlanType = "enterprise"

	AuditActionLogin          AuditAction = "login"
	AuditActionLogout         AuditAction = "logout"
	AuditActionCalculation    AuditAction = "calculation"
	AuditActionCreditPurchase AuditAction = "credit_purchase"
	AuditActionPlanChange     AuditAction = "plan_change"
	AuditActionRegister       AuditAction = "register"
	AuditActionPasswordChange AuditAction = "password_change"
	AuditActionAdminCreate    AuditAction = "admin_create"
	AuditActionAdminSeed      AuditAction = "admin_seed"
	AuditActionAdminCleanup   AuditAction = "admin_cleanup"

	CreditTransactionBonus    CreditTransactionType = "bonus"
	CreditTransactionGrant    CreditTransactionType = "grant"
	CreditTransactionUsage    CreditTransactionType = "usage"
	CreditTransactionPurchase CreditTransactionType = "purchase"
	CreditTransactionReferral CreditTransactionType = "referral_bonus"
)

// PlanTypes lists the tiers ordered by increasing quota.
var PlanTypes = []PlanType{PlanTypeFree, PlanTypePro, PlanTypeEnterprise}

// ParsePlanType accepts the canonical names; "premium" is the legacy name of pro.
func ParsePlanType(s string) (PlanType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "free":
		return PlanTypeFree, true
	case "pro", "premium":
		return PlanTypePro, true
	case "enterprise":
		return PlanTypeEnterprise, true
	}
	return "", false
}

// Scan нормализует значение из БД через ParsePlanType; неизвестные тарифы
// сохраняются как есть.
func (p *PlanType) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*p = ""
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("plan type: unsupported value %T", value)
	}
	if parsed, ok := ParsePlanType(raw); ok {
		*p = parsed
		return nil
	}
	*p = PlanType(raw)
	return nil
}

func (p PlanType) Value() (driver.Value, error) {
	return string(p), nil
}

func (p PlanType) IsValid() bool {
	_, ok := p.Rank()
	return ok
}

// Rank returns the position of the tier in quota order.
func (p PlanType) Rank() (int, bool) {
	for i, t := range PlanTypes {
		if t == p {
			return i, true
		}
	}
	return -1, false
}

// Title is the display name used in operator output.
func (p PlanType) Title() string {
	switch p {
	case PlanTypeFree:
		return "Free"
	case PlanTypePro:
		return "Pro"
	case PlanTypeEnterprise:
		return "Enterprise"
	}
	return string(p)
}
