package dto

import (
	"time"

	"torres_backend/internal/models"
)

type CreateAdminResult struct {
	UserID  string          `json:"user_id"`
	Email   string          `json:"email"`
	Credits int             `json:"credits"`
	Plan    models.PlanType `json:"plan"`
}

type SeedUserResult struct {
	Email          string `json:"email"`
	HistoryCreated int    `json:"history_created"`
}

type SeedResult struct {
	Created []SeedUserResult `json:"created"`
	Skipped []string         `json:"skipped"`
}

type CleanupResult struct {
	Cutoff  time.Time `json:"cutoff"`
	Removed int64     `json:"removed"`
}

type PlanCount struct {
	Plan  models.PlanType `json:"plan"`
	Users int64           `json:"users"`
}

type StatsReport struct {
	TotalUsers           int64       `json:"total_users"`
	TotalCalculations    int64       `json:"total_calculations"`
	CalculationsToday    int64       `json:"calculations_today"`
	UsersWithActivePlan  int64       `json:"users_with_active_plan"`
	UsersByPlan          []PlanCount `json:"users_by_plan"`
	AvgCalculationTimeMs float64     `json:"avg_calculation_time_ms"`
	GeneratedAt          time.Time   `json:"generated_at"`
}

type SelicSeedResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type TokenResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ExpirePlansResult struct {
	Expired int      `json:"expired"`
	UserIDs []string `json:"user_ids"`
}
