package repositories_test

import (
	"testing"
	"time"

	"torres_backend/internal/models"
	"torres_backend/internal/repositories"
	"torres_backend/test/helpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := repositories.NewUserRepository()

	user := &models.User{Email: "ana@exemplo.com", HashedPassword: "hash", IsActive: true}
	require.NoError(t, repo.Create(db, user))
	assert.NotEmpty(t, user.ID)

	found, err := repo.FindByEmail(db, "ana@exemplo.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	// Email is case-sensitive
	_, err = repo.FindByEmail(db, "ANA@exemplo.com")
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)

	err = repo.Create(db, &models.User{Email: "ana@exemplo.com", HashedPassword: "hash"})
	assert.ErrorIs(t, err, repositories.ErrUserAlreadyExists)

	count, err := repo.CountAll(db)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestUserRepository_UpdateCreditsAndMarkAdmin(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := repositories.NewUserRepository()
	user := helpers.CreateUser(t, db, &models.User{Email: "bia@exemplo.com"})

	require.NoError(t, repo.UpdateCredits(db, user.ID, 42))
	require.NoError(t, repo.MarkAdmin(db, user.ID))

	locked, err := repo.FindByIDForUpdate(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, locked.Credits)
	assert.True(t, locked.IsAdmin)

	assert.ErrorIs(t, repo.UpdateCredits(db, "missing", 1), repositories.ErrUserNotFound)
	_, err = repo.FindByID(db, "missing")
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
}

func TestPlanRepository_ActivePlanLifecycle(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := repositories.NewPlanRepository()
	user := helpers.CreateUser(t, db, &models.User{Email: "caio@exemplo.com"})

	_, err := repo.FindActiveByUserID(db, user.ID)
	assert.ErrorIs(t, err, repositories.ErrPlanNotFound)

	free := &models.UserPlan{UserID: user.ID, PlanType: models.PlanTypeFree, CreditsPerMonth: 3, MaxCalculationsPerDay: 10, IsActive: true}
	require.NoError(t, repo.Create(db, free))

	n, err := repo.DeactivateActive(db, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	pro := &models.UserPlan{UserID: user.ID, PlanType: models.PlanTypePro, CreditsPerMonth: 30, MaxCalculationsPerDay: 100, IsActive: true}
	require.NoError(t, repo.Create(db, pro))

	active, err := repo.FindActiveByUserID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, pro.ID, active.ID)

	plans, err := repo.FindByUserID(db, user.ID)
	require.NoError(t, err)
	assert.Len(t, plans, 2)
}

func TestPlanRepository_SecondActivePlanRejected(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := repositories.NewPlanRepository()
	user := helpers.CreateUser(t, db, &models.User{Email: "duda@exemplo.com"})

	require.NoError(t, repo.Create(db, &models.UserPlan{UserID: user.ID, PlanType: models.PlanTypeFree, IsActive: true}))
	err := repo.Create(db, &models.UserPlan{UserID: user.ID, PlanType: models.PlanTypePro, IsActive: true})
	assert.Error(t, err, "the partial unique index allows one active plan per user")
}

func TestPlanRepository_Counts(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := repositories.NewPlanRepository()

	for i, pt := range []models.PlanType{models.PlanTypeFree, models.PlanTypeFree, models.PlanTypeEnterprise} {
		user := helpers.CreateUser(t, db, &models.User{Email: string(rune('a'+i)) + "@exemplo.com"})
		require.NoError(t, repo.Create(db, &models.UserPlan{UserID: user.ID, PlanType: pt, IsActive: true}))
	}
	// A user without any plan is not counted
	helpers.CreateUser(t, db, &models.User{Email: "semplano@exemplo.com"})

	byType, err := repo.CountActiveUsersByPlanType(db)
	require.NoError(t, err)
	assert.EqualValues(t, 2, byType[models.PlanTypeFree])
	assert.EqualValues(t, 1, byType[models.PlanTypeEnterprise])
	assert.NotContains(t, byType, models.PlanTypePro)

	withPlan, err := repo.CountUsersWithActivePlan(db)
	require.NoError(t, err)
	assert.EqualValues(t, 3, withPlan)
}

func TestHistoryRepository_Counts(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := repositories.NewHistoryRepository()
	user := helpers.CreateUser(t, db, &models.User{Email: "edu@exemplo.com"})

	now := time.Now()
	entries := []models.QueryHistory{
		{UserID: user.ID, IcmsValue: decimal.RequireFromString("100.50"), CalculatedValue: decimal.RequireFromString("80.25"), Months: 12, CalculationTimeMs: 10},
		{UserID: user.ID, IcmsValue: decimal.RequireFromString("200.00"), CalculatedValue: decimal.RequireFromString("150.00"), Months: 6, CalculationTimeMs: 30},
	}
	entries[1].CreatedAt = now.AddDate(0, 0, -3)
	require.NoError(t, repo.CreateBatch(db, entries))

	total, err := repo.CountAll(db)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	recent, err := repo.CountSince(db, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, recent)

	mine, err := repo.CountByUserSince(db, user.ID, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.EqualValues(t, 2, mine)

	avg, err := repo.AverageCalculationTime(db)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, avg, 0.001)

	latest, err := repo.FindByUserID(db, user.ID, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.True(t, latest[0].IcmsValue.Equal(decimal.RequireFromString("100.50")))
}

func TestHistoryRepository_AverageOnEmptyTable(t *testing.T) {
	db := helpers.NewTestDB(t)

	avg, err := repositories.NewHistoryRepository().AverageCalculationTime(db)
	require.NoError(t, err)
	assert.Zero(t, avg)
}

func TestAuditRepository_DeleteOlderThan(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := repositories.NewAuditRepository()

	now := time.Now()
	cutoff := now.AddDate(0, 0, -365)
	old := &models.AuditLog{Action: models.AuditActionLogin}
	old.CreatedAt = cutoff.Add(-time.Minute)
	fresh := &models.AuditLog{Action: models.AuditActionLogout}
	fresh.CreatedAt = cutoff.Add(time.Minute)
	require.NoError(t, repo.Create(db, old))
	require.NoError(t, repo.Create(db, fresh))

	removed, err := repo.DeleteOlderThan(db, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	left, err := repo.CountAll(db)
	require.NoError(t, err)
	assert.EqualValues(t, 1, left)
}

func TestSelicRepository_UpsertOverwritesRate(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := repositories.NewSelicRepository()

	require.NoError(t, repo.Upsert(db, []models.SelicRate{
		{Year: 2024, Month: 1, Rate: decimal.RequireFromString("0.0097")},
		{Year: 2024, Month: 2, Rate: decimal.RequireFromString("0.0080")},
	}))
	require.NoError(t, repo.Upsert(db, []models.SelicRate{
		{Year: 2024, Month: 1, Rate: decimal.RequireFromString("0.0101")},
	}))

	count, err := repo.CountAll(db)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	jan, err := repo.Find(db, 2024, 1)
	require.NoError(t, err)
	assert.True(t, jan.Rate.Equal(decimal.RequireFromString("0.0101")), "got %s", jan.Rate)
}

func TestCreditTransactionRepository_ReferenceIsUnique(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := repositories.NewCreditTransactionRepository()
	user := helpers.CreateUser(t, db, &models.User{Email: "ledger@exemplo.com"})

	entry := func(ref string) *models.CreditTransaction {
		return &models.CreditTransaction{
			UserID:          user.ID,
			TransactionType: models.CreditTransactionPurchase,
			Amount:          10,
			BalanceAfter:    10,
			ReferenceID:     ref,
		}
	}

	require.NoError(t, repo.Create(db, entry("mp_1")))
	assert.Error(t, repo.Create(db, entry("mp_1")))

	// Пустая ссылка не участвует в уникальности
	require.NoError(t, repo.Create(db, entry("")))
	require.NoError(t, repo.Create(db, entry("")))

	found, err := repo.FindByReference(db, "mp_1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.UserID)

	_, err = repo.FindByReference(db, "mp_2")
	assert.ErrorIs(t, err, repositories.ErrCreditTransactionNotFound)
}

func TestUserRepository_IncrementReferralCredits(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := repositories.NewUserRepository()
	user := helpers.CreateUser(t, db, &models.User{Email: "ref@exemplo.com"})

	require.NoError(t, repo.IncrementReferralCredits(db, user.ID))
	require.NoError(t, repo.IncrementReferralCredits(db, user.ID))

	found, err := repo.FindByID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.ReferralCreditsEarned)

	assert.ErrorIs(t, repo.IncrementReferralCredits(db, "missing"), repositories.ErrUserNotFound)
}
