package database_test

import (
	"testing"

	"torres_backend/database"
	"torres_backend/internal/models"
	"torres_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetSchema_DropsDataKeepsTables(t *testing.T) {
	db := helpers.NewTestDB(t)
	helpers.CreateUser(t, db, &models.User{Email: "apagar@exemplo.com"})
	require.NoError(t, db.Create(&models.AuditLog{Action: models.AuditActionLogin, Success: true}).Error)

	err := db.Transaction(database.ResetSchema)
	require.NoError(t, err)

	for _, model := range database.Models() {
		assert.True(t, db.Migrator().HasTable(model), "%T", model)
		assert.Zero(t, helpers.Count(t, db, model), "%T", model)
	}
}

func TestAutoMigrate_IsIdempotent(t *testing.T) {
	db := helpers.NewTestDB(t)
	helpers.CreateUser(t, db, &models.User{Email: "fica@exemplo.com"})

	require.NoError(t, database.AutoMigrate(db))
	assert.EqualValues(t, 1, helpers.Count(t, db, &models.User{}))
	assert.True(t, db.Migrator().HasIndex(&models.UserPlan{}, "idx_user_plans_one_active"))
	assert.True(t, db.Migrator().HasIndex(&models.CreditTransaction{}, "idx_credit_transactions_reference"))
}
