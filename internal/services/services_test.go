package services

import (
	"testing"

	"torres_backend/internal/auth"
	"torres_backend/internal/config"
	"torres_backend/test/helpers"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestContainer(t *testing.T, opts ...AdminOption) (*gorm.DB, *ServiceContainer) {
	t.Helper()

	db := helpers.NewTestDB(t)
	tokens, err := auth.NewTokenIssuer(config.Default())
	require.NoError(t, err)

	return db, NewServiceContainer(db, tokens, nil, opts...)
}
