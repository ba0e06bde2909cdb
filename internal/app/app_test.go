package app

import (
	"errors"
	"testing"

	"torres_backend/internal/appErrors"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"usage", usageErrorf("Unknown command: x"), ExitUsage},
		{"validation", appErrors.ValidationError(map[string]string{"email": "bad"}), ExitUsage},
		{"conflict", appErrors.ErrEmailAlreadyExists, ExitConflict},
		{"locked", appErrors.ErrOperationInProgress, ExitConflict},
		{"declined", appErrors.ErrConfirmationDeclined, ExitDeclined},
		{"config", appErrors.ConfigError(errors.New("no secret")), ExitConfig},
		{"database", appErrors.DatabaseError(errors.New("connection refused")), ExitFailure},
		{"plain", errors.New("boom"), ExitFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Email already registered", describe(appErrors.ErrEmailAlreadyExists))
	assert.Equal(t, "Database operation failed: connection refused",
		describe(appErrors.DatabaseError(errors.New("connection refused"))))
	assert.Equal(t, "boom", describe(errors.New("boom")))
}
