package validator

import (
	"strings"
	"testing"

	"torres_backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type credentials struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,max=72"`
	Reference string `json:"reference,omitempty" validate:"omitempty,uuid"`
}

type amount struct {
	Value decimal.Decimal `json:"value" validate:"gte=0"`
}

func TestValidate_Credentials(t *testing.T) {
	v := New()

	// Любой непустой пароль до 72 символов допустим
	for _, pw := range []string{"a1", "secret", "onlyletters", "12345678"} {
		assert.NoError(t, v.Validate(&credentials{Email: "admin@example.com", Password: pw}), pw)
	}

	err := v.Validate(&credentials{Email: "not-an-email", Reference: "abc"})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Must be a valid email address", vErr.Errors["email"])
	assert.Equal(t, "This field is required", vErr.Errors["password"])
	assert.Equal(t, "Must be a valid UUID", vErr.Errors["reference"])
	assert.Contains(t, vErr.Error(), "field 'email'")

	err = v.Validate(&credentials{Email: "admin@example.com", Password: strings.Repeat("x", 73)})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Must be at most 72 characters long", vErr.Errors["password"])
}

func TestValidate_PlanSpec(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(models.EnterpriseAdminPlan()))

	spec := models.FreePlan()
	spec.PlanType = "gold"
	err := v.Validate(spec)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Errors, "plan_type")

	spec = models.FreePlan()
	spec.MaxCalculationsPerDay = -1
	err = v.Validate(spec)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Errors, "max_calculations_per_day")
}

func TestValidate_Decimal(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&amount{Value: decimal.RequireFromString("10.50")}))
	assert.Error(t, v.Validate(&amount{Value: decimal.RequireFromString("-0.01")}))
}
