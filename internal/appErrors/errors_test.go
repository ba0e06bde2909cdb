package appErrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDetails_DoesNotMutateShared(t *testing.T) {
	detailed := ErrEmailAlreadyExists.WithDetails(map[string]string{"email": "a@b.com"})

	assert.Nil(t, ErrEmailAlreadyExists.Details)
	assert.NotNil(t, detailed.Details)
	assert.True(t, errors.Is(detailed, ErrEmailAlreadyExists))
	assert.False(t, errors.Is(detailed, ErrUserNotFound))
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("create admin: %w", DatabaseError(errors.New("connection reset")))

	assert.Equal(t, CodeDatabaseError, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestError_IncludesCause(t *testing.T) {
	err := Wrap(errors.New("timeout"), CodeInternalError, "Internal error")

	assert.Equal(t, "INTERNAL_ERROR: Internal error (timeout)", err.Error())
	assert.EqualError(t, errors.Unwrap(err), "timeout")
}
