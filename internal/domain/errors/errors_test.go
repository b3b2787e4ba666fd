package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseError_WithDetailsKeepsIdentity(t *testing.T) {
	err := ErrPasswordPolicy.WithDetails("Password must be at least 8 characters long.")

	assert.True(t, stderrors.Is(err, ErrPasswordPolicy))
	assert.False(t, stderrors.Is(err, ErrValidationFailed))
	assert.Equal(t, http.StatusBadRequest, err.HTTPCode())
	assert.Equal(t, "Password must be at least 8 characters long.", err.Details())
	assert.Empty(t, ErrPasswordPolicy.Details(), "predefined error must not be mutated")
}

func TestBaseError_WrapMessage(t *testing.T) {
	err := ErrTaskNotFound.WrapMessage("loading task")

	var appErr AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, "TASK_NOT_FOUND", appErr.ErrorCode())
	assert.Equal(t, http.StatusNotFound, appErr.HTTPCode())
}

func TestDatabaseExecuteError(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewDatabaseExecuteError(cause, "failed to create task")

	assert.Equal(t, http.StatusInternalServerError, err.HTTPCode())
	assert.Equal(t, "DATABASE_EXECUTE_FAILED", err.ErrorCode())
	assert.Equal(t, "failed to create task", err.Details())
	assert.Contains(t, err.Error(), "connection reset")
	assert.True(t, stderrors.Is(err, cause))
}
