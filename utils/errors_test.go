package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("evaluate: %w", NewError(ErrorTypeNumeric, "bad mean", cause))

	assert.True(t, IsNumericError(err))
	assert.False(t, IsConfigurationError(err))
	assert.False(t, IsInternalError(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "evaluate: NumericError (bad mean): boom", err.Error())

	assert.True(t, IsConfigurationError(ConfigErrorf("window %d", 0)))
	assert.True(t, IsInternalError(InternalErrorf("unknown state")))
	assert.False(t, IsConfigurationError(errors.New("plain")))
	assert.Equal(t, "ConfigurationError: window 0", ConfigErrorf("window %d", 0).Error())
	assert.Equal(t, "UnknownError", (&Error{}).TypeString())
}
