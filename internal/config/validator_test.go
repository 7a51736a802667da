package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_AcceptsDefaults(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	cfg := DefaultEngineConfig()
	assert.NoError(t, v.Validate(&cfg))
}

func TestValidator_RejectsEmptyBaseDirectory(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	cfg := DefaultEngineConfig()
	cfg.BaseDirectory = ""
	assert.Error(t, v.Validate(&cfg))
}

func TestValidator_RejectsNegativeMaxPlanSteps(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	cfg := DefaultEngineConfig()
	cfg.MaxPlanSteps = -1
	assert.Error(t, v.Validate(&cfg))
}

func TestValidator_RejectsOutOfRangeExitCode(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	cfg := DefaultEngineConfig()
	cfg.CleanupLeakExitCode = 999
	assert.Error(t, v.Validate(&cfg))
}
