package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInit_Development verifies logger initialization in development mode.
func TestInit_Development(t *testing.T) {
	err := Init("development", "debug")
	require.NoError(t, err)
	assert.NotNil(t, Get())
	assert.True(t, Get().Core().Enabled(0)) // InfoLevel enabled
}

// TestInit_Production verifies logger initialization in production mode.
func TestInit_Production(t *testing.T) {
	err := Init("production", "warn")
	require.NoError(t, err)
	assert.NotNil(t, Get())
}

// TestInit_InvalidLevel verifies that an unparseable level falls back to the config default.
func TestInit_InvalidLevel(t *testing.T) {
	err := Init("development", "not-a-level")
	require.NoError(t, err)
	assert.NotNil(t, Get())
}

// TestGet_Uninitialized verifies that Get never returns nil.
func TestGet_Uninitialized(t *testing.T) {
	globalLogger = nil
	assert.NotNil(t, Get())
	Sync() // must not panic
}
