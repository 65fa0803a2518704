package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loxvm/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("LOXVM_TRACE")
	os.Unsetenv("LOXVM_STACK_MAX")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.False(t, cfg.Trace)
	assert.Equal(t, 16384, cfg.StackMax)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LOXVM_TRACE", "true")
	t.Setenv("LOXVM_STACK_MAX", "256")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.Trace)
	assert.Equal(t, 256, cfg.StackMax)
}
