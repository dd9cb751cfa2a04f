package telemetry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.False(t, cfg.Development)
	assert.True(t, cfg.JSONOutput)
}

func TestDevelopmentConfig(t *testing.T) {
	cfg := DevelopmentConfig()
	assert.Equal(t, "debug", cfg.Level)
	assert.True(t, cfg.Development)
	assert.False(t, cfg.JSONOutput)
}

func TestNewLoggerAllLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "unknown"} {
		t.Run(level, func(t *testing.T) {
			logger := newLogger(Config{Level: level, JSONOutput: true})
			require.NotNil(t, logger)
		})
	}
}

func TestLInitializesLazily(t *testing.T) {
	global = nil
	once = sync.Once{}
	require.NotNil(t, L())
}

func TestWithAddsFields(t *testing.T) {
	logger := With(zap.String("session", "abc"))
	require.NotNil(t, logger)
}

func TestSyncNoPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = Sync()
	})
}
