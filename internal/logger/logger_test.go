package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/verdant-ops/gardenledger/internal/config"
)

func TestBuildConfig(t *testing.T) {
	tests := []struct {
		name         string
		logging      config.LoggingConfig
		env          string
		wantEncoding string
		wantLevel    zapcore.Level
	}{
		{"development console", config.LoggingConfig{Level: "debug", Format: "console"}, "development", "console", zapcore.DebugLevel},
		{"json format", config.LoggingConfig{Level: "warn", Format: "json"}, "development", "json", zapcore.WarnLevel},
		{"production forces json", config.LoggingConfig{Level: "info", Format: "console"}, "production", "json", zapcore.InfoLevel},
		{"invalid level falls back to info", config.LoggingConfig{Level: "loud"}, "development", "console", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := buildConfig(&tt.logging, &config.AppConfig{Name: "gardenledger", Environment: tt.env})
			assert.Equal(t, tt.wantEncoding, cfg.Encoding)
			assert.Equal(t, tt.wantLevel, cfg.Level.Level())
			assert.Equal(t, tt.env, cfg.InitialFields["environment"])
		})
	}
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(&config.LoggingConfig{Level: "info", Format: "json"}, &config.AppConfig{Name: "gardenledger"})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestContextHelpers(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	WithPlan(WithAccount(WithRequest(base, "POST", "/api/v1/plans", "req-1"), "acc-1", "user-1"), "plan-1").
		Info("closed")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "acc-1", fields["account_id"])
	assert.Equal(t, "user-1", fields["user_id"])
	assert.Equal(t, "plan-1", fields["plan_id"])
}
