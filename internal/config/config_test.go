package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSecrets map[string]string

func (m mapSecrets) GetSecretOrEnv(_ context.Context, secretName, _ string) (string, error) {
	if v, ok := m[secretName]; ok {
		return v, nil
	}
	return "", errors.New("secret not found")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 25, cfg.Maintenance.OverdueThresholdDays)
	assert.Equal(t, 6, cfg.Maintenance.SummaryWindowMonths)
	assert.Equal(t, 30*time.Second, cfg.Maintenance.StoreTimeoutDuration())
	assert.False(t, cfg.Maintenance.DigestEnabled)
	assert.Equal(t, 60*time.Second, cfg.Server.RequestTimeoutDuration())
	assert.Contains(t, cfg.RateLimit.WhitelistPaths, "/health")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("MAINTENANCE_OVERDUETHRESHOLDDAYS", "30")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "shh")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Maintenance.OverdueThresholdDays)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "shh", cfg.Auth.JWTSecret)
}

func TestLoad_RejectsNonPositiveThreshold(t *testing.T) {
	t.Setenv("MAINTENANCE_OVERDUETHRESHOLDDAYS", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "require"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=require", d.ConnectionString())
}

func TestApplySecrets(t *testing.T) {
	t.Run("postgres credentials and tokens", func(t *testing.T) {
		cfg := &Config{Database: DatabaseConfig{Driver: "postgres", Host: "localhost", Password: "local"}}
		src := mapSecrets{
			"POSTGRES-MAIN-HOST":        "prod-db",
			"POSTGRES-MAIN-PASSWORD":    "prod-pass",
			"jwt-signing-secret":        "signing",
			"admin-api-key":             "key",
			"storage-connection-string": "conn",
		}

		require.NoError(t, applySecrets(context.Background(), cfg, src))

		assert.Equal(t, "prod-db", cfg.Database.Host)
		assert.Equal(t, "prod-pass", cfg.Database.Password)
		assert.Equal(t, "signing", cfg.Auth.JWTSecret)
		assert.Equal(t, "key", cfg.ApiKey.Value)
		assert.Equal(t, "conn", cfg.Storage.CloudConnectionString)
	})

	t.Run("missing database password fails", func(t *testing.T) {
		cfg := &Config{Database: DatabaseConfig{Driver: "postgres"}}
		err := applySecrets(context.Background(), cfg, mapSecrets{})
		assert.Error(t, err)
	})

	t.Run("sqlite needs no database secrets", func(t *testing.T) {
		cfg := &Config{Database: DatabaseConfig{Driver: "sqlite"}, Auth: AuthConfig{JWTSecret: "keep"}}
		require.NoError(t, applySecrets(context.Background(), cfg, mapSecrets{}))
		assert.Equal(t, "keep", cfg.Auth.JWTSecret)
	})
}
