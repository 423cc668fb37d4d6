package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, 5, cfg.StockMaxAttempts)
	assert.Equal(t, 0.1, cfg.PaymentTolerance)
	assert.Equal(t, time.Hour, cfg.DraftRetention)
	assert.Equal(t, 10*time.Minute, cfg.DraftSweepInterval)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/retail")
	t.Setenv("STOCK_MAX_ATTEMPTS", "9")
	t.Setenv("PAYMENT_TOLERANCE", "0.05")
	t.Setenv("DRAFT_RETENTION", "30m")
	t.Setenv("DRAFT_SWEEP_INTERVAL", "nonsense")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 9, cfg.StockMaxAttempts)
	assert.Equal(t, 0.05, cfg.PaymentTolerance)
	assert.Equal(t, 30*time.Minute, cfg.DraftRetention)
	assert.Equal(t, 10*time.Minute, cfg.DraftSweepInterval)
}

func TestLoad_Rejects(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("STORAGE_DRIVER", "sqlite")
	_, err = Load()
	require.Error(t, err)
}
