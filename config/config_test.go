package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"DB_HOST", "DB_PORT", "SERVER_PORT", "ALLOCATION_WORKERS", "SCHEDULER_ENABLED", "LOCK_DEADLINE"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 1, cfg.AllocationWorkers)
	assert.False(t, cfg.SchedulerEnabled)
	assert.Equal(t, "22:00", cfg.LockDeadline)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("ALLOCATION_WORKERS", "4")
	t.Setenv("RABBITMQ_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, 4, cfg.AllocationWorkers)
	assert.False(t, cfg.RabbitEnabled)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Contains(t, cfg.DSN(), "host=db port=6543")
}

func TestLoad_BadNumberFallsBack(t *testing.T) {
	t.Setenv("ALLOCATION_WORKERS", "many")
	assert.Equal(t, 1, Load().AllocationWorkers)
}

func TestDeadline(t *testing.T) {
	cfg := &Config{LockDeadline: "21:30"}
	h, m, err := cfg.Deadline()
	require.NoError(t, err)
	assert.Equal(t, 21, h)
	assert.Equal(t, 30, m)

	cfg.LockDeadline = "late"
	_, _, err = cfg.Deadline()
	assert.Error(t, err)
}

func TestLocation(t *testing.T) {
	_, err := (&Config{Timezone: "UTC"}).Location()
	require.NoError(t, err)

	_, err = (&Config{Timezone: "Mars/Olympus"}).Location()
	assert.Error(t, err)
}
