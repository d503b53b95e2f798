package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, StorageFile, cfg.Storage.Backend)
	assert.Equal(t, "tr_tracker_state", cfg.Storage.SlotKey)
	assert.Equal(t, 500*time.Millisecond, cfg.Tracker.GoalDelay)
	assert.Equal(t, 10, cfg.Tracker.SaveEvery)
	assert.Equal(t, 3*time.Second, cfg.Relay.ReconnectDelay)
	assert.Equal(t, 8000, cfg.Detector.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Database.MaxConnLifetime)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TRACKER_STORAGE", "Redis")
	t.Setenv("TRACKER_GOAL_DELAY", "0s")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRACKER_SAVE_EVERY", "not-a-number")
	t.Setenv("DATABASE_MAX_CONN_LIFETIME", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageRedis, cfg.Storage.Backend)
	assert.Equal(t, time.Duration(0), cfg.Tracker.GoalDelay)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 10, cfg.Tracker.SaveEvery)
	assert.Equal(t, 5*time.Minute, cfg.Database.MaxConnLifetime)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"SERVER_PORT": "70000"}},
		{"unknown backend", map[string]string{"TRACKER_STORAGE": "s3"}},
		{"empty state file", map[string]string{"TRACKER_STATE_FILE": ""}},
		{"zero save interval", map[string]string{"TRACKER_SAVE_EVERY": "0"}},
		{"negative goal delay", map[string]string{"TRACKER_GOAL_DELAY": "-1s"}},
		{"relay without url", map[string]string{"TRACKER_RELAY_URL": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
