package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "stockwatch", cfg.App.Name)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "stockwatch.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, 2*time.Second, cfg.Monitor.PartitionPause)
	assert.True(t, cfg.Scraper.Headless)
	assert.Equal(t, 100*time.Millisecond, cfg.Scraper.TypeDelay)
	assert.Equal(t, "https://api.telegram.org", cfg.Telegram.APIBaseURL)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("STOCKWATCH_MONITOR_INTERVAL", "90s")
	t.Setenv("STOCKWATCH_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: "sqlite", Path: "x.db"},
			Monitor:  MonitorConfig{Interval: time.Second},
			Scraper:  ScraperConfig{BaseURL: "https://example.com"},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		cfg := base()
		cfg.Database.Driver = "oracle"
		assert.Error(t, cfg.Validate())
	})

	t.Run("sqlite requires a path", func(t *testing.T) {
		cfg := base()
		cfg.Database.Path = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		cfg := base()
		cfg.Monitor.Interval = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("requires a base URL", func(t *testing.T) {
		cfg := base()
		cfg.Scraper.BaseURL = ""
		assert.Error(t, cfg.Validate())
	})
}

func TestPostgresDSN(t *testing.T) {
	db := DatabaseConfig{Host: "localhost", Port: 5432, User: "u", Password: "p", DBName: "stock", SSLMode: "disable"}
	assert.Equal(t, "host=localhost port=5432 user=u password=p dbname=stock sslmode=disable", db.DSN())
}
