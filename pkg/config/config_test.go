package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_DefaultsAreValid(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Cologne", cfg.LocationPreset)
	assert.Equal(t, 0.001, cfg.ScenarioLeadHours)
	assert.Equal(t, 0.1, cfg.TwilightUpperBound)
	assert.Equal(t, time.Second, cfg.TickInterval())
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTAddress())
	assert.Equal(t, "localhost:6379", cfg.RedisAddress())
	assert.Contains(t, cfg.PostgresConnectionString(), "dbname=jeeves")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JEEVES_MQTT_BROKER", "mosquitto")
	t.Setenv("JEEVES_TIME_SCALE", "60")
	t.Setenv("JEEVES_SWEEP_SKIP_ODD_HOURS", "false")
	t.Setenv("JEEVES_CATALOG_SOURCE", "postgres")
	t.Setenv("JEEVES_TICK_INTERVAL_MS", "not-a-number")

	cfg := NewConfig()
	cfg.LoadFromEnv()

	assert.Equal(t, "mosquitto", cfg.MQTTBroker)
	assert.Equal(t, 60.0, cfg.TimeScale)
	assert.False(t, cfg.SweepSkipOddHours)
	assert.Equal(t, "postgres", cfg.CatalogSource)
	assert.Equal(t, 1000, cfg.TickIntervalMs, "unparseable values keep the default")
	assert.Equal(t, "Cologne", cfg.LocationPreset)
}

func TestLoadFromEnv_CoordinatesSelectCustom(t *testing.T) {
	t.Setenv("JEEVES_LATITUDE", "64.1466")
	t.Setenv("JEEVES_LONGITUDE", "-21.9426")

	cfg := NewConfig()
	cfg.LoadFromEnv()

	assert.Equal(t, "Custom", cfg.LocationPreset)
	assert.Equal(t, 64.1466, cfg.Latitude)
	assert.Equal(t, -21.9426, cfg.Longitude)
}

func TestRegisterFlags(t *testing.T) {
	cfg := NewConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--location", "Tokyo",
		"--time", "6.5",
		"--smoothing", "frame",
		"--catalog", "redis",
		"--sweep-skip-odd=false",
	}))

	assert.Equal(t, "Tokyo", cfg.LocationPreset)
	assert.Equal(t, 6.5, cfg.StartTimeHours)
	assert.Equal(t, "frame", cfg.SmoothingMode)
	assert.Equal(t, "redis", cfg.CatalogSource)
	assert.False(t, cfg.SweepSkipOddHours)
	assert.Equal(t, "localhost", cfg.MQTTBroker)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"latitude", func(c *Config) { c.Latitude = 91 }},
		{"longitude", func(c *Config) { c.Longitude = -181 }},
		{"utc offset", func(c *Config) { c.UTCOffset = 15 }},
		{"start time", func(c *Config) { c.StartTimeHours = 24 }},
		{"start date", func(c *Config) { c.StartDate = "21.06.2024" }},
		{"time scale", func(c *Config) { c.TimeScale = -1 }},
		{"tick interval", func(c *Config) { c.TickIntervalMs = 0 }},
		{"twilight band", func(c *Config) { c.TwilightLowerBound = 0.2 }},
		{"sweep step", func(c *Config) { c.SweepStepHours = 0 }},
		{"catalog source", func(c *Config) { c.CatalogSource = "s3" }},
		{"catalog path", func(c *Config) { c.CatalogPath = "" }},
		{"log level", func(c *Config) { c.LogLevel = "trace" }},
		{"mqtt port", func(c *Config) { c.MQTTPort = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestStartClockDate(t *testing.T) {
	now := time.Date(2024, 6, 21, 23, 30, 0, 0, time.FixedZone("X", -3*3600))

	cfg := NewConfig()
	date, err := cfg.StartClockDate(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 22, 0, 0, 0, 0, time.UTC), date)

	cfg.StartDate = "2024-03-20"
	date, err = cfg.StartClockDate(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), date)
}
