package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Config holds the configuration for the J.E.E.V.E.S. time-of-day agent
type Config struct {
	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Postgres configuration
	PostgresHost               string
	PostgresPort               int
	PostgresUser               string
	PostgresPassword           string
	PostgresDB                 string
	PostgresSSLMode            string
	PostgresMaxConnections     int
	PostgresMaxIdleConnections int
	PostgresConnMaxLifetime    time.Duration

	// Service configuration
	ServiceName string
	HealthPort  int
	LogLevel    string

	// Log file rotation (empty LogFile disables file output)
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// Location configuration
	LocationPreset string
	PresetFile     string
	Latitude       float64
	Longitude      float64
	UTCOffset      int

	// Simulated clock configuration
	StartDate      string // YYYY-MM-DD, empty means today
	StartTimeHours float64
	TimeScale      float64 // simulated seconds per real second
	TickIntervalMs int

	// Day/night configuration
	TwilightLowerBound float64
	TwilightUpperBound float64
	SpaceRampStart     float64
	SpaceThreshold     float64
	ObserverAltitude   float64
	SmoothingMode      string
	SmoothingRate      float64

	// Scenario configuration
	SceneName         string
	CatalogSource     string // file, redis, or postgres
	CatalogPath       string
	ScenarioLeadHours float64
	SweepStepHours    float64
	SweepSkipOddHours bool

	// Publishing configuration
	MinPublishIntervalMs int
	SnapshotTTLSec       int
	MaxTransitionHistory int
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:                 "localhost",
		MQTTPort:                   1883,
		RedisHost:                  "localhost",
		RedisPort:                  6379,
		RedisDB:                    0,
		PostgresHost:               "localhost",
		PostgresPort:               5432,
		PostgresUser:               "jeeves",
		PostgresDB:                 "jeeves",
		PostgresSSLMode:            "disable",
		PostgresMaxConnections:     5,
		PostgresMaxIdleConnections: 2,
		PostgresConnMaxLifetime:    30 * time.Minute,
		ServiceName:                "timeofday-agent",
		HealthPort:                 8080,
		LogLevel:                   "info",
		LogMaxSizeMB:               50,
		LogMaxBackups:              3,
		LogMaxAgeDays:              7,
		// Cologne
		LocationPreset: "Cologne",
		Latitude:       50.9375,
		Longitude:      6.9603,
		UTCOffset:      1,
		StartTimeHours: 12,
		TimeScale:      1,
		TickIntervalMs: 1000,
		// Ramp the day weight from the horizon to nautical twilight
		TwilightLowerBound:   0,
		TwilightUpperBound:   0.1,
		SpaceRampStart:       10000,
		SpaceThreshold:       100000,
		SmoothingMode:        "exponential",
		SmoothingRate:        2,
		SceneName:            "Scene",
		CatalogSource:        "file",
		CatalogPath:          "scenarios.yaml",
		ScenarioLeadHours:    0.001,
		SweepStepHours:       1,
		SweepSkipOddHours:    true,
		MinPublishIntervalMs: 5000,
		SnapshotTTLSec:       300,
		MaxTransitionHistory: 50,
	}
}

// LoadFromEnv loads configuration from environment variables with JEEVES_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	envString("JEEVES_MQTT_BROKER", &c.MQTTBroker)
	envInt("JEEVES_MQTT_PORT", &c.MQTTPort)
	envString("JEEVES_MQTT_USER", &c.MQTTUser)
	envString("JEEVES_MQTT_PASSWORD", &c.MQTTPassword)
	envString("JEEVES_MQTT_CLIENT_ID", &c.MQTTClientID)

	// Redis configuration
	envString("JEEVES_REDIS_HOST", &c.RedisHost)
	envInt("JEEVES_REDIS_PORT", &c.RedisPort)
	envString("JEEVES_REDIS_PASSWORD", &c.RedisPassword)
	envInt("JEEVES_REDIS_DB", &c.RedisDB)

	// Postgres configuration
	envString("JEEVES_POSTGRES_HOST", &c.PostgresHost)
	envInt("JEEVES_POSTGRES_PORT", &c.PostgresPort)
	envString("JEEVES_POSTGRES_USER", &c.PostgresUser)
	envString("JEEVES_POSTGRES_PASSWORD", &c.PostgresPassword)
	envString("JEEVES_POSTGRES_DB", &c.PostgresDB)
	envString("JEEVES_POSTGRES_SSLMODE", &c.PostgresSSLMode)

	// Service configuration
	envString("JEEVES_SERVICE_NAME", &c.ServiceName)
	envInt("JEEVES_HEALTH_PORT", &c.HealthPort)
	envString("JEEVES_LOG_LEVEL", &c.LogLevel)
	envString("JEEVES_LOG_FILE", &c.LogFile)

	// Location configuration
	envString("JEEVES_LOCATION_PRESET", &c.LocationPreset)
	envString("JEEVES_PRESET_FILE", &c.PresetFile)
	if envFloat("JEEVES_LATITUDE", &c.Latitude) ||
		envFloat("JEEVES_LONGITUDE", &c.Longitude) ||
		envInt("JEEVES_UTC_OFFSET", &c.UTCOffset) {
		// explicit coordinates win over the default preset
		if os.Getenv("JEEVES_LOCATION_PRESET") == "" {
			c.LocationPreset = "Custom"
		}
	}

	// Simulated clock configuration
	envString("JEEVES_START_DATE", &c.StartDate)
	envFloat("JEEVES_START_TIME_HOURS", &c.StartTimeHours)
	envFloat("JEEVES_TIME_SCALE", &c.TimeScale)
	envInt("JEEVES_TICK_INTERVAL_MS", &c.TickIntervalMs)

	// Day/night configuration
	envFloat("JEEVES_TWILIGHT_LOWER", &c.TwilightLowerBound)
	envFloat("JEEVES_TWILIGHT_UPPER", &c.TwilightUpperBound)
	envFloat("JEEVES_SPACE_RAMP_START", &c.SpaceRampStart)
	envFloat("JEEVES_SPACE_THRESHOLD", &c.SpaceThreshold)
	envFloat("JEEVES_OBSERVER_ALTITUDE", &c.ObserverAltitude)
	envString("JEEVES_SMOOTHING_MODE", &c.SmoothingMode)
	envFloat("JEEVES_SMOOTHING_RATE", &c.SmoothingRate)

	// Scenario configuration
	envString("JEEVES_SCENE_NAME", &c.SceneName)
	envString("JEEVES_CATALOG_SOURCE", &c.CatalogSource)
	envString("JEEVES_CATALOG_PATH", &c.CatalogPath)
	envFloat("JEEVES_SCENARIO_LEAD_HOURS", &c.ScenarioLeadHours)
	envFloat("JEEVES_SWEEP_STEP_HOURS", &c.SweepStepHours)
	envBool("JEEVES_SWEEP_SKIP_ODD_HOURS", &c.SweepSkipOddHours)

	// Publishing configuration
	envInt("JEEVES_MIN_PUBLISH_INTERVAL_MS", &c.MinPublishIntervalMs)
	envInt("JEEVES_SNAPSHOT_TTL_SEC", &c.SnapshotTTLSec)
	envInt("JEEVES_MAX_TRANSITION_HISTORY", &c.MaxTransitionHistory)
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	c.RegisterFlags(pflag.CommandLine)
	pflag.Parse()
}

// RegisterFlags binds every option to fs with the current values as defaults
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	// MQTT flags
	fs.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	fs.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	fs.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	fs.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	fs.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	fs.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	fs.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	fs.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	fs.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	fs.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres user")
	fs.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	fs.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database")
	fs.StringVar(&c.PostgresSSLMode, "postgres-sslmode", c.PostgresSSLMode, "Postgres SSL mode")

	// Service flags
	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	fs.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Also write logs to this rotated file")

	// Location flags
	fs.StringVar(&c.LocationPreset, "location", c.LocationPreset, "Location preset (Greenwich, Cologne, Dubrovnik, Tokyo, NewYork, Custom)")
	fs.StringVar(&c.PresetFile, "preset-file", c.PresetFile, "YAML file with additional location presets")
	fs.Float64Var(&c.Latitude, "latitude", c.Latitude, "Latitude in degrees (Custom location)")
	fs.Float64Var(&c.Longitude, "longitude", c.Longitude, "Longitude in degrees (Custom location)")
	fs.IntVar(&c.UTCOffset, "utc-offset", c.UTCOffset, "UTC offset in hours (Custom location)")

	// Clock flags
	fs.StringVar(&c.StartDate, "date", c.StartDate, "Simulated start date YYYY-MM-DD (default today)")
	fs.Float64Var(&c.StartTimeHours, "time", c.StartTimeHours, "Simulated start time of day in hours")
	fs.Float64Var(&c.TimeScale, "time-scale", c.TimeScale, "Simulated seconds per real second (0 freezes the clock)")
	fs.IntVar(&c.TickIntervalMs, "tick-interval-ms", c.TickIntervalMs, "Evaluation tick interval in milliseconds")

	// Day/night flags
	fs.Float64Var(&c.TwilightLowerBound, "twilight-lower", c.TwilightLowerBound, "Sun dot-up value where the day weight leaves 0")
	fs.Float64Var(&c.TwilightUpperBound, "twilight-upper", c.TwilightUpperBound, "Sun dot-up value where the day weight reaches 1")
	fs.Float64Var(&c.SpaceRampStart, "space-ramp-start", c.SpaceRampStart, "Observer altitude where the space weight leaves 0")
	fs.Float64Var(&c.SpaceThreshold, "space-threshold", c.SpaceThreshold, "Observer altitude where the space weight reaches 1")
	fs.Float64Var(&c.ObserverAltitude, "altitude", c.ObserverAltitude, "Observer altitude")
	fs.StringVar(&c.SmoothingMode, "smoothing", c.SmoothingMode, "Direction smoothing (disabled, frame, exponential)")
	fs.Float64Var(&c.SmoothingRate, "smoothing-rate", c.SmoothingRate, "Exponential smoothing rate per second")

	// Scenario flags
	fs.StringVar(&c.SceneName, "scene", c.SceneName, "Scene name used as scenario prefix")
	fs.StringVar(&c.CatalogSource, "catalog", c.CatalogSource, "Scenario catalog source (file, redis, postgres)")
	fs.StringVar(&c.CatalogPath, "catalog-path", c.CatalogPath, "Scenario catalog file (file source)")
	fs.Float64Var(&c.ScenarioLeadHours, "scenario-lead", c.ScenarioLeadHours, "Hours added to the clock before blending")
	fs.Float64Var(&c.SweepStepHours, "sweep-step", c.SweepStepHours, "Sweep step in hours")
	fs.BoolVar(&c.SweepSkipOddHours, "sweep-skip-odd", c.SweepSkipOddHours, "Skip odd hours during a sweep")

	// Publishing flags
	fs.IntVar(&c.MinPublishIntervalMs, "min-publish-interval-ms", c.MinPublishIntervalMs, "Minimum time between snapshot publishes (ms)")
	fs.IntVar(&c.SnapshotTTLSec, "snapshot-ttl", c.SnapshotTTLSec, "Redis snapshot TTL in seconds")
	fs.IntVar(&c.MaxTransitionHistory, "max-transition-history", c.MaxTransitionHistory, "Day/night transitions kept in Redis")
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	if c.UTCOffset < -12 || c.UTCOffset > 14 {
		return fmt.Errorf("UTC offset must be between -12 and 14")
	}
	if c.StartTimeHours < 0 || c.StartTimeHours >= 24 {
		return fmt.Errorf("start time must be in [0, 24)")
	}
	if c.StartDate != "" {
		if _, err := time.Parse(time.DateOnly, c.StartDate); err != nil {
			return fmt.Errorf("invalid start date %q: %w", c.StartDate, err)
		}
	}
	if c.TimeScale < 0 {
		return fmt.Errorf("time scale must not be negative")
	}
	if c.TickIntervalMs <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if c.TwilightUpperBound < c.TwilightLowerBound {
		return fmt.Errorf("twilight upper bound must not be below the lower bound")
	}
	if c.SweepStepHours <= 0 || c.SweepStepHours > 24 {
		return fmt.Errorf("sweep step must be in (0, 24]")
	}

	switch strings.ToLower(c.CatalogSource) {
	case "file":
		if c.CatalogPath == "" {
			return fmt.Errorf("catalog path is required for the file catalog")
		}
	case "redis", "postgres":
	default:
		return fmt.Errorf("invalid catalog source: %s (must be file, redis, or postgres)", c.CatalogSource)
	}

	return nil
}

// StartClockDate resolves StartDate, falling back to now's UTC date
func (c *Config) StartClockDate(now time.Time) (time.Time, error) {
	if c.StartDate == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(time.DateOnly, c.StartDate)
}

// TickInterval returns the evaluation tick interval
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns the lib/pq connection string
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}

func envString(key string, dst *string) bool {
	if v := os.Getenv(key); v != "" {
		*dst = v
		return true
	}
	return false
}

func envInt(key string, dst *int) bool {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
			return true
		}
	}
	return false
}

func envFloat(key string, dst *float64) bool {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
			return true
		}
	}
	return false
}

func envBool(key string, dst *bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
			return true
		}
	}
	return false
}
