package environment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/saaga0h/jeeves-timeofday/internal/astro"
	"github.com/saaga0h/jeeves-timeofday/internal/daynight"
	"github.com/saaga0h/jeeves-timeofday/internal/scenario"
	"github.com/saaga0h/jeeves-timeofday/pkg/config"
	"github.com/saaga0h/jeeves-timeofday/pkg/mqtt"
	"github.com/saaga0h/jeeves-timeofday/pkg/redis"
)

const snapshotPublishKey = "snapshot"

// Agent drives a Controller from a ticker and publishes its output
type Agent struct {
	mqtt       mqtt.Client
	redis      redis.Client
	catalog    scenario.Catalog
	controller *Controller
	cfg        *config.Config
	logger     *slog.Logger

	rateLimiter *RateLimiter

	// Periodic tick loop
	tickMux  sync.Mutex
	lastTick time.Time
	now      func() time.Time
	ticker   *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewAgent creates a new time-of-day agent
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, catalog scenario.Catalog, controller *Controller, cfg *config.Config, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}

	return &Agent{
		mqtt:        mqttClient,
		redis:       redisClient,
		catalog:     catalog,
		controller:  controller,
		cfg:         cfg,
		logger:      logger,
		rateLimiter: NewRateLimiter(),
		now:         time.Now,
		stopChan:    make(chan struct{}),
	}
}

// Start connects, publishes the initial state and runs until ctx is cancelled
func (a *Agent) Start(ctx context.Context) error {
	location := a.controller.Location()
	a.logger.Info("Starting time-of-day agent",
		"service_name", a.cfg.ServiceName,
		"scene", a.cfg.SceneName,
		"latitude", location.Latitude,
		"longitude", location.Longitude,
		"utc_offset", location.UTCOffsetHours,
		"time_scale", a.cfg.TimeScale,
		"tick_interval_ms", a.cfg.TickIntervalMs,
		"catalog", a.cfg.CatalogSource)

	// Connect to MQTT broker
	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	// Verify Redis connection
	if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	if err := a.RefreshScenarios(ctx); err != nil {
		// An unreachable catalog leaves the blend neutral; sky output still works
		a.logger.Warn("Failed to load scenario catalog", "error", err)
	}

	if err := a.mqtt.Subscribe(mqtt.TopicCommandAll, 0, a.handleCommandMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", mqtt.TopicCommandAll, err)
	}
	a.logger.Info("Subscribed to time-of-day commands", "topic", mqtt.TopicCommandAll)

	a.tickMux.Lock()
	a.lastTick = a.now()
	a.tickMux.Unlock()
	a.publishEvaluation(ctx)

	a.startTickLoop()

	a.logger.Info("Time-of-day agent started and ready")

	// Block until context is cancelled
	<-ctx.Done()
	a.logger.Info("Time-of-day agent stopping")

	return nil
}

// Stop gracefully stops the agent
func (a *Agent) Stop() error {
	a.logger.Info("Stopping time-of-day agent")

	a.stopOnce.Do(func() {
		if a.ticker != nil {
			a.ticker.Stop()
		}
		close(a.stopChan)
	})

	// Disconnect from MQTT
	a.mqtt.Disconnect()

	// Close Redis connection
	if err := a.redis.Close(); err != nil {
		a.logger.Error("Error closing Redis connection", "error", err)
		return err
	}

	a.logger.Info("Time-of-day agent stopped")
	return nil
}

func (a *Agent) startTickLoop() {
	a.ticker = time.NewTicker(a.cfg.TickInterval())

	go func() {
		a.logger.Info("Starting tick loop", "interval_ms", a.cfg.TickIntervalMs)
		for {
			select {
			case <-a.ticker.C:
				a.Tick(context.Background())
			case <-a.stopChan:
				return
			}
		}
	}()
}

// Tick advances the controller by the real time since the previous tick and
// publishes the result, subject to the publish interval
func (a *Agent) Tick(ctx context.Context) Snapshot {
	a.tickMux.Lock()
	now := a.now()
	elapsed := now.Sub(a.lastTick).Seconds()
	if a.lastTick.IsZero() || elapsed < 0 {
		elapsed = 0
	}
	a.lastTick = now
	a.tickMux.Unlock()

	snap, transitions := a.controller.Tick(elapsed)
	a.publishTransitions(ctx, snap, transitions)

	minInterval := time.Duration(a.cfg.MinPublishIntervalMs) * time.Millisecond
	if len(transitions) > 0 {
		a.rateLimiter.RecordPublish(snapshotPublishKey)
		a.publishSnapshot(ctx, snap)
	} else if a.rateLimiter.ShouldPublish(snapshotPublishKey, minInterval) {
		a.publishSnapshot(ctx, snap)
	}

	return snap
}

// RefreshScenarios reloads scenario names from the catalog
func (a *Agent) RefreshScenarios(ctx context.Context) error {
	if a.catalog == nil {
		return nil
	}

	names, err := a.catalog.Names(ctx)
	if err != nil {
		return fmt.Errorf("failed to list scenarios: %w", err)
	}

	scheduled := a.controller.RebuildScenarios(names)
	a.logger.Info("Scenario catalog refreshed",
		"names", len(names),
		"scheduled", scheduled,
		"skipped", len(names)-scheduled)
	return nil
}

// publishEvaluation snaps to the current state and publishes it unthrottled
func (a *Agent) publishEvaluation(ctx context.Context) Snapshot {
	snap, transitions := a.controller.Evaluate()
	a.publishTransitions(ctx, snap, transitions)
	a.rateLimiter.RecordPublish(snapshotPublishKey)
	a.publishSnapshot(ctx, snap)
	return snap
}

// Command payloads

type presetCommand struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	UTCOffset *int     `json:"utc_offset,omitempty"`
}

type timeCommand struct {
	TimeOfDayHours *float64 `json:"time_of_day_hours"`
	Date           string   `json:"date,omitempty"`
	Altitude       *float64 `json:"altitude,omitempty"`
}

// handleCommandMessage handles automation/command/timeofday/{command}
func (a *Agent) handleCommandMessage(msg mqtt.Message) {
	ctx := context.Background()
	command := mqtt.CommandName(msg.Topic())

	var err error
	switch command {
	case "preset":
		err = a.handlePresetCommand(msg.Payload())
	case "time":
		err = a.handleTimeCommand(msg.Payload())
	case "refresh":
		err = a.RefreshScenarios(ctx)
	default:
		a.logger.Warn("Unknown time-of-day command", "topic", msg.Topic())
		return
	}

	if err != nil {
		a.logger.Error("Failed to handle command", "command", command, "error", err)
		return
	}

	snap := a.publishEvaluation(ctx)
	a.logger.Info("Command applied",
		"command", command,
		"time_of_day", scenario.FormatHours(snap.Clock.TimeOfDayHours),
		"latitude", snap.Location.Latitude,
		"longitude", snap.Location.Longitude,
		"is_day", snap.DayNight.IsDay)
}

func (a *Agent) handlePresetCommand(payload []byte) error {
	var cmd presetCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("failed to parse preset command: %w", err)
	}

	if astro.IsCustomPreset(cmd.Name) {
		location := a.controller.Location()
		if cmd.Latitude != nil {
			location.Latitude = *cmd.Latitude
		}
		if cmd.Longitude != nil {
			location.Longitude = *cmd.Longitude
		}
		if cmd.UTCOffset != nil {
			location.UTCOffsetHours = *cmd.UTCOffset
		}
		if err := location.Validate(); err != nil {
			return err
		}
		a.controller.SetLocation(location)
		return nil
	}

	_, err := a.controller.ApplyPreset(cmd.Name)
	return err
}

func (a *Agent) handleTimeCommand(payload []byte) error {
	var cmd timeCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("failed to parse time command: %w", err)
	}

	clock := a.controller.Clock()
	if cmd.Date != "" {
		date, err := time.Parse(time.DateOnly, cmd.Date)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", cmd.Date, err)
		}
		clock = astro.ClockFromTime(date, 0).WithTimeOfDay(clock.TimeOfDayHours)
	}
	if cmd.TimeOfDayHours != nil {
		clock = clock.WithTimeOfDay(*cmd.TimeOfDayHours)
	}
	if cmd.Date == "" && cmd.TimeOfDayHours == nil && cmd.Altitude == nil {
		return errors.New("time command needs time_of_day_hours, date or altitude")
	}

	a.controller.SetClock(clock)
	if cmd.Altitude != nil {
		a.controller.SetObserverAltitude(*cmd.Altitude)
	}
	return nil
}

// Publishing

func (a *Agent) publishSnapshot(ctx context.Context, snap Snapshot) {
	timestamp := a.now().UTC().Format(time.RFC3339)

	sky := map[string]interface{}{
		"scene":           snap.Scene,
		"instant":         snap.Instant.Format(time.RFC3339),
		"time_of_day":     scenario.FormatHours(snap.Clock.TimeOfDayHours),
		"location":        snap.Location,
		"sun":             snap.Sun,
		"moon":            snap.Moon,
		"sun_times":       snap.SunTimes,
		"galactic_up":     snap.GalacticUp,
		"solar_system_up": snap.SolarSystemUp,
		"sun_displayed":   snap.SunDisplayed,
		"moon_displayed":  snap.MoonDisplayed,
		"lighting":        snap.Lighting,
		"timestamp":       timestamp,
	}
	dayNight := map[string]interface{}{
		"scene":          snap.Scene,
		"phase":          string(snap.DayNight.Phase()),
		"is_day":         snap.DayNight.IsDay,
		"day_weight":     snap.DayNight.DayWeight,
		"space_weight":   snap.SpaceWeight,
		"daylight_phase": snap.Sun.DaylightPhase,
		"timestamp":      timestamp,
	}
	blend := map[string]interface{}{
		"scene":        snap.Scene,
		"from":         snap.Blend.From,
		"to":           snap.Blend.To,
		"blend_factor": snap.Blend.BlendFactor,
		"time_of_day":  snap.Clock.TimeOfDayHours,
		"timestamp":    timestamp,
	}

	a.publishJSON(mqtt.TopicContextSky, sky)
	a.publishJSON(mqtt.TopicContextDayNight, dayNight)
	a.publishJSON(mqtt.TopicContextBlend, blend)

	a.cacheSnapshot(ctx, snap)
}

func (a *Agent) publishTransitions(ctx context.Context, snap Snapshot, transitions []daynight.Transition) {
	for _, tr := range transitions {
		event := map[string]interface{}{
			"scene":         snap.Scene,
			"from":          string(tr.From),
			"to":            string(tr.To),
			"instant":       snap.Instant.Format(time.RFC3339),
			"time_of_day":   scenario.FormatHours(snap.Clock.TimeOfDayHours),
			"sun_elevation": snap.Sun.ElevationDeg,
			"timestamp":     a.now().UTC().Format(time.RFC3339),
		}

		a.logger.Info("Day/night transition",
			"scene", snap.Scene,
			"from", tr.From,
			"to", tr.To,
			"time_of_day", scenario.FormatHours(snap.Clock.TimeOfDayHours),
			"sun_elevation", snap.Sun.ElevationDeg)

		a.publishJSON(mqtt.DayNightEventTopic(string(tr.To)), event)
		a.recordTransition(ctx, snap.Scene, event)
	}
}

func (a *Agent) publishJSON(topic string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		a.logger.Error("Failed to marshal payload", "topic", topic, "error", err)
		return
	}

	// Context topics are retained so late subscribers get the current sky
	retained := strings.HasPrefix(topic, mqtt.TopicContextBase)
	if err := a.mqtt.Publish(topic, 0, retained, data); err != nil {
		a.logger.Error("Failed to publish", "topic", topic, "error", err)
	}
}

func (a *Agent) cacheSnapshot(ctx context.Context, snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		a.logger.Error("Failed to marshal snapshot", "error", err)
		return
	}

	ttl := time.Duration(a.cfg.SnapshotTTLSec) * time.Second
	if err := a.redis.Set(ctx, redis.SnapshotKey(snap.Scene), string(data), ttl); err != nil {
		a.logger.Warn("Failed to cache snapshot", "scene", snap.Scene, "error", err)
	}
}

func (a *Agent) recordTransition(ctx context.Context, scene string, event map[string]interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	key := redis.TransitionsKey(scene)
	if err := a.redis.LPush(ctx, key, string(data)); err != nil {
		a.logger.Warn("Failed to record transition", "scene", scene, "error", err)
		return
	}
	if a.cfg.MaxTransitionHistory > 0 {
		if err := a.redis.LTrim(ctx, key, 0, int64(a.cfg.MaxTransitionHistory-1)); err != nil {
			a.logger.Warn("Failed to trim transitions", "scene", scene, "error", err)
		}
	}
}

// LatestSnapshot reads the cached snapshot of scene from Redis
func LatestSnapshot(ctx context.Context, client redis.Client, scene string) (Snapshot, error) {
	raw, err := client.Get(ctx, redis.SnapshotKey(scene))
	if err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}

// RecentTransitions reads up to limit cached transition events, newest first
func RecentTransitions(ctx context.Context, client redis.Client, scene string, limit int) ([]map[string]interface{}, error) {
	raw, err := client.LRange(ctx, redis.TransitionsKey(scene), 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("failed to read transitions: %w", err)
	}

	events := make([]map[string]interface{}, 0, len(raw))
	for _, r := range raw {
		var event map[string]interface{}
		if err := json.Unmarshal([]byte(r), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
