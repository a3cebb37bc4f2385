package environment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-timeofday/internal/scenario"
	"github.com/saaga0h/jeeves-timeofday/pkg/config"
	"github.com/saaga0h/jeeves-timeofday/pkg/mqtt"
	"github.com/saaga0h/jeeves-timeofday/pkg/redis"
)

type publishedMessage struct {
	topic    string
	retained bool
	payload  []byte
}

// mockMQTT records publishes and subscriptions
type mockMQTT struct {
	mu        sync.Mutex
	connected bool
	published []publishedMessage
	handlers  map[string]mqtt.MessageHandler
}

func newMockMQTT() *mockMQTT {
	return &mockMQTT{handlers: make(map[string]mqtt.MessageHandler)}
}

func (m *mockMQTT) Connect(ctx context.Context) error {
	m.connected = true
	return nil
}

func (m *mockMQTT) Disconnect() { m.connected = false }

func (m *mockMQTT) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *mockMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedMessage{topic: topic, retained: retained, payload: payload})
	return nil
}

func (m *mockMQTT) IsConnected() bool { return m.connected }

func (m *mockMQTT) byTopic(topic string) []publishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []publishedMessage
	for _, p := range m.published {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

func (m *mockMQTT) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = nil
}

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Topic() string   { return m.topic }
func (m *mockMessage) Payload() []byte { return m.payload }
func (m *mockMessage) Ack()            {}

// mockRedis keeps strings and lists in memory
type mockRedis struct {
	mu      sync.Mutex
	strings map[string]string
	ttls    map[string]time.Duration
	lists   map[string][]string
	hashes  map[string]map[string]string
	closed  bool
}

func newMockRedis() *mockRedis {
	return &mockRedis{
		strings: make(map[string]string),
		ttls:    make(map[string]time.Duration),
		lists:   make(map[string][]string),
		hashes:  make(map[string]map[string]string),
	}
}

func (m *mockRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strings[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *mockRedis) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.strings[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return v, nil
}

func (m *mockRedis) HSet(ctx context.Context, key string, field string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hashes[key] == nil {
		m.hashes[key] = make(map[string]string)
	}
	m.hashes[key][field] = value.(string)
	return nil
}

func (m *mockRedis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string)
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *mockRedis) HDel(ctx context.Context, key string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range fields {
		delete(m.hashes[key], f)
	}
	return nil
}

func (m *mockRedis) LPush(ctx context.Context, key string, values ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range values {
		m.lists[key] = append([]string{v.(string)}, m.lists[key]...)
	}
	return nil
}

func (m *mockRedis) LTrim(ctx context.Context, key string, start, stop int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	if int(stop)+1 < len(list) {
		m.lists[key] = list[start : stop+1]
	}
	return nil
}

func (m *mockRedis) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	end := int(stop) + 1
	if end > len(list) || stop < 0 {
		end = len(list)
	}
	if int(start) >= end {
		return nil, nil
	}
	return append([]string(nil), list[start:end]...), nil
}

func (m *mockRedis) Ping(ctx context.Context) error { return nil }

func (m *mockRedis) Close() error {
	m.closed = true
	return nil
}

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testAgent(t *testing.T, hours float64) (*Agent, *mockMQTT, *mockRedis, *fakeClock) {
	t.Helper()

	cfg := config.NewConfig()
	cfg.SceneName = "Courtyard"
	cfg.MinPublishIntervalMs = 5000
	cfg.MaxTransitionHistory = 2

	mq := newMockMQTT()
	rd := newMockRedis()
	catalog := scenario.NewRedisCatalog(rd, cfg.SceneName)

	opts := equinoxOptions(hours)
	opts.Scene = cfg.SceneName
	agent := NewAgent(mq, rd, catalog, NewController(opts), cfg, testLogger())

	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	agent.now = clock.now
	agent.rateLimiter.now = clock.now

	return agent, mq, rd, clock
}

func decode(t *testing.T, msg publishedMessage) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.payload, &out))
	return out
}

func TestAgent_StartPublishesInitialState(t *testing.T) {
	agent, mq, rd, _ := testAgent(t, 12)
	require.NoError(t, scenario.NewRedisCatalog(rd, "Courtyard").Save(context.Background(),
		scenario.Record{Name: "Courtyard 0600"}))
	require.NoError(t, scenario.NewRedisCatalog(rd, "Courtyard").Save(context.Background(),
		scenario.Record{Name: "Courtyard 1800"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, agent.Start(ctx))
	defer agent.Stop()

	assert.True(t, mq.connected)
	assert.Contains(t, mq.handlers, mqtt.TopicCommandAll)

	sky := mq.byTopic(mqtt.TopicContextSky)
	require.Len(t, sky, 1)
	assert.True(t, sky[0].retained)

	dayNight := mq.byTopic(mqtt.TopicContextDayNight)
	require.Len(t, dayNight, 1)
	assert.Equal(t, "day", decode(t, dayNight[0])["phase"])

	blend := mq.byTopic(mqtt.TopicContextBlend)
	require.Len(t, blend, 1)
	payload := decode(t, blend[0])
	assert.Equal(t, "Courtyard 0600", payload["from"])
	assert.Equal(t, "Courtyard 1800", payload["to"])

	// Starting at noon is a night -> day edge for a fresh machine
	assert.Len(t, mq.byTopic(mqtt.TopicEventDay), 1)

	snap, err := LatestSnapshot(context.Background(), rd, "Courtyard")
	require.NoError(t, err)
	assert.True(t, snap.DayNight.IsDay)
	assert.Equal(t, 300*time.Second, rd.ttls[redis.SnapshotKey("Courtyard")])
}

func TestAgent_TickIsRateLimited(t *testing.T) {
	agent, mq, _, clock := testAgent(t, 12)

	agent.Tick(context.Background())
	assert.Len(t, mq.byTopic(mqtt.TopicContextSky), 1)

	clock.advance(time.Second)
	agent.Tick(context.Background())
	assert.Len(t, mq.byTopic(mqtt.TopicContextSky), 1, "within the publish interval")

	clock.advance(5 * time.Second)
	agent.Tick(context.Background())
	assert.Len(t, mq.byTopic(mqtt.TopicContextSky), 2)
}

func TestAgent_TickUsesRealElapsedTime(t *testing.T) {
	agent, _, _, clock := testAgent(t, 12)

	agent.Tick(context.Background())
	clock.advance(1800 * time.Millisecond)
	snap := agent.Tick(context.Background())

	// One simulated hour per real second
	assert.InDelta(t, 13.8, snap.Clock.TimeOfDayHours, 1e-9)
}

func TestAgent_TransitionBypassesRateLimit(t *testing.T) {
	agent, mq, rd, clock := testAgent(t, 17)

	agent.Tick(context.Background())
	require.Len(t, mq.byTopic(mqtt.TopicEventDay), 1)
	mq.reset()

	// Sunset in Cologne at the equinox is shortly after 18:30 CET
	for i := 0; i < 8; i++ {
		clock.advance(250 * time.Millisecond)
		agent.Tick(context.Background())
	}

	events := mq.byTopic(mqtt.TopicEventNight)
	require.Len(t, events, 1)
	event := decode(t, events[0])
	assert.Equal(t, "day", event["from"])
	assert.Equal(t, "night", event["to"])
	assert.Equal(t, "Courtyard", event["scene"])

	// The transition forced a publish despite the interval
	assert.Len(t, mq.byTopic(mqtt.TopicContextSky), 1)

	transitions, err := RecentTransitions(context.Background(), rd, "Courtyard", 10)
	require.NoError(t, err)
	require.Len(t, transitions, 2)
	assert.Equal(t, "night", transitions[0]["to"])
	assert.Equal(t, "day", transitions[1]["to"])
}

func TestAgent_TransitionHistoryIsTrimmed(t *testing.T) {
	agent, _, rd, _ := testAgent(t, 12)

	for _, hours := range []float64{12, 0, 12, 0, 12} {
		agent.controller.SetTimeOfDay(hours)
		agent.publishEvaluation(context.Background())
	}

	assert.Len(t, rd.lists[redis.TransitionsKey("Courtyard")], 2)
}

func TestAgent_PresetCommand(t *testing.T) {
	agent, mq, _, _ := testAgent(t, 12)

	agent.handleCommandMessage(&mockMessage{
		topic:   mqtt.TopicCommandPreset,
		payload: []byte(`{"name": "Tokyo"}`),
	})

	assert.Equal(t, 9, agent.controller.Location().UTCOffsetHours)
	require.Len(t, mq.byTopic(mqtt.TopicContextSky), 1, "a command publishes immediately")
	sky := decode(t, mq.byTopic(mqtt.TopicContextSky)[0])
	location := sky["location"].(map[string]interface{})
	assert.InDelta(t, 35.6764, location["latitude"], 1e-9)
}

func TestAgent_CustomPresetCommand(t *testing.T) {
	agent, _, _, _ := testAgent(t, 12)

	agent.handleCommandMessage(&mockMessage{
		topic:   mqtt.TopicCommandPreset,
		payload: []byte(`{"name": "Custom", "latitude": -33.8688, "longitude": 151.2093, "utc_offset": 10}`),
	})

	loc := agent.controller.Location()
	assert.Equal(t, -33.8688, loc.Latitude)
	assert.Equal(t, 151.2093, loc.Longitude)
	assert.Equal(t, 10, loc.UTCOffsetHours)
}

func TestAgent_InvalidCommandsAreIgnored(t *testing.T) {
	agent, mq, _, _ := testAgent(t, 12)
	before := agent.controller.Location()

	for _, msg := range []*mockMessage{
		{topic: mqtt.TopicCommandPreset, payload: []byte(`{"name": "Tokio"}`)},
		{topic: mqtt.TopicCommandPreset, payload: []byte(`not json`)},
		{topic: mqtt.TopicCommandPreset, payload: []byte(`{"name": "Custom", "latitude": 123}`)},
		{topic: mqtt.TopicCommandTime, payload: []byte(`{}`)},
		{topic: mqtt.TopicCommandTime, payload: []byte(`{"date": "20-03-2024"}`)},
		{topic: "automation/command/timeofday/launch", payload: []byte(`{}`)},
	} {
		agent.handleCommandMessage(msg)
	}

	assert.Equal(t, before, agent.controller.Location())
	assert.Empty(t, mq.byTopic(mqtt.TopicContextSky))
}

func TestAgent_TimeCommand(t *testing.T) {
	agent, mq, _, _ := testAgent(t, 12)

	agent.handleCommandMessage(&mockMessage{
		topic:   mqtt.TopicCommandTime,
		payload: []byte(`{"time_of_day_hours": 23.5, "date": "2024-06-21", "altitude": 200000}`),
	})

	clock := agent.controller.Clock()
	assert.Equal(t, time.June, clock.Month)
	assert.Equal(t, 21, clock.Day)
	assert.Equal(t, 23.5, clock.TimeOfDayHours)

	dayNight := decode(t, mq.byTopic(mqtt.TopicContextDayNight)[0])
	assert.Equal(t, "night", dayNight["phase"])
	assert.Equal(t, 1.0, dayNight["space_weight"])
}

func TestAgent_RefreshCommand(t *testing.T) {
	agent, mq, rd, _ := testAgent(t, 12)

	catalog := scenario.NewRedisCatalog(rd, "Courtyard")
	require.NoError(t, catalog.Save(context.Background(), scenario.Record{Name: "Courtyard 0800"}))

	agent.handleCommandMessage(&mockMessage{topic: mqtt.TopicCommandRefresh})

	blend := decode(t, mq.byTopic(mqtt.TopicContextBlend)[0])
	assert.Equal(t, "Courtyard 0800", blend["from"])
	assert.Equal(t, "Courtyard 0800", blend["to"])
	assert.Equal(t, 0.0, blend["blend_factor"])
}

func TestAgent_StopClosesClients(t *testing.T) {
	agent, mq, rd, _ := testAgent(t, 12)
	mq.connected = true

	require.NoError(t, agent.Stop())
	require.NoError(t, agent.Stop())
	assert.False(t, mq.connected)
	assert.True(t, rd.closed)
}

func TestLatestSnapshot_Missing(t *testing.T) {
	_, err := LatestSnapshot(context.Background(), newMockRedis(), "Nowhere")
	assert.True(t, errors.Is(err, redis.ErrNotFound))
}

func TestOptionsFromConfig(t *testing.T) {
	now := time.Date(2024, 6, 21, 15, 0, 0, 0, time.UTC)

	t.Run("defaults", func(t *testing.T) {
		opts, err := OptionsFromConfig(config.NewConfig(), now)
		require.NoError(t, err)
		assert.Equal(t, 1, opts.Location.UTCOffsetHours)
		assert.Equal(t, 21, opts.Clock.Day)
		assert.Equal(t, 12.0, opts.Clock.TimeOfDayHours)
		assert.Equal(t, 0.001, opts.ScenarioLeadHours)
		assert.Equal(t, "exponential", string(opts.Smoothing.Mode))
	})

	t.Run("preset", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.LocationPreset = "newyork"
		cfg.StartDate = "2024-12-21"
		opts, err := OptionsFromConfig(cfg, now)
		require.NoError(t, err)
		assert.Equal(t, -5, opts.Location.UTCOffsetHours)
		assert.Equal(t, time.December, opts.Clock.Month)
	})

	t.Run("misspelled preset", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.LocationPreset = "Tokio"
		_, err := OptionsFromConfig(cfg, now)
		assert.ErrorContains(t, err, "Tokyo")
	})

	t.Run("custom coordinates", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.LocationPreset = "Custom"
		cfg.Latitude = 64.1466
		cfg.Longitude = -21.9426
		cfg.UTCOffset = 0
		opts, err := OptionsFromConfig(cfg, now)
		require.NoError(t, err)
		assert.Equal(t, 64.1466, opts.Location.Latitude)
	})

	t.Run("preset file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "presets.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
- name: Reykjavik
  latitude: 64.1466
  longitude: -21.9426
  utc_offset: 0
`), 0o644))

		cfg := config.NewConfig()
		cfg.PresetFile = path
		cfg.LocationPreset = "Reykjavik"
		opts, err := OptionsFromConfig(cfg, now)
		require.NoError(t, err)
		assert.Equal(t, -21.9426, opts.Location.Longitude)
		assert.Len(t, opts.Presets, 6)
	})

	t.Run("bad smoothing", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.SmoothingMode = "wobbly"
		_, err := OptionsFromConfig(cfg, now)
		assert.Error(t, err)
	})
}

func TestCatalogFromConfig(t *testing.T) {
	ctx := context.Background()

	cfg := config.NewConfig()
	cfg.CatalogPath = filepath.Join(t.TempDir(), "scenarios.yaml")
	catalog, err := CatalogFromConfig(ctx, cfg, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &scenario.FileCatalog{}, catalog)

	cfg.CatalogSource = "redis"
	catalog, err = CatalogFromConfig(ctx, cfg, newMockRedis(), nil)
	require.NoError(t, err)
	assert.IsType(t, &scenario.RedisCatalog{}, catalog)

	cfg.CatalogSource = "postgres"
	_, err = CatalogFromConfig(ctx, cfg, nil, nil)
	assert.Error(t, err)

	cfg.CatalogSource = "s3"
	_, err = CatalogFromConfig(ctx, cfg, nil, nil)
	assert.Error(t, err)
}
