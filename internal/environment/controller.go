// Package environment runs the per-tick pipeline for one simulated scene:
// sky geometry, lighting, day/night state and scenario blending.
package environment

import (
	"sync"
	"time"

	"github.com/saaga0h/jeeves-timeofday/internal/astro"
	"github.com/saaga0h/jeeves-timeofday/internal/daynight"
	"github.com/saaga0h/jeeves-timeofday/internal/lighting"
	"github.com/saaga0h/jeeves-timeofday/internal/scenario"
	"github.com/saaga0h/jeeves-timeofday/pkg/vecmath"
)

// Options configures a Controller
type Options struct {
	Scene    string
	Location astro.GeoLocation
	Clock    astro.SimClock
	// TimeScale is simulated seconds per real second; 0 freezes the clock
	TimeScale         float64
	DayNight          daynight.Config
	SpaceRamp         daynight.SpaceRamp
	ObserverAltitude  float64
	Smoothing         daynight.Smoothing
	Lighting          lighting.Settings
	ScenarioLeadHours float64
	// Presets replaces astro.DefaultPresets when set
	Presets []astro.LocationPreset
}

// DefaultOptions returns Cologne at noon today with the default tuning
func DefaultOptions() Options {
	return Options{
		Scene:             "Scene",
		Location:          astro.DefaultLocation,
		Clock:             astro.ClockFromTime(time.Now(), astro.DefaultLocation.UTCOffsetHours).WithTimeOfDay(12),
		TimeScale:         1,
		DayNight:          daynight.DefaultConfig(),
		SpaceRamp:         daynight.DefaultSpaceRamp(),
		Smoothing:         daynight.Smoothing{Mode: daynight.SmoothingExponential, Rate: 2},
		Lighting:          lighting.DefaultSettings(),
		ScenarioLeadHours: 0.001,
	}
}

// Snapshot is everything computed for one tick
type Snapshot struct {
	Scene         string              `json:"scene"`
	Clock         astro.SimClock      `json:"clock"`
	Instant       time.Time           `json:"instant"`
	Location      astro.GeoLocation   `json:"location"`
	Sun           astro.SunState      `json:"sun"`
	Moon          astro.MoonState     `json:"moon"`
	SunTimes      astro.SunTimes      `json:"sun_times"`
	GalacticUp    vecmath.Vec3        `json:"galactic_up"`
	SolarSystemUp vecmath.Vec3        `json:"solar_system_up"`
	SunDisplayed  vecmath.Vec3        `json:"sun_displayed"`
	MoonDisplayed vecmath.Vec3        `json:"moon_displayed"`
	DayNight      daynight.State      `json:"day_night"`
	SpaceWeight   float64             `json:"space_weight"`
	Lighting      lighting.Parameters `json:"lighting"`
	Blend         scenario.BlendState `json:"blend"`
}

// Controller owns the mutable state of one scene. All methods are safe for
// concurrent use; ticks and commands are serialized.
type Controller struct {
	mu sync.Mutex

	opts      Options
	clock     astro.SimClock
	location  astro.GeoLocation
	altitude  float64
	lights    *lighting.Controller
	machine   *daynight.StateMachine
	scheduler *scenario.Scheduler

	sunDisplayed  vecmath.Vec3
	moonDisplayed vecmath.Vec3
}

// NewController creates a controller starting at opts.Clock
func NewController(opts Options) *Controller {
	return &Controller{
		opts:      opts,
		clock:     opts.Clock.Normalize(),
		location:  opts.Location.Clamp(),
		altitude:  opts.ObserverAltitude,
		lights:    lighting.NewController(opts.Lighting),
		machine:   daynight.NewStateMachine(opts.DayNight),
		scheduler: scenario.NewScheduler(nil),
	}
}

// Subscribe registers an observer for day/night transitions. Observers run
// while the controller is locked and must not call back into it.
func (c *Controller) Subscribe(observer daynight.Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.machine.Subscribe(observer)
}

// Tick advances the simulated clock by elapsedSeconds of real time scaled by
// TimeScale, then evaluates. The smoothing approach uses the real elapsed time.
func (c *Controller) Tick(elapsedSeconds float64) (Snapshot, []daynight.Transition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elapsedSeconds > 0 && c.opts.TimeScale != 0 {
		c.clock = c.clock.Advance(elapsedSeconds * c.opts.TimeScale / 3600).Normalize()
	}
	return c.evaluate(elapsedSeconds)
}

// Evaluate recomputes the current state without advancing the clock.
// Smoothed directions snap to their targets.
func (c *Controller) Evaluate() (Snapshot, []daynight.Transition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sunDisplayed = vecmath.Vec3{}
	c.moonDisplayed = vecmath.Vec3{}
	return c.evaluate(0)
}

func (c *Controller) evaluate(elapsedSeconds float64) (Snapshot, []daynight.Transition) {
	instant := c.clock.UTC(c.location.UTCOffsetHours)
	lat, lon := c.location.Latitude, c.location.Longitude

	sun := astro.SunProperties(instant, lat, lon)
	moon := astro.MoonProperties(instant, lat, lon)

	c.sunDisplayed = daynight.Approach(c.sunDisplayed, sun.Direction, elapsedSeconds, c.opts.Smoothing)
	c.moonDisplayed = daynight.Approach(c.moonDisplayed, moon.Direction, elapsedSeconds, c.opts.Smoothing)

	spaceWeight := daynight.SpaceWeight(c.altitude, c.opts.SpaceRamp)
	params := c.lights.UpdateLightProperties(sun, moon, spaceWeight)
	state, transitions := c.machine.Update(lighting.IsSunAboveHorizon(sun), sun.Direction)

	blend := c.scheduler.Evaluate(c.clock.TimeOfDayHours + c.opts.ScenarioLeadHours)

	return Snapshot{
		Scene:         c.opts.Scene,
		Clock:         c.clock,
		Instant:       instant,
		Location:      c.location,
		Sun:           sun,
		Moon:          moon,
		SunTimes:      astro.CalculateSunTimes(instant, lat, lon),
		GalacticUp:    astro.GalacticUpDirection(instant, lat, lon),
		SolarSystemUp: astro.SolarSystemUpDirection(instant, lat, lon),
		SunDisplayed:  c.sunDisplayed,
		MoonDisplayed: c.moonDisplayed,
		DayNight:      state,
		SpaceWeight:   spaceWeight,
		Lighting:      params,
		Blend:         blend,
	}, transitions
}

// ApplyPreset switches to a named location preset. "Custom" keeps the
// current coordinates.
func (c *Controller) ApplyPreset(name string) (astro.GeoLocation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if astro.IsCustomPreset(name) {
		return c.location, nil
	}

	presets := c.opts.Presets
	if len(presets) == 0 {
		presets = astro.DefaultPresets
	}
	location, err := astro.ApplyPresetFrom(presets, name)
	if err != nil {
		return c.location, err
	}

	c.location = location
	return location, nil
}

// SetLocation replaces the observer location, clamping out-of-range values
func (c *Controller) SetLocation(location astro.GeoLocation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.location = location.Clamp()
}

// SetTimeOfDay jumps to hours on the current date, rolling the date when
// hours leaves [0,24)
func (c *Controller) SetTimeOfDay(hours float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = c.clock.WithTimeOfDay(hours).Normalize()
}

// SetClock replaces the simulated date and time
func (c *Controller) SetClock(clock astro.SimClock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clock.Normalize()
}

// SetObserverAltitude moves the observer toward or away from space
func (c *Controller) SetObserverAltitude(altitude float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.altitude = altitude
}

// RebuildScenarios replaces the scenario set used for blending
func (c *Controller) RebuildScenarios(names []string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduler.Rebuild(names)
	return c.scheduler.Len()
}

// Clock returns the current simulated clock
func (c *Controller) Clock() astro.SimClock {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clock
}

// Location returns the current observer location
func (c *Controller) Location() astro.GeoLocation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.location
}

// ScenarioEvaluator evaluates scenarios for an offline sweep. Every call
// builds a fresh controller so no day/night or smoothing state leaks
// between steps or into a live controller.
func ScenarioEvaluator(opts Options) scenario.Evaluator {
	return func(clock astro.SimClock, location astro.GeoLocation) scenario.Record {
		stepOpts := opts
		stepOpts.Clock = clock
		stepOpts.Location = location
		stepOpts.Smoothing = daynight.Smoothing{Mode: daynight.SmoothingDisabled}

		snap, _ := NewController(stepOpts).Evaluate()
		return scenario.Record{
			Sun:       snap.Sun,
			Moon:      snap.Moon,
			Lighting:  snap.Lighting,
			IsDay:     snap.DayNight.IsDay,
			DayWeight: snap.DayNight.DayWeight,
		}
	}
}
