// Package daynight tracks the day/night classification across ticks and
// derives the continuous weights used to cross-fade lighting regimes.
package daynight

import (
	"github.com/saaga0h/jeeves-timeofday/pkg/vecmath"
)

// Phase is the discrete day/night classification
type Phase string

const (
	Day   Phase = "day"
	Night Phase = "night"
)

// NauticalTwilight is the default upper twilight bound in the
// sun-direction dot-product domain
const NauticalTwilight = 0.1

// State is the result of one evaluation
type State struct {
	IsDay     bool    `json:"is_day"`
	DayWeight float64 `json:"day_weight"`
}

// IsNight is always the negation of IsDay
func (s State) IsNight() bool {
	return !s.IsDay
}

// Phase returns the discrete classification
func (s State) Phase() Phase {
	if s.IsDay {
		return Day
	}
	return Night
}

// Transition is emitted once per edge between day and night
type Transition struct {
	From Phase `json:"from"`
	To   Phase `json:"to"`
}

// Observer is notified synchronously for every transition
type Observer func(Transition)

// Config holds the twilight band used for the day weight
type Config struct {
	TwilightLowerBound float64
	TwilightUpperBound float64
}

// DefaultConfig ramps the day weight from the horizon to nautical twilight
func DefaultConfig() Config {
	return Config{
		TwilightLowerBound: 0,
		TwilightUpperBound: NauticalTwilight,
	}
}

// StateMachine remembers the last classification so transitions are
// edge-triggered. It is not safe for concurrent use; give every
// independent evaluation (a live scene, an offline sweep) its own instance.
type StateMachine struct {
	cfg       Config
	isDay     bool
	observers []Observer
}

// NewStateMachine starts in Night, so a first evaluation with the sun up
// reports a Night -> Day transition
func NewStateMachine(cfg Config) *StateMachine {
	return &StateMachine{cfg: cfg}
}

// Subscribe registers an observer for transitions
func (m *StateMachine) Subscribe(observer Observer) {
	if observer != nil {
		m.observers = append(m.observers, observer)
	}
}

// IsDay returns the current classification
func (m *StateMachine) IsDay() bool {
	return m.isDay
}

// Update feeds the latest horizon test and sun direction. It returns the new
// state plus the transitions it emitted (zero or one); observers are called
// before Update returns.
func (m *StateMachine) Update(sunAboveHorizon bool, sunDirection vecmath.Vec3) (State, []Transition) {
	var transitions []Transition

	if sunAboveHorizon != m.isDay {
		tr := Transition{From: Night, To: Day}
		if !sunAboveHorizon {
			tr = Transition{From: Day, To: Night}
		}
		m.isDay = sunAboveHorizon
		transitions = append(transitions, tr)

		for _, observer := range m.observers {
			observer(tr)
		}
	}

	return State{
		IsDay:     m.isDay,
		DayWeight: DayWeight(sunDirection, m.cfg),
	}, transitions
}

// DayWeight ramps from 0 to 1 as the sun's vertical component crosses the
// twilight band. It depends only on the direction, not on the discrete state.
func DayWeight(sunDirection vecmath.Vec3, cfg Config) float64 {
	d := sunDirection.Dot(vecmath.Up)
	return vecmath.Clamp01(vecmath.Remap(d, cfg.TwilightLowerBound, cfg.TwilightUpperBound, 0, 1))
}
