package scenario

import (
	"math"
	"sort"

	"github.com/saaga0h/jeeves-timeofday/pkg/vecmath"
)

const hoursPerDay = 24.0

// Entry is a scenario and the time of day it represents
type Entry struct {
	Name           string  `json:"name" yaml:"name"`
	TimeOfDayHours float64 `json:"time_of_day_hours" yaml:"time_of_day_hours"`
}

// BlendState names the two scenarios to mix and how far to mix toward To.
// The zero value is the neutral state of an empty catalog.
type BlendState struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	BlendFactor float64 `json:"blend_factor"`
}

// IsNeutral reports whether no scenario is active
func (b BlendState) IsNeutral() bool {
	return b.From == "" && b.To == ""
}

// Scheduler keeps the time-sorted scenario list and answers blend queries.
// It is not safe for concurrent use.
type Scheduler struct {
	entries []Entry
}

// NewScheduler builds a scheduler over the given scenario names
func NewScheduler(names []string) *Scheduler {
	s := &Scheduler{}
	s.Rebuild(names)
	return s
}

// Rebuild replaces the sorted list. Names without a valid trailing HHMM
// token are dropped silently. Equal times keep their input order.
func (s *Scheduler) Rebuild(names []string) {
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		hours, ok := ParseTimeOfDay(name)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Name: name, TimeOfDayHours: hours})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TimeOfDayHours < entries[j].TimeOfDayHours
	})

	s.entries = entries
}

// Entries returns a copy of the sorted list
func (s *Scheduler) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of scheduled scenarios
func (s *Scheduler) Len() int {
	return len(s.entries)
}

// Evaluate returns the blend for a time of day in hours. Intervals run from
// each entry to the next, the last one wrapping to the first, and the first
// interval in sorted order that contains t wins.
func (s *Scheduler) Evaluate(t float64) BlendState {
	switch len(s.entries) {
	case 0:
		return BlendState{}
	case 1:
		return BlendState{From: s.entries[0].Name, To: s.entries[0].Name}
	}

	t = normalizeHours(t)
	n := len(s.entries)

	// Fallback is the midnight-crossing interval from last to first
	from, to := n-1, 0
	for i := 0; i < n; i++ {
		next := (i + 1) % n
		if contains(s.entries[i].TimeOfDayHours, s.entries[next].TimeOfDayHours, t) {
			from, to = i, next
			break
		}
	}

	start := s.entries[from].TimeOfDayHours
	duration := intervalDuration(start, s.entries[to].TimeOfDayHours)
	if duration <= 0 {
		// Entries share a time: nothing to blend into
		name := s.entries[from].Name
		return BlendState{From: name, To: name}
	}

	elapsed := t - start
	if elapsed < 0 {
		elapsed += hoursPerDay
	}

	return BlendState{
		From:        s.entries[from].Name,
		To:          s.entries[to].Name,
		BlendFactor: vecmath.Clamp01(elapsed / duration),
	}
}

// contains tests t against [start, end] on the 24h circle. Equal endpoints
// form a collapsed interval holding only its own instant.
func contains(start, end, t float64) bool {
	switch {
	case end > start:
		return start <= t && t <= end
	case end == start:
		return t == start
	default:
		return t >= start || t <= end
	}
}

func intervalDuration(start, end float64) float64 {
	switch {
	case end > start:
		return end - start
	case end == start:
		return 0
	default:
		return (hoursPerDay - start) + end
	}
}

func normalizeHours(t float64) float64 {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0
	}
	t = math.Mod(t, hoursPerDay)
	if t < 0 {
		t += hoursPerDay
	}
	return t
}
