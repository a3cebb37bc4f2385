package scenario

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{"afternoon", "Interior 1430", 14.5, true},
		{"midnight", "Scene 0000", 0, true},
		{"last minute", "Scene 2359", 23 + 59.0/60, true},
		{"multi word scene", "Big Hall East 0815", 8.25, true},
		{"bare token", "0600", 6, true},
		{"non numeric", "Scene ABCD", 0, false},
		{"too short", "Scene 5", 0, false},
		{"too long", "Scene 12345", 0, false},
		{"hour out of range", "Scene 2400", 0, false},
		{"minute out of range", "Scene 1260", 0, false},
		{"trailing space", "Scene 1200 ", 0, false},
		{"signed", "Scene -100", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimeOfDay(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestName(t *testing.T) {
	local := time.Date(2024, 6, 21, 7, 5, 0, 0, time.UTC)
	assert.Equal(t, "Courtyard 0705", Name("Courtyard", local))

	hours, ok := ParseTimeOfDay(Name("Courtyard", local))
	require.True(t, ok)
	assert.InDelta(t, 7+5.0/60, hours, 1e-12)
}

func TestFormatHours(t *testing.T) {
	assert.Equal(t, "14:30", FormatHours(14.5))
	assert.Equal(t, "00:00", FormatHours(24))
	assert.Equal(t, "23:00", FormatHours(-1))
}

func TestRebuild_SortsAndDropsUnparseable(t *testing.T) {
	s := NewScheduler([]string{"Scene 2200", "Scene ABCD", "Scene 0200", "Scene 5", "Scene 1000"})

	entries := s.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "Scene 0200", entries[0].Name)
	assert.Equal(t, "Scene 1000", entries[1].Name)
	assert.Equal(t, "Scene 2200", entries[2].Name)
	assert.Equal(t, 3, s.Len())
}

func TestRebuild_KeepsInputOrderForEqualTimes(t *testing.T) {
	s := NewScheduler([]string{"B 1230", "A 1230", "C 0600"})

	entries := s.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"C 0600", "B 1230", "A 1230"},
		[]string{entries[0].Name, entries[1].Name, entries[2].Name})
}

func TestRebuild_ReplacesPreviousSet(t *testing.T) {
	s := NewScheduler([]string{"Scene 0800", "Scene 2000"})
	s.Rebuild([]string{"Scene 1200"})

	assert.Equal(t, BlendState{From: "Scene 1200", To: "Scene 1200"}, s.Evaluate(3))
}

func TestEvaluate_EmptyCatalog(t *testing.T) {
	s := NewScheduler(nil)

	got := s.Evaluate(12)
	assert.Equal(t, BlendState{}, got)
	assert.True(t, got.IsNeutral())
}

func TestEvaluate_OnlyUnparseableNamesIsEmpty(t *testing.T) {
	s := NewScheduler([]string{"Scene ABCD", "Scene 5"})

	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Evaluate(9).IsNeutral())
}

func TestEvaluate_SingleEntry(t *testing.T) {
	s := NewScheduler([]string{"Scene 0800"})

	for _, q := range []float64{0, 5, 8, 13.7, 23.99} {
		got := s.Evaluate(q)
		assert.Equal(t, "Scene 0800", got.From)
		assert.Equal(t, "Scene 0800", got.To)
		assert.Equal(t, 0.0, got.BlendFactor)
	}
}

func TestEvaluate_Wraparound(t *testing.T) {
	s := NewScheduler([]string{"Scene 2200", "Scene 0200", "Scene 1000"})

	got := s.Evaluate(23)
	assert.Equal(t, "Scene 2200", got.From)
	assert.Equal(t, "Scene 0200", got.To)
	assert.InDelta(t, 0.25, got.BlendFactor, 1e-12)

	// After midnight the same interval keeps blending forward
	got = s.Evaluate(1)
	assert.Equal(t, "Scene 2200", got.From)
	assert.Equal(t, "Scene 0200", got.To)
	assert.InDelta(t, 0.75, got.BlendFactor, 1e-12)
}

func TestEvaluate_InnerInterval(t *testing.T) {
	s := NewScheduler([]string{"Scene 2200", "Scene 0200", "Scene 1000"})

	got := s.Evaluate(6)
	assert.Equal(t, BlendState{From: "Scene 0200", To: "Scene 1000", BlendFactor: 0.5}, got)
}

func TestEvaluate_MonotoneWithinInterval(t *testing.T) {
	s := NewScheduler([]string{"Scene 0600", "Scene 1800"})

	start := s.Evaluate(6)
	assert.Equal(t, "Scene 0600", start.From)
	assert.Equal(t, 0.0, start.BlendFactor)

	prev := -1.0
	for q := 6.0; q <= 18.0; q += 0.25 {
		got := s.Evaluate(q)
		require.Equal(t, "Scene 0600", got.From, "t=%v", q)
		assert.GreaterOrEqual(t, got.BlendFactor, prev)
		prev = got.BlendFactor
	}

	end := s.Evaluate(18)
	assert.Equal(t, "Scene 1800", end.To)
	assert.Equal(t, 1.0, end.BlendFactor)
}

func TestEvaluate_FirstMatchingIntervalWins(t *testing.T) {
	s := NewScheduler([]string{"Scene 0600", "Scene 1200", "Scene 1800"})

	// 12:00 closes [06,12] and opens [12,18]; the earlier interval wins
	got := s.Evaluate(12)
	assert.Equal(t, "Scene 0600", got.From)
	assert.Equal(t, "Scene 1200", got.To)
	assert.Equal(t, 1.0, got.BlendFactor)
}

func TestEvaluate_DuplicateTimesCollapse(t *testing.T) {
	s := NewScheduler([]string{"A 1230", "B 1230"})

	for _, q := range []float64{0, 12.5, 13, 23.9} {
		got := s.Evaluate(q)
		assert.Equal(t, 0.0, got.BlendFactor, "t=%v", q)
		assert.Equal(t, got.From, got.To, "t=%v", q)
		assert.False(t, math.IsNaN(got.BlendFactor))
	}

	got := s.Evaluate(12.5)
	assert.Equal(t, "A 1230", got.From)
}

func TestEvaluate_DuplicateAmongOthers(t *testing.T) {
	s := NewScheduler([]string{"Dawn 0600", "A 1230", "B 1230"})

	got := s.Evaluate(9.25)
	assert.Equal(t, "Dawn 0600", got.From)
	assert.Equal(t, "A 1230", got.To)
	assert.InDelta(t, 0.5, got.BlendFactor, 1e-12)

	// Past the duplicates, blending resumes from the later one toward dawn
	got = s.Evaluate(21.25)
	assert.Equal(t, "B 1230", got.From)
	assert.Equal(t, "Dawn 0600", got.To)
	assert.InDelta(t, 0.5, got.BlendFactor, 1e-12)
}

func TestEvaluate_NormalizesQueryTime(t *testing.T) {
	s := NewScheduler([]string{"Scene 0000", "Scene 1200"})

	assert.Equal(t, s.Evaluate(6), s.Evaluate(30))
	assert.Equal(t, s.Evaluate(18), s.Evaluate(-6))
	assert.Equal(t, 0.0, s.Evaluate(math.NaN()).BlendFactor)
}

func TestEvaluate_FactorAlwaysInUnitRange(t *testing.T) {
	s := NewScheduler([]string{"A 0015", "B 0730", "C 0730", "D 1945", "E 2300"})

	for q := 0.0; q < 24; q += 0.05 {
		got := s.Evaluate(q)
		assert.GreaterOrEqual(t, got.BlendFactor, 0.0)
		assert.LessOrEqual(t, got.BlendFactor, 1.0)
		assert.NotEmpty(t, got.From)
		assert.NotEmpty(t, got.To)
	}
}
