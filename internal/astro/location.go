package astro

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"
)

// ErrUnknownPreset is returned when a preset name matches no known location
var ErrUnknownPreset = errors.New("unknown location preset")

// CustomPreset is the pseudo-preset meaning "keep the current coordinates"
const CustomPreset = "Custom"

// GeoLocation is an observer position on Earth plus its civil UTC offset
type GeoLocation struct {
	Latitude       float64 `json:"latitude" yaml:"latitude"`
	Longitude      float64 `json:"longitude" yaml:"longitude"`
	UTCOffsetHours int     `json:"utc_offset" yaml:"utc_offset"`
}

// LocationPreset is a named GeoLocation
type LocationPreset struct {
	Name     string      `yaml:"name"`
	Location GeoLocation `yaml:",inline"`
}

// DefaultPresets are the built-in locations
var DefaultPresets = []LocationPreset{
	{Name: "Greenwich", Location: GeoLocation{Latitude: 51.4934, Longitude: 0.0098, UTCOffsetHours: 0}},
	{Name: "Cologne", Location: GeoLocation{Latitude: 50.9375, Longitude: 6.9603, UTCOffsetHours: 1}},
	{Name: "Dubrovnik", Location: GeoLocation{Latitude: 42.6507, Longitude: 18.0944, UTCOffsetHours: 1}},
	{Name: "Tokyo", Location: GeoLocation{Latitude: 35.6764, Longitude: 139.6500, UTCOffsetHours: 9}},
	{Name: "NewYork", Location: GeoLocation{Latitude: 40.7128, Longitude: -74.0060, UTCOffsetHours: -5}},
}

// DefaultLocation is used when no preset or coordinates are configured (Cologne)
var DefaultLocation = DefaultPresets[1].Location

// IsCustomPreset reports whether name selects the "keep current coordinates" preset
func IsCustomPreset(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), CustomPreset)
}

// ApplyPreset resolves a built-in preset name to its location
func ApplyPreset(name string) (GeoLocation, error) {
	return ApplyPresetFrom(DefaultPresets, name)
}

// ApplyPresetFrom resolves name against presets. Matching ignores case and
// surrounding whitespace. On a miss the error names the closest preset.
func ApplyPresetFrom(presets []LocationPreset, name string) (GeoLocation, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, p := range presets {
		if strings.ToLower(p.Name) == want {
			return p.Location, nil
		}
	}

	if suggestion := closestPreset(presets, want); suggestion != "" {
		return GeoLocation{}, fmt.Errorf("%w: %q (did you mean %q?)", ErrUnknownPreset, name, suggestion)
	}
	return GeoLocation{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// closestPreset returns the preset name within a small edit distance of want
func closestPreset(presets []LocationPreset, want string) string {
	best := ""
	bestDist := math.MaxInt
	for _, p := range presets {
		dist := levenshtein.ComputeDistance(want, strings.ToLower(p.Name))
		if dist < bestDist {
			best, bestDist = p.Name, dist
		}
	}
	if bestDist > suggestionLimit(len(best)) {
		return ""
	}
	return best
}

func suggestionLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// LoadPresets reads additional presets from a YAML list
func LoadPresets(path string) ([]LocationPreset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}
	return ParsePresets(data)
}

// ParsePresets decodes a YAML list of presets and validates each entry
func ParsePresets(data []byte) ([]LocationPreset, error) {
	var presets []LocationPreset
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("failed to parse preset YAML: %w", err)
	}
	for i, p := range presets {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("preset %d: name is required", i)
		}
		if err := p.Location.Validate(); err != nil {
			return nil, fmt.Errorf("preset %s: %w", p.Name, err)
		}
	}
	return presets, nil
}

// Validate checks the documented coordinate ranges
func (g GeoLocation) Validate() error {
	if g.Latitude < -90 || g.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %g", g.Latitude)
	}
	if g.Longitude < -180 || g.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %g", g.Longitude)
	}
	if g.UTCOffsetHours < -12 || g.UTCOffsetHours > 14 {
		return fmt.Errorf("UTC offset must be between -12 and 14, got %d", g.UTCOffsetHours)
	}
	return nil
}

// Clamp forces the location into range instead of rejecting it
func (g GeoLocation) Clamp() GeoLocation {
	g.Latitude = clampLatitude(g.Latitude)
	if g.Longitude < -180 || g.Longitude > 180 {
		g.Longitude = math.Mod(g.Longitude+540, 360) - 180
	}
	if g.UTCOffsetHours < -12 {
		g.UTCOffsetHours = -12
	}
	if g.UTCOffsetHours > 14 {
		g.UTCOffsetHours = 14
	}
	return g
}

func clampLatitude(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}
