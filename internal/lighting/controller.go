// Package lighting maps sun and moon geometry to light parameters.
// It has no side effects; callers apply the returned values themselves.
package lighting

import (
	"math"

	"github.com/saaga0h/jeeves-timeofday/internal/astro"
	"github.com/saaga0h/jeeves-timeofday/pkg/vecmath"
)

// meanMoonDistanceKm is the average Earth-Moon distance
const meanMoonDistanceKm = 384400.0

// Parameters contains the derived light values and the reasoning behind them
type Parameters struct {
	SunAboveHorizon  bool    `json:"sun_above_horizon"`
	MoonAboveHorizon bool    `json:"moon_above_horizon"`
	SunIntensity     float64 `json:"sun_intensity"`
	SunColorTempK    float64 `json:"sun_color_temp_k"`
	MoonIntensity    float64 `json:"moon_intensity"`
	MoonColorTempK   float64 `json:"moon_color_temp_k"`
	Earthshine       float64 `json:"earthshine"`
	Reason           string  `json:"reason"`
}

// Settings tunes the fades. Elevations are in degrees.
type Settings struct {
	// SunFadeStartDeg is where sun intensity starts rising from zero
	SunFadeStartDeg float64
	// SunFullDeg is where the sun reaches full intensity
	SunFullDeg float64
	// MoonFadeStartDeg and MoonFullDeg play the same role for the moon
	MoonFadeStartDeg float64
	MoonFullDeg      float64
	// EarthshineStrength is the earthshine term for a new moon seen from the ground
	EarthshineStrength float64
}

// DefaultSettings returns the stock fade ranges
func DefaultSettings() Settings {
	return Settings{
		SunFadeStartDeg:    -2,
		SunFullDeg:         10,
		MoonFadeStartDeg:   -2,
		MoonFullDeg:        8,
		EarthshineStrength: 0.05,
	}
}

// Controller derives lighting parameters from celestial state
type Controller struct {
	settings Settings
}

// NewController creates a controller with the given settings
func NewController(settings Settings) *Controller {
	return &Controller{settings: settings}
}

// IsSunAboveHorizon reports whether the sun direction points at or above the horizon
func IsSunAboveHorizon(sun astro.SunState) bool {
	return sun.Direction.Dot(vecmath.Up) >= 0
}

// IsMoonAboveHorizon reports whether the moon direction points at or above the horizon
func IsMoonAboveHorizon(moon astro.MoonState) bool {
	return moon.Direction.Dot(vecmath.Up) >= 0
}

// UpdateLightProperties computes sun and moon intensities, color temperatures
// and earthshine. spaceWeight blends from the planetary regime (0) to deep
// space (1): the horizon stops mattering and earthshine fades out.
func (c *Controller) UpdateLightProperties(sun astro.SunState, moon astro.MoonState, spaceWeight float64) Parameters {
	spaceWeight = vecmath.Clamp01(spaceWeight)
	s := c.settings

	sunDistance := sun.DistanceAU
	if sunDistance <= 0 {
		sunDistance = 1
	}
	sunFlux := 1 / (sunDistance * sunDistance)

	sunHorizon := fade(sun.ElevationDeg, s.SunFadeStartDeg, s.SunFullDeg)
	sunIntensity := lerp(sunHorizon*sunFlux, sunFlux, spaceWeight)
	sunTemp := lerp(calculateColorTemperature(sun.ElevationDeg), spaceSunKelvin, spaceWeight)

	moonDistance := moon.DistanceKm
	if moonDistance <= 0 {
		moonDistance = meanMoonDistanceKm
	}
	moonFlux := math.Pow(meanMoonDistanceKm/moonDistance, 2) * vecmath.Clamp01(moon.IlluminationFraction)
	moonHorizon := fade(moon.ElevationDeg, s.MoonFadeStartDeg, s.MoonFullDeg)
	moonIntensity := lerp(moonHorizon*moonFlux, moonFlux, spaceWeight)

	earthshine := s.EarthshineStrength * (1 - vecmath.Clamp01(moon.IlluminationFraction)) * (1 - spaceWeight)

	sunUp := IsSunAboveHorizon(sun)
	return Parameters{
		SunAboveHorizon:  sunUp,
		MoonAboveHorizon: IsMoonAboveHorizon(moon),
		SunIntensity:     sunIntensity,
		SunColorTempK:    sunTemp,
		MoonIntensity:    moonIntensity,
		MoonColorTempK:   moonKelvin,
		Earthshine:       earthshine,
		Reason:           describe(sun, moon, sunIntensity, moonIntensity, spaceWeight),
	}
}

// describe explains which light dominates, in the style of a decision reason
func describe(sun astro.SunState, moon astro.MoonState, sunIntensity, moonIntensity, spaceWeight float64) string {
	switch {
	case spaceWeight >= 1:
		return "deep space - unobstructed sun"
	case sun.ElevationDeg >= 0 && sunIntensity >= 0.5:
		return "sun above horizon - daylight"
	case sun.ElevationDeg >= 0:
		return "sun low on horizon - warm light"
	case sun.ElevationDeg >= -6:
		return "civil twilight - fading sun"
	case moonIntensity > 0.05:
		return "night - moonlit"
	case moon.ElevationDeg >= 0:
		return "night - faint moon"
	default:
		return "night - no moon"
	}
}

// fade ramps from 0 at start to 1 at full, clamped
func fade(x, start, full float64) float64 {
	return vecmath.Clamp01(vecmath.Remap(x, start, full, 0, 1))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
