// Package astro computes sun and moon geometry for an observer on Earth.
//
// Every function here is a pure function of (instant, latitude, longitude).
// Directions are unit vectors in the local horizon frame (X east, Y up,
// Z north). Elevation and azimuth are always derived from the returned
// direction so the two can never disagree.
package astro

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/saaga0h/jeeves-timeofday/pkg/vecmath"
)

// SunState describes the sun as seen from the observer
type SunState struct {
	Direction     vecmath.Vec3 `json:"direction"`
	ElevationDeg  float64      `json:"elevation_deg"`
	AzimuthDeg    float64      `json:"azimuth_deg"`
	DistanceAU    float64      `json:"distance_au"`
	DaylightPhase string       `json:"daylight_phase"`
}

// MoonState describes the moon as seen from the observer
type MoonState struct {
	Direction            vecmath.Vec3 `json:"direction"`
	ElevationDeg         float64      `json:"elevation_deg"`
	AzimuthDeg           float64      `json:"azimuth_deg"`
	PhaseFraction        float64      `json:"phase_fraction"`
	IlluminationFraction float64      `json:"illumination_fraction"`
	DistanceKm           float64      `json:"distance_km"`
	PhaseName            string       `json:"phase_name"`
	IsWaxing             bool         `json:"is_waxing"`
}

// SunTimes holds the notable sun events of the instant's day
type SunTimes struct {
	Dawn      time.Time `json:"dawn"`
	Sunrise   time.Time `json:"sunrise"`
	SolarNoon time.Time `json:"solar_noon"`
	Sunset    time.Time `json:"sunset"`
	Dusk      time.Time `json:"dusk"`
}

// SunDirection returns the unit vector from the observer toward the sun
func SunDirection(instant time.Time, lat, lon float64) vecmath.Vec3 {
	pos := suncalc.GetPosition(instant.UTC(), clampLatitude(lat), lon)
	return horizonVector(pos.Altitude, pos.Azimuth)
}

// MoonDirection returns the unit vector from the observer toward the moon
func MoonDirection(instant time.Time, lat, lon float64) vecmath.Vec3 {
	pos := suncalc.GetMoonPosition(instant.UTC(), clampLatitude(lat), lon)
	return horizonVector(pos.Altitude, pos.Azimuth)
}

// GalacticUpDirection points at the north galactic pole. It turns with
// sidereal time only, so the star field does not roll with the sun.
func GalacticUpDirection(instant time.Time, lat, lon float64) vecmath.Vec3 {
	lst := localSiderealDeg(instant.UTC(), lon)
	return equatorialToHorizon(galacticPoleRADeg, galacticPoleDecDeg, lat, lst)
}

// SolarSystemUpDirection points at the north ecliptic pole, the normal of
// the plane the planets travel in.
func SolarSystemUpDirection(instant time.Time, lat, lon float64) vecmath.Vec3 {
	lst := localSiderealDeg(instant.UTC(), lon)
	return equatorialToHorizon(eclipticPoleRADeg, eclipticPoleDecDeg, lat, lst)
}

// SunProperties aggregates direction, angles and distance of the sun
func SunProperties(instant time.Time, lat, lon float64) SunState {
	dir := SunDirection(instant, lat, lon)
	elevation, azimuth := ElevationAzimuth(dir)
	return SunState{
		Direction:     dir,
		ElevationDeg:  elevation,
		AzimuthDeg:    azimuth,
		DistanceAU:    sunDistanceAU(instant.UTC()),
		DaylightPhase: ClassifyDaylight(elevation),
	}
}

// MoonProperties aggregates direction, angles, phase and distance of the moon
func MoonProperties(instant time.Time, lat, lon float64) MoonState {
	t := instant.UTC()
	pos := suncalc.GetMoonPosition(t, clampLatitude(lat), lon)
	dir := horizonVector(pos.Altitude, pos.Azimuth)
	elevation, azimuth := ElevationAzimuth(dir)

	illum := suncalc.GetMoonIllumination(t)
	phase := wrapUnit(illum.Phase)
	fraction := vecmath.Clamp01(illum.Fraction)
	waxing := phase < 0.5

	return MoonState{
		Direction:            dir,
		ElevationDeg:         elevation,
		AzimuthDeg:           azimuth,
		PhaseFraction:        phase,
		IlluminationFraction: fraction,
		DistanceKm:           pos.Distance,
		PhaseName:            MoonPhaseName(fraction, waxing),
		IsWaxing:             waxing,
	}
}

// CalculateSunTimes returns dawn, sunrise, solar noon, sunset and dusk for
// the UTC day containing instant. Events that do not happen at high
// latitudes come back as the zero time.
func CalculateSunTimes(instant time.Time, lat, lon float64) SunTimes {
	times := suncalc.GetTimes(instant.UTC(), clampLatitude(lat), lon)
	pick := func(name suncalc.DayTimeName) time.Time {
		dt, ok := times[name]
		if !ok || dt.Value.IsZero() || dt.Value.Year() < 1000 {
			return time.Time{}
		}
		return dt.Value.UTC()
	}
	return SunTimes{
		Dawn:      pick(suncalc.Dawn),
		Sunrise:   pick(suncalc.Sunrise),
		SolarNoon: pick(suncalc.SolarNoon),
		Sunset:    pick(suncalc.Sunset),
		Dusk:      pick(suncalc.Dusk),
	}
}

// ClassifyDaylight names the light regime for a sun elevation in degrees
func ClassifyDaylight(elevationDeg float64) string {
	switch {
	case elevationDeg < -18:
		return "night"
	case elevationDeg < -12:
		return "astronomical_twilight"
	case elevationDeg < -6:
		return "nautical_twilight"
	case elevationDeg < 0:
		return "civil_twilight"
	case elevationDeg < 6:
		return "golden_hour"
	default:
		return "day"
	}
}

// MoonPhaseName returns the 8-phase name from illumination and direction
func MoonPhaseName(illumination float64, isWaxing bool) string {
	switch {
	case illumination < 0.01:
		return "New Moon"
	case illumination > 0.99:
		return "Full Moon"
	case illumination >= 0.49 && illumination <= 0.51:
		if isWaxing {
			return "First Quarter"
		}
		return "Third Quarter"
	case illumination < 0.50:
		if isWaxing {
			return "Waxing Crescent"
		}
		return "Waning Crescent"
	default:
		if isWaxing {
			return "Waxing Gibbous"
		}
		return "Waning Gibbous"
	}
}

func wrapUnit(x float64) float64 {
	x = math.Mod(x, 1)
	if x < 0 {
		x++
	}
	return x
}
