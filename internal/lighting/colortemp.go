package lighting

import "github.com/saaga0h/jeeves-timeofday/pkg/vecmath"

// colorTempAnchor pins a sun color temperature to an elevation in degrees
type colorTempAnchor struct {
	elevation float64
	kelvin    float64
}

// sunColorTemps follows the sky from red sunsets to white midday light
var sunColorTemps = []colorTempAnchor{
	{-6, 1800}, // deep twilight glow
	{0, 2000},  // sun on the horizon
	{6, 3500},  // golden hour
	{15, 4500}, // low morning/evening sun
	{35, 5500}, // daylight
	{60, 6500}, // high summer sun
}

const (
	// spaceSunKelvin is the unfiltered photosphere seen from orbit
	spaceSunKelvin = 5778
	moonKelvin     = 4100
)

// calculateColorTemperature returns the sun color temperature for an elevation,
// interpolating between anchors and clamping at both ends
func calculateColorTemperature(elevationDeg float64) float64 {
	first := sunColorTemps[0]
	if elevationDeg <= first.elevation {
		return first.kelvin
	}

	for i := 1; i < len(sunColorTemps); i++ {
		prev, next := sunColorTemps[i-1], sunColorTemps[i]
		if elevationDeg <= next.elevation {
			t := (elevationDeg - prev.elevation) / (next.elevation - prev.elevation)
			return prev.kelvin + (next.kelvin-prev.kelvin)*vecmath.Clamp01(t)
		}
	}

	return sunColorTemps[len(sunColorTemps)-1].kelvin
}
