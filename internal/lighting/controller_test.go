package lighting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saaga0h/jeeves-timeofday/internal/astro"
	"github.com/saaga0h/jeeves-timeofday/pkg/vecmath"
)

func sunAt(elevationDeg float64) astro.SunState {
	rad := vecmath.Radians(elevationDeg)
	return astro.SunState{
		Direction:    vecmath.Vec3{Y: math.Sin(rad), Z: -math.Cos(rad)},
		ElevationDeg: elevationDeg,
		AzimuthDeg:   180,
		DistanceAU:   1,
	}
}

func moonAt(elevationDeg, illumination float64) astro.MoonState {
	rad := vecmath.Radians(elevationDeg)
	return astro.MoonState{
		Direction:            vecmath.Vec3{Y: math.Sin(rad), Z: math.Cos(rad)},
		ElevationDeg:         elevationDeg,
		IlluminationFraction: illumination,
		DistanceKm:           meanMoonDistanceKm,
	}
}

func TestIsSunAboveHorizon(t *testing.T) {
	assert.True(t, IsSunAboveHorizon(sunAt(30)))
	assert.True(t, IsSunAboveHorizon(sunAt(0)))
	assert.False(t, IsSunAboveHorizon(sunAt(-0.5)))
}

func TestUpdateLightProperties_Day(t *testing.T) {
	c := NewController(DefaultSettings())

	p := c.UpdateLightProperties(sunAt(45), moonAt(-20, 0.5), 0)

	assert.True(t, p.SunAboveHorizon)
	assert.False(t, p.MoonAboveHorizon)
	assert.InDelta(t, 1.0, p.SunIntensity, 1e-9)
	assert.InDelta(t, 5500+1000*(10.0/25.0), p.SunColorTempK, 1e-9)
	assert.Equal(t, 0.0, p.MoonIntensity)
	assert.Equal(t, "sun above horizon - daylight", p.Reason)
}

func TestUpdateLightProperties_Night(t *testing.T) {
	c := NewController(DefaultSettings())

	p := c.UpdateLightProperties(sunAt(-30), moonAt(40, 1.0), 0)

	assert.False(t, p.SunAboveHorizon)
	assert.True(t, p.MoonAboveHorizon)
	assert.Equal(t, 0.0, p.SunIntensity)
	assert.InDelta(t, 1.0, p.MoonIntensity, 1e-9)
	assert.Equal(t, 0.0, p.Earthshine, "a full moon shows no earthshine")
	assert.Equal(t, "night - moonlit", p.Reason)
}

func TestUpdateLightProperties_SunIntensityMonotoneThroughSunrise(t *testing.T) {
	c := NewController(DefaultSettings())
	moon := moonAt(-10, 0.3)

	prev := -1.0
	for elevation := -10.0; elevation <= 20; elevation += 0.5 {
		p := c.UpdateLightProperties(sunAt(elevation), moon, 0)
		assert.GreaterOrEqual(t, p.SunIntensity, prev, "elevation %v", elevation)
		prev = p.SunIntensity
	}
}

func TestUpdateLightProperties_EarthshineFadesWithSpaceWeight(t *testing.T) {
	c := NewController(DefaultSettings())
	sun := sunAt(-20)
	moon := moonAt(30, 0.1)

	ground := c.UpdateLightProperties(sun, moon, 0)
	assert.InDelta(t, 0.05*0.9, ground.Earthshine, 1e-9)

	prev := ground.Earthshine
	for w := 0.1; w <= 1.0001; w += 0.1 {
		p := c.UpdateLightProperties(sun, moon, w)
		assert.LessOrEqual(t, p.Earthshine, prev)
		prev = p.Earthshine
	}
	assert.InDelta(t, 0.0, prev, 1e-9)
}

func TestUpdateLightProperties_DeepSpace(t *testing.T) {
	c := NewController(DefaultSettings())

	p := c.UpdateLightProperties(sunAt(-45), moonAt(-45, 0.5), 1)

	assert.InDelta(t, 1.0, p.SunIntensity, 1e-9, "the horizon no longer hides the sun")
	assert.InDelta(t, spaceSunKelvin, p.SunColorTempK, 1e-9)
	assert.InDelta(t, 0.5, p.MoonIntensity, 1e-9)
	assert.Equal(t, 0.0, p.Earthshine)
	assert.Equal(t, "deep space - unobstructed sun", p.Reason)
}

func TestUpdateLightProperties_DegenerateDistances(t *testing.T) {
	c := NewController(DefaultSettings())
	sun := sunAt(45)
	sun.DistanceAU = 0
	moon := moonAt(45, 1)
	moon.DistanceKm = 0

	p := c.UpdateLightProperties(sun, moon, 0)
	assert.False(t, math.IsInf(p.SunIntensity, 0) || math.IsNaN(p.SunIntensity))
	assert.False(t, math.IsInf(p.MoonIntensity, 0) || math.IsNaN(p.MoonIntensity))
}

func TestCalculateColorTemperature(t *testing.T) {
	tests := []struct {
		elevation float64
		want      float64
	}{
		{-30, 1800},
		{-6, 1800},
		{-3, 1900},
		{0, 2000},
		{6, 3500},
		{35, 5500},
		{90, 6500},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, calculateColorTemperature(tt.elevation), 1e-9, "elevation %v", tt.elevation)
	}
}
