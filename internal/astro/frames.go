package astro

import (
	"math"
	"time"

	"github.com/saaga0h/jeeves-timeofday/pkg/vecmath"
)

const (
	julianUnixEpoch = 2440587.5
	julianJ2000     = 2451545.0

	// obliquity of the ecliptic, same value suncalc uses
	obliquityDeg = 23.4397

	// north galactic pole, J2000 equatorial
	galacticPoleRADeg  = 192.85948
	galacticPoleDecDeg = 27.12825

	// north ecliptic pole, J2000 equatorial
	eclipticPoleRADeg  = 270.0
	eclipticPoleDecDeg = 90.0 - obliquityDeg
)

// julianDate converts a UTC instant to a fractional Julian day
func julianDate(t time.Time) float64 {
	return julianUnixEpoch + float64(t.UnixNano())/86400e9
}

// daysSinceJ2000 returns fractional days since 2000-01-01 12:00 UTC
func daysSinceJ2000(t time.Time) float64 {
	return julianDate(t) - julianJ2000
}

// greenwichSiderealDeg is Greenwich mean sidereal time in degrees (IAU-82)
func greenwichSiderealDeg(t time.Time) float64 {
	d := daysSinceJ2000(t)
	T := d / 36525.0
	gmst := 280.46061837 + 360.98564736629*d + 0.000387933*T*T - T*T*T/38710000.0
	return vecmath.WrapDegrees(gmst)
}

// localSiderealDeg is local mean sidereal time in degrees; longitude is east-positive
func localSiderealDeg(t time.Time, lon float64) float64 {
	return vecmath.WrapDegrees(greenwichSiderealDeg(t) + lon)
}

// equatorialToHorizon rotates a fixed equatorial direction (right ascension,
// declination) into the observer's horizon frame. The construction is a pure
// rotation, so it stays defined at the poles where cos(latitude) is zero.
func equatorialToHorizon(raDeg, decDeg, lat, lst float64) vecmath.Vec3 {
	phi := vecmath.Radians(clampLatitude(lat))
	dec := vecmath.Radians(decDeg)
	h := vecmath.Radians(lst - raDeg)

	sinPhi, cosPhi := math.Sincos(phi)
	sinDec, cosDec := math.Sincos(dec)
	sinH, cosH := math.Sincos(h)

	return vecmath.Vec3{
		X: -cosDec * sinH,
		Y: sinPhi*sinDec + cosPhi*cosDec*cosH,
		Z: cosPhi*sinDec - sinPhi*cosDec*cosH,
	}.Normalize()
}

// horizonVector builds a unit direction from suncalc's altitude and
// south-based, west-positive azimuth (both radians).
func horizonVector(altitude, southAzimuth float64) vecmath.Vec3 {
	fromNorth := southAzimuth + math.Pi
	cosAlt := math.Cos(altitude)
	return vecmath.Vec3{
		X: cosAlt * math.Sin(fromNorth),
		Y: math.Sin(altitude),
		Z: cosAlt * math.Cos(fromNorth),
	}.Normalize()
}

// ElevationAzimuth derives elevation [-90,90] and compass azimuth [0,360)
// in degrees from a horizon-frame direction.
func ElevationAzimuth(dir vecmath.Vec3) (elevationDeg, azimuthDeg float64) {
	y := math.Max(-1, math.Min(1, dir.Y))
	elevationDeg = vecmath.Degrees(math.Asin(y))
	if math.Abs(dir.X) < 1e-12 && math.Abs(dir.Z) < 1e-12 {
		return elevationDeg, 0
	}
	azimuthDeg = vecmath.WrapDegrees(vecmath.Degrees(math.Atan2(dir.X, dir.Z)))
	return elevationDeg, azimuthDeg
}

// sunDistanceAU is the Earth-Sun distance from the mean anomaly
func sunDistanceAU(t time.Time) float64 {
	m := vecmath.Radians(357.5291 + 0.98560028*daysSinceJ2000(t))
	return 1.00014 - 0.01671*math.Cos(m) - 0.00014*math.Cos(2*m)
}
