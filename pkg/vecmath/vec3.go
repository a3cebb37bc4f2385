// Package vecmath provides the small vector type shared by the sky pipelines.
package vecmath

import "math"

// Vec3 is a 3D vector in the local horizon frame: X east, Y up, Z north.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Up is the local zenith.
var Up = Vec3{0, 1, 0}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Negate returns -v.
func (v Vec3) Negate() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

// Dot returns the dot product.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

// Length returns the magnitude.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns a unit vector. The zero vector stays zero.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// Lerp interpolates linearly between v and other; t is clamped to [0,1].
func (v Vec3) Lerp(other Vec3, t float64) Vec3 {
	t = Clamp01(t)
	return v.Add(other.Sub(v).Scale(t))
}

// Nlerp interpolates between two directions and renormalizes the result.
// When the two directions cancel out the target is returned.
func (v Vec3) Nlerp(other Vec3, t float64) Vec3 {
	r := v.Lerp(other, t)
	if r.Length() < 1e-9 {
		return other.Normalize()
	}
	return r.Normalize()
}

// ApproxEqual reports whether every component differs by at most eps.
func (v Vec3) ApproxEqual(other Vec3, eps float64) bool {
	return math.Abs(v.X-other.X) <= eps &&
		math.Abs(v.Y-other.Y) <= eps &&
		math.Abs(v.Z-other.Z) <= eps
}

// Clamp01 clamps x to [0,1]. NaN maps to 0.
func Clamp01(x float64) float64 {
	if x != x || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Remap maps x from [inMin,inMax] onto [outMin,outMax] without clamping.
// A zero-width input range maps everything at or above inMax to outMax.
func Remap(x, inMin, inMax, outMin, outMax float64) float64 {
	if inMax == inMin {
		if x >= inMax {
			return outMax
		}
		return outMin
	}
	return outMin + (x-inMin)*(outMax-outMin)/(inMax-inMin)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// WrapDegrees wraps an angle to [0, 360).
func WrapDegrees(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	if angle >= 360 {
		angle = 0
	}
	return angle
}
