package daynight

import (
	"fmt"
	"math"
	"strings"

	"github.com/saaga0h/jeeves-timeofday/pkg/vecmath"
)

// SpaceRamp describes where the planetary regime hands over to deep space
type SpaceRamp struct {
	// Start is the altitude where the ramp leaves 0
	Start float64
	// Threshold is the altitude where the ramp reaches 1
	Threshold float64
}

// DefaultSpaceRamp fades into space between 10,000 and 100,000 units
func DefaultSpaceRamp() SpaceRamp {
	return SpaceRamp{Start: 10000, Threshold: 100000}
}

// SpaceWeight is monotone in altitude and clamped to [0,1]. A ramp whose
// threshold does not exceed its start switches at the threshold.
func SpaceWeight(altitude float64, ramp SpaceRamp) float64 {
	if ramp.Threshold <= ramp.Start {
		if altitude >= ramp.Threshold {
			return 1
		}
		return 0
	}
	return vecmath.Clamp01(vecmath.Remap(altitude, ramp.Start, ramp.Threshold, 0, 1))
}

// SmoothingMode selects how displayed directions chase their targets
type SmoothingMode string

const (
	// SmoothingDisabled snaps to the target every tick
	SmoothingDisabled SmoothingMode = "disabled"
	// SmoothingFrame uses the elapsed seconds directly as the lerp factor.
	// Result depends on tick rate; kept for visual parity with older scenes.
	SmoothingFrame SmoothingMode = "frame"
	// SmoothingExponential decays the remaining angle at a fixed rate
	SmoothingExponential SmoothingMode = "exponential"
)

// ParseSmoothingMode accepts the mode names case-insensitively
func ParseSmoothingMode(s string) (SmoothingMode, error) {
	switch mode := SmoothingMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case SmoothingDisabled, SmoothingFrame, SmoothingExponential:
		return mode, nil
	case "":
		return SmoothingDisabled, nil
	default:
		return "", fmt.Errorf("invalid smoothing mode: %s (must be disabled, frame, or exponential)", s)
	}
}

// Smoothing configures Approach
type Smoothing struct {
	Mode SmoothingMode
	// Rate is the exponential decay rate per second
	Rate float64
}

// ApproachFactor is the interpolation weight applied for one tick
func ApproachFactor(elapsedSeconds float64, s Smoothing) float64 {
	if elapsedSeconds <= 0 {
		if s.Mode == SmoothingDisabled || s.Mode == "" {
			return 1
		}
		return 0
	}
	switch s.Mode {
	case SmoothingFrame:
		return vecmath.Clamp01(elapsedSeconds)
	case SmoothingExponential:
		if s.Rate <= 0 {
			return 1
		}
		return 1 - math.Exp(-s.Rate*elapsedSeconds)
	default:
		return 1
	}
}

// Approach moves a displayed direction toward target for one tick.
// A zero current direction (nothing shown yet) snaps to target.
func Approach(current, target vecmath.Vec3, elapsedSeconds float64, s Smoothing) vecmath.Vec3 {
	if current.Length() == 0 {
		return target.Normalize()
	}
	return current.Nlerp(target, ApproachFactor(elapsedSeconds, s))
}
