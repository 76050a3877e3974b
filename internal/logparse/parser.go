package logparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hydrolab/fishpass/internal/types"
)

// UserMessageMarker tags lines emitted by the simulation's user-message
// channel.  Only marked lines can carry particle records.
const UserMessageMarker = "LogBlueprintUserMessages"

// Simulator positions and velocities are logged in engine centimeters.
const cmPerMeter = 100.0

// One pattern per required field family.  Labels are case-sensitive and
// field order within a line is not guaranteed, so each extractor scans the
// whole line independently.
var (
	keyPattern            = regexp.MustCompile(`KEY:\s*\d+`)
	vectorPattern         = regexp.MustCompile(`VECTOR:\s*X=(-?[\d.]+)\s+Y=(-?[\d.]+)\s+Z=(-?[\d.]+)`)
	velocityScalarPattern = regexp.MustCompile(`VELOCITY:\s*(-?[\d.]+)`)
	velocityVectorPattern = regexp.MustCompile(`VELOCITY:\s*X=(-?[\d.]+)\s+Y=(-?[\d.]+)\s+Z=(-?[\d.]+)`)
	xsPattern             = regexp.MustCompile(`XS(\d+)`)
)

// ParseLine attempts to extract one Particle from a raw log line.  A line
// yields a Particle only when the user-message marker and all four field
// families are present and well formed; anything less returns ok=false and
// no partial particle.  Y, Z, and velocity are converted from engine
// centimeters to meters; velocity is additionally rounded to three
// decimals.  The raw XS value is kept unscaled.
func ParseLine(line string) (types.Particle, bool) {
	if !strings.Contains(line, UserMessageMarker) {
		return types.Particle{}, false
	}
	if !keyPattern.MatchString(line) {
		return types.Particle{}, false
	}

	y, z, ok := extractVector(line)
	if !ok {
		return types.Particle{}, false
	}

	velocity, ok := extractVelocity(line)
	if !ok {
		return types.Particle{}, false
	}

	xs, ok := extractXS(line)
	if !ok {
		return types.Particle{}, false
	}

	return types.Particle{
		Y:        y / cmPerMeter,
		Z:        z / cmPerMeter,
		Velocity: round3(velocity / cmPerMeter),
		XS:       xs,
	}, true
}

// extractVector pulls the Y and Z components out of the position vector.
// The X component is matched but discarded: the fish-pass is analyzed in
// cross-section, not along its length.  Components are parsed from within
// the VECTOR match so a velocity vector elsewhere on the line cannot be
// mistaken for position.
func extractVector(line string) (y, z float64, ok bool) {
	m := vectorPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}

	y, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	z, err = strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, 0, false
	}

	return y, z, true
}

// extractVelocity returns the velocity magnitude.  The simulator logs
// either a plain scalar (VELOCITY: 123.4) or a small embedded vector
// (VELOCITY: X=.. Y=.. Z=..) whose magnitude is taken.
func extractVelocity(line string) (float64, bool) {
	if m := velocityScalarPattern.FindStringSubmatch(line); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		return math.Abs(v), true
	}

	if m := velocityVectorPattern.FindStringSubmatch(line); m != nil {
		var components [3]float64
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(m[i+1], 64)
			if err != nil {
				return 0, false
			}
			components[i] = v
		}
		return math.Sqrt(components[0]*components[0] +
			components[1]*components[1] +
			components[2]*components[2]), true
	}

	return 0, false
}

// extractXS returns the raw longitudinal marker value (the digits of the
// XS<n> token).  It is used only for cross-section bucketing.
func extractXS(line string) (float64, bool) {
	m := xsPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}

	xs, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	return float64(xs), true
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
