package stats

import (
	"math"
	"testing"

	"github.com/hydrolab/fishpass/internal/types"
)

const epsilon = 1e-9

func particlesWithVelocity(values ...float64) []types.Particle {
	particles := make([]types.Particle, len(values))
	for i, v := range values {
		particles[i] = types.Particle{Velocity: v}
	}
	return particles
}

func TestVelocity(t *testing.T) {
	tests := []struct {
		name           string
		particles      []types.Particle
		expectedMean   float64
		expectedStdDev float64
		defined        bool
	}{
		{
			name:           "single particle has zero deviation",
			particles:      particlesWithVelocity(3.0),
			expectedMean:   3.0,
			expectedStdDev: 0.0,
			defined:        true,
		},
		{
			name:           "constant velocities",
			particles:      particlesWithVelocity(1.5, 1.5, 1.5),
			expectedMean:   1.5,
			expectedStdDev: 0.0,
			defined:        true,
		},
		{
			// Population standard deviation: sqrt(mean of squared deviations),
			// not the sample estimator.
			name:           "population standard deviation",
			particles:      particlesWithVelocity(2, 4, 4, 4, 5, 5, 7, 9),
			expectedMean:   5.0,
			expectedStdDev: 2.0,
			defined:        true,
		},
		{
			name:           "reported values rounded to three decimals",
			particles:      particlesWithVelocity(1.0001, 1.0002),
			expectedMean:   1.0,
			expectedStdDev: 0.0,
			defined:        true,
		},
		{
			name:      "empty collection is undefined",
			particles: nil,
			defined:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Velocity(tt.particles)

			if result.Defined != tt.defined {
				t.Fatalf("expected defined=%v, got defined=%v", tt.defined, result.Defined)
			}

			if !tt.defined {
				if !math.IsNaN(result.Mean) || !math.IsNaN(result.StdDev) {
					t.Errorf("undefined stats should be NaN, got mean=%v sd=%v", result.Mean, result.StdDev)
				}
				return
			}

			if math.Abs(result.Mean-tt.expectedMean) > epsilon {
				t.Errorf("mean: expected %v, got %v", tt.expectedMean, result.Mean)
			}
			if math.Abs(result.StdDev-tt.expectedStdDev) > epsilon {
				t.Errorf("stddev: expected %v, got %v", tt.expectedStdDev, result.StdDev)
			}
		})
	}
}

func TestCrossSectionAggregate(t *testing.T) {
	a := NewCrossSectionAggregate()

	a.Add(11, 10)
	a.Add(11, 20)
	a.Add(41, 7)
	a.Add(types.Unclassified, 100)

	avg, ok := a.Average(11)
	if !ok {
		t.Fatal("expected key 11 to be present")
	}
	if math.Abs(avg-15.0) > epsilon {
		t.Errorf("key 11: expected average 15.0, got %v", avg)
	}

	avg, ok = a.Average(41)
	if !ok {
		t.Fatal("expected key 41 to be present")
	}
	if math.Abs(avg-7.0) > epsilon {
		t.Errorf("key 41: expected average 7.0, got %v", avg)
	}

	// Unclassified sections contribute to no key
	if _, ok := a.Average(types.Unclassified); ok {
		t.Error("unclassified must never appear in the aggregate")
	}

	// Keys never assigned are absent, not zero
	if _, ok := a.Average(21); ok {
		t.Error("key 21 was never assigned and must be absent")
	}
}

func TestCrossSectionAggregateAdditivity(t *testing.T) {
	a := NewCrossSectionAggregate()
	a.Add(11, 10)

	before, _ := a.Average(11)

	// Adding a section under another key never changes key 11's average
	a.Add(41, 500)
	after, _ := a.Average(11)

	if before != after {
		t.Errorf("key 11 average changed from %v to %v after unrelated add", before, after)
	}

	// Adding under the same key updates only that key's average
	a.Add(11, 20)
	updated, _ := a.Average(11)
	if math.Abs(updated-15.0) > epsilon {
		t.Errorf("key 11: expected average 15.0, got %v", updated)
	}
}

func TestCrossSectionAggregateZeroCountSection(t *testing.T) {
	// A classified section with zero particles still contributes a zero to
	// its key's average.
	a := NewCrossSectionAggregate()
	a.Add(11, 0)
	a.Add(11, 10)

	avg, ok := a.Average(11)
	if !ok {
		t.Fatal("expected key 11 to be present")
	}
	if math.Abs(avg-5.0) > epsilon {
		t.Errorf("expected average 5.0, got %v", avg)
	}
}

func TestAverages(t *testing.T) {
	a := NewCrossSectionAggregate()
	a.Add(11, 3)
	a.Add(41, 5)
	a.Add(41, 6)

	averages := a.Averages()
	if len(averages) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(averages))
	}
	if math.Abs(averages[11]-3.0) > epsilon {
		t.Errorf("key 11: expected 3.0, got %v", averages[11])
	}
	// 5.5 survives the one-decimal rounding
	if math.Abs(averages[41]-5.5) > epsilon {
		t.Errorf("key 41: expected 5.5, got %v", averages[41])
	}

	keys := a.Keys()
	if len(keys) != 2 || keys[0] != 11 || keys[1] != 41 {
		t.Errorf("expected sorted keys [11 41], got %v", keys)
	}
}

func TestRounding(t *testing.T) {
	if got := Round3(1.23456); got != 1.235 {
		t.Errorf("Round3(1.23456): expected 1.235, got %v", got)
	}
	if got := Round1(7.36); got != 7.4 {
		t.Errorf("Round1(7.36): expected 7.4, got %v", got)
	}
	if got := Round1(7.34); got != 7.3 {
		t.Errorf("Round1(7.34): expected 7.3, got %v", got)
	}
}
