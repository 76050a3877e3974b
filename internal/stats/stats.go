// Package stats computes per-section velocity statistics and the running
// per-cross-section particle count aggregate.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/hydrolab/fishpass/internal/types"
)

// Velocity computes the mean and population standard deviation of the
// particles' velocity field, rounded to three decimals for reporting.
// Defined is false for an empty collection; Mean and StdDev are then NaN
// and must be checked via the flag, never compared.
func Velocity(particles []types.Particle) types.VelocityStats {
	if len(particles) == 0 {
		return types.VelocityStats{
			Mean:   math.NaN(),
			StdDev: math.NaN(),
		}
	}

	velocities := make([]float64, len(particles))
	for i, p := range particles {
		velocities[i] = p.Velocity
	}

	return types.VelocityStats{
		Mean:    Round3(stat.Mean(velocities, nil)),
		StdDev:  Round3(stat.PopStdDev(velocities, nil)),
		Defined: true,
	}
}

// Round3 rounds to three decimal places, the reporting precision used
// throughout the pipeline.
func Round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

// Round1 rounds to one decimal place, used for per-key average particle
// counts.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// CrossSectionAggregate accumulates per-section particle counts by
// cross-section key.  It is strictly additive: a section's contribution is
// recorded once and never revised.  Unclassified sections are ignored.
type CrossSectionAggregate struct {
	totals   map[types.XSKey]int
	sections map[types.XSKey]int
}

// NewCrossSectionAggregate creates an empty aggregate.
func NewCrossSectionAggregate() *CrossSectionAggregate {
	return &CrossSectionAggregate{
		totals:   make(map[types.XSKey]int),
		sections: make(map[types.XSKey]int),
	}
}

// Add records one finalized section's particle count under its key.
// Unclassified sections contribute to no key's average.
func (a *CrossSectionAggregate) Add(key types.XSKey, particleCount int) {
	if !key.Classified() {
		return
	}
	a.totals[key] += particleCount
	a.sections[key]++
}

// Average returns the mean per-section particle count for a key, rounded
// to one decimal.  ok is false for keys never assigned to any section.
func (a *CrossSectionAggregate) Average(key types.XSKey) (float64, bool) {
	n, present := a.sections[key]
	if !present || n == 0 {
		return 0, false
	}
	return Round1(float64(a.totals[key]) / float64(n)), true
}

// Averages returns the full key → average particle count mapping.  Only
// keys that were assigned at least once appear.
func (a *CrossSectionAggregate) Averages() map[types.XSKey]float64 {
	averages := make(map[types.XSKey]float64, len(a.sections))
	for key := range a.sections {
		if avg, ok := a.Average(key); ok {
			averages[key] = avg
		}
	}
	return averages
}

// Keys returns the assigned keys in ascending order, for deterministic
// reporting.
func (a *CrossSectionAggregate) Keys() []types.XSKey {
	keys := make([]types.XSKey, 0, len(a.sections))
	for key := range a.sections {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
