// Package classify assigns cross-section keys to sections using an
// ordered, externally supplied threshold rule table.
package classify

import (
	"github.com/hydrolab/fishpass/internal/types"
	"github.com/hydrolab/fishpass/pkg/config"
)

// Rule maps a section ordinal range plus a mean-XS range to a
// cross-section key.  Both ranges are inclusive; SectionMax 0 means the
// rule has no upper section bound.  The rule boundaries encode the
// specific fish-pass geometry and always arrive from configuration.
type Rule struct {
	SectionMin int
	SectionMax int
	XSMin      float64
	XSMax      float64
	Key        types.XSKey
}

// Classifier evaluates an ordered rule list, first match wins.
type Classifier struct {
	rules []Rule
}

// New creates a Classifier from an ordered rule list.
func New(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// FromConfig builds a Classifier from the configuration rule table,
// preserving the configured evaluation order.
func FromConfig(rules []config.ClassificationRuleData) *Classifier {
	converted := make([]Rule, len(rules))
	for i, r := range rules {
		converted[i] = Rule{
			SectionMin: r.SectionMin,
			SectionMax: r.SectionMax,
			XSMin:      r.XSMin,
			XSMax:      r.XSMax,
			Key:        types.XSKey(r.Key),
		}
	}
	return New(converted)
}

// Classify returns the cross-section key for a section given its particle
// collection and 1-based ordinal.  The key is derived from the mean of the
// particles' raw XS values; a section with no particles has no mean and is
// Unclassified, as is any mean no rule covers.  The same inputs always
// produce the same key.
func (c *Classifier) Classify(particles []types.Particle, section int) types.XSKey {
	meanXS, ok := MeanXS(particles)
	if !ok {
		return types.Unclassified
	}

	for _, r := range c.rules {
		if section < r.SectionMin {
			continue
		}
		if r.SectionMax != 0 && section > r.SectionMax {
			continue
		}
		if meanXS < r.XSMin || meanXS > r.XSMax {
			continue
		}
		return r.Key
	}

	return types.Unclassified
}

// MeanXS computes the arithmetic mean of the particles' raw XS values.
// ok is false for an empty collection; no NaN ever escapes.
func MeanXS(particles []types.Particle) (float64, bool) {
	if len(particles) == 0 {
		return 0, false
	}

	var sum float64
	for _, p := range particles {
		sum += p.XS
	}

	return sum / float64(len(particles)), true
}
