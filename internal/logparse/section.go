package logparse

import (
	"strings"

	"github.com/hydrolab/fishpass/internal/types"
)

// ExtractResult is the outcome of processing one section.  Malformed
// counts marked lines that failed full field extraction; it is diagnostic
// only and never treated as an error.
type ExtractResult struct {
	Particles []types.Particle
	Malformed int
}

// ExtractParticles applies the line parser to every line of a section and
// collects the particles that parse cleanly.  Lines without the
// user-message marker are chatter from other log channels and are skipped
// without counting; marked lines missing a required field count as
// malformed.  A section with zero valid particles is a normal result.
func ExtractParticles(section types.RawSection) ExtractResult {
	var result ExtractResult

	for _, line := range section.Lines {
		particle, ok := ParseLine(line)
		if ok {
			result.Particles = append(result.Particles, particle)
			continue
		}
		if strings.Contains(line, UserMessageMarker) {
			result.Malformed++
		}
	}

	return result
}
