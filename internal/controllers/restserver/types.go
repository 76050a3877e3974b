package restserver

import (
	"math"
	"sort"
	"time"

	"github.com/hydrolab/fishpass/internal/types"
)

// API response types.  Statistics are pointers so sections without
// particles serialize as null instead of an unencodable NaN.

type runSummary struct {
	RunID          string    `json:"run_id"`
	Started        time.Time `json:"started"`
	SectionCount   int       `json:"section_count"`
	Classified     int       `json:"classified_sections"`
	MeanSDVelocity *float64  `json:"mean_sd_velocity"`
}

type sectionResponse struct {
	Section          int      `json:"section"`
	XS               string   `json:"xs"`
	ParticleCount    int      `json:"valid_particle_count"`
	MalformedLines   int      `json:"malformed_lines"`
	AvgVelocity      *float64 `json:"avg_velocity"`
	SDVelocity       *float64 `json:"sd_velocity"`
	AvgParticleCount float64  `json:"avg_particle"`
}

type crossSectionResponse struct {
	XS               string  `json:"xs"`
	AvgParticleCount float64 `json:"avg_particle"`
}

func newSectionResponse(sr types.SectionResult, avgParticle float64) sectionResponse {
	return sectionResponse{
		Section:          sr.Section,
		XS:               sr.Key.String(),
		ParticleCount:    sr.ParticleCount,
		MalformedLines:   sr.MalformedLines,
		AvgVelocity:      optionalStat(sr.Stats.Mean, sr.Stats.Defined),
		SDVelocity:       optionalStat(sr.Stats.StdDev, sr.Stats.Defined),
		AvgParticleCount: avgParticle,
	}
}

func optionalStat(v float64, defined bool) *float64 {
	if !defined || math.IsNaN(v) {
		return nil
	}
	return &v
}

func sortedKeys(m map[types.XSKey]float64) []types.XSKey {
	keys := make([]types.XSKey, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
