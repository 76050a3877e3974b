// Package types contains the core data structures shared across the
// fishpass analysis pipeline.
package types

import (
	"math"
	"strconv"
	"time"
)

// RawSection is one delimited run of log lines, in source order.  Sections
// are created once by the splitter and never mutated afterwards.
type RawSection struct {
	// Index is the 1-based ordinal of the section in the log.
	Index int
	Lines []string
}

// Particle is one parsed simulation sample.  Y and Z are the planar
// position components in meters, Velocity is the velocity magnitude in
// m/s, and XS is the raw longitudinal marker value used only for
// cross-section bucketing.
type Particle struct {
	Y        float64
	Z        float64
	Velocity float64
	XS       float64
}

// XSKey identifies a discrete cross-section bucket along the fish-pass
// (e.g. 11, 41).  The zero value means the section could not be matched
// against any classification rule.
type XSKey int

// Unclassified is the sentinel key for sections no rule matched.
const Unclassified XSKey = 0

// Classified reports whether the key names a real cross-section bucket.
func (k XSKey) Classified() bool {
	return k != Unclassified
}

func (k XSKey) String() string {
	if k == Unclassified {
		return "unclassified"
	}
	return strconv.Itoa(int(k))
}

// VelocityStats holds a section's velocity statistics.  Defined is false
// when the section had no particles, in which case Mean and StdDev carry
// no meaning and must not be compared.
type VelocityStats struct {
	Mean    float64
	StdDev  float64
	Defined bool
}

// SectionResult is the complete per-section outcome of the pipeline.
type SectionResult struct {
	Section        int
	Particles      []Particle
	ParticleCount  int
	MalformedLines int
	Key            XSKey
	Stats          VelocityStats
}

// SectionRow is the flat per-section record handed to storage sinks.
// AvgVelocity and SDVelocity are NaN when the section had no particles.
type SectionRow struct {
	RunID            string    `gorm:"column:run_id" json:"run_id"`
	Time             time.Time `gorm:"column:time" json:"time"`
	Section          int       `gorm:"column:section" json:"section"`
	XS               string    `gorm:"column:xs" json:"xs"`
	ParticleCount    int       `gorm:"column:valid_particle_count" json:"valid_particle_count"`
	AvgVelocity      float64   `gorm:"column:avg_velocity" json:"avg_velocity"`
	SDVelocity       float64   `gorm:"column:sd_velocity" json:"sd_velocity"`
	AvgParticleCount float64   `gorm:"column:avg_particle" json:"avg_particle"`
}

// TableName implements the gorm Tabler interface so rows land in the
// section_stats table.
func (SectionRow) TableName() string {
	return "section_stats"
}

// StatsDefined reports whether the row carries real velocity statistics.
// Rows for particle-free sections hold NaN.
func (r SectionRow) StatsDefined() bool {
	return !math.IsNaN(r.AvgVelocity)
}
