// Package pipeline orchestrates a full analysis run: split the log into
// sections, extract particles, classify cross-sections, and aggregate
// statistics.
package pipeline

import (
	"context"
	"io"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hydrolab/fishpass/internal/classify"
	"github.com/hydrolab/fishpass/internal/logparse"
	"github.com/hydrolab/fishpass/internal/stats"
	"github.com/hydrolab/fishpass/internal/types"
	"github.com/hydrolab/fishpass/pkg/config"
)

// Pipeline runs the section analysis over one already-captured log.
type Pipeline struct {
	cfg        *config.ConfigData
	classifier *classify.Classifier
	axisLimits map[int]config.AxisLimitData
	logger     *zap.SugaredLogger
}

// RunResult is the complete outcome of one analysis run.  Sections appear
// in log order; Averages maps each assigned cross-section key to its mean
// per-section particle count.
type RunResult struct {
	RunID    string
	Started  time.Time
	Sections []types.SectionResult
	Averages map[types.XSKey]float64
	Rows     []types.SectionRow
}

// New creates a Pipeline from a validated configuration.
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		classifier: classify.FromConfig(cfg.Classification),
		axisLimits: cfg.AxisLimitsByKey(),
		logger:     logger,
	}
}

// Run reads the full log text from r and produces the per-section results,
// the cross-section aggregate, and the tabular rows for storage sinks.
// Sections are processed concurrently; the aggregate is built afterwards
// in a single ordered reduction so its additivity never depends on
// goroutine scheduling.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (*RunResult, error) {
	sections, err := logparse.ReadSections(r, p.cfg.Input.Delimiter)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:    uuid.New().String(),
		Started:  time.Now(),
		Sections: make([]types.SectionResult, len(sections)),
	}

	p.logger.Infof("processing %d sections (run %s)", len(sections), result.RunID)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, section := range sections {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result.Sections[i] = p.processSection(section)
			return nil
		})
	}

	// Section processing itself never fails; a cancelled run stops
	// scheduling sections and surfaces the context error here.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.reduce(result)

	return result, nil
}

// processSection extracts and classifies one section and computes its
// velocity statistics.  Statistics always run over the full particle set;
// the velocity-floor filter only trims the collection handed downstream.
func (p *Pipeline) processSection(section types.RawSection) types.SectionResult {
	extracted := logparse.ExtractParticles(section)

	sr := types.SectionResult{
		Section:        section.Index,
		Particles:      extracted.Particles,
		ParticleCount:  len(extracted.Particles),
		MalformedLines: extracted.Malformed,
		Key:            p.classifier.Classify(extracted.Particles, section.Index),
		Stats:          stats.Velocity(extracted.Particles),
	}

	if p.cfg.Filter.VelocityFloorEnabled {
		sr.Particles = filterByVelocity(sr.Particles, p.cfg.Filter.VelocityFloor)
	}

	return sr
}

// reduce builds the cross-section aggregate and the storage rows from the
// finalized per-section results.  This is the only place the shared
// aggregate is touched.
func (p *Pipeline) reduce(result *RunResult) {
	aggregate := stats.NewCrossSectionAggregate()
	for _, sr := range result.Sections {
		aggregate.Add(sr.Key, sr.ParticleCount)
	}
	result.Averages = aggregate.Averages()

	result.Rows = make([]types.SectionRow, len(result.Sections))
	for i, sr := range result.Sections {
		avgParticle := 0.0
		if avg, ok := aggregate.Average(sr.Key); ok {
			avgParticle = avg
		}

		result.Rows[i] = types.SectionRow{
			RunID:            result.RunID,
			Time:             result.Started,
			Section:          sr.Section,
			XS:               sr.Key.String(),
			ParticleCount:    sr.ParticleCount,
			AvgVelocity:      sr.Stats.Mean,
			SDVelocity:       sr.Stats.StdDev,
			AvgParticleCount: avgParticle,
		}

		if sr.MalformedLines > 0 {
			p.logger.Debugf("section %d: %d malformed particle lines dropped", sr.Section, sr.MalformedLines)
		}
		if sr.Key.Classified() {
			if _, ok := p.axisLimits[int(sr.Key)]; !ok && len(p.axisLimits) > 0 {
				p.logger.Warnf("no axis limits configured for XS %s; section %d plots will use defaults", sr.Key, sr.Section)
			}
			p.logger.Infof("section %d: XS %s, %d valid particles, avg velocity %.3f m/s",
				sr.Section, sr.Key, sr.ParticleCount, sr.Stats.Mean)
		}
	}
}

// MeanSDVelocity returns the mean of the per-section velocity standard
// deviations over sections that had particles.  ok is false when no
// section had any.
func (r *RunResult) MeanSDVelocity() (float64, bool) {
	var sum float64
	var n int
	for _, sr := range r.Sections {
		if sr.Stats.Defined {
			sum += sr.Stats.StdDev
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// TopBySDVelocity returns up to n section results ordered by descending
// velocity standard deviation, skipping sections without statistics.
func (r *RunResult) TopBySDVelocity(n int) []types.SectionResult {
	defined := make([]types.SectionResult, 0, len(r.Sections))
	for _, sr := range r.Sections {
		if sr.Stats.Defined {
			defined = append(defined, sr)
		}
	}

	// Insertion sort; section counts are small and order must be stable.
	for i := 1; i < len(defined); i++ {
		for j := i; j > 0 && defined[j].Stats.StdDev > defined[j-1].Stats.StdDev; j-- {
			defined[j], defined[j-1] = defined[j-1], defined[j]
		}
	}

	if len(defined) > n {
		defined = defined[:n]
	}
	return defined
}

func filterByVelocity(particles []types.Particle, floor float64) []types.Particle {
	filtered := make([]types.Particle, 0, len(particles))
	for _, p := range particles {
		if p.Velocity >= floor {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
