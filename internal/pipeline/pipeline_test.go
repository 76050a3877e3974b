package pipeline

import (
	"context"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hydrolab/fishpass/internal/types"
	"github.com/hydrolab/fishpass/pkg/config"
)

const epsilon = 1e-9

func testConfig() *config.ConfigData {
	return &config.ConfigData{
		Input: config.InputData{Delimiter: "STOP"},
		Classification: []config.ClassificationRuleData{
			{SectionMin: 1, SectionMax: 0, XSMin: 0, XSMax: 20, Key: 11},
		},
	}
}

func runPipeline(t *testing.T, cfg *config.ConfigData, input string) *RunResult {
	t.Helper()

	p := New(cfg, zap.NewNop().Sugar())
	result, err := p.Run(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

const particleLine = "LogBlueprintUserMessages: KEY: 7 VECTOR: X=500.00 Y=100.00 Z=200.00 VELOCITY: 300.00 XS10"

func TestRunThreeSections(t *testing.T) {
	// Three sections separated by two delimiter lines, one well-formed
	// particle each: Y=1.0, Z=2.0, velocity=3.0, XS=10.
	input := particleLine + "\nSTOP\n" + particleLine + "\nSTOP\n" + particleLine + "\n"

	result := runPipeline(t, testConfig(), input)

	if len(result.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(result.Sections))
	}
	if result.RunID == "" {
		t.Error("expected a run ID")
	}

	for i, sr := range result.Sections {
		if sr.Section != i+1 {
			t.Errorf("section %d: expected ordinal %d, got %d", i, i+1, sr.Section)
		}
		if sr.ParticleCount != 1 {
			t.Errorf("section %d: expected 1 particle, got %d", i+1, sr.ParticleCount)
		}
		if !sr.Stats.Defined {
			t.Fatalf("section %d: expected defined stats", i+1)
		}
		if math.Abs(sr.Stats.Mean-3.0) > epsilon {
			t.Errorf("section %d: expected mean velocity 3.0, got %v", i+1, sr.Stats.Mean)
		}
		if math.Abs(sr.Stats.StdDev-0.0) > epsilon {
			t.Errorf("section %d: expected stddev 0.0, got %v", i+1, sr.Stats.StdDev)
		}
		if sr.Key != 11 {
			t.Errorf("section %d: expected key 11, got %v", i+1, sr.Key)
		}
	}

	if avg, ok := result.Averages[11]; !ok || math.Abs(avg-1.0) > epsilon {
		t.Errorf("expected key 11 average 1.0, got %v (present=%v)", avg, ok)
	}
}

func TestRunMalformedLineDiagnostics(t *testing.T) {
	input := particleLine + "\n" +
		"LogBlueprintUserMessages: KEY: 9 VECTOR: X=1.0 Y=2.0 Z=3.0 XS10\n"

	result := runPipeline(t, testConfig(), input)

	if len(result.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(result.Sections))
	}
	sr := result.Sections[0]
	if sr.ParticleCount != 1 {
		t.Errorf("expected 1 particle, got %d", sr.ParticleCount)
	}
	if sr.MalformedLines != 1 {
		t.Errorf("expected 1 malformed line, got %d", sr.MalformedLines)
	}
}

func TestRunEmptySection(t *testing.T) {
	input := "STOP\n" + particleLine + "\n"

	result := runPipeline(t, testConfig(), input)

	if len(result.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(result.Sections))
	}

	empty := result.Sections[0]
	if empty.ParticleCount != 0 {
		t.Errorf("expected 0 particles, got %d", empty.ParticleCount)
	}
	if empty.Stats.Defined {
		t.Error("empty section must have undefined stats")
	}
	if empty.Key != types.Unclassified {
		t.Errorf("empty section must be unclassified, got %v", empty.Key)
	}

	// Undefined stats surface as NaN in the row, never as zero
	row := result.Rows[0]
	if !math.IsNaN(row.AvgVelocity) || !math.IsNaN(row.SDVelocity) {
		t.Errorf("expected NaN stats in row, got avg=%v sd=%v", row.AvgVelocity, row.SDVelocity)
	}
}

func TestRunUnclassifiedExcludedFromAverages(t *testing.T) {
	// Second section's XS (999) is outside every rule: it must appear in
	// the per-section report but contribute to no key's average.
	outOfRange := "LogBlueprintUserMessages: KEY: 7 VECTOR: X=0 Y=100.00 Z=200.00 VELOCITY: 300.00 XS999"
	input := particleLine + "\nSTOP\n" + outOfRange + "\n" + outOfRange + "\n"

	result := runPipeline(t, testConfig(), input)

	if len(result.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(result.Sections))
	}

	if result.Sections[1].Key != types.Unclassified {
		t.Fatalf("expected unclassified, got %v", result.Sections[1].Key)
	}
	if result.Sections[1].ParticleCount != 2 {
		t.Errorf("expected 2 particles, got %d", result.Sections[1].ParticleCount)
	}

	// Key 11's average only reflects the first section
	if avg := result.Averages[11]; math.Abs(avg-1.0) > epsilon {
		t.Errorf("expected key 11 average 1.0, got %v", avg)
	}
	if len(result.Averages) != 1 {
		t.Errorf("expected 1 key in averages, got %d", len(result.Averages))
	}

	// The unclassified section still gets a row
	if result.Rows[1].XS != "unclassified" {
		t.Errorf("expected unclassified row, got %q", result.Rows[1].XS)
	}
	if result.Rows[1].ParticleCount != 2 {
		t.Errorf("expected row particle count 2, got %d", result.Rows[1].ParticleCount)
	}
}

func TestRunVelocityFloorFilter(t *testing.T) {
	slow := "LogBlueprintUserMessages: KEY: 1 VECTOR: X=0 Y=0 Z=0 VELOCITY: 100.00 XS10"
	fast := "LogBlueprintUserMessages: KEY: 2 VECTOR: X=0 Y=0 Z=0 VELOCITY: 300.00 XS10"

	cfg := testConfig()
	cfg.Filter = config.FilterData{
		VelocityFloorEnabled: true,
		VelocityFloor:        2.0,
	}

	result := runPipeline(t, cfg, slow+"\n"+fast+"\n")

	sr := result.Sections[0]

	// Statistics run over the full particle set
	if sr.ParticleCount != 2 {
		t.Errorf("expected particle count 2, got %d", sr.ParticleCount)
	}
	if math.Abs(sr.Stats.Mean-2.0) > epsilon {
		t.Errorf("expected mean 2.0 over unfiltered set, got %v", sr.Stats.Mean)
	}

	// Only the downstream collection is trimmed
	if len(sr.Particles) != 1 {
		t.Fatalf("expected 1 particle after filtering, got %d", len(sr.Particles))
	}
	if math.Abs(sr.Particles[0].Velocity-3.0) > epsilon {
		t.Errorf("expected surviving particle velocity 3.0, got %v", sr.Particles[0].Velocity)
	}
}

func TestSummaryHelpers(t *testing.T) {
	sdHigh := "LogBlueprintUserMessages: KEY: 1 VECTOR: X=0 Y=0 Z=0 VELOCITY: 100.00 XS10\n" +
		"LogBlueprintUserMessages: KEY: 2 VECTOR: X=0 Y=0 Z=0 VELOCITY: 300.00 XS10"

	input := particleLine + "\nSTOP\n" + sdHigh + "\nSTOP\n"

	result := runPipeline(t, testConfig(), input)

	top := result.TopBySDVelocity(5)
	if len(top) != 2 {
		t.Fatalf("expected 2 sections with stats, got %d", len(top))
	}
	if top[0].Section != 2 {
		t.Errorf("expected section 2 to rank first, got %d", top[0].Section)
	}

	meanSD, ok := result.MeanSDVelocity()
	if !ok {
		t.Fatal("expected a defined mean sd")
	}
	// Section 1 sd = 0.0, section 2 sd = 1.0
	if math.Abs(meanSD-0.5) > epsilon {
		t.Errorf("expected mean sd 0.5, got %v", meanSD)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := particleLine + "\nSTOP\n" + particleLine + "\n"

	p := New(testConfig(), zap.NewNop().Sugar())
	if _, err := p.Run(ctx, strings.NewReader(input)); err == nil {
		t.Fatal("expected an error from a cancelled run")
	}
}
