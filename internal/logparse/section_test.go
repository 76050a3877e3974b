package logparse

import (
	"math"
	"testing"

	"github.com/hydrolab/fishpass/internal/types"
)

func TestExtractParticles(t *testing.T) {
	tests := []struct {
		name              string
		lines             []string
		expectedParticles int
		expectedMalformed int
	}{
		{
			name: "one valid one malformed",
			lines: []string{
				"LogBlueprintUserMessages: KEY: 7 VECTOR: X=500.00 Y=100.00 Z=200.00 VELOCITY: 300.00 XS10",
				"LogBlueprintUserMessages: KEY: 8 VECTOR: X=500.00 Y=100.00 Z=200.00 XS10",
			},
			expectedParticles: 1,
			expectedMalformed: 1,
		},
		{
			name: "engine chatter is skipped without counting",
			lines: []string{
				"LogTemp: Warning: frame time budget exceeded",
				"LogBlueprintUserMessages: KEY: 7 VECTOR: X=500.00 Y=100.00 Z=200.00 VELOCITY: 300.00 XS10",
				"LogNet: connection closed",
			},
			expectedParticles: 1,
			expectedMalformed: 0,
		},
		{
			name:              "empty section",
			lines:             nil,
			expectedParticles: 0,
			expectedMalformed: 0,
		},
		{
			name: "all lines malformed",
			lines: []string{
				"LogBlueprintUserMessages: KEY: 1 XS10",
				"LogBlueprintUserMessages: VELOCITY: 300.00",
			},
			expectedParticles: 0,
			expectedMalformed: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExtractParticles(types.RawSection{Index: 1, Lines: tt.lines})

			if len(result.Particles) != tt.expectedParticles {
				t.Errorf("expected %d particles, got %d", tt.expectedParticles, len(result.Particles))
			}
			if result.Malformed != tt.expectedMalformed {
				t.Errorf("expected %d malformed lines, got %d", tt.expectedMalformed, result.Malformed)
			}
		})
	}
}

func TestExtractParticlesValues(t *testing.T) {
	section := types.RawSection{
		Index: 1,
		Lines: []string{
			"LogBlueprintUserMessages: KEY: 7 VECTOR: X=500.00 Y=100.00 Z=200.00 VELOCITY: 300.00 XS10",
		},
	}

	result := ExtractParticles(section)
	if len(result.Particles) != 1 {
		t.Fatalf("expected 1 particle, got %d", len(result.Particles))
	}

	p := result.Particles[0]
	if math.Abs(p.Y-1.0) > epsilon || math.Abs(p.Z-2.0) > epsilon {
		t.Errorf("unexpected position: Y=%v Z=%v", p.Y, p.Z)
	}
	if math.Abs(p.Velocity-3.0) > epsilon {
		t.Errorf("unexpected velocity: %v", p.Velocity)
	}
	if math.Abs(p.XS-10) > epsilon {
		t.Errorf("unexpected xs: %v", p.XS)
	}
}
