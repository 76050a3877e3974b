// Command logfile-simulator generates synthetic simulator logs for
// testing the fishpass analysis pipeline without a live simulation.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
)

func main() {
	var (
		out       = flag.String("out", "simulated.log", "Output log file path")
		sections  = flag.Int("sections", 10, "Number of sections to generate")
		particles = flag.Int("particles", 50, "Particles per section")
		malformed = flag.Int("malformed", 3, "Malformed particle lines per section")
		delimiter = flag.String("delimiter", "STOP", "Section delimiter token")
		xs        = flag.Int("xs", 1, "Raw XS marker value for generated particles")
		seed      = flag.Int64("seed", 0, "Random seed (0 uses a fixed default)")
	)
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	for s := 0; s < *sections; s++ {
		// Engine chatter the parser must skip
		fmt.Fprintf(w, "[%04d]LogTemp: Warning: frame time budget exceeded\n", s)

		for p := 0; p < *particles; p++ {
			writeParticleLine(w, rng, *xs)
		}

		for m := 0; m < *malformed; m++ {
			// Marked line missing the velocity field
			fmt.Fprintf(w, "LogBlueprintUserMessages: [FishTracker] KEY: %d VECTOR: X=%.1f Y=%.1f Z=%.1f XS%d\n",
				rng.Intn(10000), rng.Float64()*1000, rng.Float64()*200-100, rng.Float64()*100, *xs)
		}

		if s < *sections-1 {
			fmt.Fprintf(w, "%s\n", *delimiter)
		}
	}

	fmt.Printf("wrote %d sections to %s\n", *sections, *out)
}

// writeParticleLine emits one well-formed particle record.  Positions and
// velocities are in engine centimeters, matching the real simulator.
func writeParticleLine(w *bufio.Writer, rng *rand.Rand, xs int) {
	fmt.Fprintf(w, "LogBlueprintUserMessages: [FishTracker] KEY: %d VECTOR: X=%.2f Y=%.2f Z=%.2f VELOCITY: %.2f XS%d\n",
		rng.Intn(10000),
		rng.Float64()*10000,
		rng.Float64()*400-200,
		rng.Float64()*150,
		rng.Float64()*160,
		xs)
}
