// Package csvfile implements a storage backend that appends section
// statistics rows to a CSV file.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/hydrolab/fishpass/internal/log"
	"github.com/hydrolab/fishpass/internal/types"
	"github.com/hydrolab/fishpass/pkg/config"
)

// Header is the canonical column order of the values file.
var Header = []string{
	"run_id",
	"section",
	"xs",
	"valid_particle_count",
	"avg_velocity",
	"sd_velocity",
	"avg_particle",
}

// Storage holds an open CSV values file
type Storage struct {
	file   *os.File
	writer *csv.Writer
}

// New sets up a new CSV storage backend writing to the configured path.
// An existing file is truncated; every run produces a complete values
// file.
func New(c *config.CSVData) (*Storage, error) {
	file, err := os.Create(c.Path)
	if err != nil {
		return nil, fmt.Errorf("could not create values file: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(Header); err != nil {
		file.Close()
		return nil, fmt.Errorf("could not write values header: %w", err)
	}

	return &Storage{
		file:   file,
		writer: writer,
	}, nil
}

// StartStorageEngine creates a goroutine loop to receive section rows and
// append them to the values file.  The engine runs until the returned
// channel is closed.
func (s *Storage) StartStorageEngine(_ context.Context, wg *sync.WaitGroup) chan<- types.SectionRow {
	log.Info("starting CSV storage engine...")
	rowChan := make(chan types.SectionRow, 10)
	wg.Add(1)
	go s.processRows(wg, rowChan)
	return rowChan
}

// processRows consumes rows until the channel is closed, then flushes and
// closes the values file.  Closure of the channel is the only shutdown
// signal, so every row sent before it lands in the file.
func (s *Storage) processRows(wg *sync.WaitGroup, rchan <-chan types.SectionRow) {
	defer wg.Done()

	for row := range rchan {
		if err := s.StoreRow(row); err != nil {
			log.Error("could not store CSV row:", err)
		}
	}

	log.Info("row stream closed. Closing values file.")
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		log.Error("could not flush values file:", err)
	}
	s.file.Close()
}

// StoreRow appends one section row to the values file
func (s *Storage) StoreRow(row types.SectionRow) error {
	record := []string{
		row.RunID,
		strconv.Itoa(row.Section),
		row.XS,
		strconv.Itoa(row.ParticleCount),
		formatStat(row.AvgVelocity),
		formatStat(row.SDVelocity),
		strconv.FormatFloat(row.AvgParticleCount, 'f', 1, 64),
	}
	return s.writer.Write(record)
}

// formatStat renders a statistic, preserving NaN for sections without
// particles so downstream tooling can tell "no data" from zero.
func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
