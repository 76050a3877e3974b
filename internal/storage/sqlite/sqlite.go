// Package sqlite implements a storage backend that writes section
// statistics to a local SQLite results database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/hydrolab/fishpass/internal/log"
	"github.com/hydrolab/fishpass/internal/types"
	"github.com/hydrolab/fishpass/pkg/config"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS section_stats (
	run_id TEXT NOT NULL,
	time TIMESTAMP NOT NULL,
	section INTEGER NOT NULL,
	xs TEXT NOT NULL,
	valid_particle_count INTEGER NOT NULL,
	avg_velocity REAL,
	sd_velocity REAL,
	avg_particle REAL NOT NULL
)`

// Storage holds the connection to a SQLite results database
type Storage struct {
	db *sql.DB
}

// New sets up a new SQLite results storage backend
func New(ctx context.Context, c *config.SQLiteData) (*Storage, error) {
	db, err := sql.Open("sqlite", c.Path)
	if err != nil {
		return nil, fmt.Errorf("could not open results database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ping results database: %w", err)
	}

	log.Info("creating results table...")
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create results table: %w", err)
	}

	return &Storage{db: db}, nil
}

// StartStorageEngine creates a goroutine loop to receive section rows and
// send them off to SQLite.  The engine runs until the returned channel is
// closed.
func (s *Storage) StartStorageEngine(_ context.Context, wg *sync.WaitGroup) chan<- types.SectionRow {
	log.Info("starting SQLite storage engine...")
	rowChan := make(chan types.SectionRow, 10)
	wg.Add(1)
	go s.processRows(wg, rowChan)
	return rowChan
}

// processRows consumes rows until the channel is closed, then closes the
// results database.
func (s *Storage) processRows(wg *sync.WaitGroup, rchan <-chan types.SectionRow) {
	defer wg.Done()

	for row := range rchan {
		if err := s.StoreRow(row); err != nil {
			log.Error("could not store row:", err)
		}
	}

	log.Info("row stream closed. Closing results database.")
	s.db.Close()
}

// StoreRow stores one section row in SQLite.  Undefined statistics (NaN)
// are stored as NULL.
func (s *Storage) StoreRow(row types.SectionRow) error {
	_, err := s.db.Exec(`
		INSERT INTO section_stats (run_id, time, section, xs, valid_particle_count,
		                           avg_velocity, sd_velocity, avg_particle)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.RunID, row.Time, row.Section, row.XS, row.ParticleCount,
		nullableStat(row.AvgVelocity), nullableStat(row.SDVelocity), row.AvgParticleCount)
	return err
}

func nullableStat(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
