// Package timescaledb implements a storage backend that writes section
// statistics to a TimescaleDB (PostgreSQL) database.
package timescaledb

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/hydrolab/fishpass/internal/database"
	"github.com/hydrolab/fishpass/internal/log"
	"github.com/hydrolab/fishpass/internal/types"
	"github.com/hydrolab/fishpass/pkg/config"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS section_stats (
	run_id TEXT NOT NULL,
	time TIMESTAMPTZ NOT NULL,
	section INT NOT NULL,
	xs TEXT NOT NULL,
	valid_particle_count INT NOT NULL,
	avg_velocity DOUBLE PRECISION,
	sd_velocity DOUBLE PRECISION,
	avg_particle DOUBLE PRECISION NOT NULL
)`

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb`

const createHypertableSQL = `SELECT create_hypertable('section_stats', 'time', if_not_exists => TRUE)`

// Storage holds the configuration for a TimescaleDB storage backend
type Storage struct {
	TimescaleDBConn *gorm.DB
}

// StartStorageEngine creates a goroutine loop to receive section rows and
// send them off to TimescaleDB.  The engine runs until the returned
// channel is closed.
func (t *Storage) StartStorageEngine(_ context.Context, wg *sync.WaitGroup) chan<- types.SectionRow {
	log.Info("starting TimescaleDB storage engine...")
	rowChan := make(chan types.SectionRow, 10)
	wg.Add(1)
	go t.processRows(wg, rowChan)
	return rowChan
}

// processRows consumes rows until the channel is closed.
func (t *Storage) processRows(wg *sync.WaitGroup, rchan <-chan types.SectionRow) {
	defer wg.Done()

	for row := range rchan {
		if err := t.StoreRow(row); err != nil {
			log.Error("could not store section row:", err)
		}
	}

	log.Info("row stream closed. Stopping row processor.")
}

// StoreRow stores a section row in TimescaleDB
func (t *Storage) StoreRow(row types.SectionRow) error {
	err := t.TimescaleDBConn.Create(&row).Error
	if err != nil {
		log.Error("could not store section row:", err)
		return err
	}
	return nil
}

// New sets up a new TimescaleDB storage backend
func New(ctx context.Context, c *config.TimescaleDBData) (*Storage, error) {
	var err error
	t := Storage{}

	t.TimescaleDBConn, err = database.CreateConnection(c.ConnectionString)
	if err != nil {
		return &Storage{}, err
	}

	// Create the database table
	log.Info("creating database table...")
	err = t.TimescaleDBConn.WithContext(ctx).Exec(createTableSQL).Error
	if err != nil {
		log.Warn("warning: could not create table in database")
		return &Storage{}, err
	}

	// Create the TimescaleDB extension
	log.Info("creating TimescaleDB extension...")
	err = t.TimescaleDBConn.WithContext(ctx).Exec(createExtensionSQL).Error
	if err != nil {
		log.Warn("warning: could not create TimescaleDB extension")
		return &Storage{}, err
	}

	// Create the hypertable
	log.Info("creating hypertable...")
	err = t.TimescaleDBConn.WithContext(ctx).Exec(createHypertableSQL).Error
	if err != nil {
		log.Warn("warning: could not create hypertable")
		return &Storage{}, err
	}

	return &t, nil
}
