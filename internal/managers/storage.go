// Package managers wires configured storage backends to the pipeline's
// result stream.
package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/hydrolab/fishpass/internal/log"
	"github.com/hydrolab/fishpass/internal/storage"
	"github.com/hydrolab/fishpass/internal/storage/csvfile"
	"github.com/hydrolab/fishpass/internal/storage/sqlite"
	"github.com/hydrolab/fishpass/internal/storage/timescaledb"
	"github.com/hydrolab/fishpass/internal/types"
	"github.com/hydrolab/fishpass/pkg/config"
)

// StorageManager holds our active storage backends
type StorageManager struct {
	Engines           []StorageEngine
	ResultDistributor chan types.SectionRow
}

// StorageEngine holds a backend storage engine's interface as well as
// a channel for passing section rows to the engine
type StorageEngine struct {
	Engine storage.StorageEngineInterface
	C      chan<- types.SectionRow
}

// NewStorageManager creates a StorageManager object, populated with all configured StorageEngines
func NewStorageManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider) (*StorageManager, error) {
	s := StorageManager{}

	storageConfig, err := configProvider.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("could not load storage configuration: %w", err)
	}

	// Initialize our channel for passing section rows to the distributor
	s.ResultDistributor = make(chan types.SectionRow, 20)

	// Check the configuration for various supported storage backends
	// and enable them if found

	if storageConfig.CSV != nil {
		err = s.AddEngine(ctx, wg, "csv", storageConfig)
		if err != nil {
			return &s, fmt.Errorf("could not add CSV storage backend: %v", err)
		}
	}

	if storageConfig.SQLite != nil {
		err = s.AddEngine(ctx, wg, "sqlite", storageConfig)
		if err != nil {
			return &s, fmt.Errorf("could not add SQLite storage backend: %v", err)
		}
	}

	if storageConfig.TimescaleDB != nil {
		err = s.AddEngine(ctx, wg, "timescaledb", storageConfig)
		if err != nil {
			return &s, fmt.Errorf("could not add TimescaleDB storage backend: %v", err)
		}
	}

	// Start our result distributor to distribute finalized section rows to
	// storage backends.  It runs until Close is called.
	wg.Add(1)
	go s.startResultDistributor(wg)

	return &s, nil
}

// Close signals the end of the row stream.  The distributor forwards
// everything still queued, closes each engine's channel, and the engines
// flush and shut down; wg.Wait then blocks until every row has landed.
func (s *StorageManager) Close() {
	close(s.ResultDistributor)
}

// AddEngine adds a new StorageEngine of name engineName to our StorageManager
func (s *StorageManager) AddEngine(ctx context.Context, wg *sync.WaitGroup, engineName string, c *config.StorageData) error {
	var err error

	switch engineName {
	case "csv":
		se := StorageEngine{}
		se.Engine, err = csvfile.New(c.CSV)
		if err != nil {
			return err
		}
		se.C = se.Engine.StartStorageEngine(ctx, wg)
		s.Engines = append(s.Engines, se)
	case "sqlite":
		se := StorageEngine{}
		se.Engine, err = sqlite.New(ctx, c.SQLite)
		if err != nil {
			return err
		}
		se.C = se.Engine.StartStorageEngine(ctx, wg)
		s.Engines = append(s.Engines, se)
	case "timescaledb":
		se := StorageEngine{}
		se.Engine, err = timescaledb.New(ctx, c.TimescaleDB)
		if err != nil {
			return err
		}
		se.C = se.Engine.StartStorageEngine(ctx, wg)
		s.Engines = append(s.Engines, se)
	}

	return nil
}

// startResultDistributor receives finalized section rows from the pipeline
// and fans them out to the various storage backends.  When the distributor
// channel is closed it closes every engine channel, which is the engines'
// signal to flush and exit.
func (s *StorageManager) startResultDistributor(wg *sync.WaitGroup) {
	defer wg.Done()

	for row := range s.ResultDistributor {
		for _, engine := range s.Engines {
			engine.C <- row
		}
	}

	log.Info("row stream complete. Shutting down storage engines.")
	for _, engine := range s.Engines {
		close(engine.C)
	}
}
