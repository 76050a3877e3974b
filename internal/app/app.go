// Package app wires configuration, the analysis pipeline, storage
// backends, and the optional results API into one run.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/hydrolab/fishpass/internal/controllers/restserver"
	"github.com/hydrolab/fishpass/internal/log"
	"github.com/hydrolab/fishpass/internal/managers"
	"github.com/hydrolab/fishpass/internal/pipeline"
	"github.com/hydrolab/fishpass/pkg/config"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logFile        string // command-line override for the configured input path
	logger         *zap.SugaredLogger
}

// New creates a new application instance.  logFile, when non-empty,
// overrides the configured input path.
func New(configProvider config.ConfigProvider, logFile string, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logFile:        logFile,
		logger:         logger,
	}
}

// Run executes one full analysis: parse the log, fan results out to the
// configured storage backends, and, if configured, serve the results API
// until interrupted.
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}

	logFile := cfg.Input.LogFile
	if a.logFile != "" {
		logFile = a.logFile
	}
	if logFile == "" {
		return fmt.Errorf("no log file configured; set input.log_file or pass -logfile")
	}

	// The pipeline itself never opens files; reading the input is this
	// layer's job and a missing file is the one fatal input error.
	f, err := os.Open(logFile)
	if err != nil {
		return fmt.Errorf("could not open log file: %w", err)
	}

	p := pipeline.New(cfg, a.logger)
	result, err := p.Run(ctx, f)
	f.Close()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	// Initialize the storage manager and fan out the finalized rows
	storageManager, err := managers.NewStorageManager(ctx, &wg, a.configProvider)
	if err != nil {
		return err
	}

	for _, row := range result.Rows {
		storageManager.ResultDistributor <- row
	}
	// The row stream is complete; closing the manager makes every engine
	// flush and exit before wg.Wait returns.
	storageManager.Close()

	a.logSummary(result)

	if cfg.REST != nil {
		rest, err := restserver.NewController(ctx, &wg, *cfg.REST, result, a.logger)
		if err != nil {
			return err
		}
		if err := rest.StartController(); err != nil {
			return err
		}

		log.Info("results API running; press Ctrl-C to exit")

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-sigs:
			log.Info("shutdown signal received, initiating graceful shutdown...")
		case <-ctx.Done():
			log.Info("context cancelled, shutting down...")
		}
	}

	// Cancel context to stop the API server and any remaining workers
	cancel()
	wg.Wait()
	log.Info("analysis complete")

	return nil
}

// logSummary reports the run the way the values file consumers expect to
// see it: per-key averages, the noisiest sections, and the mean of the
// per-section velocity standard deviations.
func (a *App) logSummary(result *pipeline.RunResult) {
	for _, row := range result.Rows {
		if row.XS == "unclassified" && row.ParticleCount == 0 {
			continue
		}
		a.logger.Infof("Section %d: Count of valid particles: %d", row.Section, row.ParticleCount)
		if !row.StatsDefined() {
			continue
		}
		a.logger.Infof("Section %d: Average Velocity: %.3f m/s", row.Section, row.AvgVelocity)
	}

	for _, sr := range result.TopBySDVelocity(5) {
		a.logger.Infof("high variance: section %d (XS %s), sd velocity %.3f m/s",
			sr.Section, sr.Key, sr.Stats.StdDev)
	}

	if meanSD, ok := result.MeanSDVelocity(); ok {
		a.logger.Infof("mean sd_velocity: %.3f m/s", meanSD)
	}
}
