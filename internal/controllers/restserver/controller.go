// Package restserver serves the results of a completed analysis run over
// a small read-only HTTP API.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hydrolab/fishpass/internal/log"
	"github.com/hydrolab/fishpass/internal/pipeline"
	"github.com/hydrolab/fishpass/pkg/config"
	"github.com/hydrolab/fishpass/pkg/responseformat"
)

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	result     *pipeline.RunResult
	formatter  *responseformat.Formatter
	logger     *zap.SugaredLogger
}

// NewController creates a new REST server controller serving one
// completed run result
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, result *pipeline.RunResult, logger *zap.SugaredLogger) (*Controller, error) {
	if rc.Port == 0 {
		return nil, fmt.Errorf("REST server port must be set")
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		result:     result,
		formatter:  responseformat.NewFormatter(),
		logger:     logger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/run", ctrl.handleRun).Methods("GET")
	router.HandleFunc("/api/sections", ctrl.handleSections).Methods("GET")
	router.HandleFunc("/api/sections/{section}", ctrl.handleSection).Methods("GET")
	router.HandleFunc("/api/crosssections", ctrl.handleCrossSections).Methods("GET")

	ctrl.Server = http.Server{
		Addr:        fmt.Sprintf("%s:%d", rc.ListenAddr, rc.Port),
		Handler:     router,
		ReadTimeout: 10 * time.Second,
	}

	return ctrl, nil
}

// StartController starts the HTTP server and shuts it down when the
// context is cancelled
func (c *Controller) StartController() error {
	log.Infof("starting results API server on %s", c.Server.Addr)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.Errorf("results API server error: %v", err)
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-c.ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Server.Shutdown(shutdownCtx); err != nil {
			c.logger.Errorf("results API server shutdown error: %v", err)
		}
	}()

	return nil
}
