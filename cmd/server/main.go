package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/toricodesthings/pdf-compression-service/internal/compressor"
	"github.com/toricodesthings/pdf-compression-service/internal/config"
	"github.com/toricodesthings/pdf-compression-service/internal/engine"
	"github.com/toricodesthings/pdf-compression-service/internal/logging"
	"github.com/toricodesthings/pdf-compression-service/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle, err := engine.Locate(ctx, engine.Options{
		Explicit:     cfg.GhostscriptPath,
		ProbeTimeout: cfg.ProbeTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize compressor: %w", err)
	}

	comp, err := compressor.New(handle, compressor.Options{
		Timeout:    cfg.EngineTimeout,
		PresetOnly: cfg.PresetOnly,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	srv := server.New(cfg, comp, logger)
	httpSrv := srv.HTTPServer()

	go srv.RunHousekeeping(ctx)

	logger.Info("pdfcompress listening",
		"addr", httpSrv.Addr,
		"ghostscript", handle.Path,
		"ghostscript_source", handle.Source,
		"ghostscript_version", handle.Version,
		"max_concurrent", cfg.MaxConcurrentRequests,
		"frontend", cfg.FrontendDir,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	// in-flight compressions get as long as the engine timeout allows
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.EngineTimeout+5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
