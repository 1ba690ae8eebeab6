package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"videod/internal/catalog"
	"videod/internal/common/fsutil"
	"videod/internal/config"
	"videod/internal/engine"
	"videod/internal/hardware"
	"videod/internal/httpapi"
	"videod/internal/store"
)

func buildServeCmd(opts *rootOptions) *cobra.Command {
	var (
		addr            string
		corsOrigins     string
		shutdownTimeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP generation server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if corsOrigins != "" {
				cfg.CORSEnabled = true
				cfg.CORSAllowedOrigins = splitCSV(corsOrigins)
			}
			return runServe(cfg, shutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address, e.g. :8000 (overrides config)")
	cmd.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (enables CORS)")
	cmd.Flags().DurationVar(&shutdownTimeout, "timeout-graceful-shutdown", 10*time.Second, "How long to wait for in-flight requests on shutdown")
	return cmd
}

func runServe(cfg config.Config, shutdownTimeout time.Duration) error {
	log := newLogger(cfg.LogLevel)

	if err := fsutil.EnsureDir(cfg.OutputsDir); err != nil {
		return err
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	prober := hardware.NewProber(log)
	cat := catalog.Default()
	cache := engine.NewCache(engine.CacheConfig{
		Catalog: cat,
		Prober:  prober,
		Weights: engine.WeightsConfig{
			BaseDir:   cfg.BaseWeightsDir,
			QuantDirs: cfg.QuantWeightsDirs,
		},
		NewRuntime: func() (engine.Runtime, error) {
			return engine.NewWorkerRuntime(cfg.WorkerBin, log)
		},
		Model: cfg.Model,
		Log:   log,
	})
	eng := engine.New(engine.Config{
		Cache:      cache,
		Recorder:   store.NewRecorder(st, log),
		OutputsDir: cfg.OutputsDir,
		Log:        log,
	})
	defer eng.Close()

	// Base context canceled on shutdown so in-flight generations stop too.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetLogger(log)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetGenerateTimeoutSeconds(cfg.GenerateTimeoutSec)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins,
		[]string{"GET", "POST", "OPTIONS"}, []string{"Content-Type"})

	mux := httpapi.NewMux(&service{
		eng:           eng,
		cat:           cat,
		prober:        prober,
		st:            st,
		defaultDevice: cfg.Device,
	})
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("outputs", cfg.OutputsDir).Msg("videod listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
