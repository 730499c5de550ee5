package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"creditscope/internal/api"
	"creditscope/internal/cfg"
	"creditscope/internal/explain"
	"creditscope/internal/metrics"
	"creditscope/internal/model"
	"creditscope/internal/storage"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if c.ScorerURL == "" {
		log.Fatal().Msg("SCORER_URL is required: the service explains a served model")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Fatal().Err(err).Str("data_path", c.DataPath).Msg("failed to open report storage")
	}
	defer store.Close()

	scorer := model.NewRemote(c.ScorerURL, c.ScorerTimeout)
	if err := scorer.Health(ctx); err != nil {
		log.Warn().Err(err).Str("scorer_url", c.ScorerURL).Msg("scorer health check failed, continuing")
	}

	engine := explain.NewEngine(c.Workers, mw)

	server := api.NewServer(api.Config{
		Engine:   engine,
		Scorer:   scorer,
		Store:    store,
		Metrics:  mw,
		ModelTag: c.ModelTag,
		Port:     c.ListenPort,
	})

	// Prometheus endpoint on its own port, separate from the API.
	metricsSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", c.MetricsPort),
		Handler:      promhttp.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errs := make(chan error, 2)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()
	go func() {
		log.Info().Str("addr", metricsSrv.Addr).Msg("starting metrics server")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errs:
		log.Error().Err(err).Msg("server failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("api shutdown failed")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics shutdown failed")
	}
}
