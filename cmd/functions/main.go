package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	server "listings_pipeline/internal/adapters/http_server"
	"listings_pipeline/internal/adapters/observability"
	"listings_pipeline/internal/app"
	"listings_pipeline/internal/bootstrap"
	"listings_pipeline/internal/shared"
)

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	zerolog.DefaultContextLogger = &log.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cl bootstrap.Closers
	defer cl.Close()

	store, err := bootstrap.ObjectStore(ctx, cfg, &cl)
	if err != nil {
		log.Fatal().Err(err).Msg("object store init failed")
	}
	opts := bootstrap.ServiceOptions(ctx, cfg, &cl)

	// each pipeline is served only when its configuration is complete
	h := &server.Handlers{}
	if err := cfg.Validate("split"); err != nil {
		log.Warn().Err(err).Msg("split pipeline disabled")
	} else {
		h.Split = app.NewSplitService(store, cfg.SplitBucket, opts...)
	}
	if err := cfg.Validate("load"); err != nil {
		log.Warn().Err(err).Msg("load pipeline disabled")
	} else {
		wh, err := bootstrap.Warehouse(ctx, cfg, &cl)
		if err != nil {
			log.Fatal().Err(err).Msg("warehouse init failed")
		}
		h.Load = app.NewLoadService(store, wh, opts...)
	}
	if h.Split == nil && h.Load == nil {
		log.Fatal().Msg("no pipeline configured")
	}

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// http
	srv := server.New(cfg.HTTPTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).
			Bool("split", h.Split != nil).
			Bool("load", h.Load != nil).
			Msg("functions listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// let in-flight jobs finish their current unit
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("http server failed")
	}
}
