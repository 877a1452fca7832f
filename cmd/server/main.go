package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"vlr-pipeline/internal/config"
	"vlr-pipeline/internal/constants"
	fxmodules "vlr-pipeline/internal/fx"
	"vlr-pipeline/internal/middleware"
	"vlr-pipeline/internal/server"
	"vlr-pipeline/internal/service"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
		fx.Invoke(runScheduler),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	ingestServer *server.IngestServer,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	router := mux.NewRouter()
	ingestServer.Routes(router)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := middleware.RequestID(logger)(c.Handler(router))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: handler,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}

// runScheduler starts cron-driven full ingestion runs when a schedule is
// configured. The orchestrator's own mutex keeps a scheduled run and a
// manually triggered one from overlapping.
func runScheduler(
	lc fx.Lifecycle,
	orchestrator *service.Orchestrator,
	cfg *config.Config,
	logger zerolog.Logger,
) {
	if cfg.IngestCronSpec == "" {
		logger.Info().Msg("ingestion scheduler disabled")
		return
	}

	c := cron.New()
	_, err := c.AddFunc(cfg.IngestCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.RequestTimeout)
		defer cancel()

		sum := orchestrator.FullRun(ctx)
		if sum.Error != "" {
			logger.Error().Str("error", sum.Error).Msg("scheduled ingestion run failed")
			return
		}
		logger.Info().Int("records", sum.RecordCount).Msg("scheduled ingestion run finished")
	})
	if err != nil {
		logger.Fatal().Err(err).Str("spec", cfg.IngestCronSpec).Msg("invalid ingestion cron spec")
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info().Str("spec", cfg.IngestCronSpec).Msg("ingestion scheduler starting")
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopCtx := c.Stop()
			select {
			case <-stopCtx.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
}
