package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/playperu/flagquiz/internal/config"
	"github.com/playperu/flagquiz/internal/database"
	"github.com/playperu/flagquiz/internal/flagquiz"
	"github.com/playperu/flagquiz/internal/game"
	"github.com/playperu/flagquiz/internal/handler/health"
	"github.com/playperu/flagquiz/internal/migrations"
	"github.com/playperu/flagquiz/internal/server"
	"github.com/playperu/flagquiz/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)
	sessions := store.NewSQLiteStore(db)

	// --- Games ---
	catalog, err := flagquiz.NewCatalog(cfg.Countries)
	if err != nil {
		return fmt.Errorf("building catalog: %w", err)
	}

	broker := server.NewBroker()
	games := server.NewRegistry(func(onChange func(game.State)) (*game.Controller, error) {
		return game.New(game.Options{
			Store:         sessions,
			Catalog:       catalog,
			Logger:        logger,
			QuestionCount: cfg.QuestionCount,
			FeedbackDelay: cfg.FeedbackDelay,
			StoreTimeout:  cfg.WriteTimeout,
			OnChange:      onChange,
		})
	}, broker)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Games:   games,
		Broker:  broker,
		History: sessions,
		Health: health.NewHandler(logger, map[string]health.Checker{
			"sqlite": health.CheckerFunc(sessions.Ping),
		}).Routes(),
		AdminTokenHash: cfg.AdminTokenHash,
		SPADir:         cfg.SPADir,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "countries", catalog.Len())
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		err := srv.Shutdown(context.Background())
		// Finished games still get their write attempt before the db closes.
		games.Close()
		logger.Info("pending session writes drained")
		return err
	})

	return g.Wait()
}
