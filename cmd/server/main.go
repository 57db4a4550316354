package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fake-artist/internal/config"
	"fake-artist/internal/db"
	"fake-artist/internal/game"
	"fake-artist/internal/logging"
	"fake-artist/internal/server"

	"github.com/rs/zerolog"
)

// fallbackCategories keep the server playable without a database.
var fallbackCategories = []game.Category{
	{ID: "1", Topic: "Animals", Subject: "Giraffe"},
	{ID: "2", Topic: "Food", Subject: "Pancake"},
	{ID: "3", Topic: "Places", Subject: "Lighthouse"},
	{ID: "4", Topic: "Sports", Subject: "Surfing"},
	{ID: "5", Topic: "Objects", Subject: "Umbrella"},
}

func main() {
	bootLog := logging.New("info", "json")
	if err := config.LoadDotEnv(".env"); err != nil {
		bootLog.Warn().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		catalog   game.Catalog = game.NewStaticCatalog(fallbackCategories...)
		store     game.Store
		persister *game.Persister
	)
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL, db.PoolOptions{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		if err != nil {
			return err
		}
		if cfg.AutoMigrate {
			if err := db.Migrate(conn, log); err != nil {
				return err
			}
		}
		catalog = db.NewCatalog(conn)
		store = db.NewStore(conn)
		persister = game.NewPersister(store, game.PersisterOptions{
			Workers:   cfg.PersistWorkers,
			QueueSize: cfg.PersistQueueSize,
			Timeout:   cfg.StoreTimeout,
			Retries:   cfg.StoreRetries,
		}, log)
		defer persister.Close()
	} else {
		log.Warn().Msg("DATABASE_URL not set, rooms live in memory only")
	}

	hub := server.NewHub(log)
	dir := game.NewDirectory(catalog, hub, game.Options{
		Palette:          cfg.Palette,
		DefaultMaxRounds: cfg.DefaultMaxRounds,
		DefaultTimeLimit: cfg.DefaultTimeLimit,
		CommandTimeout:   cfg.CommandTimeout,
		Store:            store,
		Persister:        persister,
		Logger:           log,
	})
	defer dir.Close()
	go dir.RunSweeper(ctx, cfg.SweepInterval, cfg.RoomTTL)

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           server.New(dir, hub, cfg, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("fake-artist server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
