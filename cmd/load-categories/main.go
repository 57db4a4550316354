package main

import (
	"flag"

	"fake-artist/internal/config"
	"fake-artist/internal/db"
	"fake-artist/internal/logging"
)

func main() {
	filePath := flag.String("file", "categories.csv", "path to a topic,subject csv")
	flag.Parse()

	bootLog := logging.New("info", "json")
	if err := config.LoadDotEnv(".env"); err != nil {
		bootLog.Warn().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	conn, err := db.Open(cfg.DatabaseURL, db.PoolOptions{MaxOpenConns: cfg.DBMaxOpenConns})
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := db.Migrate(conn, log); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	loaded, err := db.LoadCategories(conn, *filePath)
	if err != nil {
		log.Fatal().Err(err).Int("loaded", loaded).Msg("failed to load categories")
	}
	log.Info().Int("loaded", loaded).Str("file", *filePath).Msg("categories loaded")
}
