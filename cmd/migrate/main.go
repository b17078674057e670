package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Rrens/chatdesk/internal/config"
	"github.com/Rrens/chatdesk/internal/repository/postgres"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of applying")
	version := flag.Bool("version", false, "print the current schema version and exit")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	dsn := cfg.Database.DSN()
	source := cfg.Database.Migrations

	log.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("source", source).
		Msg("Connecting to database")

	switch {
	case *version:
		v, dirty, err := postgres.MigrationVersion(dsn, source)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read schema version")
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
	case *down > 0:
		if err := postgres.RollbackMigrations(dsn, source, *down); err != nil {
			log.Fatal().Err(err).Msg("Rollback failed")
		}
	default:
		if err := postgres.RunMigrations(dsn, source); err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
	}
}
