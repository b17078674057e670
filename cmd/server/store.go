package main

import (
	"context"
	"fmt"

	"github.com/Rrens/chatdesk/internal/api/handler"
	"github.com/Rrens/chatdesk/internal/config"
	"github.com/Rrens/chatdesk/internal/domain"
	"github.com/Rrens/chatdesk/internal/repository/mongo"
	"github.com/Rrens/chatdesk/internal/repository/postgres"
	"github.com/Rrens/chatdesk/internal/repository/sqlite"
	"github.com/rs/zerolog/log"
)

// store bundles the repositories of the configured backend
type store struct {
	sessions domain.SessionRepository
	users    domain.UserRepository
	pinger   handler.Pinger
	close    func()
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Store.Driver {
	case "mongo":
		db, err := mongo.NewDB(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return &store{
			sessions: mongo.NewSessionRepository(db),
			users:    mongo.NewUserRepository(db),
			pinger:   db,
			close: func() {
				if err := db.Close(); err != nil {
					log.Error().Err(err).Msg("Failed to disconnect from MongoDB")
				}
			},
		}, nil

	case "postgres":
		if err := postgres.RunMigrations(cfg.Database.DSN(), cfg.Database.Migrations); err != nil {
			return nil, err
		}
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return &store{
			sessions: postgres.NewSessionRepository(db.Pool),
			users:    postgres.NewUserRepository(db.Pool),
			pinger:   db,
			close:    db.Close,
		}, nil

	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return &store{
			sessions: sqlite.NewSessionRepository(db),
			users:    sqlite.NewUserRepository(db),
			pinger:   db,
			close: func() {
				if err := db.Close(); err != nil {
					log.Error().Err(err).Msg("Failed to close SQLite database")
				}
			},
		}, nil
	}

	return nil, fmt.Errorf("unsupported store driver: %q", cfg.Store.Driver)
}
