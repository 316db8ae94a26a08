package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pm/patient-system/internal/core/ports"
	"github.com/pm/patient-system/internal/infrastructure/config"
	mongostore "github.com/pm/patient-system/internal/infrastructure/db/mongo"
	pgstore "github.com/pm/patient-system/internal/infrastructure/db/postgres"
	"github.com/pm/patient-system/internal/infrastructure/http/handlers"
)

// stores is the persistence selected by STORAGE_DRIVER.
type stores struct {
	users    ports.AuthRepository
	patients ports.PatientRepository
	codes    ports.CodeSequence
	checker  handlers.Checker
	close    func(ctx context.Context) error
}

// openStores connects to the configured database and brings its schema up
// to date: indexes for Mongo, goose migrations for Postgres.
func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := pgstore.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		if err := pgstore.Migrate(ctx, db, log); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Msg("connected to postgres")
		return &stores{
			users:    pgstore.NewUserRepository(db),
			patients: pgstore.NewPatientRepository(db),
			codes:    pgstore.NewCodeSequence(db),
			checker:  pgstore.NewChecker(db),
			close:    func(context.Context) error { return db.Close() },
		}, nil

	case config.StorageMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		users := mongostore.NewAuthRepository(db)
		patients := mongostore.NewPatientRepository(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("user indexes: %w", err)
		}
		if err := patients.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("patient indexes: %w", err)
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
		return &stores{
			users:    users,
			patients: patients,
			codes:    mongostore.NewCodeSequence(db),
			checker:  mongostore.NewChecker(client),
			close:    client.Disconnect,
		}, nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}
