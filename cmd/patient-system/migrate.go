package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/pm/patient-system/internal/infrastructure/config"
	pgstore "github.com/pm/patient-system/internal/infrastructure/db/postgres"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the storage schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations (Postgres) or indexes (MongoDB)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := a.setup(config.ServiceMigrate)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			st, err := openStores(ctx, a.cfg, log)
			if err != nil {
				return err
			}
			log.Info().Str("driver", a.cfg.Storage.Driver).Msg("schema is up to date")
			return st.close(context.WithoutCancel(ctx))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the state of every Postgres migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := a.setup(config.ServiceMigrate)
			if err != nil {
				return err
			}
			if a.cfg.Storage.Driver != config.StoragePostgres {
				return errors.New("migrate status requires STORAGE_DRIVER=postgres")
			}
			ctx := cmd.Context()

			db, err := pgstore.Open(ctx, a.cfg.Postgres.DSN)
			if err != nil {
				return err
			}
			defer db.Close()
			return pgstore.Status(ctx, db, log)
		},
	})

	return cmd
}
