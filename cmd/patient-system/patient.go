package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pm/patient-system/internal/api"
	"github.com/pm/patient-system/internal/core/service"
	"github.com/pm/patient-system/internal/infrastructure/billing"
	"github.com/pm/patient-system/internal/infrastructure/config"
	redisstore "github.com/pm/patient-system/internal/infrastructure/db/redis"
	"github.com/pm/patient-system/internal/infrastructure/http/handlers"
	"github.com/pm/patient-system/internal/infrastructure/stream"
)

func newPatientCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "patient",
		Short: "Run the patient service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := a.setup(config.ServicePatient)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			st, err := openStores(ctx, a.cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = st.close(context.WithoutCancel(ctx)) }()

			rdb, err := redisstore.Connect(ctx, redisstore.Config{
				Addr:     a.cfg.Redis.Addr,
				Password: a.cfg.Redis.Password,
				DB:       a.cfg.Redis.DB,
			})
			if err != nil {
				return err
			}
			defer rdb.Close()

			conn, err := billing.Dial(a.cfg.Billing.Addr, log)
			if err != nil {
				return err
			}
			defer conn.Close()

			patients := service.NewPatientService(
				st.patients,
				st.codes,
				billing.NewClient(conn),
				stream.NewPublisher(rdb, a.cfg.Stream.Name, a.cfg.Stream.MaxLen),
				service.PatientTimeouts{
					Persist: a.cfg.Patient.PersistTimeout,
					Billing: a.cfg.Billing.Timeout,
					Publish: a.cfg.Patient.PublishTimeout,
				},
				log,
			)

			e := api.NewPatientRouter(patients, api.RouterOptions{
				Service:  config.ServicePatient,
				Logger:   log,
				Checkers: []handlers.Checker{st.checker, redisstore.NewChecker(rdb)},
			})
			return serve(ctx, e, a.cfg.Ports.Patient, log)
		},
	}
}
