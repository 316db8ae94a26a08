package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pm/patient-system/internal/api"
	"github.com/pm/patient-system/internal/core/service"
	"github.com/pm/patient-system/internal/infrastructure/config"
	"github.com/pm/patient-system/internal/infrastructure/http/handlers"
)

func newAuthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Run the token authority",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := a.setup(config.ServiceAuth)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			st, err := openStores(ctx, a.cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = st.close(context.WithoutCancel(ctx)) }()

			auth, err := service.NewAuthService(st.users, a.cfg.JWT.Secret, a.cfg.JWT.TTL, log)
			if err != nil {
				return err
			}

			e := api.NewAuthRouter(auth, api.RouterOptions{
				Service:  config.ServiceAuth,
				Logger:   log,
				Checkers: []handlers.Checker{st.checker},
			})
			return serve(ctx, e, a.cfg.Ports.Auth, log)
		},
	}
}
