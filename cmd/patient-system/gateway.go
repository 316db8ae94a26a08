package main

import (
	"github.com/spf13/cobra"

	"github.com/pm/patient-system/internal/infrastructure/config"
	httpinfra "github.com/pm/patient-system/internal/infrastructure/http"
)

func newGatewayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "gateway",
		Short: "Run the edge gateway that authenticates and proxies every request",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := a.setup(config.ServiceGateway)
			if err != nil {
				return err
			}

			e, err := httpinfra.NewGatewayRouter(httpinfra.GatewayConfig{
				AuthURL:       a.cfg.Gateway.AuthServiceURL,
				PatientURL:    a.cfg.Gateway.PatientServiceURL,
				VerifyTimeout: a.cfg.Gateway.VerifyTimeout,
				Logger:        log,
			})
			if err != nil {
				return err
			}
			return serve(cmd.Context(), e, a.cfg.Ports.Gateway, log)
		},
	}
}
