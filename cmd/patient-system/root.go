package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pm/patient-system/internal/infrastructure/config"
	"github.com/pm/patient-system/pkg/logger"
)

// app carries what every subcommand needs once the root has loaded it.
type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "patient-system",
		Short:        "Patient platform services",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	root.AddCommand(
		newGatewayCmd(a),
		newAuthCmd(a),
		newPatientCmd(a),
		newAnalyticsCmd(a),
		newMigrateCmd(a),
	)
	return root
}

// setup validates the configuration for service and initialises the logger.
func (a *app) setup(service string) (zerolog.Logger, error) {
	if err := a.cfg.Validate(service); err != nil {
		return zerolog.Nop(), fmt.Errorf("%s config: %w", service, err)
	}
	log := logger.Init(logger.Options{
		Level:   a.cfg.Log.Level,
		Pretty:  a.cfg.Log.Pretty,
		Service: service,
		Env:     a.cfg.Env,
	})
	return log, nil
}
