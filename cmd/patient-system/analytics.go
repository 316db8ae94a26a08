package main

import (
	"github.com/spf13/cobra"

	"github.com/pm/patient-system/internal/api"
	"github.com/pm/patient-system/internal/core/service"
	"github.com/pm/patient-system/internal/infrastructure/config"
	redisstore "github.com/pm/patient-system/internal/infrastructure/db/redis"
	"github.com/pm/patient-system/internal/infrastructure/http/handlers"
	"github.com/pm/patient-system/internal/infrastructure/queue"
	"github.com/pm/patient-system/internal/infrastructure/stream"
)

func newAnalyticsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Consume patient events from the stream",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := a.setup(config.ServiceAnalytics)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			rdb, err := redisstore.Connect(ctx, redisstore.Config{
				Addr:     a.cfg.Redis.Addr,
				Password: a.cfg.Redis.Password,
				DB:       a.cfg.Redis.DB,
			})
			if err != nil {
				return err
			}
			defer rdb.Close()

			analytics := service.NewAnalyticsService(redisstore.NewDedupChecker(rdb), log)

			// The dispatcher acks through the consumer, and the consumer feeds the dispatcher.
			dispatcher := queue.NewDispatcher(a.cfg.Analytics.Workers, analytics, nil, log)
			consumer := stream.NewConsumer(rdb, stream.ConsumerConfig{
				Stream:        a.cfg.Stream.Name,
				Group:         a.cfg.Analytics.Group,
				Consumer:      a.cfg.Analytics.Consumer,
				ClaimMinIdle:  a.cfg.Analytics.ClaimMinIdle,
				ClaimInterval: a.cfg.Analytics.ClaimInterval,
			}, dispatcher, log)
			dispatcher.SetAcker(consumer)

			if err := consumer.EnsureGroup(ctx); err != nil {
				return err
			}
			dispatcher.Start(ctx)
			go func() {
				if err := consumer.Run(ctx); err != nil {
					log.Error().Err(err).Msg("consumer stopped")
				}
			}()
			log.Info().
				Str("stream", a.cfg.Stream.Name).
				Str("group", a.cfg.Analytics.Group).
				Int("workers", a.cfg.Analytics.Workers).
				Msg("analytics consumer started")

			e := api.NewBaseRouter(api.RouterOptions{
				Service:  config.ServiceAnalytics,
				Logger:   log,
				Checkers: []handlers.Checker{redisstore.NewChecker(rdb)},
			})
			return serve(ctx, e, a.cfg.Ports.Analytics, log)
		},
	}
}
