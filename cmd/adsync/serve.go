package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/vfg2006/ads-sync/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync/internal/api"
	"github.com/vfg2006/ads-sync/internal/scheduler"
	"github.com/vfg2006/ads-sync/internal/usecases/authenticating"
	"github.com/vfg2006/ads-sync/pkg/log"
)

func newServeCmd() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync scheduler and the ops API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if migrateFirst {
				migrator, err := postgres.NewMigrator(a.conn)
				if err != nil {
					return err
				}
				if err := migrator.Up(); err != nil {
					return err
				}
			}

			service := a.syncService()
			jobs := scheduler.NewSyncJobService(a.cfg, scheduler.Runners{
				Incremental: service.RunIncremental,
				Bulk:        service.RunBulk,
				Summary:     service.SendDailySummary,
			})

			if err := jobs.Start(ctx); err != nil {
				return err
			}
			log.L.Info("sync scheduler started")

			server := api.New(a.cfg, a.conn, authenticating.NewService(a.cfg), jobs)
			if err := server.Run(ctx); err != nil {
				return err
			}

			// let a manual run finish its current page before the pool closes
			cancel()
			jobs.Wait()
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before starting")

	return cmd
}
