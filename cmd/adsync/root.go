package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/vfg2006/ads-sync/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/ads-sync/infrastructure/notifier"
	"github.com/vfg2006/ads-sync/infrastructure/repository"
	"github.com/vfg2006/ads-sync/internal/config"
	"github.com/vfg2006/ads-sync/internal/usecases/syncing"
	"github.com/vfg2006/ads-sync/pkg/log"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "adsync",
		Short:         "Incremental Meta Ads sync into PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd(), newSyncCmd(), newMigrateCmd())

	return root
}

// app holds the wired dependencies shared by every command
type app struct {
	cfg  *config.Config
	conn *postgres.Connection
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}

	log.Setup(log.Options{
		Level:      cfg.App.LogLevel,
		Format:     cfg.App.LogFormat,
		File:       cfg.App.LogFile,
		MaxSizeMB:  cfg.App.LogMaxSizeMB,
		MaxBackups: cfg.App.LogMaxBackups,
		MaxAgeDays: cfg.App.LogMaxAgeDays,
	})

	conn, err := postgres.NewConnection(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	log.L.Info("connected to PostgreSQL")

	return &app{cfg: cfg, conn: conn}, nil
}

func (a *app) close() {
	if err := a.conn.Close(); err != nil {
		log.L.WithError(err).Warn("closing database connection")
	}
}

func (a *app) syncService() *syncing.Service {
	return syncing.NewService(
		a.cfg,
		repository.NewUnitOfWork(a.conn),
		metaclient.NewClient(a.cfg),
		notifier.NewFromConfig(a.cfg),
	)
}
