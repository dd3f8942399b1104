package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/vfg2006/ads-sync/internal/domain"
	"github.com/vfg2006/ads-sync/internal/usecases/syncing"
	"github.com/vfg2006/ads-sync/pkg/log"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass and exit",
	}

	cmd.AddCommand(
		syncSubCmd("incremental", "Fetch what changed since the watermarks", func(s *syncing.Service) runner { return s.RunIncremental }),
		syncSubCmd("bulk", "Fetch every entity with rate-limit retry", func(s *syncing.Service) runner { return s.RunBulk }),
		syncSubCmd("summary", "Send yesterday's spend summary if due", func(s *syncing.Service) runner { return s.SendDailySummary }),
	)

	return cmd
}

type runner func(ctx context.Context) (*domain.SyncReport, error)

func syncSubCmd(use, short string, pick func(*syncing.Service) runner) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			report, err := pick(a.syncService())(ctx)
			if errors.Is(err, syncing.ErrSummaryNotDue) {
				log.L.Info(err.Error())
				return nil
			}
			if report != nil {
				out, _ := json.MarshalIndent(report, "", "  ")
				cmd.Println(string(out))
			}
			return err
		},
	}
}
