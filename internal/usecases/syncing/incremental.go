package syncing

import (
	"context"

	"github.com/vfg2006/ads-sync/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/ads-sync/infrastructure/repository"
	"github.com/vfg2006/ads-sync/internal/domain"
	"github.com/vfg2006/ads-sync/pkg/log"
	"github.com/vfg2006/ads-sync/pkg/utils"
)

// RunIncremental fetches what changed since each table's watermark:
// campaigns, then ads with their nested ad sets, then recent daily insights.
// A stage that fails is reported and the following stages still run.
func (s *Service) RunIncremental(ctx context.Context) (*domain.SyncReport, error) {
	ctx, report := s.begin(ctx, domain.SyncModeIncremental)

	adAccountID, err := s.ensureAccount(ctx)
	if err != nil {
		return report, s.finish(ctx, report, err)
	}

	// both filters are taken before any write moves updated_at
	campaignsAfter, campaignsErr := s.watermark.FilterAfter(ctx, repository.TableCampaigns)
	adsAfter, adsErr := s.watermark.FilterAfter(ctx, repository.TableAds)

	if campaignsErr != nil {
		failStage(ctx, report.Stage(stageCampaigns), campaignsErr)
	} else {
		log.ForContext(ctx).WithField("updated_after", campaignsAfter).Debug("campaign watermark")
		_ = s.syncCampaigns(ctx, report, metaclient.EdgeQuery{UpdatedAfter: &campaignsAfter}, adAccountID)
	}

	if adsErr != nil {
		failStage(ctx, report.Stage(stageAds), adsErr)
	} else {
		log.ForContext(ctx).WithField("updated_after", adsAfter).Debug("ad watermark")
		_ = s.syncAds(ctx, report, metaclient.EdgeQuery{UpdatedAfter: &adsAfter}, PlaceholderParent)
	}

	today := utils.StartOfDay(s.now())
	since := today.AddDate(0, 0, -s.cfg.Sync.DailyMetricsLookback)
	_ = s.syncDailyMetrics(ctx, report, since, today, false)

	return report, s.finish(ctx, report, nil)
}

// RunBulk walks every entity of the account in tier order with rate-limit
// retry, then reloads daily insights since the configured start date.
func (s *Service) RunBulk(ctx context.Context) (*domain.SyncReport, error) {
	ctx, report := s.begin(ctx, domain.SyncModeBulk)

	adAccountID, err := s.ensureAccount(ctx)
	if err != nil {
		return report, s.finish(ctx, report, err)
	}

	query := metaclient.EdgeQuery{Retry: true}

	_ = s.syncCampaigns(ctx, report, query, adAccountID)
	_ = s.syncAdSets(ctx, report, query)
	_ = s.syncAds(ctx, report, query, SkipMissingParent)

	now := s.now()
	_ = s.syncDailyMetrics(ctx, report, s.cfg.Sync.BulkSince(now), utils.StartOfDay(now), true)

	return report, s.finish(ctx, report, nil)
}

