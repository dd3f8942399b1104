package syncing

import (
	"context"
	"errors"
	"fmt"
	"time"

	metadomain "github.com/vfg2006/ads-sync/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/ads-sync/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/ads-sync/infrastructure/repository"
	"github.com/vfg2006/ads-sync/internal/domain"
	"github.com/vfg2006/ads-sync/internal/metrics"
	"github.com/vfg2006/ads-sync/pkg/log"
)

// syncCampaigns upserts every campaign of the edge, one transaction per page
func (s *Service) syncCampaigns(ctx context.Context, report *domain.SyncReport, query metaclient.EdgeQuery, adAccountID string) error {
	stage := report.Stage(stageCampaigns)
	pager := s.client.Campaigns(query)

	for pager.Next(ctx) {
		records := pager.Records()
		stage.Fetched += len(records)

		campaigns := make([]*domain.Campaign, 0, len(records))
		for _, raw := range records {
			record, err := decodeRecord[metadomain.Campaign](raw)
			if err != nil {
				recordFailed(ctx, stage, "", err)
				continue
			}
			campaign, err := record.ToDomain(adAccountID)
			if err != nil {
				recordFailed(ctx, stage, record.ID, err)
				continue
			}
			campaigns = append(campaigns, campaign)
		}

		var counts pageCounts
		err := s.uow.RunInTransaction(ctx, func(store repository.Store) error {
			reconciler := NewReconciler(store)
			for _, campaign := range campaigns {
				if _, err := reconciler.ReconcileCampaign(ctx, campaign); err != nil {
					return &RecordError{Stage: stage.Stage, ExternalID: campaign.ExternalID, Err: err}
				}
				counts.upserted++
			}
			return nil
		})
		if err != nil {
			stage.Failed += len(campaigns)
			failStage(ctx, stage, err)
			return err
		}
		counts.commit(stage)
	}

	if err := pager.Err(); err != nil {
		failStage(ctx, stage, err)
		return err
	}

	log.ForContext(ctx).WithFields(stageFields(stage)).Info("campaigns synced")
	return nil
}

// syncAdSets is the middle tier of the bulk pass. Ad sets whose campaign is
// not stored are skipped.
func (s *Service) syncAdSets(ctx context.Context, report *domain.SyncReport, query metaclient.EdgeQuery) error {
	stage := report.Stage(stageAdSets)
	pager := s.client.AdSets(query)

	type pending struct {
		adSet      *domain.AdSet
		campaignID string
	}

	for pager.Next(ctx) {
		records := pager.Records()
		stage.Fetched += len(records)

		adSets := make([]pending, 0, len(records))
		for _, raw := range records {
			record, err := decodeRecord[metadomain.AdSet](raw)
			if err != nil {
				recordFailed(ctx, stage, "", err)
				continue
			}
			adSet, err := record.ToDomain()
			if err != nil {
				recordFailed(ctx, stage, record.ID, err)
				continue
			}
			adSets = append(adSets, pending{adSet: adSet, campaignID: record.CampaignID})
		}

		var counts pageCounts
		err := s.uow.RunInTransaction(ctx, func(store repository.Store) error {
			reconciler := NewReconciler(store)
			for _, p := range adSets {
				_, err := reconciler.ReconcileAdSet(ctx, p.adSet, CampaignRef{ExternalID: p.campaignID}, SkipMissingParent)
				if errors.Is(err, ErrParentNotFound) {
					recordSkipped(ctx, stage.Stage, p.adSet.ExternalID, err)
					counts.skipped++
					continue
				}
				if err != nil {
					return &RecordError{Stage: stage.Stage, ExternalID: p.adSet.ExternalID, Err: err}
				}
				counts.upserted++
			}
			return nil
		})
		if err != nil {
			stage.Failed += len(adSets)
			failStage(ctx, stage, err)
			return err
		}
		counts.commit(stage)
	}

	if err := pager.Err(); err != nil {
		failStage(ctx, stage, err)
		return err
	}

	log.ForContext(ctx).WithFields(stageFields(stage)).Info("ad sets synced")
	return nil
}

type pendingAd struct {
	ad           *domain.Ad
	record       metadomain.Ad
	campaignName string
	running      bool
}

// syncAds upserts ads with their delivery status alerts and live status.
// With PlaceholderParent the nested ad set (and, if needed, a placeholder
// campaign) is written first; with SkipMissingParent the ad set must already
// be stored.
func (s *Service) syncAds(ctx context.Context, report *domain.SyncReport, query metaclient.EdgeQuery, policy ParentPolicy) error {
	stage := report.Stage(stageAds)
	pager := s.client.Ads(query)

	// external ad set id -> internal id, only for committed pages
	adSetIDs := map[string]string{}

	for pager.Next(ctx) {
		records := pager.Records()
		stage.Fetched += len(records)

		ads := make([]pendingAd, 0, len(records))
		for _, raw := range records {
			record, err := decodeRecord[metadomain.Ad](raw)
			if err != nil {
				recordFailed(ctx, stage, "", err)
				continue
			}
			ad, err := record.ToDomain()
			if err != nil {
				recordFailed(ctx, stage, record.ID, err)
				continue
			}

			p := pendingAd{ad: ad, record: record}
			if record.Campaign != nil {
				p.campaignName = record.Campaign.Name
			}
			ads = append(ads, p)
		}

		// probes run outside the transaction
		for i := range ads {
			ads[i].running = s.probe.IsRunning(ctx, ads[i].ad)
		}

		var (
			counts  pageCounts
			alerts  []domain.Notification
			live    int
			pageIDs map[string]string
		)
		observedAt := s.now()

		err := s.uow.RunInTransaction(ctx, func(store repository.Store) error {
			counts, alerts, live = pageCounts{}, nil, 0
			pageIDs = map[string]string{}
			reconciler := NewReconciler(store)

			for _, p := range ads {
				adSetID, err := s.resolveAdSet(ctx, reconciler, p.record, policy, adSetIDs, pageIDs)
				if errors.Is(err, ErrParentNotFound) {
					recordSkipped(ctx, stage.Stage, p.ad.ExternalID, err)
					counts.skipped++
					continue
				}
				if err != nil {
					return &RecordError{Stage: stage.Stage, ExternalID: p.ad.ExternalID, Err: err}
				}

				id, previous, err := reconciler.ReconcileAd(ctx, p.ad, adSetID)
				if err != nil {
					return &RecordError{Stage: stage.Stage, ExternalID: p.ad.ExternalID, Err: err}
				}

				if alert := DisapprovalAlert(previous, p.ad, p.campaignName); alert != nil {
					alerts = append(alerts, *alert)
				}

				if err := store.UpsertLiveStatus(ctx, id, p.running, observedAt); err != nil {
					return &RecordError{Stage: stage.Stage, ExternalID: p.ad.ExternalID, Err: err}
				}
				if p.running {
					live++
				}

				counts.upserted++
			}
			return nil
		})
		if err != nil {
			stage.Failed += len(ads)
			failStage(ctx, stage, err)
			return err
		}

		counts.commit(stage)
		for k, v := range pageIDs {
			adSetIDs[k] = v
		}
		report.LiveAds += live
		report.Alerts += dispatchAlerts(ctx, s.notifier, alerts)
	}

	if err := pager.Err(); err != nil {
		failStage(ctx, stage, err)
		return err
	}

	metrics.LiveAds.Set(float64(report.LiveAds))
	log.ForContext(ctx).WithFields(stageFields(stage)).WithField("live_ads", report.LiveAds).Info("ads synced")
	return nil
}

// resolveAdSet returns the internal ad set id for an ad, writing the nested
// ad set first when the policy allows it.
func (s *Service) resolveAdSet(ctx context.Context, reconciler *Reconciler, record metadomain.Ad, policy ParentPolicy, committed, page map[string]string) (string, error) {
	externalID := record.ParentAdSetID()
	if id, ok := committed[externalID]; ok {
		return id, nil
	}
	if id, ok := page[externalID]; ok {
		return id, nil
	}

	if policy != PlaceholderParent || record.AdSet == nil {
		return reconciler.ResolveAdSet(ctx, externalID)
	}

	adSet, err := record.AdSet.ToDomain()
	if err != nil {
		return "", fmt.Errorf("nested ad set: %w", err)
	}

	parent := CampaignRef{ExternalID: record.AdSet.CampaignID}
	if record.Campaign != nil {
		parent.Name = record.Campaign.Name
		if parent.ExternalID == "" {
			parent.ExternalID = record.Campaign.ID
		}
	}

	id, err := reconciler.ReconcileAdSet(ctx, adSet, parent, policy)
	if err != nil {
		return "", err
	}

	page[externalID] = id
	return id, nil
}

// syncDailyMetrics upserts one row per ad per day and refreshes ad rollups
func (s *Service) syncDailyMetrics(ctx context.Context, report *domain.SyncReport, since, until time.Time, retry bool) error {
	stage := report.Stage(stageDailyMetrics)
	pager := s.client.DailyAdInsights(since, until, retry)

	for pager.Next(ctx) {
		records := pager.Records()
		stage.Fetched += len(records)

		rows := make([]*domain.AdDailyMetric, 0, len(records))
		for _, raw := range records {
			insight, err := decodeRecord[metadomain.Insight](raw)
			if err != nil {
				recordFailed(ctx, stage, "", err)
				continue
			}
			row, err := insight.ToDailyMetric()
			if err != nil {
				recordFailed(ctx, stage, insight.AdID, err)
				continue
			}
			rows = append(rows, row)
		}

		var counts pageCounts
		err := s.uow.RunInTransaction(ctx, func(store repository.Store) error {
			counts = pageCounts{}
			for _, row := range rows {
				stored, err := RecordDailyMetric(ctx, store, row)
				if err != nil {
					return &RecordError{Stage: stage.Stage, ExternalID: row.AdExternalID, Err: err}
				}
				if !stored {
					log.ForContext(ctx).WithFields(log.Fields{
						"ad_id": row.AdExternalID,
						"date":  row.Date.Format(time.DateOnly),
					}).Debug("daily metric for unknown ad skipped")
					counts.skipped++
					continue
				}
				counts.upserted++
			}
			return nil
		})
		if err != nil {
			stage.Failed += len(rows)
			failStage(ctx, stage, err)
			return err
		}
		counts.commit(stage)
	}

	if err := pager.Err(); err != nil {
		failStage(ctx, stage, err)
		return err
	}

	log.ForContext(ctx).WithFields(stageFields(stage)).Info("daily metrics synced")
	return nil
}

func stageFields(stage *domain.StageReport) log.Fields {
	return log.Fields{
		"stage":    stage.Stage,
		"fetched":  stage.Fetched,
		"upserted": stage.Upserted,
		"skipped":  stage.Skipped,
		"failed":   stage.Failed,
	}
}
