package syncing

import (
	"context"

	"github.com/vfg2006/ads-sync/infrastructure/repository"
	"github.com/vfg2006/ads-sync/internal/domain"
)

// RecordDailyMetric upserts the (ad, date) row and recomputes the ad's
// rollups. It returns false, without writing, when the ad is not stored.
func RecordDailyMetric(ctx context.Context, store repository.Store, metric *domain.AdDailyMetric) (bool, error) {
	adID, err := store.FindAdID(ctx, metric.AdExternalID)
	if err != nil {
		return false, err
	}
	if adID == "" {
		return false, nil
	}

	if err := store.UpsertDailyMetric(ctx, metric); err != nil {
		return false, err
	}

	if _, err := store.RecomputeAdAggregates(ctx, metric.AdExternalID); err != nil {
		return false, err
	}

	return true, nil
}
