package repository

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/ads-sync/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync/internal/domain"
	"github.com/vfg2006/ads-sync/pkg/utils"
)

const adDailyMetricsTable = "ad_daily_metrics"

type AdDailyMetricRepository interface {
	UpsertDailyMetric(ctx context.Context, metric *domain.AdDailyMetric) error
}

type adDailyMetricRepository struct {
	q postgres.Queryer
}

// UpsertDailyMetric overwrites every value of the (ad_id, date) row
func (r *adDailyMetricRepository) UpsertDailyMetric(ctx context.Context, m *domain.AdDailyMetric) error {
	id, err := utils.GenerateID("m")
	if err != nil {
		return err
	}

	query, args, err := squirrel.
		Insert(adDailyMetricsTable).
		Columns("id", "ad_id", "date", "spend", "impressions", "clicks", "leads", "purchases", "revenue", "roas").
		Values(
			id,
			m.AdExternalID,
			m.Date.Format("2006-01-02"),
			m.Spend,
			m.Impressions,
			m.Clicks,
			m.Leads,
			m.Purchases,
			m.Revenue,
			m.ROAS,
		).
		Suffix(`
			ON CONFLICT (ad_id, date) DO UPDATE SET
				spend = EXCLUDED.spend,
				impressions = EXCLUDED.impressions,
				clicks = EXCLUDED.clicks,
				leads = EXCLUDED.leads,
				purchases = EXCLUDED.purchases,
				revenue = EXCLUDED.revenue,
				roas = EXCLUDED.roas,
				updated_at = NOW()
		`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return dbError("upsert daily metric", err)
	}

	return nil
}
