package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/ads-sync/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync/internal/domain"
	"github.com/vfg2006/ads-sync/pkg/utils"
)

const adsTable = "ads"

type AdRepository interface {
	GetAdDeliveryStatus(ctx context.Context, externalID string) (string, bool, error)
	UpsertAd(ctx context.Context, ad *domain.Ad) (string, error)
	FindAdID(ctx context.Context, externalID string) (string, error)
	RecomputeAdAggregates(ctx context.Context, externalID string) (*domain.AdAggregates, error)
}

type adRepository struct {
	q postgres.Queryer
}

// GetAdDeliveryStatus returns the stored delivery status and whether the ad exists
func (r *adRepository) GetAdDeliveryStatus(ctx context.Context, externalID string) (string, bool, error) {
	query, args, err := squirrel.
		Select("delivery_status").
		From(adsTable).
		Where(squirrel.Eq{"ad_id": externalID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return "", false, err
	}

	var status string
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, dbError("get ad delivery status", err)
	}

	return status, true, nil
}

// UpsertAd requires ad.AdSetID to hold a resolved internal ad set id
func (r *adRepository) UpsertAd(ctx context.Context, ad *domain.Ad) (string, error) {
	id, err := utils.GenerateID("d")
	if err != nil {
		return "", err
	}

	columns := []string{"id", "ad_id", "ad_set_id", "name", "status", "delivery_status"}
	values := []any{id, ad.ExternalID, ad.AdSetID, ad.Name, ad.Status, ad.DeliveryStatus}
	suffix := `
			ON CONFLICT (ad_id) DO UPDATE SET
				ad_set_id = EXCLUDED.ad_set_id,
				name = EXCLUDED.name,
				status = EXCLUDED.status,
				delivery_status = EXCLUDED.delivery_status,`

	if m := ad.Metrics; m != nil {
		columns = append(columns, "spend", "impressions", "clicks", "revenue", "roas")
		values = append(values, m.Spend, m.Impressions, m.Clicks, m.Revenue, m.ROAS)
		suffix += `
				spend = EXCLUDED.spend,
				impressions = EXCLUDED.impressions,
				clicks = EXCLUDED.clicks,
				revenue = EXCLUDED.revenue,
				roas = EXCLUDED.roas,`
	}

	suffix += `
				updated_at = NOW()
			RETURNING id`

	query, args, err := squirrel.
		Insert(adsTable).
		Columns(columns...).
		Values(values...).
		Suffix(suffix).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return "", err
	}

	var adID string
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&adID); err != nil {
		return "", dbError("upsert ad", err)
	}

	return adID, nil
}

func (r *adRepository) FindAdID(ctx context.Context, externalID string) (string, error) {
	return findID(ctx, r.q, adsTable, "ad_id", externalID)
}

// RecomputeAdAggregates rewrites the ad's totals as the sum of its daily rows
func (r *adRepository) RecomputeAdAggregates(ctx context.Context, externalID string) (*domain.AdAggregates, error) {
	query, args, err := squirrel.
		Select(
			"COALESCE(SUM(spend), 0)",
			"COALESCE(SUM(impressions), 0)",
			"COALESCE(SUM(clicks), 0)",
			"COALESCE(SUM(revenue), 0)",
		).
		From(adDailyMetricsTable).
		Where(squirrel.Eq{"ad_id": externalID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	agg := &domain.AdAggregates{}
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&agg.Spend, &agg.Impressions, &agg.Clicks, &agg.Revenue); err != nil {
		return nil, dbError("sum daily metrics", err)
	}
	agg.ROAS = domain.ComputeROAS(agg.Revenue, agg.Spend)

	update, updateArgs, err := squirrel.
		Update(adsTable).
		Set("spend", agg.Spend).
		Set("impressions", agg.Impressions).
		Set("clicks", agg.Clicks).
		Set("revenue", agg.Revenue).
		Set("roas", agg.ROAS).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"ad_id": externalID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	if _, err := r.q.ExecContext(ctx, update, updateArgs...); err != nil {
		return nil, dbError("update ad aggregates", err)
	}

	return agg, nil
}
