package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/ads-sync/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync/internal/domain"
)

type SummaryRepository interface {
	AdSpendOn(ctx context.Context, date time.Time) ([]domain.AdSpend, error)
	SpendTotals(ctx context.Context, from, to time.Time) (float64, int64, error)
	MarkNotificationSent(ctx context.Context, kind, period string) (bool, error)
}

type summaryRepository struct {
	q postgres.Queryer
}

// AdSpendOn lists every ad that spent or produced leads on date
func (r *summaryRepository) AdSpendOn(ctx context.Context, date time.Time) ([]domain.AdSpend, error) {
	query, args, err := squirrel.
		Select("a.name", "c.name", "m.spend", "m.leads").
		From("ad_daily_metrics m").
		Join("ads a ON a.ad_id = m.ad_id").
		Join("ad_sets s ON s.id = a.ad_set_id").
		Join("campaigns c ON c.id = s.campaign_id").
		Where(squirrel.Eq{"m.date": date.Format("2006-01-02")}).
		Where(squirrel.Or{squirrel.Gt{"m.spend": 0}, squirrel.Gt{"m.leads": 0}}).
		OrderBy("c.name", "a.name").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("ad spend on date", err)
	}
	defer rows.Close()

	result := make([]domain.AdSpend, 0)
	for rows.Next() {
		var s domain.AdSpend
		if err := rows.Scan(&s.AdName, &s.CampaignName, &s.Spend, &s.Leads); err != nil {
			return nil, fmt.Errorf("scanning ad spend: %w", err)
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ad spend: %w", err)
	}

	return result, nil
}

// SpendTotals sums spend and leads of every daily row with date in [from, to]
func (r *summaryRepository) SpendTotals(ctx context.Context, from, to time.Time) (float64, int64, error) {
	query, args, err := squirrel.
		Select("COALESCE(SUM(spend), 0)", "COALESCE(SUM(leads), 0)").
		From(adDailyMetricsTable).
		Where(squirrel.GtOrEq{"date": from.Format("2006-01-02")}).
		Where(squirrel.LtOrEq{"date": to.Format("2006-01-02")}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, 0, err
	}

	var spend float64
	var leads int64
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&spend, &leads); err != nil {
		return 0, 0, dbError("spend totals", err)
	}

	return spend, leads, nil
}

// MarkNotificationSent records that kind was sent for period. It returns
// false when it had already been recorded.
func (r *summaryRepository) MarkNotificationSent(ctx context.Context, kind, period string) (bool, error) {
	query, args, err := squirrel.
		Insert("notification_log").
		Columns("kind", "period").
		Values(kind, period).
		Suffix("ON CONFLICT (kind, period) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, dbError("mark notification sent", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}
