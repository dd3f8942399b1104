package repository

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/ads-sync/infrastructure/database/postgres"
)

type AdLiveStatusRepository interface {
	UpsertLiveStatus(ctx context.Context, adID string, running bool, observedAt time.Time) error
}

type adLiveStatusRepository struct {
	q postgres.Queryer
}

// UpsertLiveStatus records the probe outcome for an ad (internal id).
// last_impression_time only moves when the ad was seen running; it stays NULL
// until the first positive probe.
func (r *adLiveStatusRepository) UpsertLiveStatus(ctx context.Context, adID string, running bool, observedAt time.Time) error {
	var lastImpression any
	if running {
		lastImpression = observedAt
	}

	query, args, err := squirrel.
		Insert("ad_live_status").
		Columns("ad_id", "last_impression_time", "is_running_now").
		Values(adID, lastImpression, running).
		Suffix(`
			ON CONFLICT (ad_id) DO UPDATE SET
				is_running_now = EXCLUDED.is_running_now,
				last_impression_time = COALESCE(EXCLUDED.last_impression_time, ad_live_status.last_impression_time),
				updated_at = NOW()
		`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return dbError("upsert live status", err)
	}

	return nil
}
