package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/ads-sync/infrastructure/database/postgres"
)

// WatermarkTable is the closed set of tables a watermark can be read from
type WatermarkTable string

const (
	TableCampaigns WatermarkTable = "campaigns"
	TableAdSets    WatermarkTable = "ad_sets"
	TableAds       WatermarkTable = "ads"
)

func (t WatermarkTable) Valid() bool {
	switch t {
	case TableCampaigns, TableAdSets, TableAds:
		return true
	}
	return false
}

type WatermarkRepository interface {
	MaxUpdatedAt(ctx context.Context, table WatermarkTable) (*time.Time, error)
}

type watermarkRepository struct {
	q postgres.Queryer
}

// MaxUpdatedAt returns the newest updated_at of table, nil when it is empty
func (r *watermarkRepository) MaxUpdatedAt(ctx context.Context, table WatermarkTable) (*time.Time, error) {
	if !table.Valid() {
		return nil, fmt.Errorf("unknown watermark table %q", table)
	}

	query, args, err := squirrel.
		Select("MAX(updated_at)").
		From(string(table)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var maxUpdated sql.NullTime
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&maxUpdated); err != nil {
		return nil, dbError("max updated_at", err)
	}

	if !maxUpdated.Valid {
		return nil, nil
	}

	t := maxUpdated.Time
	return &t, nil
}
