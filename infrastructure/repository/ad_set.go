package repository

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/ads-sync/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync/internal/domain"
	"github.com/vfg2006/ads-sync/pkg/utils"
)

const adSetsTable = "ad_sets"

type AdSetRepository interface {
	UpsertAdSet(ctx context.Context, adSet *domain.AdSet) (string, error)
	FindAdSetID(ctx context.Context, externalID string) (string, error)
}

type adSetRepository struct {
	q postgres.Queryer
}

// UpsertAdSet requires adSet.CampaignID to hold a resolved internal campaign id
func (r *adSetRepository) UpsertAdSet(ctx context.Context, s *domain.AdSet) (string, error) {
	id, err := utils.GenerateID("s")
	if err != nil {
		return "", err
	}

	query, args, err := squirrel.
		Insert(adSetsTable).
		Columns("id", "ad_set_id", "campaign_id", "name", "status", "daily_budget", "targeting").
		Values(id, s.ExternalID, s.CampaignID, s.Name, s.Status, s.DailyBudget, squirrel.Expr("?::jsonb", s.Targeting.Value())).
		Suffix(`
			ON CONFLICT (ad_set_id) DO UPDATE SET
				campaign_id = EXCLUDED.campaign_id,
				name = EXCLUDED.name,
				status = EXCLUDED.status,
				daily_budget = EXCLUDED.daily_budget,
				targeting = EXCLUDED.targeting,
				updated_at = NOW()
			RETURNING id
		`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return "", err
	}

	var adSetID string
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&adSetID); err != nil {
		return "", dbError("upsert ad set", err)
	}

	return adSetID, nil
}

func (r *adSetRepository) FindAdSetID(ctx context.Context, externalID string) (string, error) {
	return findID(ctx, r.q, adSetsTable, "ad_set_id", externalID)
}
