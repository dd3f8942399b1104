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

const campaignsTable = "campaigns"

type CampaignRepository interface {
	UpsertCampaign(ctx context.Context, campaign *domain.Campaign) (string, error)
	EnsureCampaignPlaceholder(ctx context.Context, externalID, name string) (string, error)
	FindCampaignID(ctx context.Context, externalID string) (string, error)
}

type campaignRepository struct {
	q postgres.Queryer
}

// UpsertCampaign inserts or updates a campaign by campaign_id and returns its
// internal id. Totals are only written when the record carries metrics.
func (r *campaignRepository) UpsertCampaign(ctx context.Context, c *domain.Campaign) (string, error) {
	id, err := utils.GenerateID("c")
	if err != nil {
		return "", err
	}

	columns := []string{"id", "campaign_id", "ad_account_id", "name", "status", "objective", "start_date", "end_date"}
	values := []any{id, c.ExternalID, c.AdAccountID, c.Name, c.Status, c.Objective, c.StartDate, c.EndDate}
	suffix := `
			ON CONFLICT (campaign_id) DO UPDATE SET
				ad_account_id = COALESCE(EXCLUDED.ad_account_id, campaigns.ad_account_id),
				name = EXCLUDED.name,
				status = EXCLUDED.status,
				objective = EXCLUDED.objective,
				start_date = EXCLUDED.start_date,
				end_date = EXCLUDED.end_date,`

	if m := c.Metrics; m != nil {
		columns = append(columns, "spend", "impressions", "clicks", "leads", "purchases", "revenue", "roas")
		values = append(values, m.Spend, m.Impressions, m.Clicks, m.Leads, m.Purchases, m.Revenue, m.ROAS)
		suffix += `
				spend = EXCLUDED.spend,
				impressions = EXCLUDED.impressions,
				clicks = EXCLUDED.clicks,
				leads = EXCLUDED.leads,
				purchases = EXCLUDED.purchases,
				revenue = EXCLUDED.revenue,
				roas = EXCLUDED.roas,`
	}

	suffix += `
				updated_at = NOW()
			RETURNING id`

	query, args, err := squirrel.
		Insert(campaignsTable).
		Columns(columns...).
		Values(values...).
		Suffix(suffix).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return "", err
	}

	var campaignID string
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&campaignID); err != nil {
		return "", dbError("upsert campaign", err)
	}

	return campaignID, nil
}

// EnsureCampaignPlaceholder creates a minimal ACTIVE campaign when none exists
// for externalID and returns the stored id either way.
func (r *campaignRepository) EnsureCampaignPlaceholder(ctx context.Context, externalID, name string) (string, error) {
	id, err := utils.GenerateID("c")
	if err != nil {
		return "", err
	}

	query, args, err := squirrel.
		Insert(campaignsTable).
		Columns("id", "campaign_id", "name", "status").
		Values(id, externalID, name, domain.StatusActive).
		Suffix("ON CONFLICT (campaign_id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return "", err
	}

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return "", dbError("insert placeholder campaign", err)
	}

	return r.FindCampaignID(ctx, externalID)
}

// FindCampaignID returns "" when the campaign is not stored
func (r *campaignRepository) FindCampaignID(ctx context.Context, externalID string) (string, error) {
	return findID(ctx, r.q, campaignsTable, "campaign_id", externalID)
}

func findID(ctx context.Context, q postgres.Queryer, table, keyColumn, externalID string) (string, error) {
	query, args, err := squirrel.
		Select("id").
		From(table).
		Where(squirrel.Eq{keyColumn: externalID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return "", err
	}

	var id string
	if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", dbError("find "+table+" id", err)
	}

	return id, nil
}
