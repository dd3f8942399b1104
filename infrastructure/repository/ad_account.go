package repository

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/ads-sync/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync/pkg/utils"
)

type AdAccountRepository interface {
	EnsureAdAccount(ctx context.Context, externalID, name string) (string, error)
}

type adAccountRepository struct {
	q postgres.Queryer
}

// EnsureAdAccount creates the account row on first use and returns its id.
// An empty name never overwrites a stored one.
func (r *adAccountRepository) EnsureAdAccount(ctx context.Context, externalID, name string) (string, error) {
	id, err := utils.GenerateID("a")
	if err != nil {
		return "", err
	}

	query, args, err := squirrel.
		Insert("ad_accounts").
		Columns("id", "account_id", "name").
		Values(id, externalID, name).
		Suffix(`
			ON CONFLICT (account_id) DO UPDATE SET
				name = COALESCE(NULLIF(EXCLUDED.name, ''), ad_accounts.name),
				updated_at = NOW()
			RETURNING id
		`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return "", err
	}

	var accountID string
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&accountID); err != nil {
		return "", dbError("ensure ad account", err)
	}

	return accountID, nil
}
