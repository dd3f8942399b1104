package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/vfg2006/ads-sync/infrastructure/database/postgres"
)

// Store groups every repository over a single Queryer, either the pool or an
// open transaction.
type Store interface {
	AdAccountRepository
	WatermarkRepository
	CampaignRepository
	AdSetRepository
	AdRepository
	AdLiveStatusRepository
	AdDailyMetricRepository
	SummaryRepository
}

// UnitOfWork hands out a Store bound to the pool or to a transaction
type UnitOfWork interface {
	Store() Store
	RunInTransaction(ctx context.Context, fn func(Store) error) error
}

type store struct {
	*adAccountRepository
	*watermarkRepository
	*campaignRepository
	*adSetRepository
	*adRepository
	*adLiveStatusRepository
	*adDailyMetricRepository
	*summaryRepository
}

func NewStore(q postgres.Queryer) Store {
	return &store{
		adAccountRepository:     &adAccountRepository{q: q},
		watermarkRepository:     &watermarkRepository{q: q},
		campaignRepository:      &campaignRepository{q: q},
		adSetRepository:         &adSetRepository{q: q},
		adRepository:            &adRepository{q: q},
		adLiveStatusRepository:  &adLiveStatusRepository{q: q},
		adDailyMetricRepository: &adDailyMetricRepository{q: q},
		summaryRepository:       &summaryRepository{q: q},
	}
}

type unitOfWork struct {
	conn *postgres.Connection
}

func NewUnitOfWork(conn *postgres.Connection) UnitOfWork {
	return &unitOfWork{conn: conn}
}

func (u *unitOfWork) Store() Store {
	return NewStore(u.conn.DB)
}

func (u *unitOfWork) RunInTransaction(ctx context.Context, fn func(Store) error) error {
	return u.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		return fn(NewStore(tx))
	})
}

func dbError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s: database error: %w (code: %s)", op, pqErr, pqErr.Code)
	}
	return fmt.Errorf("%s: %w", op, err)
}
