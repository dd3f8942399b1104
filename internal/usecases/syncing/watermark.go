package syncing

import (
	"context"
	"time"

	"github.com/vfg2006/ads-sync/infrastructure/repository"
)

// filterEpsilon is added to a watermark so the strict GREATER_THAN filter
// does not refetch the row that produced it.
const filterEpsilon = time.Second

// Watermark decides "fetch since when" for a table
type Watermark struct {
	repo     repository.WatermarkRepository
	lookback time.Duration
	fallback time.Duration
	now      func() time.Time
}

func NewWatermark(repo repository.WatermarkRepository, lookback, fallback time.Duration, now func() time.Time) *Watermark {
	if now == nil {
		now = time.Now
	}
	return &Watermark{repo: repo, lookback: lookback, fallback: fallback, now: now}
}

// Since returns min(MAX(updated_at), now-lookback), or now-fallback when the
// table is empty. The result never exceeds now-lookback.
func (w *Watermark) Since(ctx context.Context, table repository.WatermarkTable) (time.Time, error) {
	now := w.now()

	last, err := w.repo.MaxUpdatedAt(ctx, table)
	if err != nil {
		return time.Time{}, err
	}

	if last == nil {
		return now.Add(-w.fallback), nil
	}

	ceiling := now.Add(-w.lookback)
	if last.Before(ceiling) {
		return *last, nil
	}
	return ceiling, nil
}

// FilterAfter is Since plus one second, ready for an updated_time filter
func (w *Watermark) FilterAfter(ctx context.Context, table repository.WatermarkTable) (time.Time, error) {
	since, err := w.Since(ctx, table)
	if err != nil {
		return time.Time{}, err
	}
	return since.Add(filterEpsilon), nil
}
