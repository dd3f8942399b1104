package syncing

import (
	"context"
	"time"

	"github.com/vfg2006/ads-sync/internal/domain"
	"github.com/vfg2006/ads-sync/pkg/log"
)

// ImpressionProber reports impressions served by an ad over a recent window
type ImpressionProber interface {
	RecentImpressions(ctx context.Context, adID string, window time.Duration) (int64, error)
}

// LiveProbe classifies ads as running now from a short impressions window
type LiveProbe struct {
	prober ImpressionProber
	window time.Duration
}

func NewLiveProbe(prober ImpressionProber, window time.Duration) *LiveProbe {
	return &LiveProbe{prober: prober, window: window}
}

// IsRunning probes only ads that are ACTIVE in both status fields. A probe
// error counts as not running for this cycle.
func (p *LiveProbe) IsRunning(ctx context.Context, ad *domain.Ad) bool {
	if !ad.IsFullyActive() {
		return false
	}

	impressions, err := p.prober.RecentImpressions(ctx, ad.ExternalID, p.window)
	if err != nil {
		log.ForContext(ctx).WithField("ad_id", ad.ExternalID).WithError(err).Warn("live probe failed, treating ad as not running")
		return false
	}

	return impressions > 0
}
