package syncing

import (
	"context"
	"fmt"

	"github.com/vfg2006/ads-sync/infrastructure/notifier"
	"github.com/vfg2006/ads-sync/internal/domain"
	"github.com/vfg2006/ads-sync/internal/metrics"
	"github.com/vfg2006/ads-sync/pkg/log"
)

const disapprovalTitle = "FB Ads Alert: DISAPPROVED"

// DisapprovalAlert returns a notification when the delivery status moved
// into DISAPPROVED, nil otherwise.
func DisapprovalAlert(previous string, ad *domain.Ad, campaignName string) *domain.Notification {
	if !domain.IsDisapprovalTransition(previous, ad.DeliveryStatus) {
		return nil
	}

	if campaignName == "" {
		campaignName = "Unknown Campaign"
	}

	return &domain.Notification{
		Title:    disapprovalTitle,
		Message:  fmt.Sprintf("Campaign: %s\nAd: %s\n\nDelivery was stopped. Check Ads Manager as soon as possible.", campaignName, ad.Name),
		Priority: domain.PriorityHigh,
		Metadata: map[string]string{
			"campaign": campaignName,
			"ad":       ad.Name,
			"ad_id":    ad.ExternalID,
		},
	}
}

// dispatchAlerts delivers queued alerts after their page committed. Delivery
// is best-effort: failures are logged and never reach the caller.
func dispatchAlerts(ctx context.Context, n notifier.Notifier, alerts []domain.Notification) int {
	sent := 0
	for _, alert := range alerts {
		metrics.DisapprovalAlerts.Inc()

		if err := n.Notify(ctx, alert); err != nil {
			log.ForContext(ctx).WithFields(log.Fields{
				"ad_id": alert.Metadata["ad_id"],
				"title": alert.Title,
			}).WithError(err).Warn("failed to deliver alert")
			continue
		}
		sent++
	}
	return sent
}
