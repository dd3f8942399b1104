package syncing

import (
	"context"
	"fmt"

	"github.com/vfg2006/ads-sync/infrastructure/repository"
	"github.com/vfg2006/ads-sync/internal/domain"
)

// ParentPolicy decides what happens to an ad set whose campaign is not stored
type ParentPolicy int

const (
	// PlaceholderParent creates a minimal campaign row and attaches to it.
	// Used by the ads-driven pass, where campaigns arrive nested in ads.
	PlaceholderParent ParentPolicy = iota
	// SkipMissingParent drops the ad set and reports ErrParentNotFound.
	// Used by the tiered pass, where campaigns were written first.
	SkipMissingParent
)

func (p ParentPolicy) String() string {
	if p == PlaceholderParent {
		return "placeholder"
	}
	return "skip"
}

// CampaignRef identifies the campaign an ad set belongs to
type CampaignRef struct {
	ExternalID string
	Name       string
}

// Reconciler merges fetched records into the store by external id. Callers
// keep the campaign, ad set, ad order; the reconciler enforces that a child is
// never written without a resolved parent.
type Reconciler struct {
	store repository.Store
}

func NewReconciler(store repository.Store) *Reconciler {
	return &Reconciler{store: store}
}

func (r *Reconciler) ReconcileCampaign(ctx context.Context, campaign *domain.Campaign) (string, error) {
	return r.store.UpsertCampaign(ctx, campaign)
}

// ResolveCampaign returns the internal id of ref following policy
func (r *Reconciler) ResolveCampaign(ctx context.Context, ref CampaignRef, policy ParentPolicy) (string, error) {
	if ref.ExternalID == "" {
		return "", fmt.Errorf("campaign reference is empty: %w", ErrParentNotFound)
	}

	if policy == PlaceholderParent {
		return r.store.EnsureCampaignPlaceholder(ctx, ref.ExternalID, ref.Name)
	}

	id, err := r.store.FindCampaignID(ctx, ref.ExternalID)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("campaign %s: %w", ref.ExternalID, ErrParentNotFound)
	}
	return id, nil
}

// ReconcileAdSet resolves the parent campaign, then upserts the ad set
func (r *Reconciler) ReconcileAdSet(ctx context.Context, adSet *domain.AdSet, parent CampaignRef, policy ParentPolicy) (string, error) {
	campaignID, err := r.ResolveCampaign(ctx, parent, policy)
	if err != nil {
		return "", err
	}

	adSet.CampaignID = campaignID
	return r.store.UpsertAdSet(ctx, adSet)
}

// ResolveAdSet returns the internal id of a stored ad set or ErrParentNotFound
func (r *Reconciler) ResolveAdSet(ctx context.Context, externalID string) (string, error) {
	if externalID == "" {
		return "", fmt.Errorf("ad set reference is empty: %w", ErrParentNotFound)
	}

	id, err := r.store.FindAdSetID(ctx, externalID)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("ad set %s: %w", externalID, ErrParentNotFound)
	}
	return id, nil
}

// ReconcileAd upserts an ad under an already resolved ad set. It returns the
// internal id and the delivery status stored before the write ("" when new).
func (r *Reconciler) ReconcileAd(ctx context.Context, ad *domain.Ad, adSetID string) (string, string, error) {
	if adSetID == "" {
		return "", "", fmt.Errorf("ad %s: %w", ad.ExternalID, ErrParentNotFound)
	}

	previous, _, err := r.store.GetAdDeliveryStatus(ctx, ad.ExternalID)
	if err != nil {
		return "", "", err
	}

	ad.AdSetID = adSetID
	id, err := r.store.UpsertAd(ctx, ad)
	if err != nil {
		return "", "", err
	}

	return id, previous, nil
}
