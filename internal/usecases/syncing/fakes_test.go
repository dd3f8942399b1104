package syncing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/vfg2006/ads-sync/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/ads-sync/infrastructure/repository"
	"github.com/vfg2006/ads-sync/internal/config"
	"github.com/vfg2006/ads-sync/internal/domain"
)

var errDB = errors.New("database unavailable")

type dailyKey struct {
	adID string
	date string
}

// memStore is an in-memory Store. Every write checks the foreign keys the
// schema enforces so a dangling child fails like it would in Postgres.
type memStore struct {
	seq           int
	accounts      map[string]string
	campaigns     map[string]domain.Campaign
	adSets        map[string]domain.AdSet
	ads           map[string]domain.Ad
	live          map[string]domain.AdLiveStatus
	daily         map[dailyKey]domain.AdDailyMetric
	notifications map[string]bool
	maxUpdated    map[repository.WatermarkTable]*time.Time

	adSpend   []domain.AdSpend
	mtdSpend  float64
	mtdLeads  int64
	mtdRanges [][2]time.Time
	failAdIDs map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		accounts:      map[string]string{},
		campaigns:     map[string]domain.Campaign{},
		adSets:        map[string]domain.AdSet{},
		ads:           map[string]domain.Ad{},
		live:          map[string]domain.AdLiveStatus{},
		daily:         map[dailyKey]domain.AdDailyMetric{},
		notifications: map[string]bool{},
		maxUpdated:    map[repository.WatermarkTable]*time.Time{},
		failAdIDs:     map[string]bool{},
	}
}

func (s *memStore) clone() *memStore {
	c := *s
	c.accounts = copyMap(s.accounts)
	c.campaigns = copyMap(s.campaigns)
	c.adSets = copyMap(s.adSets)
	c.ads = copyMap(s.ads)
	c.live = copyMap(s.live)
	c.daily = copyMap(s.daily)
	c.notifications = copyMap(s.notifications)
	return &c
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%04d", prefix, s.seq)
}

func (s *memStore) EnsureAdAccount(ctx context.Context, externalID, name string) (string, error) {
	if id, ok := s.accounts[externalID]; ok {
		return id, nil
	}
	id := s.nextID("a")
	s.accounts[externalID] = id
	return id, nil
}

func (s *memStore) MaxUpdatedAt(ctx context.Context, table repository.WatermarkTable) (*time.Time, error) {
	return s.maxUpdated[table], nil
}

func (s *memStore) UpsertCampaign(ctx context.Context, c *domain.Campaign) (string, error) {
	stored, ok := s.campaigns[c.ExternalID]
	row := *c
	if ok {
		row.ID = stored.ID
		if row.Metrics == nil {
			row.Metrics = stored.Metrics
		}
	} else {
		row.ID = s.nextID("c")
	}
	s.campaigns[c.ExternalID] = row
	return row.ID, nil
}

func (s *memStore) EnsureCampaignPlaceholder(ctx context.Context, externalID, name string) (string, error) {
	if stored, ok := s.campaigns[externalID]; ok {
		return stored.ID, nil
	}
	row := domain.Campaign{ID: s.nextID("c"), ExternalID: externalID, Name: name, Status: domain.StatusActive}
	s.campaigns[externalID] = row
	return row.ID, nil
}

func (s *memStore) FindCampaignID(ctx context.Context, externalID string) (string, error) {
	return s.campaigns[externalID].ID, nil
}

func (s *memStore) UpsertAdSet(ctx context.Context, a *domain.AdSet) (string, error) {
	if !s.hasCampaign(a.CampaignID) {
		return "", fmt.Errorf("ad set %s: foreign key violation on campaign %q", a.ExternalID, a.CampaignID)
	}
	row := *a
	if stored, ok := s.adSets[a.ExternalID]; ok {
		row.ID = stored.ID
	} else {
		row.ID = s.nextID("s")
	}
	s.adSets[a.ExternalID] = row
	return row.ID, nil
}

func (s *memStore) hasCampaign(id string) bool {
	for _, c := range s.campaigns {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (s *memStore) FindAdSetID(ctx context.Context, externalID string) (string, error) {
	return s.adSets[externalID].ID, nil
}

func (s *memStore) GetAdDeliveryStatus(ctx context.Context, externalID string) (string, bool, error) {
	stored, ok := s.ads[externalID]
	return stored.DeliveryStatus, ok, nil
}

func (s *memStore) UpsertAd(ctx context.Context, a *domain.Ad) (string, error) {
	if s.failAdIDs[a.ExternalID] {
		return "", errDB
	}

	found := false
	for _, set := range s.adSets {
		if set.ID == a.AdSetID {
			found = true
		}
	}
	if !found {
		return "", fmt.Errorf("ad %s: foreign key violation on ad set %q", a.ExternalID, a.AdSetID)
	}

	row := *a
	if stored, ok := s.ads[a.ExternalID]; ok {
		row.ID = stored.ID
		if row.Metrics == nil {
			row.Metrics = stored.Metrics
		}
	} else {
		row.ID = s.nextID("d")
	}
	s.ads[a.ExternalID] = row
	return row.ID, nil
}

func (s *memStore) FindAdID(ctx context.Context, externalID string) (string, error) {
	return s.ads[externalID].ID, nil
}

func (s *memStore) RecomputeAdAggregates(ctx context.Context, externalID string) (*domain.AdAggregates, error) {
	agg := &domain.AdAggregates{}
	for key, row := range s.daily {
		if key.adID != externalID {
			continue
		}
		agg.Spend += row.Spend
		agg.Impressions += row.Impressions
		agg.Clicks += row.Clicks
		if row.Revenue != nil {
			agg.Revenue += *row.Revenue
		}
	}
	agg.ROAS = domain.ComputeROAS(agg.Revenue, agg.Spend)

	ad := s.ads[externalID]
	ad.Metrics = &domain.Metrics{
		Spend:       agg.Spend,
		Impressions: agg.Impressions,
		Clicks:      agg.Clicks,
		Revenue:     agg.Revenue,
		ROAS:        agg.ROAS,
	}
	s.ads[externalID] = ad

	return agg, nil
}

func (s *memStore) UpsertLiveStatus(ctx context.Context, adID string, running bool, observedAt time.Time) error {
	row := s.live[adID]
	row.AdID = adID
	row.IsRunningNow = running
	row.UpdatedAt = observedAt
	if running {
		t := observedAt
		row.LastImpressionTime = &t
	}
	s.live[adID] = row
	return nil
}

func (s *memStore) UpsertDailyMetric(ctx context.Context, m *domain.AdDailyMetric) error {
	if _, ok := s.ads[m.AdExternalID]; !ok {
		return fmt.Errorf("daily metric: foreign key violation on ad %q", m.AdExternalID)
	}
	s.daily[dailyKey{adID: m.AdExternalID, date: m.Date.Format(time.DateOnly)}] = *m
	return nil
}

func (s *memStore) AdSpendOn(ctx context.Context, date time.Time) ([]domain.AdSpend, error) {
	return s.adSpend, nil
}

func (s *memStore) SpendTotals(ctx context.Context, from, to time.Time) (float64, int64, error) {
	s.mtdRanges = append(s.mtdRanges, [2]time.Time{from, to})
	return s.mtdSpend, s.mtdLeads, nil
}

func (s *memStore) MarkNotificationSent(ctx context.Context, kind, period string) (bool, error) {
	key := kind + "/" + period
	if s.notifications[key] {
		return false, nil
	}
	s.notifications[key] = true
	return true, nil
}

func (s *memStore) liveByExternal(externalID string) domain.AdLiveStatus {
	return s.live[s.ads[externalID].ID]
}

// memUnitOfWork restores the pre-transaction state when fn fails
type memUnitOfWork struct {
	store *memStore
}

func (u *memUnitOfWork) Store() repository.Store {
	return u.store
}

func (u *memUnitOfWork) RunInTransaction(ctx context.Context, fn func(repository.Store) error) error {
	snapshot := u.store.clone()
	if err := fn(u.store); err != nil {
		*u.store = *snapshot
		return err
	}
	return nil
}

// slicePager serves pre-baked pages, then an optional error
type slicePager struct {
	pages   [][]string
	err     error
	current []jsoniter.RawMessage
	done    bool
}

func newPager(err error, pages ...[]string) *slicePager {
	return &slicePager{pages: pages, err: err}
}

func (p *slicePager) Next(ctx context.Context) bool {
	if p.done {
		return false
	}
	if len(p.pages) == 0 {
		p.done = true
		return false
	}

	page := p.pages[0]
	p.pages = p.pages[1:]
	p.current = make([]jsoniter.RawMessage, 0, len(page))
	for _, raw := range page {
		p.current = append(p.current, jsoniter.RawMessage(raw))
	}
	return true
}

func (p *slicePager) Records() []jsoniter.RawMessage {
	return p.current
}

func (p *slicePager) Err() error {
	if p.done {
		return p.err
	}
	return nil
}

var _ metaclient.RecordPager = (*slicePager)(nil)

func testConfig() *config.Config {
	return &config.Config{
		Meta: config.Meta{AdAccountID: "123", AdAccountName: "Main account"},
		Sync: config.Sync{
			WatermarkLookbackDays:  3,
			WatermarkFallbackDays:  30,
			DailyMetricsLookback:   30,
			LiveWindowMinutes:      120,
			SummaryTimezone:        "UTC",
			SummaryDashboardPath:   "/marketing/tracking",
			SummaryAllowedFromHour: 9,
		},
		Notification: config.Notification{CRMBaseURL: "https://crm.example.com/"},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// failingStore rejects the ad account write every run starts with
type failingStore struct {
	*memStore
}

func (failingStore) EnsureAdAccount(ctx context.Context, externalID, name string) (string, error) {
	return "", errDB
}

type failingUnitOfWork struct{}

func (failingUnitOfWork) Store() repository.Store {
	return failingStore{memStore: newMemStore()}
}

func (failingUnitOfWork) RunInTransaction(ctx context.Context, fn func(repository.Store) error) error {
	return errDB
}
