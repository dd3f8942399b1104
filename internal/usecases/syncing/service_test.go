package syncing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-sync/infrastructure/integrator/meta/metaclient"
	clientmocks "github.com/vfg2006/ads-sync/infrastructure/integrator/meta/metaclient/mocks"
	notifiermocks "github.com/vfg2006/ads-sync/infrastructure/notifier/mocks"
	"github.com/vfg2006/ads-sync/internal/domain"
	"github.com/vfg2006/ads-sync/pkg/log"
	"go.uber.org/mock/gomock"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type harness struct {
	store    *memStore
	client   *clientmocks.MockClient
	notifier *notifiermocks.MockNotifier
	service  *Service
}

func newHarness(t *testing.T) *harness {
	log.SetupTestLogger()
	ctrl := gomock.NewController(t)

	h := &harness{
		store:    newMemStore(),
		client:   clientmocks.NewMockClient(ctrl),
		notifier: notifiermocks.NewMockNotifier(ctrl),
	}
	h.service = NewService(testConfig(), &memUnitOfWork{store: h.store}, h.client, h.notifier,
		WithClock(func() time.Time { return testNow }))

	return h
}

// edges makes every edge return a fresh pager over the given pages
func (h *harness) edges(campaigns, ads, daily [][]string) {
	h.client.EXPECT().Campaigns(gomock.Any()).DoAndReturn(func(metaclient.EdgeQuery) metaclient.RecordPager {
		return newPager(nil, campaigns...)
	}).AnyTimes()
	h.client.EXPECT().Ads(gomock.Any()).DoAndReturn(func(metaclient.EdgeQuery) metaclient.RecordPager {
		return newPager(nil, ads...)
	}).AnyTimes()
	h.client.EXPECT().DailyAdInsights(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(time.Time, time.Time, bool) metaclient.RecordPager {
		return newPager(nil, daily...)
	}).AnyTimes()
}

func campaignJSON(id, name string) string {
	return fmt.Sprintf(`{"id":%q,"name":%q,"status":"ACTIVE","objective":"MESSAGES","start_time":"2024-01-05T10:00:00+0700",`+
		`"insights":{"data":[{"spend":"120.50","impressions":"1000","clicks":"40","actions":[{"action_type":"lead","value":"4"}]}]}}`, id, name)
}

func adJSON(id, name, status, effective, adSetID, campaignID, campaignName string) string {
	return fmt.Sprintf(`{"id":%q,"name":%q,"status":%q,"effective_status":%q,"adset_id":%q,`+
		`"adset":{"id":%q,"name":"Set %s","status":"ACTIVE","campaign_id":%q,"daily_budget":"50000","targeting":{"geo_locations":{"countries":["TH"]}}},`+
		`"campaign":{"id":%q,"name":%q}}`,
		id, name, status, effective, adSetID, adSetID, adSetID, campaignID, campaignID, campaignName)
}

func insightJSON(adID, date, spend, extra string) string {
	if extra != "" {
		extra = "," + extra
	}
	return fmt.Sprintf(`{"ad_id":%q,"date_start":%q,"date_stop":%q,"spend":%q,"impressions":"500","clicks":"12"%s}`, adID, date, date, spend, extra)
}

func TestService_RunIncremental(t *testing.T) {
	h := newHarness(t)

	var campaignQueries []metaclient.EdgeQuery
	h.client.EXPECT().Campaigns(gomock.Any()).DoAndReturn(func(q metaclient.EdgeQuery) metaclient.RecordPager {
		campaignQueries = append(campaignQueries, q)
		return newPager(nil, []string{campaignJSON("c1", "Sushi Promo")})
	}).Times(2)
	h.client.EXPECT().Ads(gomock.Any()).DoAndReturn(func(metaclient.EdgeQuery) metaclient.RecordPager {
		return newPager(nil,
			[]string{
				adJSON("d1", "Salmon set", "ACTIVE", "ACTIVE", "s1", "c1", "Sushi Promo"),
				adJSON("d2", "Tonkotsu", "ACTIVE", "ACTIVE", "s2", "c9", "Ramen Night"),
			},
			[]string{
				adJSON("d3", "Old creative", "PAUSED", "PAUSED", "s1", "c1", "Sushi Promo"),
			},
		)
	}).Times(2)
	h.client.EXPECT().DailyAdInsights(gomock.Any(), gomock.Any(), false).DoAndReturn(func(since, until time.Time, retry bool) metaclient.RecordPager {
		assert.Equal(t, time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC), since)
		assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), until)
		return newPager(nil)
	}).Times(2)

	h.client.EXPECT().RecentImpressions(gomock.Any(), "d1", 2*time.Hour).Return(int64(42), nil).Times(2)
	h.client.EXPECT().RecentImpressions(gomock.Any(), "d2", 2*time.Hour).Return(int64(0), errors.New("timeout")).Times(2)

	for run := 0; run < 2; run++ {
		report, err := h.service.RunIncremental(context.Background())
		require.NoError(t, err)

		assert.Equal(t, domain.SyncModeIncremental, report.Mode)
		assert.NotEmpty(t, report.RunID)
		assert.Equal(t, 1, report.Stage(stageCampaigns).Upserted)
		assert.Equal(t, 3, report.Stage(stageAds).Fetched)
		assert.Equal(t, 3, report.Stage(stageAds).Upserted)
		assert.Equal(t, 1, report.LiveAds)
		assert.False(t, report.Failed())
	}

	// the empty table falls back to now-30d, plus one second
	require.Len(t, campaignQueries, 2)
	require.NotNil(t, campaignQueries[0].UpdatedAfter)
	assert.Equal(t, testNow.Add(-30*24*time.Hour+time.Second), *campaignQueries[0].UpdatedAfter)
	assert.False(t, campaignQueries[0].Retry)

	// replaying the same records leaves one row per entity
	assert.Equal(t, []string{"c1", "c9"}, sortedKeys(h.store.campaigns))
	assert.Equal(t, []string{"s1", "s2"}, sortedKeys(h.store.adSets))
	assert.Equal(t, []string{"d1", "d2", "d3"}, sortedKeys(h.store.ads))

	placeholder := h.store.campaigns["c9"]
	assert.Equal(t, "Ramen Night", placeholder.Name)
	assert.Equal(t, domain.StatusActive, placeholder.Status)
	assert.Equal(t, placeholder.ID, h.store.adSets["s2"].CampaignID)

	c1 := h.store.campaigns["c1"]
	require.NotNil(t, c1.Metrics)
	assert.Equal(t, 120.5, c1.Metrics.Spend)
	assert.Equal(t, int64(4), c1.Metrics.Leads)
	require.NotNil(t, c1.AdAccountID)
	assert.Equal(t, h.store.accounts["123"], *c1.AdAccountID)

	assert.Equal(t, "500", h.store.adSets["s1"].DailyBudget.String())
	assert.JSONEq(t, `{"geo_locations":{"countries":["TH"]}}`, string(h.store.adSets["s1"].Targeting))

	running := h.store.liveByExternal("d1")
	assert.True(t, running.IsRunningNow)
	require.NotNil(t, running.LastImpressionTime)
	assert.Equal(t, testNow, *running.LastImpressionTime)

	// a failed probe means not running, and later ads are still written
	failed := h.store.liveByExternal("d2")
	assert.False(t, failed.IsRunningNow)
	assert.Nil(t, failed.LastImpressionTime)

	paused := h.store.liveByExternal("d3")
	assert.False(t, paused.IsRunningNow)
	assert.Nil(t, paused.LastImpressionTime)
}

func TestService_RunIncremental_WatermarkLookback(t *testing.T) {
	h := newHarness(t)

	recent := testNow.Add(-time.Hour)
	old := testNow.Add(-10 * 24 * time.Hour)
	h.store.maxUpdated["campaigns"] = &recent
	h.store.maxUpdated["ads"] = &old

	h.client.EXPECT().Campaigns(gomock.Any()).DoAndReturn(func(q metaclient.EdgeQuery) metaclient.RecordPager {
		require.NotNil(t, q.UpdatedAfter)
		assert.Equal(t, testNow.Add(-3*24*time.Hour+time.Second), *q.UpdatedAfter)
		return newPager(nil)
	})
	h.client.EXPECT().Ads(gomock.Any()).DoAndReturn(func(q metaclient.EdgeQuery) metaclient.RecordPager {
		require.NotNil(t, q.UpdatedAfter)
		assert.Equal(t, old.Add(time.Second), *q.UpdatedAfter)
		return newPager(nil)
	})
	h.client.EXPECT().DailyAdInsights(gomock.Any(), gomock.Any(), false).Return(newPager(nil))

	_, err := h.service.RunIncremental(context.Background())
	require.NoError(t, err)
}

func TestService_DisapprovalAlerts(t *testing.T) {
	h := newHarness(t)

	statuses := []string{"ACTIVE", "DISAPPROVED", "DISAPPROVED", "ACTIVE", "DISAPPROVED"}
	run := 0

	h.client.EXPECT().Campaigns(gomock.Any()).Return(newPager(nil)).AnyTimes()
	h.client.EXPECT().DailyAdInsights(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(time.Time, time.Time, bool) metaclient.RecordPager {
		return newPager(nil)
	}).AnyTimes()
	h.client.EXPECT().Ads(gomock.Any()).DoAndReturn(func(metaclient.EdgeQuery) metaclient.RecordPager {
		return newPager(nil, []string{adJSON("d1", "Salmon set", "ACTIVE", statuses[run], "s1", "c1", "Sushi Promo")})
	}).Times(len(statuses))
	h.client.EXPECT().RecentImpressions(gomock.Any(), "d1", gomock.Any()).Return(int64(0), nil).AnyTimes()

	var sent []domain.Notification
	h.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, n domain.Notification) error {
		sent = append(sent, n)
		return errors.New("line is down")
	}).Times(2)

	for run = 0; run < len(statuses); run++ {
		report, err := h.service.RunIncremental(context.Background())
		require.NoError(t, err, "run %d", run)
		assert.Equal(t, 0, report.Alerts)

		// delivery failures never undo the write
		assert.Equal(t, statuses[run], h.store.ads["d1"].DeliveryStatus)
	}

	require.Len(t, sent, 2)
	for _, n := range sent {
		assert.Equal(t, domain.PriorityHigh, n.Priority)
		assert.Equal(t, "d1", n.Metadata["ad_id"])
		assert.Equal(t, "Sushi Promo", n.Metadata["campaign"])
		assert.Contains(t, n.Message, "Salmon set")
	}
}

func TestService_RunIncremental_PageFailure(t *testing.T) {
	h := newHarness(t)
	h.store.failAdIDs["d2"] = true

	h.client.EXPECT().Campaigns(gomock.Any()).Return(newPager(nil))
	h.client.EXPECT().Ads(gomock.Any()).Return(newPager(nil,
		[]string{
			adJSON("d1", "Salmon set", "ACTIVE", "DISAPPROVED", "s1", "c1", "Sushi Promo"),
			adJSON("d2", "Tuna set", "ACTIVE", "PAUSED", "s1", "c1", "Sushi Promo"),
		},
		[]string{
			adJSON("d3", "Eel set", "ACTIVE", "PAUSED", "s1", "c1", "Sushi Promo"),
		},
	))
	// later stages still run
	h.client.EXPECT().DailyAdInsights(gomock.Any(), gomock.Any(), false).Return(newPager(nil)).Times(1)

	report, err := h.service.RunIncremental(context.Background())
	require.ErrorIs(t, err, ErrStageFailed)

	ads := report.Stage(stageAds)
	assert.NotEmpty(t, ads.Error)
	assert.Equal(t, 2, ads.Fetched)
	assert.Equal(t, 2, ads.Failed)
	assert.Equal(t, 0, ads.Upserted)
	assert.Empty(t, report.Stage(stageDailyMetrics).Error)

	// the whole page rolled back, placeholder parents included
	assert.Empty(t, h.store.ads)
	assert.Empty(t, h.store.adSets)
	assert.Empty(t, h.store.campaigns)
	assert.Empty(t, h.store.live)
}

func TestService_RunIncremental_PagerError(t *testing.T) {
	h := newHarness(t)

	h.client.EXPECT().Campaigns(gomock.Any()).Return(newPager(errors.New("graph: 500"),
		[]string{campaignJSON("c1", "Sushi Promo"), `{"name":"no id"}`},
	))
	h.client.EXPECT().Ads(gomock.Any()).Return(newPager(nil))
	h.client.EXPECT().DailyAdInsights(gomock.Any(), gomock.Any(), false).Return(newPager(nil))

	report, err := h.service.RunIncremental(context.Background())
	require.ErrorIs(t, err, ErrStageFailed)

	campaigns := report.Stage(stageCampaigns)
	assert.Equal(t, 2, campaigns.Fetched)
	assert.Equal(t, 1, campaigns.Upserted)
	assert.Equal(t, 1, campaigns.Failed)
	assert.Contains(t, campaigns.Error, "graph: 500")

	// pages committed before the error are kept
	assert.Contains(t, h.store.campaigns, "c1")
	assert.Empty(t, report.Stage(stageAds).Error)
}

func TestService_RunBulk(t *testing.T) {
	h := newHarness(t)

	retrying := func(q metaclient.EdgeQuery) {
		assert.True(t, q.Retry)
		assert.Nil(t, q.UpdatedAfter)
	}

	h.client.EXPECT().Campaigns(gomock.Any()).DoAndReturn(func(q metaclient.EdgeQuery) metaclient.RecordPager {
		retrying(q)
		return newPager(nil, []string{campaignJSON("c1", "Sushi Promo")})
	})
	h.client.EXPECT().AdSets(gomock.Any()).DoAndReturn(func(q metaclient.EdgeQuery) metaclient.RecordPager {
		retrying(q)
		return newPager(nil, []string{
			`{"id":"s1","name":"Set s1","status":"ACTIVE","campaign_id":"c1","daily_budget":"12345"}`,
			`{"id":"s2","name":"Set s2","status":"ACTIVE","campaign_id":"c404"}`,
		})
	})
	h.client.EXPECT().Ads(gomock.Any()).DoAndReturn(func(q metaclient.EdgeQuery) metaclient.RecordPager {
		retrying(q)
		return newPager(nil, []string{
			adJSON("d1", "Salmon set", "ACTIVE", "ACTIVE", "s1", "c1", "Sushi Promo"),
			adJSON("d2", "Orphan", "ACTIVE", "ACTIVE", "s2", "c404", "Gone"),
			adJSON("d3", "Lost", "PAUSED", "PAUSED", "s404", "c1", "Sushi Promo"),
		})
	})
	h.client.EXPECT().DailyAdInsights(gomock.Any(), gomock.Any(), true).DoAndReturn(func(since, until time.Time, retry bool) metaclient.RecordPager {
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), since)
		return newPager(nil)
	})
	h.client.EXPECT().RecentImpressions(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(3), nil).AnyTimes()

	report, err := h.service.RunBulk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SyncModeBulk, report.Mode)

	adSets := report.Stage(stageAdSets)
	assert.Equal(t, 1, adSets.Upserted)
	assert.Equal(t, 1, adSets.Skipped)

	ads := report.Stage(stageAds)
	assert.Equal(t, 1, ads.Upserted)
	assert.Equal(t, 2, ads.Skipped)

	// no placeholder in the tiered pass and never a dangling ad set
	assert.Equal(t, []string{"c1"}, sortedKeys(h.store.campaigns))
	assert.Equal(t, []string{"s1"}, sortedKeys(h.store.adSets))
	assert.Equal(t, []string{"d1"}, sortedKeys(h.store.ads))
	assert.Equal(t, "123.45", h.store.adSets["s1"].DailyBudget.String())
	assert.Equal(t, 1, report.LiveAds)
}

func TestService_DailyMetrics(t *testing.T) {
	h := newHarness(t)

	ctx := context.Background()
	campaignID, _ := h.store.EnsureCampaignPlaceholder(ctx, "c1", "Sushi Promo")
	adSetID, _ := h.store.UpsertAdSet(ctx, &domain.AdSet{ExternalID: "s1", CampaignID: campaignID})
	_, err := h.store.UpsertAd(ctx, &domain.Ad{ExternalID: "d1", AdSetID: adSetID, Status: "PAUSED", DeliveryStatus: "PAUSED"})
	require.NoError(t, err)

	pages := [][][]string{
		{{
			insightJSON("d1", "2024-03-01", "100", `"actions":[{"action_type":"onsite_conversion.total_messaging_connection","value":"3"},{"action_type":"lead","value":"7"}]`),
			insightJSON("d1", "2024-03-02", "50", `"action_values":[{"action_type":"purchase","value":"100"}]`),
			insightJSON("d9", "2024-03-02", "10", ""),
		}},
		{{
			insightJSON("d1", "2024-03-01", "150", ""),
		}},
	}
	run := 0

	h.client.EXPECT().Campaigns(gomock.Any()).DoAndReturn(func(metaclient.EdgeQuery) metaclient.RecordPager { return newPager(nil) }).AnyTimes()
	h.client.EXPECT().Ads(gomock.Any()).DoAndReturn(func(metaclient.EdgeQuery) metaclient.RecordPager { return newPager(nil) }).AnyTimes()
	h.client.EXPECT().DailyAdInsights(gomock.Any(), gomock.Any(), false).DoAndReturn(func(time.Time, time.Time, bool) metaclient.RecordPager {
		return newPager(nil, pages[run]...)
	}).Times(2)

	report, err := h.service.RunIncremental(ctx)
	require.NoError(t, err)

	daily := report.Stage(stageDailyMetrics)
	assert.Equal(t, 3, daily.Fetched)
	assert.Equal(t, 2, daily.Upserted)
	assert.Equal(t, 1, daily.Skipped)

	first := h.store.daily[dailyKey{adID: "d1", date: "2024-03-01"}]
	assert.Equal(t, int64(3), first.Leads)
	assert.Nil(t, first.Revenue)
	assert.Nil(t, first.ROAS)

	second := h.store.daily[dailyKey{adID: "d1", date: "2024-03-02"}]
	require.NotNil(t, second.Revenue)
	assert.Equal(t, 100.0, *second.Revenue)
	require.NotNil(t, second.ROAS)
	assert.Equal(t, 2.0, *second.ROAS)

	run = 1
	_, err = h.service.RunIncremental(ctx)
	require.NoError(t, err)

	assert.Len(t, h.store.daily, 2)
	assert.Equal(t, 150.0, h.store.daily[dailyKey{adID: "d1", date: "2024-03-01"}].Spend)

	metrics := h.store.ads["d1"].Metrics
	require.NotNil(t, metrics)
	assert.Equal(t, 200.0, metrics.Spend)
	assert.Equal(t, int64(1000), metrics.Impressions)
	assert.Equal(t, 100.0, metrics.Revenue)
	assert.Equal(t, 0.5, metrics.ROAS)
}

func TestService_EnsureAccountFailure(t *testing.T) {
	log.SetupTestLogger()
	ctrl := gomock.NewController(t)

	service := NewService(testConfig(), failingUnitOfWork{}, clientmocks.NewMockClient(ctrl), notifiermocks.NewMockNotifier(ctrl),
		WithClock(func() time.Time { return testNow }))

	report, err := service.RunIncremental(context.Background())
	require.ErrorIs(t, err, errDB)
	assert.Empty(t, report.Stages)
}
