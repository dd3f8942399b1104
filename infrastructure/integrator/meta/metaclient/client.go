package metaclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-sync/internal/config"
	"golang.org/x/time/rate"
)

//go:generate mockgen -source=client.go -destination=mocks/client_mock.go -package=mocks

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	campaignFields = "id,name,status,objective,start_time,stop_time,updated_time," +
		"insights.date_preset(maximum){spend,impressions,clicks,actions,action_values,purchase_roas}"
	adSetFields   = "id,name,status,campaign_id,daily_budget,targeting,updated_time"
	adFields      = "id,name,status,effective_status,adset_id,adset{id,name,status,campaign_id,daily_budget,targeting},campaign{id,name},updated_time"
	insightFields = "ad_id,ad_name,campaign_id,campaign_name,date_start,date_stop,spend,impressions,clicks,actions,action_values,purchase_roas"
)

// EdgeQuery narrows a paged edge fetch
type EdgeQuery struct {
	// UpdatedAfter adds an updated_time GREATER_THAN filter (unix seconds)
	UpdatedAfter *time.Time
	// Retry wraps every page request in the rate-limit retrier
	Retry bool
}

// RecordPager yields the raw records of a paged edge, page by page
type RecordPager interface {
	Next(ctx context.Context) bool
	Records() []jsoniter.RawMessage
	Err() error
}

type Client interface {
	Campaigns(query EdgeQuery) RecordPager
	AdSets(query EdgeQuery) RecordPager
	Ads(query EdgeQuery) RecordPager
	DailyAdInsights(since, until time.Time, retry bool) RecordPager
	RecentImpressions(ctx context.Context, adID string, window time.Duration) (int64, error)
}

type MetaClient struct {
	cfg        config.Meta
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryPolicy
	now        func() time.Time
}

type Option func(*MetaClient)

func WithHTTPClient(c *http.Client) Option {
	return func(m *MetaClient) { m.httpClient = c }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(m *MetaClient) { m.retry = p }
}

func WithClock(now func() time.Time) Option {
	return func(m *MetaClient) { m.now = now }
}

func NewClient(cfg *config.Config, opts ...Option) *MetaClient {
	limit := rate.Inf
	if cfg.Meta.RequestIntervalMS > 0 {
		limit = rate.Every(time.Duration(cfg.Meta.RequestIntervalMS) * time.Millisecond)
	}

	client := &MetaClient{
		cfg:        cfg.Meta,
		httpClient: &http.Client{Timeout: time.Duration(cfg.Meta.HTTPTimeoutSecs) * time.Second},
		limiter:    rate.NewLimiter(limit, 1),
		retry: RetryPolicy{
			BaseDelay:  cfg.Sync.RetryBaseDelay(),
			MaxRetries: cfg.Sync.RetryMaxRetries,
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func (c *MetaClient) Campaigns(query EdgeQuery) RecordPager {
	return c.edge("campaigns", campaignFields, query)
}

func (c *MetaClient) AdSets(query EdgeQuery) RecordPager {
	return c.edge("adsets", adSetFields, query)
}

func (c *MetaClient) Ads(query EdgeQuery) RecordPager {
	return c.edge("ads", adFields, query)
}

// DailyAdInsights pages level=ad insights with one row per ad per day
func (c *MetaClient) DailyAdInsights(since, until time.Time, retry bool) RecordPager {
	timeRange, _ := json.MarshalToString(map[string]string{
		"since": since.Format(time.DateOnly),
		"until": until.Format(time.DateOnly),
	})

	params := url.Values{}
	params.Add("level", "ad")
	params.Add("time_increment", "1")
	params.Add("time_range", timeRange)
	params.Add("fields", insightFields)
	params.Add("limit", "500")
	params.Add("access_token", c.cfg.AccessToken)

	return newPager(c, fmt.Sprintf("%s/act_%s/insights?%s", c.cfg.URL, c.cfg.AdAccountID, params.Encode()), retry)
}

func (c *MetaClient) edge(edge, fields string, query EdgeQuery) *Pager {
	params := url.Values{}
	params.Add("fields", fields)
	params.Add("limit", strconv.Itoa(c.cfg.PageLimit))
	if query.UpdatedAfter != nil {
		params.Add("filtering", updatedAfterFilter(*query.UpdatedAfter))
	}
	params.Add("access_token", c.cfg.AccessToken)

	return newPager(c, fmt.Sprintf("%s/act_%s/%s?%s", c.cfg.URL, c.cfg.AdAccountID, edge, params.Encode()), query.Retry)
}

func updatedAfterFilter(after time.Time) string {
	filter, _ := json.MarshalToString([]map[string]any{{
		"field":    "updated_time",
		"operator": "GREATER_THAN",
		"value":    after.Unix(),
	}})
	return filter
}

// RecentImpressions returns the impressions an ad served over the last window
func (c *MetaClient) RecentImpressions(ctx context.Context, adID string, window time.Duration) (int64, error) {
	now := c.now()
	timeRange, _ := json.MarshalToString(map[string]string{
		"since": now.Add(-window).Format("2006-01-02T15") + ":00:00",
		"until": now.Format("2006-01-02T15") + ":59:59",
	})

	params := url.Values{}
	params.Add("time_increment", "1")
	params.Add("time_range", timeRange)
	params.Add("fields", "impressions")
	params.Add("access_token", c.cfg.AccessToken)

	body, err := c.get(ctx, fmt.Sprintf("%s/%s/insights?%s", c.cfg.URL, adID, params.Encode()))
	if err != nil {
		return 0, err
	}

	var resp struct {
		Data []struct {
			Impressions string `json:"impressions"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decoding impressions for ad %s: %w", adID, err)
	}

	var total int64
	for _, row := range resp.Data {
		v, err := strconv.ParseInt(row.Impressions, 10, 64)
		if err != nil {
			logrus.WithField("ad_id", adID).WithError(err).Debug("unparsable impressions value")
			continue
		}
		total += v
	}

	return total, nil
}
