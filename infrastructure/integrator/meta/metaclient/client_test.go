package metaclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metadomain "github.com/vfg2006/ads-sync/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/ads-sync/internal/config"
)

const rateLimitBody = `{"error":{"message":"(#17) User request limit reached","type":"OAuthException","code":17,"fbtrace_id":"A1"}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*MetaClient, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Meta: config.Meta{
			URL:             server.URL,
			AccessToken:     "token",
			AdAccountID:     "123",
			HTTPTimeoutSecs: 5,
			PageLimit:       2,
		},
	}

	client := NewClient(cfg,
		WithHTTPClient(server.Client()),
		WithRetryPolicy(RetryPolicy{BaseDelay: time.Millisecond, MaxRetries: 3}),
		WithClock(func() time.Time { return time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC) }),
	)

	return client, server
}

func drain(ctx context.Context, pager RecordPager) (int, error) {
	total := 0
	for pager.Next(ctx) {
		total += len(pager.Records())
	}
	return total, pager.Err()
}

func TestClient_EdgePaging(t *testing.T) {
	after := time.Date(2024, 3, 7, 12, 0, 1, 0, time.UTC)

	var serverURL string
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/act_123/campaigns":
			assert.Equal(t, "2", r.URL.Query().Get("limit"))
			assert.Equal(t, "token", r.URL.Query().Get("access_token"))
			assert.JSONEq(t,
				fmt.Sprintf(`[{"field":"updated_time","operator":"GREATER_THAN","value":%d}]`, after.Unix()),
				r.URL.Query().Get("filtering"))
			fmt.Fprintf(w, `{"data":[{"id":"c1"},{"id":"c2"}],"paging":{"cursors":{"after":"x"},"next":"%s/page2"}}`, serverURL)
		case "/page2":
			fmt.Fprint(w, `{"data":[{"id":"c3"}],"paging":{"cursors":{"before":"x"}}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	serverURL = server.URL

	pager := client.Campaigns(EdgeQuery{UpdatedAfter: &after})
	total, err := drain(context.Background(), pager)

	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, pager.(*Pager).Pages())
}

func TestClient_EdgeWithoutFilter(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/act_123/adsets", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("filtering"))
		fmt.Fprint(w, `{"data":[]}`)
	})

	total, err := drain(context.Background(), client.AdSets(EdgeQuery{}))
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestClient_Retry(t *testing.T) {
	tests := []struct {
		name          string
		retry         bool
		failures      int32
		failureBody   string
		expectedCalls int32
		validate      func(t *testing.T, total int, err error)
	}{
		{
			name:          "rate limit is retried until the page arrives",
			retry:         true,
			failures:      2,
			failureBody:   rateLimitBody,
			expectedCalls: 3,
			validate: func(t *testing.T, total int, err error) {
				require.NoError(t, err)
				assert.Equal(t, 1, total)
			},
		},
		{
			name:          "retries are exhausted",
			retry:         true,
			failures:      10,
			failureBody:   rateLimitBody,
			expectedCalls: 4,
			validate: func(t *testing.T, total int, err error) {
				require.Error(t, err)
				assert.True(t, IsRateLimited(err))
			},
		},
		{
			name:          "other errors are not retried",
			retry:         true,
			failures:      10,
			failureBody:   `{"error":{"message":"Invalid parameter","type":"OAuthException","code":100}}`,
			expectedCalls: 1,
			validate: func(t *testing.T, total int, err error) {
				var graphErr *metadomain.GraphError
				require.True(t, errors.As(err, &graphErr))
				assert.Equal(t, 100, graphErr.Details.Code)
				assert.False(t, IsRateLimited(err))
			},
		},
		{
			name:          "no retry without the flag",
			retry:         false,
			failures:      1,
			failureBody:   rateLimitBody,
			expectedCalls: 1,
			validate: func(t *testing.T, total int, err error) {
				assert.True(t, IsRateLimited(err))
				assert.Zero(t, total)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if atomic.AddInt32(&calls, 1) <= tt.failures {
					w.WriteHeader(http.StatusBadRequest)
					fmt.Fprint(w, tt.failureBody)
					return
				}
				fmt.Fprint(w, `{"data":[{"id":"d1"}]}`)
			})

			total, err := drain(context.Background(), client.Ads(EdgeQuery{Retry: tt.retry}))
			tt.validate(t, total, err)
			assert.Equal(t, tt.expectedCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestClient_TokenExpired(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Error validating access token","type":"OAuthException","code":190,"error_subcode":463}}`)
	})

	_, err := drain(context.Background(), client.Campaigns(EdgeQuery{}))
	assert.ErrorIs(t, err, metadomain.ErrTokenExpired)
}

func TestClient_DailyAdInsights(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/act_123/insights", r.URL.Path)
		assert.Equal(t, "ad", q.Get("level"))
		assert.Equal(t, "1", q.Get("time_increment"))
		assert.JSONEq(t, `{"since":"2024-02-09","until":"2024-03-10"}`, q.Get("time_range"))
		fmt.Fprint(w, `{"data":[{"ad_id":"d1","date_start":"2024-03-01","spend":"10"}]}`)
	})

	since := time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	total, err := drain(context.Background(), client.DailyAdInsights(since, until, false))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestClient_RecentImpressions(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/d1/insights", r.URL.Path)
		assert.JSONEq(t, `{"since":"2024-03-10T10:00:00","until":"2024-03-10T12:59:59"}`, r.URL.Query().Get("time_range"))
		fmt.Fprint(w, `{"data":[{"impressions":"10"},{"impressions":"5"},{"impressions":"n/a"}]}`)
	})

	impressions, err := client.RecentImpressions(context.Background(), "d1", 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(15), impressions)
}

func TestClient_RecentImpressions_TimeRange(t *testing.T) {
	tests := []struct {
		name  string
		now   time.Time
		since string
		until string
	}{
		{
			name:  "top of the hour",
			now:   time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
			since: "2024-03-10T10:00:00",
			until: "2024-03-10T12:59:59",
		},
		{
			name:  "late in the hour",
			now:   time.Date(2024, 3, 10, 12, 45, 17, 0, time.UTC),
			since: "2024-03-10T10:00:00",
			until: "2024-03-10T12:59:59",
		},
		{
			name:  "window crosses midnight",
			now:   time.Date(2024, 3, 10, 0, 5, 55, 0, time.UTC),
			since: "2024-03-09T22:00:00",
			until: "2024-03-10T00:59:59",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var timeRange string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				timeRange = r.URL.Query().Get("time_range")
				fmt.Fprint(w, `{"data":[{"impressions":"3"}]}`)
			}))
			t.Cleanup(server.Close)

			cfg := &config.Config{Meta: config.Meta{URL: server.URL, AccessToken: "token", HTTPTimeoutSecs: 5}}
			client := NewClient(cfg,
				WithHTTPClient(server.Client()),
				WithClock(func() time.Time { return tt.now }),
			)

			impressions, err := client.RecentImpressions(context.Background(), "d1", 2*time.Hour)
			require.NoError(t, err)
			assert.Equal(t, int64(3), impressions)
			assert.JSONEq(t, fmt.Sprintf(`{"since":%q,"until":%q}`, tt.since, tt.until), timeRange)
		})
	}
}

func TestClient_RecentImpressions_Error(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "upstream failure")
	})

	_, err := client.RecentImpressions(context.Background(), "d1", time.Hour)

	var graphErr *metadomain.GraphError
	require.True(t, errors.As(err, &graphErr))
	assert.Equal(t, http.StatusInternalServerError, graphErr.StatusCode)
	assert.Contains(t, err.Error(), "upstream failure")
}
