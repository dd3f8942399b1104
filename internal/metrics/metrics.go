// Package metrics holds the Prometheus collectors of the sync worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRecords counts records handled per stage.
	// Labels:
	//   - stage: campaigns, ad_sets, ads, daily_metrics
	//   - outcome: upserted, skipped, failed
	SyncRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsync_records_total",
			Help: "Records processed by the sync, by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	// SyncRunDuration measures whole runs per mode
	SyncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adsync_run_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"mode"},
	)

	// SyncRuns counts runs per mode and result (ok, partial, failed)
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsync_runs_total",
			Help: "Sync runs by mode and result",
		},
		[]string{"mode", "result"},
	)

	SyncLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "adsync_last_success_timestamp_seconds",
			Help: "Unix time of the last run that finished without stage errors",
		},
		[]string{"mode"},
	)

	LiveAds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adsync_live_ads",
			Help: "Ads classified as running now by the last probe pass",
		},
	)

	DisapprovalAlerts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adsync_disapproval_alerts_total",
			Help: "Transitions into DISAPPROVED detected",
		},
	)

	GraphRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsync_graph_requests_total",
			Help: "Graph API requests by HTTP status",
		},
		[]string{"status"},
	)

	GraphRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adsync_graph_request_duration_seconds",
			Help:    "Graph API request latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	GraphRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adsync_graph_rate_limit_retries_total",
			Help: "Backoff waits caused by Graph rate limiting",
		},
	)

	// Notifications counts deliveries by channel and outcome (sent, failed, skipped)
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsync_notifications_total",
			Help: "Notification deliveries by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)
)
