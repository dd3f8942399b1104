package syncing

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/vfg2006/ads-sync/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/ads-sync/infrastructure/notifier"
	"github.com/vfg2006/ads-sync/infrastructure/repository"
	"github.com/vfg2006/ads-sync/internal/config"
	"github.com/vfg2006/ads-sync/internal/domain"
	"github.com/vfg2006/ads-sync/internal/metrics"
	"github.com/vfg2006/ads-sync/pkg/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	stageCampaigns    = "campaigns"
	stageAdSets       = "ad_sets"
	stageAds          = "ads"
	stageDailyMetrics = "daily_metrics"
	stageSummary      = "daily_summary"
)

type Service struct {
	cfg       *config.Config
	uow       repository.UnitOfWork
	client    metaclient.Client
	notifier  notifier.Notifier
	watermark *Watermark
	probe     *LiveProbe
	now       func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(cfg *config.Config, uow repository.UnitOfWork, client metaclient.Client, n notifier.Notifier, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		uow:      uow,
		client:   client,
		notifier: n,
		probe:    NewLiveProbe(client, cfg.Sync.LiveWindow()),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.watermark = NewWatermark(uow.Store(), cfg.Sync.WatermarkLookback(), cfg.Sync.WatermarkFallback(), s.now)

	return s
}

// begin tags ctx with a run id (keeping one set by the caller) and opens a report
func (s *Service) begin(ctx context.Context, mode domain.SyncMode) (context.Context, *domain.SyncReport) {
	runID := log.GetRunID(ctx)
	if runID == "" {
		ctx, runID = log.WithRunID(ctx)
	}

	log.ForContext(ctx).WithField("mode", mode).Info("sync run started")

	return ctx, &domain.SyncReport{
		RunID:     runID,
		Mode:      mode,
		StartedAt: s.now(),
	}
}

// finish closes the report, records run metrics and logs the summary line
func (s *Service) finish(ctx context.Context, report *domain.SyncReport, err error) error {
	report.FinishedAt = s.now()
	duration := report.FinishedAt.Sub(report.StartedAt)
	mode := string(report.Mode)

	if err == nil && report.Failed() {
		failed := make([]string, 0, len(report.Stages))
		for _, stage := range report.Stages {
			if stage.Error != "" {
				failed = append(failed, stage.Stage)
			}
		}
		err = fmt.Errorf("%w: %s", ErrStageFailed, strings.Join(failed, ", "))
	}

	metrics.SyncRunDuration.WithLabelValues(mode).Observe(duration.Seconds())

	fields := log.Fields{
		"mode":        mode,
		"duration_ms": duration.Milliseconds(),
		"alerts":      report.Alerts,
		"live_ads":    report.LiveAds,
	}
	for _, stage := range report.Stages {
		fields[stage.Stage] = fmt.Sprintf("fetched=%d upserted=%d skipped=%d failed=%d",
			stage.Fetched, stage.Upserted, stage.Skipped, stage.Failed)
	}

	logger := log.ForContext(ctx).WithFields(fields)
	if err != nil {
		metrics.SyncRuns.WithLabelValues(mode, "failure").Inc()
		logger.WithError(err).Error("sync run finished with errors")
		return err
	}

	metrics.SyncRuns.WithLabelValues(mode, "success").Inc()
	metrics.SyncLastSuccess.WithLabelValues(mode).SetToCurrentTime()
	logger.Info("sync run finished")

	return nil
}

// failStage marks the stage as stopped; later stages still run
func failStage(ctx context.Context, stage *domain.StageReport, err error) {
	stage.Error = err.Error()
	log.ForContext(ctx).WithField("stage", stage.Stage).WithError(err).Error("stage stopped")
}

// pageCounts are folded into the stage report only once the page committed
type pageCounts struct {
	upserted int
	skipped  int
}

func (c pageCounts) commit(stage *domain.StageReport) {
	stage.Upserted += c.upserted
	stage.Skipped += c.skipped
	metrics.SyncRecords.WithLabelValues(stage.Stage, "upserted").Add(float64(c.upserted))
	metrics.SyncRecords.WithLabelValues(stage.Stage, "skipped").Add(float64(c.skipped))
}

func recordFailed(ctx context.Context, stage *domain.StageReport, externalID string, err error) {
	stage.Failed++
	metrics.SyncRecords.WithLabelValues(stage.Stage, "failed").Inc()
	log.ForContext(ctx).WithError(&RecordError{Stage: stage.Stage, ExternalID: externalID, Err: err}).Warn("record skipped")
}

func recordSkipped(ctx context.Context, stage, externalID string, err error) {
	log.ForContext(ctx).WithError(&RecordError{Stage: stage, ExternalID: externalID, Err: err}).Warn("record skipped")
}

// decodeRecord unmarshals a raw Graph record into T
func decodeRecord[T any](raw jsoniter.RawMessage) (T, error) {
	var record T
	if err := json.Unmarshal(raw, &record); err != nil {
		return record, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return record, nil
}

// ensureAccount returns the internal id of the configured ad account
func (s *Service) ensureAccount(ctx context.Context) (string, error) {
	id, err := s.uow.Store().EnsureAdAccount(ctx, s.cfg.Meta.AdAccountID, s.cfg.Meta.AdAccountName)
	if err != nil {
		return "", fmt.Errorf("ensuring ad account %s: %w", s.cfg.Meta.AdAccountID, err)
	}
	return id, nil
}
