package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-sync/internal/config"
	"github.com/vfg2006/ads-sync/internal/domain"
	"github.com/vfg2006/ads-sync/pkg/log"
)

const (
	JobIncremental = "incremental"
	JobBulk        = "bulk"
	JobSummary     = "summary"
	// JobAll runs the incremental sync followed by the daily summary
	JobAll = "all"
)

var (
	ErrAlreadyRunning = errors.New("a sync run is already in progress")
	ErrUnknownJob     = errors.New("unknown sync job")
)

// Runner executes one sync run
type Runner func(ctx context.Context) (*domain.SyncReport, error)

// Runners are the operations behind each job
type Runners struct {
	Incremental Runner
	Bulk        Runner
	Summary     Runner
}

type job struct {
	name   string
	config config.Job
	run    Runner
}

// JobStatus is the last known state of a job
type JobStatus struct {
	Enabled     bool               `json:"enabled"`
	Cron        string             `json:"cron"`
	StartedAt   *time.Time         `json:"last_started_at,omitempty"`
	CompletedAt *time.Time         `json:"last_completed_at,omitempty"`
	LastError   string             `json:"last_error,omitempty"`
	LastReport  *domain.SyncReport `json:"last_report,omitempty"`
}

// Status is the scheduler snapshot exposed by the ops API
type Status struct {
	Running    bool                  `json:"running"`
	RunningJob string                `json:"running_job,omitempty"`
	Jobs       map[string]*JobStatus `json:"jobs"`
}

// SyncJobService schedules the sync jobs and keeps at most one run in flight
// per process, whether it was started by cron or by hand.
type SyncJobService struct {
	scheduler *gocron.Scheduler
	jobs      map[string]job
	order     []string

	mu         sync.Mutex
	running    bool
	runningJob string
	status     map[string]*JobStatus
	wg         sync.WaitGroup
}

func NewSyncJobService(cfg *config.Config, runners Runners) *SyncJobService {
	s := &SyncJobService{
		scheduler: gocron.NewScheduler(time.Local),
		jobs:      map[string]job{},
		status:    map[string]*JobStatus{},
	}

	s.add(JobIncremental, cfg.IncrementalSync, runners.Incremental)
	s.add(JobBulk, cfg.BulkSync, runners.Bulk)
	s.add(JobSummary, cfg.DailySummary, runners.Summary)

	for _, name := range s.order {
		j := s.jobs[name]
		logrus.WithFields(logrus.Fields{
			"job":     name,
			"cron":    j.config.CronSchedule,
			"enabled": j.config.Enabled,
		}).Info("sync job configuration loaded")
	}

	return s
}

func (s *SyncJobService) add(name string, cfg config.Job, run Runner) {
	if run == nil {
		return
	}
	s.jobs[name] = job{name: name, config: cfg, run: run}
	s.order = append(s.order, name)
	s.status[name] = &JobStatus{Enabled: cfg.Enabled, Cron: cfg.CronSchedule}
}

// Start schedules every enabled job and stops the scheduler when ctx is done
func (s *SyncJobService) Start(ctx context.Context) error {
	scheduled := 0
	for _, name := range s.order {
		j := s.jobs[name]
		if !j.config.Enabled {
			logrus.WithField("job", name).Info("sync job disabled by configuration")
			continue
		}

		_, err := s.scheduler.Cron(j.config.CronSchedule).Do(func() {
			if err := s.runGuarded(ctx, name); errors.Is(err, ErrAlreadyRunning) {
				logrus.WithField("job", name).Info("sync already in progress, skipping scheduled run")
			}
		})
		if err != nil {
			return fmt.Errorf("scheduling %s job: %w", name, err)
		}
		scheduled++
	}

	if scheduled == 0 {
		logrus.Warn("no sync job enabled")
		return nil
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("stopping sync scheduler")
		s.scheduler.Stop()
	}()

	return nil
}

// TriggerManualSync starts name in the background. It fails fast when another
// run holds the guard.
func (s *SyncJobService) TriggerManualSync(ctx context.Context, name string) error {
	if _, ok := s.jobs[name]; !ok && name != JobAll {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	if !s.acquire(name) {
		return ErrAlreadyRunning
	}

	logrus.WithField("job", name).Info("manual sync triggered")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release()

		if name == JobAll {
			for _, n := range []string{JobIncremental, JobSummary} {
				if _, ok := s.jobs[n]; ok {
					s.execute(ctx, n)
				}
			}
			return
		}
		s.execute(ctx, name)
	}()

	return nil
}

// Wait blocks until manual runs started so far have finished
func (s *SyncJobService) Wait() {
	s.wg.Wait()
}

func (s *SyncJobService) runGuarded(ctx context.Context, name string) error {
	if !s.acquire(name) {
		return ErrAlreadyRunning
	}
	defer s.release()

	s.execute(ctx, name)
	return nil
}

func (s *SyncJobService) acquire(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return false
	}
	s.running = true
	s.runningJob = name
	return true
}

func (s *SyncJobService) release() {
	s.mu.Lock()
	s.running = false
	s.runningJob = ""
	s.mu.Unlock()
}

func (s *SyncJobService) execute(ctx context.Context, name string) {
	j := s.jobs[name]
	ctx, runID := log.WithRunID(ctx)
	startedAt := time.Now()

	s.mu.Lock()
	s.status[name].StartedAt = &startedAt
	s.mu.Unlock()

	report, err := j.run(ctx)
	completedAt := time.Now()

	s.mu.Lock()
	st := s.status[name]
	st.CompletedAt = &completedAt
	st.LastReport = report
	st.LastError = ""
	if err != nil {
		st.LastError = err.Error()
	}
	s.mu.Unlock()

	entry := logrus.WithFields(logrus.Fields{
		"job":      name,
		"run_id":   runID,
		"duration": completedAt.Sub(startedAt).String(),
	})
	if err != nil {
		entry.WithError(err).Warn("sync job finished with errors")
		return
	}
	entry.Info("sync job finished")
}

// GetStatus returns a copy of the scheduler state
func (s *SyncJobService) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Status{
		Running:    s.running,
		RunningJob: s.runningJob,
		Jobs:       make(map[string]*JobStatus, len(s.status)),
	}
	for name, st := range s.status {
		cp := *st
		out.Jobs[name] = &cp
	}
	return out
}
