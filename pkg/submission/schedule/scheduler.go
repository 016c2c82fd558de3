package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/harvest/pkg/telemetry/logging"
)

// RunRecorder receives the outcome of each scheduled run.
type RunRecorder interface {
	RecordScheduledRun(job, status string)
}

// Scheduler runs export jobs on their cron schedules.
type Scheduler struct {
	runner   *Runner
	jobs     []Job
	cron     *cron.Cron
	entries  map[string]cron.EntryID
	recorder RunRecorder
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates a scheduler for jobs. Jobs are validated on Start.
func NewScheduler(runner *Runner, jobs []Job) *Scheduler {
	return &Scheduler{
		runner: runner,
		jobs:   jobs,
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DiscardLogger),
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
		entries: make(map[string]cron.EntryID),
		logger:  slog.Default().With("component", "submission.scheduler"),
	}
}

// SetRecorder sets the recorder notified after every run. Call it before
// Start.
func (s *Scheduler) SetRecorder(r RunRecorder) {
	s.recorder = r
}

// Start registers all jobs and starts the cron loop. With no jobs the
// scheduler does nothing. The scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.jobs) == 0 {
		s.logger.Info("no export jobs configured, skipping scheduler")
		return nil
	}

	seen := make(map[string]bool, len(s.jobs))
	for _, job := range s.jobs {
		if err := job.Validate(); err != nil {
			return err
		}
		if seen[job.Name] {
			return fmt.Errorf("duplicate job name %q", job.Name)
		}
		seen[job.Name] = true
	}

	for _, job := range s.jobs {
		id, err := s.cron.AddFunc(job.Cron, func() {
			s.runJob(ctx, job)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule job %q: %w", job.Name, err)
		}
		s.entries[job.Name] = id
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("export scheduler started", "jobs", len(s.jobs))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	ctx = logging.WithFormID(logging.WithJob(ctx, job.Name), job.FormID)
	s.logger.InfoContext(ctx, "starting scheduled export")

	start := time.Now()
	result, err := s.runner.Run(ctx, job)
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled export failed", "error", err)
		s.record(job.Name, "error")
		return
	}
	s.record(job.Name, "success")

	s.logger.DebugContext(ctx, "scheduled export completed",
		"file_name", result.FileName,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (s *Scheduler) record(job, status string) {
	if s.recorder != nil {
		s.recorder.RecordScheduledRun(job, status)
	}
}

// Stop stops the scheduler and waits for running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("export scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled time of the named job, or nil if the
// job is not scheduled.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[name]
	if !ok {
		return nil
	}
	entry := s.cron.Entry(id)
	if !entry.Valid() {
		return nil
	}
	next := entry.Next
	return &next
}
