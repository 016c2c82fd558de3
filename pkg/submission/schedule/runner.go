package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"mercator-hq/harvest/pkg/submission"
	"mercator-hq/harvest/pkg/submission/export"
	"mercator-hq/harvest/pkg/telemetry/logging"
)

// Job describes one recurring export.
type Job struct {
	Name          string   `yaml:"name"`
	Cron          string   `yaml:"cron"`
	FormID        int64    `yaml:"form_id"`
	Format        string   `yaml:"format"`
	Columns       []string `yaml:"columns"`
	CompletedOnly bool     `yaml:"completed_only"`
}

// Validate checks the job definition.
func (j Job) Validate() error {
	if j.Name == "" {
		return fmt.Errorf("job name is required")
	}
	if _, err := cron.ParseStandard(j.Cron); err != nil {
		return submission.NewScheduleError(j.Name, fmt.Errorf("invalid cron schedule %q: %w", j.Cron, err))
	}
	if j.FormID <= 0 {
		return submission.NewScheduleError(j.Name, fmt.Errorf("form_id must be positive"))
	}
	if _, err := export.ParseFormat(j.Format); err != nil {
		return submission.NewScheduleError(j.Name, err)
	}
	return nil
}

// Runner executes export jobs into an output directory.
type Runner struct {
	store     submission.Storage
	registry  atomic.Pointer[export.Registry]
	outputDir string
	logger    *slog.Logger
}

// NewRunner creates a runner writing files to outputDir.
func NewRunner(store submission.Storage, registry *export.Registry, outputDir string) *Runner {
	r := &Runner{
		store:     store,
		outputDir: outputDir,
		logger:    slog.Default().With("component", "submission.schedule"),
	}
	r.registry.Store(registry)
	return r
}

// UpdateRegistry replaces the registry used by subsequent runs. Runs in
// progress keep the registry they started with.
func (r *Runner) UpdateRegistry(registry *export.Registry) {
	r.registry.Store(registry)
}

// Run exports the job's submissions and returns the run result. The output
// file path is filepath.Join(outputDir, result.FileName).
func (r *Runner) Run(ctx context.Context, job Job) (*export.FileExport, error) {
	ctx = logging.WithFormID(logging.WithJob(ctx, job.Name), job.FormID)

	exporter, err := r.registry.Load().Resolve(submission.RecordType, job.Format)
	if err != nil {
		return nil, submission.NewScheduleError(job.Name, err)
	}

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return nil, submission.NewScheduleError(job.Name, err)
	}
	tmp, err := os.CreateTemp(r.outputDir, "."+job.Name+"-*.partial")
	if err != nil {
		return nil, submission.NewScheduleError(job.Name, err)
	}
	defer os.Remove(tmp.Name())

	query := &submission.Query{FormID: job.FormID, CompletedOnly: job.CompletedOnly}
	rows, errs, err := r.store.QueryStream(ctx, query)
	if err != nil {
		tmp.Close()
		return nil, submission.NewScheduleError(job.Name, err)
	}

	result, err := exporter.Export(ctx, rows, errs, tmp, &export.Options{
		Columns:  job.Columns,
		Metadata: map[string]string{"FormId": strconv.FormatInt(job.FormID, 10)},
	})
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		drain(rows)
		return result, submission.NewScheduleError(job.Name, err)
	}

	dest := filepath.Join(r.outputDir, result.FileName)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return result, submission.NewScheduleError(job.Name, err)
	}

	r.logger.InfoContext(ctx, "scheduled export written",
		"path", dest,
		"rows", result.Rows,
		"failed_cells", result.FailedCells,
	)
	return result, nil
}

// drain unblocks the storage goroutine after a failed export.
func drain(rows <-chan *submission.Submission) {
	go func() {
		for range rows {
		}
	}()
}
