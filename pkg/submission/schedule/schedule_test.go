package schedule

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/harvest/pkg/submission"
	"mercator-hq/harvest/pkg/submission/export"
	"mercator-hq/harvest/pkg/submission/storage"
	"mercator-hq/harvest/pkg/submission/transform"
)

func seededStore(t *testing.T) *storage.MemoryStorage {
	t.Helper()

	store := storage.NewMemoryStorage()
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	err := store.StoreBatch(context.Background(), []*submission.Submission{
		{ID: 1, FormID: 7, IsComplete: true, CreatedAt: created, UpdatedAt: created,
			Data: `{"photo":[{"content":"https://acct.blob.core.windows.net/files/s/7/1/a.png"}]}`},
		{ID: 2, FormID: 7, CreatedAt: created, UpdatedAt: created, Data: `{"photo":null}`},
		{ID: 3, FormID: 8, IsComplete: true, CreatedAt: created, UpdatedAt: created},
	})
	if err != nil {
		t.Fatalf("StoreBatch() failed: %v", err)
	}
	return store
}

func TestJob_Validate(t *testing.T) {
	tests := []struct {
		name    string
		job     Job
		wantErr bool
	}{
		{"valid", Job{Name: "daily", Cron: "0 3 * * *", FormID: 7, Format: "csv"}, false},
		{"descriptor", Job{Name: "often", Cron: "@every 1m", FormID: 7, Format: "JSON"}, false},
		{"missing name", Job{Cron: "0 3 * * *", FormID: 7, Format: "csv"}, true},
		{"invalid cron", Job{Name: "bad", Cron: "invalid cron", FormID: 7, Format: "csv"}, true},
		{"missing form", Job{Name: "bad", Cron: "0 3 * * *", Format: "csv"}, true},
		{"unknown format", Job{Name: "bad", Cron: "0 3 * * *", FormID: 7, Format: "xlsx"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestRunner_Run tests writing an export file.
func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	runner := NewRunner(seededStore(t), export.NewDefaultRegistry(nil), dir)

	result, err := runner.Run(context.Background(), Job{Name: "forms", FormID: 7, Format: "csv", Columns: []string{"id", "photo"}})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if result.FileName != "submissions-7.csv" || result.Rows != 2 {
		t.Errorf("result = %+v", result)
	}

	data, err := os.ReadFile(filepath.Join(dir, "submissions-7.csv"))
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if !strings.HasPrefix(string(data), "id,photo\n1,") {
		t.Errorf("unexpected content %q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the export file, got %d entries", len(entries))
	}
}

// TestRunner_CompletedOnly tests the completed_only filter.
func TestRunner_CompletedOnly(t *testing.T) {
	dir := t.TempDir()
	runner := NewRunner(seededStore(t), export.NewDefaultRegistry(nil), dir)

	result, err := runner.Run(context.Background(), Job{Name: "done", FormID: 7, Format: "json", CompletedOnly: true})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if result.Rows != 1 {
		t.Errorf("Rows = %d, want 1", result.Rows)
	}
}

// TestRunner_EmptyForm tests that an empty form still produces a file.
func TestRunner_EmptyForm(t *testing.T) {
	dir := t.TempDir()
	runner := NewRunner(seededStore(t), export.NewDefaultRegistry(nil), dir)

	result, err := runner.Run(context.Background(), Job{Name: "empty", FormID: 99, Format: "json"})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, result.FileName))
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if result.FileName != "submissions-99.json" || string(data) != "[]" {
		t.Errorf("file %s = %q", result.FileName, data)
	}
}

// TestRunner_UpdateRegistry tests that later runs use the new registry.
func TestRunner_UpdateRegistry(t *testing.T) {
	dir := t.TempDir()
	runner := NewRunner(seededStore(t), export.NewDefaultRegistry(nil), dir)
	job := Job{Name: "photos", FormID: 7, Format: "csv", Columns: []string{"photo"}}

	if _, err := runner.Run(context.Background(), job); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	before, _ := os.ReadFile(filepath.Join(dir, "submissions-7.csv"))
	if !strings.Contains(string(before), "blob.core.windows.net") {
		t.Fatalf("expected original URL before update: %q", before)
	}

	runner.UpdateRegistry(export.NewDefaultRegistry(transform.NewBlobURLRewriter("https://hub.example.com",
		[]transform.StorageRule{{Host: "acct.blob.core.windows.net", Container: "files"}})))

	if _, err := runner.Run(context.Background(), job); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	after, _ := os.ReadFile(filepath.Join(dir, "submissions-7.csv"))
	if !strings.Contains(string(after), "https://hub.example.com/forms/7/submissions/1/files/a.png") {
		t.Errorf("expected rewritten URL after update: %q", after)
	}
}

// TestRunner_UnknownFormat tests registry resolution failures.
func TestRunner_UnknownFormat(t *testing.T) {
	runner := NewRunner(seededStore(t), export.NewDefaultRegistry(nil), t.TempDir())

	_, err := runner.Run(context.Background(), Job{Name: "x", FormID: 7, Format: "xml"})
	var schedErr *submission.ScheduleError
	if !errors.As(err, &schedErr) || schedErr.Job != "x" {
		t.Fatalf("expected ScheduleError for job x, got %v", err)
	}
	if !errors.Is(err, export.ErrNoExporter) {
		t.Errorf("expected ErrNoExporter in chain, got %v", err)
	}
}

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		jobs        []Job
		wantRunning bool
		wantError   bool
	}{
		{
			name:        "valid daily schedule",
			jobs:        []Job{{Name: "daily", Cron: "0 3 * * *", FormID: 7, Format: "csv"}},
			wantRunning: true,
		},
		{
			name: "two jobs",
			jobs: []Job{
				{Name: "a", Cron: "0 * * * *", FormID: 7, Format: "csv"},
				{Name: "b", Cron: "30 * * * *", FormID: 8, Format: "json"},
			},
			wantRunning: true,
		},
		{
			name:        "no jobs - no error, not running",
			wantRunning: false,
		},
		{
			name:      "invalid schedule",
			jobs:      []Job{{Name: "bad", Cron: "invalid cron", FormID: 7, Format: "csv"}},
			wantError: true,
		},
		{
			name: "duplicate names",
			jobs: []Job{
				{Name: "a", Cron: "0 * * * *", FormID: 7, Format: "csv"},
				{Name: "a", Cron: "0 * * * *", FormID: 8, Format: "csv"},
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(storage.NewMemoryStorage(), export.NewDefaultRegistry(nil), t.TempDir())
			scheduler := NewScheduler(runner, tt.jobs)

			err := scheduler.Start(context.Background())
			defer scheduler.Stop()

			if (err != nil) != tt.wantError {
				t.Fatalf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			if scheduler.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", scheduler.IsRunning(), tt.wantRunning)
			}
			if tt.wantRunning {
				for _, job := range tt.jobs {
					next := scheduler.NextRun(job.Name)
					if next == nil || !next.After(time.Now()) {
						t.Errorf("NextRun(%s) = %v, want future time", job.Name, next)
					}
				}
			}
		})
	}
}

func TestScheduler_NextRunUnknownJob(t *testing.T) {
	scheduler := NewScheduler(NewRunner(storage.NewMemoryStorage(), export.NewDefaultRegistry(nil), t.TempDir()), nil)
	if scheduler.NextRun("missing") != nil {
		t.Error("expected nil for unknown job")
	}
}

// TestScheduler_StopsOnCancel tests context-driven shutdown.
func TestScheduler_StopsOnCancel(t *testing.T) {
	runner := NewRunner(storage.NewMemoryStorage(), export.NewDefaultRegistry(nil), t.TempDir())
	scheduler := NewScheduler(runner, []Job{{Name: "a", Cron: "0 3 * * *", FormID: 1, Format: "csv"}})

	ctx, cancel := context.WithCancel(context.Background())
	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for scheduler.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if scheduler.IsRunning() {
		t.Error("scheduler still running after cancel")
	}
}

type runCounter struct {
	mu   sync.Mutex
	runs map[string]int
}

func (c *runCounter) RecordScheduledRun(job, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runs == nil {
		c.runs = make(map[string]int)
	}
	c.runs[job+"/"+status]++
}

func (c *runCounter) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs[key]
}

// TestScheduler_RunsJob tests that a due job writes its file and reports
// the run.
func TestScheduler_RunsJob(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a cron tick")
	}

	dir := t.TempDir()
	runner := NewRunner(seededStore(t), export.NewDefaultRegistry(nil), dir)
	scheduler := NewScheduler(runner, []Job{{Name: "tick", Cron: "@every 1s", FormID: 8, Format: "csv"}})
	counter := &runCounter{}
	scheduler.SetRecorder(counter)

	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer scheduler.Stop()

	path := filepath.Join(dir, "submissions-8.csv")
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if counter.count("tick/success") > 0 {
			if _, err := os.Stat(path); err != nil {
				t.Fatalf("expected %s to be written: %v", path, err)
			}
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Errorf("expected a successful run of %q", "tick")
}
