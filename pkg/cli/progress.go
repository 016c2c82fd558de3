package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"mercator-hq/harvest/pkg/submission"
)

// ProgressReporter reports progress for long-running operations.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Finish()
	Error(err error)
}

// SimpleProgress implements a simple text-based progress reporter. With an
// unknown total (zero) it prints a running count instead of a bar.
type SimpleProgress struct {
	mu      sync.Mutex
	total   int64
	current int64
	started time.Time
	writer  io.Writer
	unit    string
}

// NewProgressReporter creates a new progress reporter that writes to w.
// If w is nil, it defaults to os.Stderr.
func NewProgressReporter(w io.Writer, unit string) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	if unit == "" {
		unit = "rows"
	}
	return &SimpleProgress{
		writer: w,
		unit:   unit,
	}
}

// Start initializes the progress reporter with the total number of items.
func (p *SimpleProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current = 0
	p.started = time.Now()

	p.render()
}

// Update updates the current progress.
func (p *SimpleProgress) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current
	p.render()
}

// Finish marks the progress as complete.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total > 0 {
		p.current = p.total
	}
	p.render()
	fmt.Fprintln(p.writer)
}

// Error reports an error during progress.
func (p *SimpleProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\n✗ Error: %v\n", err)
}

func (p *SimpleProgress) render() {
	elapsed := time.Since(p.started)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.current) / elapsed.Seconds()
	}

	if p.total <= 0 {
		fmt.Fprintf(p.writer, "\rProgress: %d %s %.1f %s/s", p.current, p.unit, rate, p.unit)
		return
	}

	percent := float64(p.current) / float64(p.total) * 100
	barWidth := 40
	filled := min(int(float64(barWidth)*percent/100), barWidth)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(p.writer, "\rProgress: [%s] %.1f%% (%d/%d) %.1f %s/s",
		bar, percent, p.current, p.total, rate, p.unit)
}

// TrackRows relays rows to the returned channel and reports every
// interval-th row to progress. The returned channel is closed when rows
// is closed or ctx is done.
func TrackRows(ctx context.Context, rows <-chan *submission.Submission, progress ProgressReporter, interval int64) <-chan *submission.Submission {
	if interval <= 0 {
		interval = 1
	}

	out := make(chan *submission.Submission)
	go func() {
		defer close(out)

		var n int64
		for {
			select {
			case row, ok := <-rows:
				if !ok {
					progress.Update(n)
					return
				}
				select {
				case out <- row:
				case <-ctx.Done():
					return
				}
				n++
				if n%interval == 0 {
					progress.Update(n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
