package export

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"mercator-hq/harvest/pkg/submission"
	"mercator-hq/harvest/pkg/submission/columns"
	"mercator-hq/harvest/pkg/submission/jsonnode"
	"mercator-hq/harvest/pkg/submission/transform"
)

// DefaultFlushEvery is the number of rows written between sink flushes.
const DefaultFlushEvery = 100

// metadataFormID is the metadata key naming the exported form.
const metadataFormID = "FormId"

// Exporter streams rows of one record type into one format.
type Exporter interface {
	// RecordType returns the record type this exporter handles.
	RecordType() string

	// Format returns the output format.
	Format() Format

	// Export consumes rows until the channel is closed, then reads errs (if
	// non-nil) for a storage failure. The returned FileExport is never nil.
	Export(ctx context.Context, rows <-chan *submission.Submission, errs <-chan error, w io.Writer, opts *Options) (*FileExport, error)
}

// Options configure a single export run.
type Options struct {
	// Columns is an optional allow-list of column names, in output order.
	Columns []string

	// Transforms adds a transformer to the named column's chain.
	Transforms map[string]transform.Transformer

	// Formatters replaces the format's default formatter for a column.
	Formatters map[string]columns.Formatter

	// Metadata carries free-form run metadata. "FormId" names the form
	// when no rows are exported.
	Metadata map[string]string
}

// FileExport describes a completed or failed export run.
type FileExport struct {
	ExportID    string `json:"export_id"`
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	Rows        int    `json:"rows"`
	FailedCells int    `json:"failed_cells"`
}

// Recorder receives export metrics. metrics.Collector implements it.
type Recorder interface {
	RecordExport(format, status string, duration time.Duration, rows int)
	RecordCellFailure(format string)
	RecordRowParseFailure(format string)
}

// SubmissionExporter implements Exporter for submissions. One value may
// serve concurrent runs: all per-run state lives in a run.
type SubmissionExporter struct {
	format     Format
	kind       string
	rewriter   transform.Transformer
	flushEvery int
	pretty     bool
	recorder   Recorder
	logger     *slog.Logger
}

// ExporterOption configures a SubmissionExporter.
type ExporterOption func(*SubmissionExporter)

// WithKind sets the file name prefix (default "submissions").
func WithKind(kind string) ExporterOption {
	return func(e *SubmissionExporter) {
		if kind != "" {
			e.kind = kind
		}
	}
}

// WithFlushEvery sets the number of rows between sink flushes.
func WithFlushEvery(n int) ExporterOption {
	return func(e *SubmissionExporter) {
		if n > 0 {
			e.flushEvery = n
		}
	}
}

// WithPrettyJSON puts each JSON row on its own line.
func WithPrettyJSON(pretty bool) ExporterOption {
	return func(e *SubmissionExporter) {
		e.pretty = pretty
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) ExporterOption {
	return func(e *SubmissionExporter) {
		e.recorder = r
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) ExporterOption {
	return func(e *SubmissionExporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewSubmissionExporter creates an exporter for format. rewriter is attached
// to every dynamic column and may be nil.
func NewSubmissionExporter(format Format, rewriter transform.Transformer, opts ...ExporterOption) *SubmissionExporter {
	e := &SubmissionExporter{
		format:     format,
		kind:       submission.RecordType,
		rewriter:   rewriter,
		flushEvery: DefaultFlushEvery,
		logger:     slog.Default().With("component", "submission.export"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RecordType implements Exporter.
func (e *SubmissionExporter) RecordType() string {
	return submission.RecordType
}

// Format implements Exporter.
func (e *SubmissionExporter) Format() Format {
	return e.format
}

// Export implements Exporter.
func (e *SubmissionExporter) Export(ctx context.Context, rows <-chan *submission.Submission, errs <-chan error, w io.Writer, opts *Options) (*FileExport, error) {
	if opts == nil {
		opts = &Options{}
	}
	start := time.Now()

	result := &FileExport{
		ExportID:    uuid.New().String(),
		ContentType: e.format.ContentType(),
	}
	r := &run{
		exporter: e,
		opts:     opts,
		writer:   e.newRowWriter(w),
		logger:   e.logger.With("export_id", result.ExportID, "format", string(e.format)),
	}

	r.logger.DebugContext(ctx, "export started", "columns", len(opts.Columns))

	err := r.consume(ctx, rows)
	if err == nil && errs != nil {
		err = <-errs
	}
	if err == nil {
		err = r.finish(ctx)
	}

	formID, known := r.formID()
	result.FileName = FileName(e.kind, formID, known, e.format.Extension())
	result.Rows = r.rows
	result.FailedCells = r.failedCells

	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			err = submission.NewExportError(string(e.format), r.rows, err)
		}
		result.Error = err.Error()
		r.logger.ErrorContext(ctx, "export failed",
			"rows", r.rows,
			"error", err,
		)
		e.record("error", time.Since(start), r.rows)
		return result, err
	}

	result.Success = true
	r.logger.InfoContext(ctx, "export completed",
		"file_name", result.FileName,
		"rows", r.rows,
		"failed_cells", r.failedCells,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	e.record("success", time.Since(start), r.rows)
	return result, nil
}

func (e *SubmissionExporter) newRowWriter(w io.Writer) rowWriter {
	switch e.format {
	case FormatJSON:
		return newJSONWriter(w, e.pretty)
	default:
		return newCSVWriter(w)
	}
}

func (e *SubmissionExporter) record(status string, d time.Duration, rows int) {
	if e.recorder != nil {
		e.recorder.RecordExport(string(e.format), status, d, rows)
	}
}

// run holds the mutable state of one export run.
type run struct {
	exporter *SubmissionExporter
	opts     *Options
	writer   rowWriter
	logger   *slog.Logger

	cols        []*columns.Column
	values      []any
	sourceText  bool // some column passes answer text through
	firstFormID string
	rows        int
	failedCells int
}

func (r *run) consume(ctx context.Context, rows <-chan *submission.Submission) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()

		case row, ok := <-rows:
			if !ok {
				return nil
			}
			if row == nil {
				continue
			}
			if err := r.process(ctx, row); err != nil {
				return err
			}
		}
	}
}

// process writes one row. The parsed answer document is dropped when it
// returns.
func (r *run) process(ctx context.Context, row *submission.Submission) error {
	doc, err := jsonnode.ParseObject(row.Data)
	if err != nil {
		r.logger.WarnContext(ctx, "submission answers could not be parsed",
			"row_id", row.ID,
			"error", err,
		)
		if rec := r.exporter.recorder; rec != nil {
			rec.RecordRowParseFailure(string(r.exporter.format))
		}
		doc = nil
	}

	if r.cols == nil {
		var properties []string
		if doc != nil {
			properties, _ = jsonnode.PropertyNames(row.Data)
		}
		r.firstFormID = strconv.FormatInt(row.FormID, 10)
		if err := r.begin(ctx, properties); err != nil {
			return err
		}
	}

	tc := transform.Context{Row: row, Document: doc, Logger: r.logger}
	if doc != nil && r.sourceText {
		tc.Raw, _ = jsonnode.RawProperties(row.Data)
	}
	fallback := r.writer.formatter()
	for i, col := range r.cols {
		cell := col.Compute(ctx, tc, fallback)
		if !cell.Available() {
			r.failedCells++
			if rec := r.exporter.recorder; rec != nil {
				rec.RecordCellFailure(string(r.exporter.format))
			}
			r.values[i] = columns.NotAvailable
			continue
		}
		r.values[i] = cell.Value
	}

	if err := r.writer.row(r.cols, r.values); err != nil {
		return err
	}
	r.rows++

	if r.rows%r.exporter.flushEvery == 0 {
		if err := r.writer.flush(); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) begin(ctx context.Context, properties []string) error {
	r.cols = columns.Discover(properties, &columns.Options{
		Columns:    r.opts.Columns,
		Transforms: r.opts.Transforms,
		Formatters: r.opts.Formatters,
		Rewriter:   r.exporter.rewriter,
		Logger:     r.logger,
	})
	r.values = make([]any, len(r.cols))
	for _, col := range r.cols {
		if col.Dynamic() && col.Formatter == nil {
			r.sourceText = true
		}
	}

	r.logger.DebugContext(ctx, "columns discovered", "count", len(r.cols))
	return r.writer.begin(r.cols)
}

// finish writes headers for an empty run and the trailer.
func (r *run) finish(ctx context.Context) error {
	if r.cols == nil {
		if err := r.begin(ctx, nil); err != nil {
			return err
		}
	}
	return r.writer.end()
}

// formID returns the form id used for the file name: the first row's form,
// else the "FormId" metadata entry.
func (r *run) formID() (string, bool) {
	if r.firstFormID != "" {
		return r.firstFormID, true
	}
	return metadataValue(r.opts.Metadata, metadataFormID)
}
