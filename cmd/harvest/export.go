package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/harvest/pkg/cli"
	"mercator-hq/harvest/pkg/submission"
	"mercator-hq/harvest/pkg/submission/export"
)

// progressInterval is the number of rows between progress updates.
const progressInterval = 1000

var exportFlags struct {
	formID        int64
	format        string
	columns       []string
	output        string
	completedOnly bool
	since         string
	until         string
	progress      bool
	summary       string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a form's submissions to CSV or JSON",
	Long: `Export the submissions of one form to a CSV or JSON file.

Rows stream from the submission store straight into the output. Columns are
the static submission fields followed by the answer properties of the first
row, unless --columns selects them explicitly.

Output:
  (default)   write {kind}-{formId}.{ext} in export.output_dir
  -o FILE     write FILE
  -o -        write to stdout

Time bounds use RFC3339 and apply to the creation time: --since is
inclusive, --until is exclusive.

Examples:
  # Export form 7 as CSV
  harvest export --form-id 7

  # Selected columns as JSON to stdout
  harvest export --form-id 7 --format json --columns id,createdAt,photo -o -

  # Completed submissions created in May 2024
  harvest export --form-id 7 --completed-only \
    --since 2024-05-01T00:00:00Z --until 2024-06-01T00:00:00Z`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().Int64Var(&exportFlags.formID, "form-id", 0, "form to export (required)")
	exportCmd.Flags().StringVarP(&exportFlags.format, "format", "f", "", "export format: csv, json (default: export.default_format)")
	exportCmd.Flags().StringSliceVar(&exportFlags.columns, "columns", nil, "columns to export, in order (default: all)")
	exportCmd.Flags().StringVarP(&exportFlags.output, "output", "o", "", "output file, or - for stdout")
	exportCmd.Flags().BoolVar(&exportFlags.completedOnly, "completed-only", false, "skip incomplete submissions")
	exportCmd.Flags().StringVar(&exportFlags.since, "since", "", "only submissions created at or after this time (RFC3339)")
	exportCmd.Flags().StringVar(&exportFlags.until, "until", "", "only submissions created before this time (RFC3339)")
	exportCmd.Flags().BoolVar(&exportFlags.progress, "progress", false, "report progress on stderr")
	exportCmd.Flags().StringVar(&exportFlags.summary, "summary", "text", "summary format: text, json")

	_ = exportCmd.MarkFlagRequired("form-id")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := initialize()
	if err != nil {
		return err
	}

	query, err := buildQuery(exportFlags.formID, exportFlags.completedOnly, exportFlags.since, exportFlags.until)
	if err != nil {
		return err
	}

	summaryFormat, err := cli.ParseOutputFormat(exportFlags.summary)
	if err != nil {
		return err
	}

	format := exportFlags.format
	if format == "" {
		format = cfg.Export.DefaultFormat
	}
	exporter, err := newRegistry(cfg, nil).Resolve(submission.RecordType, format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	store, err := openStore(&cfg.Storage)
	if err != nil {
		return cli.NewCommandError("export", err)
	}
	defer store.Close()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	job := &exportJob{
		exporter: exporter,
		store:    store,
		query:    query,
		columns:  exportFlags.columns,
	}
	if exportFlags.progress {
		job.progress = cli.NewProgressReporter(cmd.ErrOrStderr(), "rows")
	}

	var result *export.FileExport
	summaryOut := cmd.OutOrStdout()
	if exportFlags.output == "-" {
		summaryOut = cmd.ErrOrStderr()
		result, err = job.run(ctx, cmd.OutOrStdout())
	} else {
		result, err = job.writeFile(ctx, cfg.Export.OutputDir, exportFlags.output)
	}
	if result != nil {
		if ferr := cli.NewFormatter(summaryFormat).FormatTo(summaryOut, result); ferr != nil {
			slog.Warn("failed to write export summary", "error", ferr)
		}
	}
	if err != nil {
		return cli.NewCommandError("export", err)
	}
	return nil
}

// buildQuery validates the export filter flags.
func buildQuery(formID int64, completedOnly bool, since, until string) (*submission.Query, error) {
	if formID <= 0 {
		return nil, cli.NewConfigError("form-id", "must be a positive form id")
	}

	query := &submission.Query{FormID: formID, CompletedOnly: completedOnly}

	if since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return nil, cli.NewConfigError("since", err.Error())
		}
		query.Since = &t
	}
	if until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return nil, cli.NewConfigError("until", err.Error())
		}
		query.Until = &t
	}
	if query.Since != nil && query.Until != nil && !query.Until.After(*query.Since) {
		return nil, cli.NewConfigError("until", "must be after --since")
	}

	return query, nil
}

// exportJob is one command-line export.
type exportJob struct {
	exporter export.Exporter
	store    submission.Storage
	query    *submission.Query
	columns  []string
	progress cli.ProgressReporter
}

// run streams the matching submissions into w.
func (j *exportJob) run(ctx context.Context, w io.Writer) (*export.FileExport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rows, errs, err := j.store.QueryStream(ctx, j.query)
	if err != nil {
		return nil, err
	}

	if j.progress != nil {
		total, err := j.store.Count(ctx, j.query)
		if err != nil {
			slog.Warn("failed to count submissions, progress total unknown", "error", err)
			total = 0
		}
		j.progress.Start(total)
		rows = cli.TrackRows(ctx, rows, j.progress, progressInterval)
	}

	result, err := j.exporter.Export(ctx, rows, errs, w, &export.Options{
		Columns:  j.columns,
		Metadata: map[string]string{"FormId": strconv.FormatInt(j.query.FormID, 10)},
	})

	if j.progress != nil {
		if err != nil {
			j.progress.Error(err)
		} else {
			j.progress.Finish()
		}
	}
	return result, err
}

// writeFile exports into a temporary file and renames it into place. An
// empty dest names the file after the export in dir.
func (j *exportJob) writeFile(ctx context.Context, dir, dest string) (*export.FileExport, error) {
	if dest != "" {
		dir = filepath.Dir(dest)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(dir, ".harvest-export-*.partial")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	result, err := j.run(ctx, tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return result, err
	}

	if dest == "" {
		dest = filepath.Join(dir, result.FileName)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return result, fmt.Errorf("failed to move export into place: %w", err)
	}

	slog.Info("export written", "path", dest, "rows", result.Rows)
	return result, nil
}
