// Package submission provides the row model and contracts for exporting
// survey submissions to downstream file formats.
//
// # Architecture
//
// An export run is a single-threaded pipeline:
//
//	Storage.QueryStream (rows channel)
//	     ↓
//	export.SubmissionExporter (parse answers once per row)
//	     ↓
//	columns.Discover (first row only)
//	     ↓
//	Column.Compute (accessor → transformer chain → formatter)
//	     ↓
//	CSV / JSON writer (incremental, flushed every N rows)
//
// Rows are consumed in order from one channel and written to one sink in the
// same order. The column set is fixed by the first row: properties that only
// appear on later rows are dropped and properties missing on later rows render
// empty.
//
// # Failure Isolation
//
// A cell whose computation fails renders as columns.NotAvailable and is
// logged with its column name and row ID. A row whose answer JSON cannot be
// parsed still exports its static columns. Only sink failures, storage stream
// failures and cancellation abort a run.
//
// # URL Rewriting
//
// Answers may embed blob-storage URLs for uploaded files. The
// transform.BlobURLRewriter replaces them with hub-relative URLs of the form
//
//	{hub}/forms/{formId}/submissions/{submissionId}/files/{fileName}
//
// but only when the ids embedded in the blob path match the row being
// exported.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{Path: "data/submissions.db"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	registry := export.NewDefaultRegistry(transform.NewBlobURLRewriter(hub, rules))
//	exporter, err := registry.Resolve("submissions", "csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rows, errs, err := store.QueryStream(ctx, &submission.Query{FormID: 7})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := exporter.Export(ctx, rows, errs, os.Stdout, &export.Options{})
package submission
