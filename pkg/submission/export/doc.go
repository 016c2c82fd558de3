// Package export streams submissions into CSV and JSON files.
//
// # Export Formats
//
// The export package provides exporters for:
//
//   - CSV: Header row from the discovered column names, one record per row
//   - JSON: A single array, one object per row keyed by camel-cased column names
//
// Exporters are resolved by record type and format from a Registry:
//
//	registry := export.NewDefaultRegistry(rewriter)
//	exporter, err := registry.Resolve("submissions", "CSV")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rows, errs, err := store.QueryStream(ctx, &submission.Query{FormID: 7})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	f, _ := os.Create("submissions-7.csv")
//	defer f.Close()
//
//	result, err := exporter.Export(ctx, rows, errs, f, &export.Options{
//	    Columns: []string{"id", "q1", "photo"},
//	})
//
// # Streaming
//
// Rows are read from the channel one at a time and written as they are
// processed; writers flush every FlushEvery rows. Memory use is bounded by one
// row's answer tree plus the writer buffer, independent of row count.
//
// # Error Handling
//
// Cell failures render as columns.NotAvailable and are counted in
// FileExport.FailedCells. Unparseable answers export the row's static
// columns only. Sink and storage failures abort the run with an
// *submission.ExportError; cancellation returns the context error and leaves
// the sink unflushed.
package export
