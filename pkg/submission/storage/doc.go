// Package storage provides submission storage backends that feed export runs.
//
// Two backends are available:
//
//   - SQLiteStorage: persistent storage on SQLite, using either the cgo driver
//     (github.com/mattn/go-sqlite3, driver name "sqlite3") or the pure Go
//     driver (modernc.org/sqlite, driver name "sqlite").
//   - MemoryStorage: an in-memory map for tests and dry runs.
//
// Both stream query results over a buffered channel so an export never holds
// the full result set:
//
//	rows, errs, err := store.QueryStream(ctx, &submission.Query{FormID: 7})
//	if err != nil {
//		return err
//	}
//	result, err := exporter.Export(ctx, rows, errs, w, nil)
package storage
