package storage

import (
	"fmt"

	"mercator-hq/harvest/pkg/submission"
)

const (
	// BackendSQLite selects SQLiteStorage.
	BackendSQLite = "sqlite"
	// BackendMemory selects MemoryStorage.
	BackendMemory = "memory"
)

// Open creates the storage backend named by backend. sqlite is only used by
// the SQLite backend and may be nil for defaults.
func Open(backend string, sqlite *SQLiteConfig) (submission.Storage, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLiteStorage(sqlite)
	case BackendMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, submission.NewStorageError(backend, "open",
			fmt.Errorf("unsupported storage backend %q (supported: %s, %s)", backend, BackendSQLite, BackendMemory))
	}
}
