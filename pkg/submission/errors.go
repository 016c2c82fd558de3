package submission

import "fmt"

// StorageError represents an error from the storage backend.
type StorageError struct {
	Backend   string // Storage backend type ("sqlite", "memory")
	Operation string // Operation that failed ("store", "query_stream", etc.)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// QueryError represents an invalid submission query.
type QueryError struct {
	Query *Query // Query that failed
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// NewQueryError creates a new QueryError.
func NewQueryError(query *Query, cause error) *QueryError {
	return &QueryError{
		Query: query,
		Cause: cause,
	}
}

// ExportError represents a run-level export failure.
type ExportError struct {
	Format      string // Export format ("json", "csv", etc.)
	RecordCount int    // Number of rows written before the failure
	Cause       error  // Underlying error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, record_count=%d]: %v", e.Format, e.RecordCount, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format string, recordCount int, cause error) *ExportError {
	return &ExportError{
		Format:      format,
		RecordCount: recordCount,
		Cause:       cause,
	}
}

// CellError represents a failure computing one column value for one row.
// It never aborts an export; the cell renders as a sentinel instead.
type CellError struct {
	Column string // Column name
	RowID  int64  // Submission ID
	Cause  error  // Underlying error
}

// Error implements the error interface.
func (e *CellError) Error() string {
	return fmt.Sprintf("cell error [column=%s, row_id=%d]: %v", e.Column, e.RowID, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *CellError) Unwrap() error {
	return e.Cause
}

// NewCellError creates a new CellError.
func NewCellError(column string, rowID int64, cause error) *CellError {
	return &CellError{
		Column: column,
		RowID:  rowID,
		Cause:  cause,
	}
}

// ScheduleError represents a failed scheduled export job.
type ScheduleError struct {
	Job   string // Job name
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *ScheduleError) Error() string {
	return fmt.Sprintf("schedule error [job=%s]: %v", e.Job, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ScheduleError) Unwrap() error {
	return e.Cause
}

// NewScheduleError creates a new ScheduleError.
func NewScheduleError(job string, cause error) *ScheduleError {
	return &ScheduleError{
		Job:   job,
		Cause: cause,
	}
}
