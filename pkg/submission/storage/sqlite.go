package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/harvest/pkg/submission"
)

const (
	// DriverCGO selects github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"
	// DriverPureGo selects modernc.org/sqlite.
	DriverPureGo = "sqlite"
)

// streamBuffer is the capacity of the QueryStream row channel.
const streamBuffer = 100

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver is the database/sql driver name: "sqlite3" or "sqlite".
	// Default: "sqlite3"
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/submissions.db",
		Driver:       DriverCGO,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// dsn builds the data source name. Pragmas go in the DSN so every pooled
// connection gets them; the two drivers spell them differently.
func (c *SQLiteConfig) dsn() string {
	var params []string
	busy := c.BusyTimeout.Milliseconds()

	switch c.Driver {
	case DriverPureGo:
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", busy))
		if c.WALMode {
			params = append(params, "_pragma=journal_mode(WAL)")
		}
	default:
		params = append(params, fmt.Sprintf("_busy_timeout=%d", busy))
		if c.WALMode {
			params = append(params, "_journal_mode=WAL")
		}
	}
	return "file:" + c.Path + "?" + strings.Join(params, "&")
}

// SQLiteStorage implements submission.Storage using SQLite.
type SQLiteStorage struct {
	db            *sql.DB
	config        *SQLiteConfig
	preparedStmts map[string]*sql.Stmt
	mu            sync.RWMutex
	logger        *slog.Logger
}

// NewSQLiteStorage opens the database and initializes the schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = DriverCGO
	}
	if config.Driver != DriverCGO && config.Driver != DriverPureGo {
		return nil, submission.NewStorageError("sqlite", "open",
			fmt.Errorf("unsupported driver %q (supported: %s, %s)", config.Driver, DriverCGO, DriverPureGo))
	}

	logger := slog.Default().With("component", "submission.storage.sqlite")

	db, err := sql.Open(config.Driver, config.dsn())
	if err != nil {
		return nil, submission.NewStorageError("sqlite", "open", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	s := &SQLiteStorage{
		db:            db,
		config:        config,
		preparedStmts: make(map[string]*sql.Stmt),
		logger:        logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return submission.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return submission.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return submission.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return submission.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// stmt returns a cached prepared statement.
func (s *SQLiteStorage) stmt(ctx context.Context, query string) (*sql.Stmt, error) {
	s.mu.RLock()
	stmt, ok := s.preparedStmts[query]
	s.mu.RUnlock()
	if ok {
		return stmt, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if stmt, ok := s.preparedStmts[query]; ok {
		return stmt, nil
	}
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	s.preparedStmts[query] = stmt
	return stmt, nil
}

// Store persists a submission, replacing any row with the same ID.
func (s *SQLiteStorage) Store(ctx context.Context, sub *submission.Submission) error {
	stmt, err := s.stmt(ctx, upsertSubmission)
	if err != nil {
		return submission.NewStorageError("sqlite", "prepare", err)
	}
	if _, err := stmt.ExecContext(ctx, insertArgs(sub)...); err != nil {
		return submission.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// StoreBatch persists submissions in a single transaction.
func (s *SQLiteStorage) StoreBatch(ctx context.Context, subs []*submission.Submission) error {
	if len(subs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return submission.NewStorageError("sqlite", "begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSubmission)
	if err != nil {
		return submission.NewStorageError("sqlite", "prepare", err)
	}
	defer stmt.Close()

	for _, sub := range subs {
		if _, err := stmt.ExecContext(ctx, insertArgs(sub)...); err != nil {
			return submission.NewStorageError("sqlite", "store_batch",
				fmt.Errorf("submission %d: %w", sub.ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return submission.NewStorageError("sqlite", "commit", err)
	}
	return nil
}

// QueryStream returns a channel of submissions ordered by ID.
// The channels are closed when the query completes or errors.
func (s *SQLiteStorage) QueryStream(ctx context.Context, query *submission.Query) (<-chan *submission.Submission, <-chan error, error) {
	if err := validateQuery(query); err != nil {
		return nil, nil, err
	}

	rowsCh := make(chan *submission.Submission, streamBuffer)
	errCh := make(chan error, 1)

	whereClause, args := buildWhereClause(query)
	sqlQuery := "SELECT " + selectColumns + " FROM submissions"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}
	sqlQuery += " ORDER BY id ASC"
	sqlQuery += paginate(query)

	go func() {
		defer close(rowsCh)
		defer close(errCh)

		rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
		if err != nil {
			errCh <- submission.NewStorageError("sqlite", "query_stream", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			default:
			}

			sub, err := scanRow(rows)
			if err != nil {
				errCh <- submission.NewStorageError("sqlite", "scan", err)
				return
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case rowsCh <- sub:
			}
		}

		if err := rows.Err(); err != nil {
			errCh <- submission.NewStorageError("sqlite", "query_stream", err)
		}
	}()

	return rowsCh, errCh, nil
}

// Count returns the number of submissions matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *submission.Query) (int64, error) {
	if err := validateQuery(query); err != nil {
		return 0, err
	}

	whereClause, args := buildWhereClause(query)
	sqlQuery := "SELECT COUNT(*) FROM submissions"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, submission.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Close releases resources held by the storage backend.
func (s *SQLiteStorage) Close() error {
	s.mu.Lock()
	for _, stmt := range s.preparedStmts {
		stmt.Close()
	}
	s.preparedStmts = make(map[string]*sql.Stmt)
	s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return submission.NewStorageError("sqlite", "close", err)
	}

	s.logger.Info("SQLite storage closed")
	return nil
}

func validateQuery(query *submission.Query) error {
	if query == nil {
		return submission.NewQueryError(query, fmt.Errorf("query is required"))
	}
	if query.Limit < 0 || query.Offset < 0 {
		return submission.NewQueryError(query, fmt.Errorf("limit and offset must be non-negative"))
	}
	if query.Since != nil && query.Until != nil && !query.Until.After(*query.Since) {
		return submission.NewQueryError(query, fmt.Errorf("until must be after since"))
	}
	return nil
}

// buildWhereClause builds a SQL WHERE clause (without the keyword) and its
// arguments.
func buildWhereClause(query *submission.Query) (string, []any) {
	var conditions []string
	var args []any

	if query.FormID != 0 {
		conditions = append(conditions, "form_id = ?")
		args = append(args, query.FormID)
	}
	if query.CompletedOnly {
		conditions = append(conditions, "is_complete = 1")
	}
	if query.Since != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, unixNano(*query.Since))
	}
	if query.Until != nil {
		conditions = append(conditions, "created_at < ?")
		args = append(args, unixNano(*query.Until))
	}

	return strings.Join(conditions, " AND "), args
}

// paginate renders LIMIT/OFFSET. SQLite requires a LIMIT before OFFSET.
func paginate(query *submission.Query) string {
	switch {
	case query.Limit > 0 && query.Offset > 0:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", query.Limit, query.Offset)
	case query.Limit > 0:
		return fmt.Sprintf(" LIMIT %d", query.Limit)
	case query.Offset > 0:
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", query.Offset)
	default:
		return ""
	}
}

func insertArgs(sub *submission.Submission) []any {
	var parentID, completedAt any
	if sub.ParentID != nil {
		parentID = *sub.ParentID
	}
	if sub.CompletedAt != nil {
		completedAt = unixNano(*sub.CompletedAt)
	}
	return []any{
		sub.ID, sub.FormID, parentID,
		sub.IsComplete, unixNano(sub.CreatedAt), unixNano(sub.UpdatedAt), completedAt,
		sub.Data,
	}
}

func scanRow(rows *sql.Rows) (*submission.Submission, error) {
	var sub submission.Submission
	var parentID, completedAt sql.NullInt64
	var createdAt, updatedAt int64

	err := rows.Scan(
		&sub.ID, &sub.FormID, &parentID,
		&sub.IsComplete, &createdAt, &updatedAt, &completedAt,
		&sub.Data,
	)
	if err != nil {
		return nil, err
	}

	sub.CreatedAt = fromUnixNano(createdAt)
	sub.UpdatedAt = fromUnixNano(updatedAt)
	if parentID.Valid {
		id := parentID.Int64
		sub.ParentID = &id
	}
	if completedAt.Valid {
		t := fromUnixNano(completedAt.Int64)
		sub.CompletedAt = &t
	}
	return &sub, nil
}

// unixNano stores the zero time as 0.
func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
