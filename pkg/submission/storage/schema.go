package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the submissions database. Timestamps are stored as Unix
// nanoseconds so both drivers compare and scan them identically.
const Schema = `
CREATE TABLE IF NOT EXISTS submissions (
    id INTEGER PRIMARY KEY,
    form_id INTEGER NOT NULL,
    parent_id INTEGER,

    is_complete BOOLEAN NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    completed_at INTEGER,

    data TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submissions_form_id ON submissions(form_id, id);
CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const upsertSubmission = `
INSERT OR REPLACE INTO submissions (
    id, form_id, parent_id,
    is_complete, created_at, updated_at, completed_at,
    data
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

const selectColumns = `id, form_id, parent_id, is_complete, created_at, updated_at, completed_at, data`
