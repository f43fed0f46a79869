package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the evidence tables. Times are stored as unix nanoseconds so
// both SQLite drivers read them back identically.
const Schema = `
CREATE TABLE IF NOT EXISTS evidence (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,
    recorded_at INTEGER NOT NULL,

    method TEXT NOT NULL,
    path TEXT NOT NULL,
    api TEXT NOT NULL,
    operation TEXT NOT NULL,

    state TEXT NOT NULL,
    status_code INTEGER NOT NULL,
    error_kind TEXT,
    error TEXT,
    caught TEXT,
    policies_run INTEGER NOT NULL,
    duration_ns INTEGER NOT NULL,

    request_hash TEXT,
    response_hash TEXT,
    trace_id TEXT,
    trace TEXT
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evidence_recorded_at ON evidence(recorded_at);
CREATE INDEX IF NOT EXISTS idx_evidence_request_id ON evidence(request_id);
CREATE INDEX IF NOT EXISTS idx_evidence_api ON evidence(api);
CREATE INDEX IF NOT EXISTS idx_evidence_state ON evidence(state);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion returns the newest applied schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const selectColumns = `id, request_id, recorded_at, method, path, api, operation,
	state, status_code, error_kind, error, caught, policies_run, duration_ns,
	request_hash, response_hash, trace_id, trace`
