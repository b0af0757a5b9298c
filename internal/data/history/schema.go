package history

import (
	"database/sql"

	"depscope/internal/core/errors"
)

// schemaSteps[i] upgrades the database from version i to i+1.
var schemaSteps = []string{
	`CREATE TABLE IF NOT EXISTS runs (
  run_id               TEXT PRIMARY KEY,
  schema_version       INTEGER NOT NULL,
  repository           TEXT NOT NULL,
  ts_utc               TEXT NOT NULL,
  file_count           INTEGER NOT NULL,
  function_count       INTEGER NOT NULL,
  module_count         INTEGER NOT NULL,
  call_edges           INTEGER NOT NULL DEFAULT 0,
  import_edges         INTEGER NOT NULL DEFAULT 0,
  call_cycles          INTEGER NOT NULL DEFAULT 0,
  import_cycles        INTEGER NOT NULL DEFAULT 0,
  high_severity_cycles INTEGER NOT NULL DEFAULT 0,
  parse_error_count    INTEGER NOT NULL DEFAULT 0,
  max_instability      REAL NOT NULL DEFAULT 0,
  avg_complexity       REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_repository_ts ON runs(repository, ts_utc);`,
}

// EnsureSchema brings db up to SchemaVersion. A database written by a newer
// release is rejected rather than downgraded.
func EnsureSchema(db *sql.DB) error {
	const bookkeeping = `CREATE TABLE IF NOT EXISTS schema_migrations (
  version    INTEGER PRIMARY KEY,
  applied_at TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
)`
	if _, err := db.Exec(bookkeeping); err != nil {
		return errors.Wrap(err, errors.CodeIO, "create schema_migrations")
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return errors.Wrap(err, errors.CodeIO, "read schema version")
	}
	if current > SchemaVersion {
		return errors.Newf(errors.CodeNotSupported, "history schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	for version := current + 1; version <= len(schemaSteps); version++ {
		if err := applyStep(db, version, schemaSteps[version-1]); err != nil {
			return err
		}
	}
	return nil
}

func applyStep(db *sql.DB, version int, ddl string) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, errors.CodeIO, "begin schema upgrade")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(ddl); err != nil {
		return errors.Wrap(err, errors.CodeIO, "upgrade history schema")
	}
	if _, err = tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, version); err != nil {
		return errors.Wrap(err, errors.CodeIO, "record schema version")
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, errors.CodeIO, "commit schema upgrade")
	}
	return nil
}
