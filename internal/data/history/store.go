package history

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"depscope/internal/core/errors"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Store persists run snapshots in a single SQLite file.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, errors.New(errors.CodeValidationError, "history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, errors.AddContext(errors.Newf(errors.CodeValidationError, "history path %q is a directory, expected file", cleanPath), errors.CtxPath, cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "create history directory"), errors.CtxPath, dir)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "open sqlite history"), errors.CtxPath, cleanPath)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "ping sqlite history"), errors.CtxPath, cleanPath)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "initialize history schema"), errors.CtxPath, cleanPath)
	}
	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Save stores a snapshot, filling in the run id, timestamp and schema
// version when they are unset. It returns the stored snapshot.
func (s *Store) Save(ctx context.Context, snapshot Snapshot) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot.Repository = strings.TrimSpace(snapshot.Repository)
	if snapshot.Repository == "" {
		return snapshot, errors.New(errors.CodeValidationError, "snapshot repository must not be empty")
	}
	if snapshot.RunID == "" {
		snapshot.RunID = uuid.NewString()
	}
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}
	if snapshot.SchemaVersion == 0 {
		snapshot.SchemaVersion = SchemaVersion
	}
	if snapshot.SchemaVersion != SchemaVersion {
		return snapshot, errors.Newf(errors.CodeNotSupported, "unsupported snapshot schema version %d", snapshot.SchemaVersion)
	}

	const query = `
INSERT INTO runs (
  run_id, schema_version, repository, ts_utc, file_count, function_count, module_count,
  call_edges, import_edges, call_cycles, import_cycles, high_severity_cycles,
  parse_error_count, max_instability, avg_complexity
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
  schema_version=excluded.schema_version,
  repository=excluded.repository,
  ts_utc=excluded.ts_utc,
  file_count=excluded.file_count,
  function_count=excluded.function_count,
  module_count=excluded.module_count,
  call_edges=excluded.call_edges,
  import_edges=excluded.import_edges,
  call_cycles=excluded.call_cycles,
  import_cycles=excluded.import_cycles,
  high_severity_cycles=excluded.high_severity_cycles,
  parse_error_count=excluded.parse_error_count,
  max_instability=excluded.max_instability,
  avg_complexity=excluded.avg_complexity
`
	err := s.withRetry("save snapshot", func() error {
		_, err := s.db.ExecContext(ctx, query,
			snapshot.RunID,
			snapshot.SchemaVersion,
			snapshot.Repository,
			snapshot.Timestamp.UTC().Format(time.RFC3339Nano),
			snapshot.FileCount,
			snapshot.FunctionCount,
			snapshot.ModuleCount,
			snapshot.CallEdges,
			snapshot.ImportEdges,
			snapshot.CallCycles,
			snapshot.ImportCycles,
			snapshot.HighSeverityCycles,
			snapshot.ParseErrorCount,
			snapshot.MaxInstability,
			snapshot.AvgComplexity,
		)
		return err
	})
	return snapshot, err
}

// List returns the latest snapshots of a repository in chronological order.
// A non-positive limit returns all of them.
func (s *Store) List(ctx context.Context, repository string, limit int) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT
  run_id, schema_version, repository, ts_utc, file_count, function_count, module_count,
  call_edges, import_edges, call_cycles, import_cycles, high_severity_cycles,
  parse_error_count, max_instability, avg_complexity
FROM runs
WHERE repository = ?
ORDER BY ts_utc DESC, run_id DESC`
	args := []any{strings.TrimSpace(repository)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("list snapshots", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		var (
			tsRaw    string
			snapshot Snapshot
		)
		if err := rows.Scan(
			&snapshot.RunID,
			&snapshot.SchemaVersion,
			&snapshot.Repository,
			&tsRaw,
			&snapshot.FileCount,
			&snapshot.FunctionCount,
			&snapshot.ModuleCount,
			&snapshot.CallEdges,
			&snapshot.ImportEdges,
			&snapshot.CallCycles,
			&snapshot.ImportCycles,
			&snapshot.HighSeverityCycles,
			&snapshot.ParseErrorCount,
			&snapshot.MaxInstability,
			&snapshot.AvgComplexity,
		); err != nil {
			return nil, errors.Wrap(err, errors.CodeIO, "scan snapshot row")
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeParse, fmt.Sprintf("parse snapshot timestamp %q", tsRaw))
		}
		snapshot.Timestamp = ts.UTC()
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "iterate snapshot rows")
	}

	for i, j := 0, len(snapshots)-1; i < j; i, j = i+1, j-1 {
		snapshots[i], snapshots[j] = snapshots[j], snapshots[i]
	}
	return snapshots, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return errors.AddContext(errors.Wrap(lastErr, errors.CodeIO, op), errors.CtxPath, s.path)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || stderrors.Is(err, os.ErrInvalid)
}
