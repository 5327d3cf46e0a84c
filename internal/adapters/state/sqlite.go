package state

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
	_ "modernc.org/sqlite"
)

//go:embed migrations/001_ledger.sql
var migrationV1 string

// SQLiteLedgerStore keeps one row per task; seq preserves ledger order.
type SQLiteLedgerStore struct {
	dbPath string
	db     *sql.DB
	mu     sync.RWMutex
}

// NewSQLiteLedgerStore opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteLedgerStore(dbPath string) (*SQLiteLedgerStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &SQLiteLedgerStore{dbPath: dbPath, db: db}

	if err := s.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Path returns the database path.
func (s *SQLiteLedgerStore) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteLedgerStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteLedgerStore) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		// table doesn't exist yet
		version = 0
	}
	if version < 1 {
		if _, err := s.db.Exec(migrationV1); err != nil {
			return fmt.Errorf("applying migration v1: %w", err)
		}
	}
	return nil
}

// Save replaces the stored ledger in one transaction.
func (s *SQLiteLedgerStore) Save(ctx context.Context, tasks []*core.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clearing tasks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tasks (
			seq, id, type, description, files, status, steps,
			result, error, created_at, completed_at, failed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range tasks {
		if err := insertTask(ctx, stmt, i, t); err != nil {
			return fmt.Errorf("inserting task %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing ledger: %w", err)
	}
	return nil
}

func insertTask(ctx context.Context, stmt *sql.Stmt, seq int, t *core.Task) error {
	filesJSON, err := json.Marshal(nonNil(t.Files))
	if err != nil {
		return fmt.Errorf("marshaling files: %w", err)
	}
	steps := t.Steps
	if steps == nil {
		steps = []core.Checkpoint{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("marshaling steps: %w", err)
	}
	var resultJSON sql.NullString
	if t.Result != nil {
		data, err := json.Marshal(t.Result)
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
		resultJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err = stmt.ExecContext(ctx,
		seq, string(t.ID), string(t.Type), t.Description,
		string(filesJSON), string(t.Status), string(stepsJSON),
		resultJSON, nullableString(t.Error),
		formatTime(t.CreatedAt), nullableTime(t.CompletedAt), nullableTime(t.FailedAt),
	)
	return err
}

// Load returns the stored tasks ordered by seq.
func (s *SQLiteLedgerStore) Load(ctx context.Context) ([]*core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, description, files, status, steps,
		       result, error, created_at, completed_at, failed_at
		FROM tasks ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*core.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

// Count returns the number of stored tasks.
func (s *SQLiteLedgerStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return n, nil
}

func scanTask(rows *sql.Rows) (*core.Task, error) {
	var (
		id, typ, desc, filesJSON, status, stepsJSON, createdAt string
		resultJSON, errMsg, completedAt, failedAt              sql.NullString
	)
	if err := rows.Scan(&id, &typ, &desc, &filesJSON, &status, &stepsJSON,
		&resultJSON, &errMsg, &createdAt, &completedAt, &failedAt); err != nil {
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	t := &core.Task{
		ID:          core.TaskID(id),
		Type:        core.TaskType(typ),
		Description: desc,
		Status:      core.TaskStatus(status),
		Files:       []string{},
		Steps:       []core.Checkpoint{},
	}
	if err := json.Unmarshal([]byte(filesJSON), &t.Files); err != nil {
		return nil, corrupt(id, "files", err)
	}
	if err := json.Unmarshal([]byte(stepsJSON), &t.Steps); err != nil {
		return nil, corrupt(id, "steps", err)
	}
	if resultJSON.Valid {
		t.Result = &core.TaskResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), t.Result); err != nil {
			return nil, corrupt(id, "result", err)
		}
	}
	if errMsg.Valid {
		msg := errMsg.String
		t.Error = &msg
	}

	var err error
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, corrupt(id, "created_at", err)
	}
	if t.CompletedAt, err = parseNullableTime(completedAt); err != nil {
		return nil, corrupt(id, "completed_at", err)
	}
	if t.FailedAt, err = parseNullableTime(failedAt); err != nil {
		return nil, corrupt(id, "failed_at", err)
	}
	return t, nil
}

func corrupt(id, column string, err error) error {
	return core.ErrState("LEDGER_CORRUPTED", fmt.Sprintf("task %s: bad %s column", id, column)).WithCause(err)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var _ core.LedgerStore = (*SQLiteLedgerStore)(nil)
