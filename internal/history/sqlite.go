package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens the run history database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// An in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		document TEXT NOT NULL,
		saved TEXT NOT NULL,
		running TEXT NOT NULL,
		classification TEXT NOT NULL,
		steps TEXT,
		fixups INTEGER NOT NULL DEFAULT 0,
		assets INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		error TEXT,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_document ON runs(document);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends a run.
func (s *SQLiteStore) Record(ctx context.Context, run Run) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stepsJSON []byte
	if len(run.Steps) > 0 {
		var err error
		stepsJSON, err = json.Marshal(run.Steps)
		if err != nil {
			return 0, fmt.Errorf("marshal steps: %w", err)
		}
	}
	if run.Time.IsZero() {
		run.Time = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, document, saved, running, classification, steps, fixups, assets, outcome, error, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Document, run.Saved, run.Running, run.Classification, string(stepsJSON),
		run.Fixups, run.Assets, run.Outcome, run.Error, run.Time.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read run id: %w", err)
	}
	return id, nil
}

// List returns runs newest first.
func (s *SQLiteStore) List(ctx context.Context, document string, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		q    strings.Builder
		args []any
	)
	q.WriteString("SELECT id, run_id, document, saved, running, classification, steps, fixups, assets, outcome, error, timestamp FROM runs")
	if document != "" {
		q.WriteString(" WHERE document = ?")
		args = append(args, document)
	}
	q.WriteString(" ORDER BY id DESC")
	if limit > 0 {
		q.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var (
			r         Run
			stepsJSON sql.NullString
			errText   sql.NullString
			ts        int64
		)
		err := rows.Scan(&r.ID, &r.RunID, &r.Document, &r.Saved, &r.Running, &r.Classification,
			&stepsJSON, &r.Fixups, &r.Assets, &r.Outcome, &errText, &ts)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Time = time.Unix(0, ts).UTC()
		r.Error = errText.String
		if stepsJSON.String != "" {
			if err := json.Unmarshal([]byte(stepsJSON.String), &r.Steps); err != nil {
				return nil, fmt.Errorf("unmarshal steps: %w", err)
			}
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
