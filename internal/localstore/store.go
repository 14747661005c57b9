// Package localstore is the device-resident persistence layer: the full
// task collection plus the settings map, available with or without a
// network. While in guest mode it owns the data outright; once a login
// has happened it serves as a mirror of the remote set.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dayplan/internal/db"
	"dayplan/internal/domain"
)

// ErrDuplicateID is returned by AddTask when the id already exists.
// The collection enforces unique identifiers; an insert never overwrites.
var ErrDuplicateID = errors.New("task id already exists")

// SnapshotVersion tags exported snapshots.
const SnapshotVersion = 1

// Store is the contract shared by the sqlite store and the in-memory
// fallback used when persistent storage is unavailable.
type Store interface {
	AllTasks(ctx context.Context) ([]domain.Task, error)
	AddTask(ctx context.Context, t domain.Task) error
	AddTasks(ctx context.Context, tasks []domain.Task) error
	UpdateTask(ctx context.Context, t domain.Task) error
	UpdateTasks(ctx context.Context, tasks []domain.Task) error
	DeleteTask(ctx context.Context, id string) error
	DeleteTasks(ctx context.Context, ids []string) error
	SaveAllTasks(ctx context.Context, tasks []domain.Task) error
	ExportAll(ctx context.Context) (domain.Snapshot, error)
	ImportAll(ctx context.Context, snap domain.Snapshot) error
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
	Close() error
}

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	details TEXT,
	start_date TEXT,
	due_date TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	archived INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_tasks_timeframe ON tasks(timeframe);
CREATE INDEX IF NOT EXISTS idx_tasks_archived ON tasks(archived);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);
CREATE TABLE IF NOT EXISTS settings (
	name TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLite is the durable Store backed by a workspace-local database.
type SQLite struct {
	DB  *sql.DB
	Now func() time.Time
}

// Open opens (and if needed initializes) the local database. A failure
// here is the availability probe: callers degrade to NewMemory for the
// session instead of crashing.
func Open(workspace string) (*SQLite, error) {
	conn, err := db.Open(db.Config{Workspace: workspace, Name: "local.db"})
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("local store unavailable: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init local schema: %w", err)
	}
	return &SQLite{DB: conn, Now: time.Now}, nil
}

func (s *SQLite) Close() error { return s.DB.Close() }

func (s *SQLite) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// withTx runs fn inside a transaction so batch operations are
// all-or-nothing and never partially visible to a concurrent reader.
func (s *SQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

const taskColumns = `id,text,details,start_date,due_date,timeframe,archived,created_at,updated_at`

func scanTask(scan func(dest ...any) error) (domain.Task, error) {
	var t domain.Task
	var details, startDate, updatedAt sql.NullString
	err := scan(&t.ID, &t.Text, &details, &startDate, &t.DueDate, &t.Timeframe, &t.Archived, &t.CreatedAt, &updatedAt)
	if err != nil {
		return t, err
	}
	if details.Valid {
		t.Details = details.String
	}
	if startDate.Valid {
		t.StartDate = startDate.String
	}
	if updatedAt.Valid {
		t.UpdatedAt = updatedAt.String
	}
	return t, nil
}

// AllTasks returns every task in insertion order. Callers must not rely
// on any other ordering.
func (s *SQLite) AllTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func insertTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Text, nullable(t.Details), nullable(t.StartDate), t.DueDate, string(t.Timeframe), t.Archived, t.CreatedAt, nullable(t.UpdatedAt))
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint") {
		return fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
	}
	return err
}

func (s *SQLite) AddTask(ctx context.Context, t domain.Task) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertTask(ctx, tx, t)
	})
}

func (s *SQLite) AddTasks(ctx context.Context, tasks []domain.Task) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tasks {
			if err := insertTask(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES (?,?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET text=excluded.text, details=excluded.details, start_date=excluded.start_date,
due_date=excluded.due_date, timeframe=excluded.timeframe, archived=excluded.archived, updated_at=excluded.updated_at`,
		t.ID, t.Text, nullable(t.Details), nullable(t.StartDate), t.DueDate, string(t.Timeframe), t.Archived, t.CreatedAt, nullable(t.UpdatedAt))
	return err
}

// UpdateTask upserts by id; updating a non-existent id inserts it.
func (s *SQLite) UpdateTask(ctx context.Context, t domain.Task) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return upsertTask(ctx, tx, t)
	})
}

func (s *SQLite) UpdateTasks(ctx context.Context, tasks []domain.Task) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tasks {
			if err := upsertTask(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteTask is idempotent; a missing id is not an error.
func (s *SQLite) DeleteTask(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	return err
}

func (s *SQLite) DeleteTasks(ctx context.Context, ids []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveAllTasks replaces the entire collection with the given set. Clear
// and insert share one transaction so a crash cannot leave the store
// emptied without its replacement.
func (s *SQLite) SaveAllTasks(ctx context.Context, tasks []domain.Task) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
			return err
		}
		for _, t := range tasks {
			if err := insertTask(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLite) ExportAll(ctx context.Context) (domain.Snapshot, error) {
	snap := domain.Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.now().UTC().Format(time.RFC3339),
		Settings:   map[string]string{},
	}
	tasks, err := s.AllTasks(ctx)
	if err != nil {
		return snap, err
	}
	snap.Tasks = tasks
	rows, err := s.DB.QueryContext(ctx, `SELECT name,value FROM settings`)
	if err != nil {
		return snap, err
	}
	defer rows.Close()
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return snap, err
		}
		snap.Settings[name] = value
	}
	return snap, rows.Err()
}

// ImportAll replaces tasks and settings with the snapshot contents.
func (s *SQLite) ImportAll(ctx context.Context, snap domain.Snapshot) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM settings`); err != nil {
			return err
		}
		for _, t := range snap.Tasks {
			if err := insertTask(ctx, tx, t); err != nil {
				return err
			}
		}
		for name, value := range snap.Settings {
			if _, err := tx.ExecContext(ctx, `INSERT INTO settings(name,value) VALUES (?,?)`, name, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLite) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM settings WHERE name=?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLite) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO settings(name,value) VALUES (?,?)
ON CONFLICT(name) DO UPDATE SET value=excluded.value`, key, value)
	return err
}

func (s *SQLite) DeleteSetting(ctx context.Context, key string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM settings WHERE name=?`, key)
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
