package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"dotlist/internal/task"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"

	DBFileName = "tasks.db"
)

// Backend persists the whole ordered task sequence.
type Backend interface {
	Load() ([]task.Task, error)
	Save(tasks []task.Task) error
	Close() error
}

func Open(backend, dataDir string, logger *slog.Logger) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendJSON:
		return NewJSONFile(dataDir, logger)
	case BackendSQLite:
		if dataDir == "" {
			return nil, errors.New("data dir is empty")
		}
		return OpenSQLite(filepath.Join(dataDir, DBFileName), logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// SQLite stores tasks as rows ordered by a position column. The previous
// generation is kept in tasks_backup.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

func OpenSQLite(dbPath string, logger *slog.Logger) (*SQLite, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, logger: logger}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	description TEXT NOT NULL,
	dot INTEGER NOT NULL DEFAULT 0,
	completed_at TEXT DEFAULT NULL
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureTaskColumns()
}

func (s *SQLite) ensureTaskColumns() error {
	required := map[string]string{
		"recur_interval_days": "ALTER TABLE tasks ADD COLUMN recur_interval_days INTEGER DEFAULT NULL;",
		"recur_next":          "ALTER TABLE tasks ADD COLUMN recur_next TEXT DEFAULT NULL;",
		"snooze_until":        "ALTER TABLE tasks ADD COLUMN snooze_until TEXT DEFAULT NULL;",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(tasks);`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			rows.Close()
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Load() ([]task.Task, error) {
	tasks, err := s.loadTable("tasks")
	if err != nil {
		return nil, err
	}
	s.logger.Debug("loaded tasks", "backend", BackendSQLite, "count", len(tasks))
	return tasks, nil
}

// loadTable reads every task row of table in list order. table is one of
// the two fixed table names, never user input.
func (s *SQLite) loadTable(table string) ([]task.Task, error) {
	rows, err := s.db.Query(`SELECT id, description, dot, completed_at, recur_interval_days, recur_next, snooze_until FROM ` + table + ` ORDER BY position;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func scanTask(rows *sql.Rows) (task.Task, error) {
	var t task.Task
	var idStr string
	var dotInt int
	var completedStr, nextStr, snoozeStr sql.NullString
	var interval sql.NullInt64

	if err := rows.Scan(&idStr, &t.Description, &dotInt, &completedStr, &interval, &nextStr, &snoozeStr); err != nil {
		return t, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return t, fmt.Errorf("task id %q: %w", idStr, err)
	}
	t.ID = id
	t.Dot = dotInt == 1
	if interval.Valid {
		days := int(interval.Int64)
		t.RecurIntervalDays = &days
	}
	if t.CompletedAt, err = parseNullTime(completedStr); err != nil {
		return t, err
	}
	if t.RecurNext, err = parseNullTime(nextStr); err != nil {
		return t, err
	}
	if t.SnoozeUntil, err = parseNullTime(snoozeStr); err != nil {
		return t, err
	}
	t.Normalize()
	return t, nil
}

func (s *SQLite) Save(tasks []task.Task) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DROP TABLE IF EXISTS tasks_backup;`); err != nil {
		return err
	}
	if _, err := tx.Exec(`CREATE TABLE tasks_backup AS SELECT * FROM tasks;`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM tasks;`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO tasks (id, position, description, dot, completed_at, recur_interval_days, recur_next, snooze_until) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, t := range tasks {
		dot := 0
		if t.Dot {
			dot = 1
		}
		interval := sql.NullInt64{}
		if t.RecurIntervalDays != nil {
			interval = sql.NullInt64{Int64: int64(*t.RecurIntervalDays), Valid: true}
		}
		if _, err := stmt.Exec(t.ID.String(), i, t.Description, dot,
			formatNullTime(t.CompletedAt), interval, formatNullTime(t.RecurNext), formatNullTime(t.SnoozeUntil)); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Debug("saved tasks", "backend", BackendSQLite, "count", len(tasks))
	return nil
}

// LoadBackup reads the generation that preceded the last save. It is
// empty until the second save.
func (s *SQLite) LoadBackup() ([]task.Task, error) {
	return s.loadTable("tasks_backup")
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func formatNullTime(v *time.Time) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: v.Format(time.RFC3339Nano), Valid: true}
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
