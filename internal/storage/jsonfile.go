package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"dotlist/internal/task"
)

const (
	TaskFileName   = "tasks.json"
	BackupSuffix   = ".bak"
	filePermission = 0o644
)

// JSONFile keeps the task list as one JSON array. Every save moves the
// previous generation aside to a sibling backup file first.
type JSONFile struct {
	path   string
	logger *slog.Logger
}

func NewJSONFile(dataDir string, logger *slog.Logger) (*JSONFile, error) {
	if dataDir == "" {
		return nil, errors.New("data dir is empty")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &JSONFile{
		path:   filepath.Join(dataDir, TaskFileName),
		logger: logger,
	}, nil
}

func (f *JSONFile) Path() string {
	return f.path
}

func (f *JSONFile) BackupPath() string {
	return f.path + BackupSuffix
}

func (f *JSONFile) Load() ([]task.Task, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	for i := range tasks {
		tasks[i].Normalize()
	}
	f.logger.Debug("loaded tasks", "path", f.path, "count", len(tasks))
	return tasks, nil
}

func (f *JSONFile) Save(tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	if err := os.Rename(f.path, f.BackupPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		f.logger.Warn("backup rename failed", "path", f.path, "err", err)
	}
	if err := os.WriteFile(f.path, data, filePermission); err != nil {
		return err
	}
	f.logger.Debug("saved tasks", "path", f.path, "count", len(tasks))
	return nil
}

func (f *JSONFile) Close() error {
	return nil
}
