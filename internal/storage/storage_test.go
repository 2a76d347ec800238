package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dotlist/internal/task"
)

func fixture() []task.Task {
	now := time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)

	plain := task.New("plain")

	dotted := task.New("dotted")
	dotted.ToggleDot()

	done := task.New("done")
	done.Complete(now)

	recurring := task.New("recurring")
	recurring.SetRecurDaily()
	recurring.Complete(now)

	snoozed := task.New("snoozed ünïcode")
	snoozed.SnoozeTomorrow(now)

	return []task.Task{plain, dotted, done, recurring, snoozed}
}

func assertSameTasks(t *testing.T, want, got []task.Task) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Description, got[i].Description)
		assert.Equal(t, want[i].Dot, got[i].Dot)
		assert.Equal(t, want[i].RecurIntervalDays, got[i].RecurIntervalDays)
		assertSameTime(t, want[i].CompletedAt, got[i].CompletedAt)
		assertSameTime(t, want[i].RecurNext, got[i].RecurNext)
		assertSameTime(t, want[i].SnoozeUntil, got[i].SnoozeUntil)
	}
}

func assertSameTime(t *testing.T, want, got *time.Time) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.True(t, want.Equal(*got), "want %s got %s", want, got)
}

func TestJSONFile_RoundTrip(t *testing.T) {
	f, err := NewJSONFile(t.TempDir(), nil)
	require.NoError(t, err)

	want := fixture()
	require.NoError(t, f.Save(want))

	got, err := f.Load()
	require.NoError(t, err)
	assertSameTasks(t, want, got)
}

func TestJSONFile_LoadMissing(t *testing.T) {
	f, err := NewJSONFile(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = f.Load()
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestJSONFile_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, TaskFileName), []byte("{not json"), 0o644))
	f, err := NewJSONFile(dir, nil)
	require.NoError(t, err)

	_, err = f.Load()
	assert.Error(t, err)
}

func TestJSONFile_BackupRotation(t *testing.T) {
	f, err := NewJSONFile(t.TempDir(), nil)
	require.NoError(t, err)

	tasks := fixture()
	first := tasks[:2]
	second := tasks[:4]
	third := tasks

	require.NoError(t, f.Save(first))
	_, err = os.Stat(f.BackupPath())
	assert.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, f.Save(second))
	require.NoError(t, f.Save(third))

	data, err := os.ReadFile(f.BackupPath())
	require.NoError(t, err)
	var backup []task.Task
	require.NoError(t, json.Unmarshal(data, &backup))
	assertSameTasks(t, second, backup)

	current, err := f.Load()
	require.NoError(t, err)
	assertSameTasks(t, third, current)
}

func TestJSONFile_SaveCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dotlist")
	f, err := NewJSONFile(dir, nil)
	require.NoError(t, err)

	require.NoError(t, f.Save(nil))
	got, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJSONFile_SaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	f, err := NewJSONFile(filepath.Join(blocker, "sub"), nil)
	require.NoError(t, err)
	assert.Error(t, f.Save(fixture()))
}

func TestNewJSONFile_EmptyDir(t *testing.T) {
	_, err := NewJSONFile("", nil)
	assert.Error(t, err)
}

func TestSQLite_RoundTrip(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), DBFileName), nil)
	require.NoError(t, err)
	defer s.Close()

	want := fixture()
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assertSameTasks(t, want, got)
}

func TestSQLite_BackupRotation(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), DBFileName), nil)
	require.NoError(t, err)
	defer s.Close()

	tasks := fixture()
	require.NoError(t, s.Save(tasks[:1]))
	require.NoError(t, s.Save(tasks[:3]))
	require.NoError(t, s.Save(tasks))

	backup, err := s.LoadBackup()
	require.NoError(t, err)
	assertSameTasks(t, tasks[:3], backup)
}

func TestSQLite_ReopenKeepsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), DBFileName)
	s, err := OpenSQLite(path, nil)
	require.NoError(t, err)

	want := fixture()
	want[0], want[4] = want[4], want[0]
	require.NoError(t, s.Save(want))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path, nil)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load()
	require.NoError(t, err)
	assertSameTasks(t, want, got)
}

func TestOpen_SelectsBackend(t *testing.T) {
	dir := t.TempDir()

	b, err := Open("", dir, nil)
	require.NoError(t, err)
	assert.IsType(t, &JSONFile{}, b)

	b, err = Open("SQLite", dir, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, b)
	require.NoError(t, b.Close())

	_, err = Open("bolt", dir, nil)
	assert.Error(t, err)
}
