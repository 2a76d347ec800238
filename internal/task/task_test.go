package task

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, min int) time.Time {
	return time.Date(2024, time.March, 10, hour, min, 0, 0, time.UTC)
}

func TestNew_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for range 500 {
		task := New("x")
		assert.False(t, seen[task.ID.String()])
		seen[task.ID.String()] = true
	}
}

func TestNew_InitialState(t *testing.T) {
	task := New("write report")

	assert.Equal(t, "write report", task.Description)
	assert.False(t, task.Dot)
	assert.Nil(t, task.CompletedAt)
	assert.Nil(t, task.RecurIntervalDays)
	assert.Nil(t, task.RecurNext)
	assert.Nil(t, task.SnoozeUntil)
}

func TestToggleDot(t *testing.T) {
	task := New("a")
	task.ToggleDot()
	assert.True(t, task.Dot)
	task.ToggleDot()
	assert.False(t, task.Dot)
	assert.Nil(t, task.CompletedAt)
}

func TestComplete_NonRecurring(t *testing.T) {
	task := New("a")
	task.ToggleDot()
	task.Complete(at(9, 0))

	assert.False(t, task.Dot)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(at(9, 0)))
	assert.True(t, task.IsComplete())

	task.Complete(at(10, 0))
	assert.True(t, task.CompletedAt.Equal(at(10, 0)))
}

func TestComplete_RecurringAnchorsAtFive(t *testing.T) {
	task := New("stretch")
	task.SetRecurDaily()

	task.Complete(at(4, 59))
	require.NotNil(t, task.RecurNext)
	assert.True(t, task.RecurNext.Equal(at(5, 0)))
	assert.Nil(t, task.CompletedAt)

	task = New("stretch")
	task.SetRecurDaily()
	task.Complete(at(5, 1))
	assert.True(t, task.RecurNext.Equal(at(5, 0).AddDate(0, 0, 1)))
}

func TestComplete_RecurringIsNotIdempotent(t *testing.T) {
	task := New("stretch")
	task.SetRecur(2)

	task.Complete(at(23, 0))
	first := *task.RecurNext
	task.Complete(first.Add(time.Minute))

	assert.True(t, first.Equal(at(5, 0).AddDate(0, 0, 2)))
	assert.True(t, task.RecurNext.After(first))
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		days int
		want time.Time
	}{
		{"before anchor", at(4, 59), 1, at(5, 0)},
		{"exactly anchor", at(5, 0), 1, at(5, 0).AddDate(0, 0, 1)},
		{"after anchor", at(5, 1), 1, at(5, 0).AddDate(0, 0, 1)},
		{"late night", at(23, 0), 1, at(5, 0).AddDate(0, 0, 1)},
		{"three days", at(6, 0), 3, at(5, 0).AddDate(0, 0, 3)},
		{"zero treated as one", at(6, 0), 0, at(5, 0).AddDate(0, 0, 1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NextOccurrence(tc.now, tc.days)
			assert.True(t, got.Equal(tc.want), "got %s want %s", got, tc.want)
		})
	}
}

func TestDayStart(t *testing.T) {
	assert.True(t, DayStart(at(4, 0)).Equal(at(5, 0).AddDate(0, 0, -1)))
	assert.True(t, DayStart(at(5, 0)).Equal(at(5, 0)))
	assert.True(t, DayStart(at(22, 0)).Equal(at(5, 0)))
}

func TestSnooze(t *testing.T) {
	task := New("call bank")
	task.ToggleDot()
	task.SnoozeTomorrow(at(12, 0))

	assert.False(t, task.Dot)
	assert.True(t, task.IsSnoozed(at(12, 0)))
	assert.True(t, task.NotCurrent(at(12, 0)))
	assert.False(t, task.SnoozeExpiring(at(12, 0)))

	next := at(5, 0).AddDate(0, 0, 1)
	assert.True(t, task.SnoozeExpiring(next))
	assert.False(t, task.NotCurrent(next))

	task.Unsnooze()
	assert.Nil(t, task.SnoozeUntil)
	assert.False(t, task.SnoozeExpiring(next))
}

func TestNotCurrent_RecurrenceCooldown(t *testing.T) {
	task := New("water plants")
	task.SetRecurDaily()
	assert.False(t, task.NotCurrent(at(8, 0)))

	task.Complete(at(8, 0))
	assert.True(t, task.NotCurrent(at(8, 0)))
	assert.False(t, task.RecurrenceDue(at(8, 0)))

	next := at(5, 0).AddDate(0, 0, 1)
	assert.False(t, task.NotCurrent(next))
	assert.True(t, task.RecurrenceDue(next))
}

func TestClearRecur(t *testing.T) {
	task := New("a")
	task.SetRecurDaily()
	task.Complete(at(8, 0))
	task.ClearRecur()

	assert.False(t, task.IsRecurring())
	assert.Nil(t, task.RecurNext)
	assert.False(t, task.NotCurrent(at(8, 0)))
}

func TestSetRecur_ClearsCompletion(t *testing.T) {
	task := New("a")
	task.Complete(at(8, 0))
	task.SetRecurDaily()

	assert.False(t, task.IsComplete())
	assert.True(t, task.IsRecurring())
}

func TestSnoozeAndRecurrenceStayExclusive(t *testing.T) {
	task := New("a")
	task.SetRecurDaily()
	task.Complete(at(8, 0))
	task.SnoozeTomorrow(at(9, 0))
	assert.Nil(t, task.RecurNext)
	assert.NotNil(t, task.SnoozeUntil)

	task.Complete(at(10, 0))
	assert.Nil(t, task.SnoozeUntil)
	assert.NotNil(t, task.RecurNext)
}

func TestNormalize(t *testing.T) {
	now := at(8, 0)
	days := 0
	task := Task{
		RecurIntervalDays: &days,
		RecurNext:         &now,
		SnoozeUntil:       &now,
		CompletedAt:       &now,
	}
	task.Normalize()

	require.NotNil(t, task.RecurIntervalDays)
	assert.Equal(t, 1, *task.RecurIntervalDays)
	assert.Nil(t, task.RecurNext)
	assert.Nil(t, task.CompletedAt)
	assert.NotNil(t, task.SnoozeUntil)

	orphan := Task{RecurNext: &now}
	orphan.Normalize()
	assert.Nil(t, orphan.RecurNext)
}

func TestClone_DoesNotAlias(t *testing.T) {
	task := New("a")
	task.SetRecurDaily()
	task.Complete(at(8, 0))

	c := task.Clone()
	*c.RecurIntervalDays = 7
	c.RecurNext = nil

	assert.Equal(t, 1, *task.RecurIntervalDays)
	assert.NotNil(t, task.RecurNext)
}

func TestMarkers(t *testing.T) {
	plain := New("plain")
	assert.Equal(t, "    plain", plain.String())

	dotted := New("dotted")
	dotted.ToggleDot()
	assert.Equal(t, " • ", dotted.Markers())

	done := New("done")
	done.Complete(at(8, 0))
	assert.Equal(t, "D  ", done.Markers())

	rec := New("rec")
	rec.SetRecurDaily()
	assert.Equal(t, "  R", rec.Markers())

	snoozed := New("snoozed")
	snoozed.SnoozeTomorrow(at(8, 0))
	assert.Equal(t, "  z", snoozed.Markers())
}

func TestDetail_ContainsID(t *testing.T) {
	task := New("inspect me")
	detail := task.Detail(at(8, 0))

	assert.Contains(t, detail, task.ID.String())
	assert.Contains(t, detail, "inspect me")
	assert.Contains(t, detail, "Current     : true")
}

func TestJSONFieldNames(t *testing.T) {
	task := New("a")
	task.SetRecurDaily()
	task.Complete(at(8, 0))
	task.ToggleDot()

	data, err := json.Marshal(task)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"id", "description", "dot", "recur_interval_days", "recur_next"} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "completed_at")
	assert.NotContains(t, raw, "snooze_until")
}
