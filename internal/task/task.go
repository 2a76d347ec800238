package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AnchorHour is the hour of day at which recurring and snoozed tasks
// become current again.
const AnchorHour = 5

type Task struct {
	ID                uuid.UUID  `json:"id"`
	Description       string     `json:"description"`
	Dot               bool       `json:"dot"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	RecurIntervalDays *int       `json:"recur_interval_days,omitempty"`
	RecurNext         *time.Time `json:"recur_next,omitempty"`
	SnoozeUntil       *time.Time `json:"snooze_until,omitempty"`
}

func New(description string) Task {
	return Task{
		ID:          uuid.New(),
		Description: description,
	}
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	c := t
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.RecurNext = cloneTime(t.RecurNext)
	c.SnoozeUntil = cloneTime(t.SnoozeUntil)
	if t.RecurIntervalDays != nil {
		days := *t.RecurIntervalDays
		c.RecurIntervalDays = &days
	}
	return c
}

func (t *Task) UpdateDescription(description string) {
	t.Description = description
}

func (t *Task) ToggleDot() {
	t.Dot = !t.Dot
}

// Complete finishes the task. A recurring task is put into cooldown until
// its next occurrence instead of being marked completed.
func (t *Task) Complete(now time.Time) {
	t.Dot = false
	if t.IsRecurring() {
		next := NextOccurrence(now, *t.RecurIntervalDays)
		t.RecurNext = &next
		t.SnoozeUntil = nil
		return
	}
	completed := now
	t.CompletedAt = &completed
}

func (t Task) IsComplete() bool {
	return t.CompletedAt != nil
}

func (t Task) IsRecurring() bool {
	return t.RecurIntervalDays != nil
}

func (t *Task) SetRecurDaily() {
	t.SetRecur(1)
}

// SetRecur makes the task recur every days days. Values below one are
// treated as one.
func (t *Task) SetRecur(days int) {
	if days < 1 {
		days = 1
	}
	t.RecurIntervalDays = &days
	t.CompletedAt = nil
}

func (t *Task) ClearRecur() {
	t.RecurIntervalDays = nil
	t.RecurNext = nil
}

func (t *Task) SnoozeTomorrow(now time.Time) {
	until := NextOccurrence(now, 1)
	t.SnoozeUntil = &until
	t.RecurNext = nil
	t.Dot = false
}

func (t *Task) Unsnooze() {
	t.SnoozeUntil = nil
}

func (t Task) IsSnoozed(now time.Time) bool {
	return t.SnoozeUntil != nil && t.SnoozeUntil.After(now)
}

func (t Task) SnoozeExpiring(now time.Time) bool {
	return t.SnoozeUntil != nil && !t.SnoozeUntil.After(now)
}

// RecurrenceDue reports whether a recurring task has finished its cooldown.
func (t Task) RecurrenceDue(now time.Time) bool {
	return t.IsRecurring() && t.RecurNext != nil && !t.RecurNext.After(now)
}

func (t Task) NotCurrent(now time.Time) bool {
	if t.RecurNext != nil && t.RecurNext.After(now) {
		return true
	}
	return t.IsSnoozed(now)
}

// Normalize resolves field combinations no transition produces. A snooze
// wins over a pending recurrence and recurrence wins over completion.
func (t *Task) Normalize() {
	if t.RecurIntervalDays != nil && *t.RecurIntervalDays < 1 {
		days := 1
		t.RecurIntervalDays = &days
	}
	if t.RecurIntervalDays == nil {
		t.RecurNext = nil
	}
	if t.SnoozeUntil != nil && t.RecurNext != nil {
		t.RecurNext = nil
	}
	if t.RecurIntervalDays != nil && t.CompletedAt != nil {
		t.CompletedAt = nil
	}
}

// NextOccurrence returns the first 05:00 strictly after now, moved days-1
// further days out.
func NextOccurrence(now time.Time, days int) time.Time {
	if days < 1 {
		days = 1
	}
	anchor := time.Date(now.Year(), now.Month(), now.Day(), AnchorHour, 0, 0, 0, now.Location())
	if !anchor.After(now) {
		anchor = anchor.AddDate(0, 0, 1)
	}
	return anchor.AddDate(0, 0, days-1)
}

// DayStart returns the latest 05:00 at or before now.
func DayStart(now time.Time) time.Time {
	anchor := time.Date(now.Year(), now.Month(), now.Day(), AnchorHour, 0, 0, 0, now.Location())
	if anchor.After(now) {
		anchor = anchor.AddDate(0, 0, -1)
	}
	return anchor
}

// Markers is the fixed-width status prefix used in list rows.
func (t Task) Markers() string {
	done, dot, kind := ' ', ' ', ' '
	if t.IsComplete() {
		done = 'D'
	}
	if t.Dot {
		dot = '•'
	}
	switch {
	case t.IsRecurring():
		kind = 'R'
	case t.SnoozeUntil != nil:
		kind = 'z'
	}
	return string([]rune{done, dot, kind})
}

func (t Task) String() string {
	return t.Markers() + " " + t.Description
}

func (t Task) Detail(now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID          : %s\n", t.ID)
	fmt.Fprintf(&b, "Description : %s\n", t.Description)
	fmt.Fprintf(&b, "Dot         : %t\n", t.Dot)
	fmt.Fprintf(&b, "Completed   : %s\n", formatTime(t.CompletedAt))
	if t.RecurIntervalDays != nil {
		fmt.Fprintf(&b, "Recur every : %d day(s)\n", *t.RecurIntervalDays)
	} else {
		b.WriteString("Recur every : -\n")
	}
	fmt.Fprintf(&b, "Recur next  : %s\n", formatTime(t.RecurNext))
	fmt.Fprintf(&b, "Snoozed to  : %s\n", formatTime(t.SnoozeUntil))
	fmt.Fprintf(&b, "Current     : %t\n", !t.NotCurrent(now))
	return b.String()
}

func formatTime(v *time.Time) string {
	if v == nil {
		return "-"
	}
	return v.Local().Format("2006-01-02 15:04")
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
