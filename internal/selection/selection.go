// Package selection keeps a cursor over the filtered task view. The
// selected task is tracked by id; the numeric position is re-derived
// against the live view whenever the list or the filter changes.
package selection

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"dotlist/internal/task"
	"dotlist/internal/tasklist"
)

// Store is the part of tasklist.Store the controller drives.
type Store interface {
	FilteredTasks() tasklist.View
	Get(id uuid.UUID) (task.Task, bool)
	Replace(id uuid.UUID, t task.Task) error
	ReplaceAtBottom(id uuid.UUID, t task.Task) error
	Remove(id uuid.UUID) error
	Add(t task.Task) error
	Now() time.Time
}

type Controller struct {
	id    uuid.UUID
	index int
}

func New() Controller {
	return Controller{index: -1}
}

// Selected returns the selected task id, if any.
func (c *Controller) Selected() (uuid.UUID, bool) {
	return c.id, c.id != uuid.Nil
}

// Index is the cursor position in the last view the controller saw.
func (c *Controller) Index() (int, bool) {
	return c.index, c.index >= 0
}

// Select points the cursor at index in the current view. An index outside
// the view leaves nothing selected.
func (c *Controller) Select(s Store, index int) {
	v := s.FilteredTasks()
	t, ok := v.At(index)
	if !ok {
		c.id = uuid.Nil
		c.index = -1
		return
	}
	c.id = t.ID
	c.index = index
}

// FixSelection follows the selected task to its new position. If it left
// the view, the old position is clamped to the view and whatever task sits
// there becomes selected.
func (c *Controller) FixSelection(s Store) {
	v := s.FilteredTasks()
	if v.Len() == 0 {
		c.id = uuid.Nil
		c.index = -1
		return
	}
	if c.id != uuid.Nil {
		if i, ok := v.IndexOf(c.id); ok {
			c.Select(s, i)
			return
		}
	}
	index := c.index
	if index < 0 || index >= v.Len() {
		index = v.Len() - 1
	}
	c.Select(s, index)
}

// Sync reconciles the cursor with the view before a render. With nothing
// selected yet it picks the last dotted task, or the first task.
func (c *Controller) Sync(s Store) {
	v := s.FilteredTasks()
	if v.Len() == 0 {
		c.id = uuid.Nil
		c.index = -1
		return
	}
	if c.index < 0 {
		if i, ok := v.LastIndex(func(t task.Task) bool { return t.Dot }); ok {
			c.Select(s, i)
			return
		}
		c.Select(s, 0)
		return
	}
	if t, ok := v.At(c.index); ok && t.ID == c.id {
		return
	}
	c.FixSelection(s)
}

func (c *Controller) MoveUp(s Store, n int) {
	if c.index < 0 {
		return
	}
	c.Select(s, clamp(c.index-n, s.FilteredTasks().Len()))
}

func (c *Controller) MoveDown(s Store, n int) {
	if c.index < 0 {
		return
	}
	c.Select(s, clamp(c.index+n, s.FilteredTasks().Len()))
}

func (c *Controller) MoveStart(s Store) {
	c.Select(s, 0)
}

func (c *Controller) MoveEnd(s Store) {
	c.Select(s, s.FilteredTasks().Len()-1)
}

// Add appends a new task and selects it when it is visible.
func (c *Controller) Add(s Store, description string) error {
	t := task.New(description)
	err := s.Add(t)
	if i, ok := s.FilteredTasks().IndexOf(t.ID); ok {
		c.Select(s, i)
	} else {
		c.FixSelection(s)
	}
	return err
}

func (c *Controller) ToggleDot(s Store) error {
	return c.mutate(s, func(t *task.Task, _ time.Time) bool {
		t.ToggleDot()
		return !t.Dot
	})
}

func (c *Controller) Complete(s Store) error {
	return c.mutate(s, func(t *task.Task, now time.Time) bool {
		t.Complete(now)
		return true
	})
}

// ToggleRecurDaily makes the selected task recur daily, or stops it
// recurring if it already does.
func (c *Controller) ToggleRecurDaily(s Store) error {
	return c.mutate(s, func(t *task.Task, _ time.Time) bool {
		if t.IsRecurring() {
			t.ClearRecur()
		} else {
			t.SetRecurDaily()
		}
		return false
	})
}

func (c *Controller) SnoozeTomorrow(s Store) error {
	return c.mutate(s, func(t *task.Task, now time.Time) bool {
		t.SnoozeTomorrow(now)
		return true
	})
}

func (c *Controller) Unsnooze(s Store) error {
	return c.mutate(s, func(t *task.Task, _ time.Time) bool {
		t.Unsnooze()
		return false
	})
}

func (c *Controller) UpdateDescription(s Store, description string) error {
	return c.mutate(s, func(t *task.Task, _ time.Time) bool {
		t.UpdateDescription(description)
		return false
	})
}

func (c *Controller) Delete(s Store) error {
	id, ok := c.Selected()
	if !ok {
		return nil
	}
	err := s.Remove(id)
	if errors.Is(err, tasklist.ErrNotFound) {
		return nil
	}
	c.FixSelection(s)
	return err
}

// mutate applies fn to a copy of the selected task and submits it back.
// When fn reports true the task is demoted to the bottom of the list.
func (c *Controller) mutate(s Store, fn func(t *task.Task, now time.Time) bool) error {
	id, ok := c.Selected()
	if !ok {
		return nil
	}
	t, ok := s.Get(id)
	if !ok {
		return nil
	}
	var err error
	if fn(&t, s.Now()) {
		err = s.ReplaceAtBottom(id, t)
	} else {
		err = s.Replace(id, t)
	}
	if errors.Is(err, tasklist.ErrNotFound) {
		return nil
	}
	c.FixSelection(s)
	return err
}

func clamp(i, n int) int {
	if n <= 0 {
		return -1
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
