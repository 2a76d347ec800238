package tasklist

import (
	"iter"

	"github.com/google/uuid"

	"dotlist/internal/task"
)

// View is a snapshot of the tasks that pass the current filter, in list
// order. It holds indices into the store, so it is only valid until the
// next mutation.
type View struct {
	tasks   []task.Task
	indices []int
}

func (v View) Len() int {
	return len(v.indices)
}

func (v View) At(i int) (task.Task, bool) {
	if i < 0 || i >= len(v.indices) {
		return task.Task{}, false
	}
	return v.tasks[v.indices[i]], true
}

func (v View) IndexOf(id uuid.UUID) (int, bool) {
	for i, idx := range v.indices {
		if v.tasks[idx].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (v View) All() iter.Seq2[int, task.Task] {
	return func(yield func(int, task.Task) bool) {
		for i, idx := range v.indices {
			if !yield(i, v.tasks[idx]) {
				return
			}
		}
	}
}

func (v View) Backward() iter.Seq2[int, task.Task] {
	return func(yield func(int, task.Task) bool) {
		for i := len(v.indices) - 1; i >= 0; i-- {
			if !yield(i, v.tasks[v.indices[i]]) {
				return
			}
		}
	}
}

// LastIndex returns the position of the last task matching pred.
func (v View) LastIndex(pred func(task.Task) bool) (int, bool) {
	for i, t := range v.Backward() {
		if pred(t) {
			return i, true
		}
	}
	return -1, false
}

func (v View) Tasks() []task.Task {
	out := make([]task.Task, 0, len(v.indices))
	for _, t := range v.All() {
		out = append(out, t)
	}
	return out
}
