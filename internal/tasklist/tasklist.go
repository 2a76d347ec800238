package tasklist

import (
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"dotlist/internal/logging"
	"dotlist/internal/task"
)

type Persister interface {
	Load() ([]task.Task, error)
	Save(tasks []task.Task) error
}

// Filter selects which tasks appear in the view. It is view state and is
// never persisted.
type Filter struct {
	ShowCompleted bool
	HideFuture    bool
	DottedOnly    bool
}

func DefaultFilter() Filter {
	return Filter{HideFuture: true}
}

func (f Filter) Match(t task.Task, now time.Time) bool {
	if !f.ShowCompleted && t.IsComplete() {
		return false
	}
	if f.HideFuture && t.NotCurrent(now) {
		return false
	}
	if f.DottedOnly && !t.Dot {
		return false
	}
	return true
}

type ReconcileOptions struct {
	Snoozed   bool
	Recurring bool
}

type Store struct {
	persister Persister
	tasks     []task.Task
	filter    Filter
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithFilter(f Filter) Option {
	return func(s *Store) {
		s.filter = f
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns an empty store. Used directly when loading has failed.
func New(p Persister, opts ...Option) *Store {
	s := &Store{
		persister: p,
		filter:    DefaultFilter(),
		now:       time.Now,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted list and reconciles snoozes and recurrences
// that came due while the program was not running. A failed save during
// that reconciliation is returned as a *WriteError alongside a usable store.
func Load(p Persister, opts ...Option) (*Store, error) {
	tasks, err := p.Load()
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	s := New(p, opts...)
	s.tasks = dedupe(tasks)
	s.logger.Info("task list loaded", "count", len(s.tasks))
	if err := s.Reconcile(ReconcileOptions{Snoozed: true, Recurring: true}); err != nil {
		return s, err
	}
	return s, nil
}

func dedupe(tasks []task.Task) []task.Task {
	seen := make(map[uuid.UUID]struct{}, len(tasks))
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) Len() int {
	return len(s.tasks)
}

// Tasks returns a copy of the full list in persisted order.
func (s *Store) Tasks() []task.Task {
	out := make([]task.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Add appends t. Ids stay unique: a task whose id is already listed is
// rejected and nothing is saved.
func (s *Store) Add(t task.Task) error {
	if s.index(t.ID) >= 0 {
		return ErrDuplicateID
	}
	s.tasks = append(s.tasks, t)
	return s.save()
}

func (s *Store) Get(id uuid.UUID) (task.Task, bool) {
	i := s.index(id)
	if i < 0 {
		return task.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

func (s *Store) Replace(id uuid.UUID, t task.Task) error {
	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	t.ID = id
	s.tasks[i] = t
	return s.save()
}

// ReplaceAtBottom swaps in t and moves it to the end of the list.
func (s *Store) ReplaceAtBottom(id uuid.UUID, t task.Task) error {
	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	t.ID = id
	s.tasks = append(slices.Delete(s.tasks, i, i+1), t)
	return s.save()
}

func (s *Store) Remove(id uuid.UUID) error {
	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	return s.save()
}

func (s *Store) Filter() Filter {
	return s.filter
}

func (s *Store) SetFilter(f Filter) {
	s.filter = f
}

func (s *Store) ToggleShowCompleted() {
	s.filter.ShowCompleted = !s.filter.ShowCompleted
}

func (s *Store) ToggleHideFuture() {
	s.filter.HideFuture = !s.filter.HideFuture
}

func (s *Store) ToggleDottedOnly() {
	s.filter.DottedOnly = !s.filter.DottedOnly
}

func (s *Store) FilteredTasks() View {
	now := s.now()
	v := View{tasks: s.tasks}
	for i, t := range s.tasks {
		if s.filter.Match(t, now) {
			v.indices = append(v.indices, i)
		}
	}
	return v
}

// PreRender must run before every render so snoozes that expire
// mid-session resurface without a restart.
func (s *Store) PreRender() error {
	return s.Reconcile(ReconcileOptions{Snoozed: true})
}

// Reconcile demotes every task whose snooze expired or whose recurrence
// came due: its dot and snooze are cleared and it moves to the bottom,
// keeping the relative order of everything else. Only due recurrences
// count: a recurring task still in cooldown is hidden by NotCurrent and
// keeps its place until it comes due.
func (s *Store) Reconcile(opts ReconcileOptions) error {
	now := s.now()
	var kept, demoted []task.Task
	for _, t := range s.tasks {
		snoozed := opts.Snoozed && t.SnoozeExpiring(now)
		due := opts.Recurring && t.RecurrenceDue(now)
		if !snoozed && !due {
			kept = append(kept, t)
			continue
		}
		t.Dot = false
		t.SnoozeUntil = nil
		if due {
			t.RecurNext = nil
		}
		demoted = append(demoted, t)
	}
	if len(demoted) == 0 {
		return nil
	}
	s.tasks = append(kept, demoted...)
	s.logger.Info("reconciled tasks", "demoted", len(demoted), "snoozed", opts.Snoozed, "recurring", opts.Recurring)
	return s.save()
}

func (s *Store) LastDotted() (task.Task, bool) {
	v := s.FilteredTasks()
	i, ok := v.LastIndex(func(t task.Task) bool { return t.Dot })
	if !ok {
		return task.Task{}, false
	}
	return v.At(i)
}

// DoneToday lists tasks completed since the most recent 05:00.
func (s *Store) DoneToday() []task.Task {
	now := s.now()
	start := task.DayStart(now)
	var out []task.Task
	for _, t := range s.tasks {
		if t.CompletedAt != nil && !t.CompletedAt.Before(start) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) index(id uuid.UUID) int {
	return slices.IndexFunc(s.tasks, func(t task.Task) bool { return t.ID == id })
}

func (s *Store) save() error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(s.tasks); err != nil {
		s.logger.Error("save failed", "err", err)
		return &WriteError{Err: err}
	}
	return nil
}
