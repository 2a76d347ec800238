package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"dotlist/internal/config"
	"dotlist/internal/logging"
	"dotlist/internal/selection"
	"dotlist/internal/task"
	"dotlist/internal/tasklist"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeModify
)

const (
	detailsPercent = 30
	helpPaneWidth  = 35
	// header, next, done, input, status, help, list border
	chromeLines = 8
)

type tickMsg time.Time

type Model struct {
	store       *tasklist.Store
	sel         selection.Controller
	cfg         config.Config
	keys        keyMap
	help        help.Model
	input       textinput.Model
	mode        mode
	editID      uuid.UUID
	status      string
	loadErr     *tasklist.LoadError
	writeFails  int
	confirmDel  bool
	showHelp    bool
	showDetails bool
	offset      int
	width       int
	height      int
	logger      *slog.Logger
}

// Options carries the startup state the host resolved before the UI ran.
type Options struct {
	LoadErr     *tasklist.LoadError
	WriteFailed bool
	Logger      *slog.Logger
}

func Run(store *tasklist.Store, cfg config.Config, opts Options) error {
	m := NewModel(store, cfg, opts)
	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func NewModel(store *tasklist.Store, cfg config.Config, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Task description"
	ti.CharLimit = 256
	ti.Width = 40
	ti.Prompt = "> "

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	m := Model{
		store:   store,
		sel:     selection.New(),
		cfg:     cfg,
		keys:    newKeyMap(cfg.Keys),
		help:    help.New(),
		input:   ti,
		mode:    modeList,
		loadErr: opts.LoadErr,
		logger:  logger,
	}
	if opts.WriteFailed {
		m.writeFails++
	}
	m.sel.Sync(store)
	return m
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.cfg.TickInterval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tickMsg:
		cmd = m.tick()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-10, 10)
	case tea.KeyMsg:
		if m.confirmDel {
			m = m.updateDeleteConfirm(msg.String())
		} else if m.mode != modeList {
			m, cmd = m.updateEditMode(msg)
		} else {
			m, cmd = m.updateListMode(msg)
		}
	}
	// Every Update is followed by a render.
	m.record(m.store.PreRender())
	m.sel.Sync(m.store)
	m.offset = m.scrollOffset()
	return m, cmd
}

func (m Model) updateListMode(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Down):
		m.sel.MoveDown(m.store, 1)
	case key.Matches(msg, k.Up):
		m.sel.MoveUp(m.store, 1)
	case key.Matches(msg, k.PageDown):
		m.sel.MoveDown(m.store, m.pageSize())
	case key.Matches(msg, k.PageUp):
		m.sel.MoveUp(m.store, m.pageSize())
	case key.Matches(msg, k.Start):
		m.sel.MoveStart(m.store)
	case key.Matches(msg, k.End):
		m.sel.MoveEnd(m.store)
	case key.Matches(msg, k.Dot):
		m.record(m.sel.ToggleDot(m.store))
	case key.Matches(msg, k.Complete):
		m.record(m.sel.Complete(m.store))
	case key.Matches(msg, k.Recur):
		m.record(m.sel.ToggleRecurDaily(m.store))
	case key.Matches(msg, k.Snooze):
		m.record(m.sel.SnoozeTomorrow(m.store))
	case key.Matches(msg, k.Unsnooze):
		m.record(m.sel.Unsnooze(m.store))
	case key.Matches(msg, k.Delete):
		t, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		m.confirmDel = true
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Description)
	case key.Matches(msg, k.Add):
		m.mode = modeAdd
		m.editID = uuid.Nil
		m.input.SetValue("")
		m.status = "Add mode: type a description and press Enter"
		return m, m.input.Focus()
	case key.Matches(msg, k.Modify):
		t, ok := m.selectedTask()
		if !ok {
			m.status = "No task to modify"
			return m, nil
		}
		m.mode = modeModify
		m.editID = t.ID
		m.input.SetValue(t.Description)
		m.input.CursorEnd()
		m.status = "Modify mode: edit the description and press Enter"
		return m, m.input.Focus()
	case key.Matches(msg, k.FutureFilter):
		m.store.ToggleHideFuture()
		m.sel.FixSelection(m.store)
	case key.Matches(msg, k.DottedFilter):
		m.store.ToggleDottedOnly()
		m.sel.FixSelection(m.store)
	case key.Matches(msg, k.ShowCompleted):
		m.store.ToggleShowCompleted()
		m.sel.FixSelection(m.store)
	case key.Matches(msg, k.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, k.Details):
		m.showDetails = !m.showDetails
	}
	return m, nil
}

func (m Model) updateEditMode(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m = m.leaveEdit()
		m.status = "Cancelled"
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		desc := strings.TrimSpace(m.input.Value())
		if desc == "" {
			m.status = "Description cannot be empty"
			return m, nil
		}
		var err error
		if m.mode == modeAdd {
			err = m.sel.Add(m.store, desc)
			m.status = "Added task"
		} else {
			err = m.modify(desc)
			m.status = "Updated task"
		}
		m.record(err)
		m = m.leaveEdit()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// modify rewrites the task the edit started on, even if a reconciliation
// moved the cursor off it meanwhile.
func (m *Model) modify(desc string) error {
	if id, ok := m.sel.Selected(); ok && id == m.editID {
		return m.sel.UpdateDescription(m.store, desc)
	}
	t, ok := m.store.Get(m.editID)
	if !ok {
		return nil
	}
	t.UpdateDescription(desc)
	err := m.store.Replace(m.editID, t)
	m.sel.FixSelection(m.store)
	return err
}

func (m Model) leaveEdit() Model {
	m.mode = modeList
	m.editID = uuid.Nil
	m.input.SetValue("")
	m.input.Blur()
	return m
}

func (m Model) updateDeleteConfirm(k string) Model {
	switch k {
	case "y", "Y":
		m.confirmDel = false
		if err := m.sel.Delete(m.store); err != nil {
			m.record(err)
			return m
		}
		m.status = "Deleted task"
	case "n", "N", "esc":
		m.confirmDel = false
		m.status = "Delete cancelled"
	}
	return m
}

// record counts persistence failures for the status banner. The in-memory
// change stands; nothing is retried.
func (m *Model) record(err error) {
	if err == nil {
		return
	}
	var werr *tasklist.WriteError
	if errors.As(err, &werr) {
		m.writeFails++
	}
	m.status = fmt.Sprintf("save failed: %v", err)
	m.logger.Error("command failed", "err", err, "write_fails", m.writeFails)
}

func (m Model) selectedTask() (task.Task, bool) {
	id, ok := m.sel.Selected()
	if !ok {
		return task.Task{}, false
	}
	return m.store.Get(id)
}

func (m Model) pageSize() int {
	if h := m.listHeight(); h > 0 {
		return max(h/2, 1)
	}
	return m.cfg.PageSize
}

// listHeight is the number of task rows that fit, or 0 when the terminal
// size is unknown.
func (m Model) listHeight() int {
	if m.height <= 0 {
		return 0
	}
	chrome := chromeLines
	if m.bannerLine() != "" {
		chrome++
	}
	return max(m.height-chrome, 1)
}

func (m Model) scrollOffset() int {
	h := m.listHeight()
	idx, ok := m.sel.Index()
	if h == 0 || !ok {
		return 0
	}
	offset := m.offset
	if idx < offset {
		offset = idx
	}
	if idx >= offset+h {
		offset = idx - h + 1
	}
	if n := m.store.FilteredTasks().Len(); offset > max(n-h, 0) {
		offset = max(n-h, 0)
	}
	return offset
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tasks"))
	b.WriteString(" ")
	b.WriteString(filterSummary(m.store.Filter()))
	b.WriteString("\n")

	b.WriteString(m.renderPanes())
	b.WriteString("\n")

	b.WriteString(nextStyle.Render(m.nextLine()))
	b.WriteString("\n")
	b.WriteString(doneStyle.Render(m.doneLine()))
	b.WriteString("\n")

	if m.mode != modeList {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(modeStyle.Render("NORMAL MODE"))
	}
	b.WriteString("\n")

	if banner := m.bannerLine(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	if m.mode != modeList {
		b.WriteString(m.help.ShortHelpView(m.keys.editHelp()))
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

// renderPanes lays out the list with the optional details and help panes.
// Widths are only fixed once the terminal size is known.
func (m Model) renderPanes() string {
	list, details, helpPane := paneStyle, paneStyle, paneStyle
	if m.width > 0 {
		listWidth := m.width
		if m.showDetails {
			w := max(m.width*detailsPercent/100, 20)
			details = details.Width(w)
			listWidth -= w + 2
		}
		if m.showHelp {
			helpPane = helpPane.Width(helpPaneWidth)
			listWidth -= helpPaneWidth + 2
		}
		list = list.Width(max(listWidth-2, 10))
	}
	parts := []string{list.Render(m.renderTaskList())}
	if m.showDetails {
		parts = append(parts, details.Render(m.detailText()))
	}
	if m.showHelp {
		parts = append(parts, helpPane.Render(helpText(m.keys)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderTaskList() string {
	v := m.store.FilteredTasks()
	if v.Len() == 0 {
		return fmt.Sprintf("No tasks. Press '%s' to add one.", m.cfg.Keys.Add)
	}
	cursor, ok := m.sel.Index()
	if !ok || m.mode != modeList {
		cursor = -1
	}
	return strings.Join(taskLines(v, cursor, m.offset, m.listHeight()), "\n")
}

// taskLines renders rows [offset, offset+height) of the view. A height of
// zero renders every row.
func taskLines(v tasklist.View, cursor, offset, height int) []string {
	end := v.Len()
	if height > 0 && offset+height < end {
		end = offset + height
	}
	lines := make([]string, 0, max(end-offset, 0))
	for i := offset; i < end; i++ {
		t, _ := v.At(i)
		if i == cursor {
			lines = append(lines, selectedStyle.Render(">> "+t.String()))
			continue
		}
		lines = append(lines, "   "+t.String())
	}
	return lines
}

func (m Model) detailText() string {
	t, ok := m.selectedTask()
	if !ok {
		return "Task Details\n\nInvalid task selected"
	}
	return "Task Details\n\n" + t.Detail(m.store.Now())
}

func (m Model) nextLine() string {
	t, ok := m.store.LastDotted()
	if !ok {
		return "No Next Task"
	}
	return "Next: " + t.Description
}

func (m Model) doneLine() string {
	done := m.store.DoneToday()
	if len(done) == 0 {
		return "Done today: nothing yet"
	}
	names := make([]string, 0, len(done))
	for _, t := range done {
		names = append(names, t.Description)
	}
	return fmt.Sprintf("Done today (%d): %s", len(done), strings.Join(names, ", "))
}

// bannerLine is the session-long persistence state, shown above the status.
func (m Model) bannerLine() string {
	switch {
	case m.writeFails > 0:
		return errorStyle.Render(fmt.Sprintf("** ERROR: Write failed %d times", m.writeFails))
	case m.loadErr != nil && m.loadErr.Missing():
		return statusStyle.Render("No saved tasks found - started with empty task list")
	case m.loadErr != nil:
		return errorStyle.Render("** ERROR: Load failed - started with empty task list")
	default:
		return ""
	}
}

func (m Model) statusLine() string {
	return statusStyle.Render(m.status)
}

func filterSummary(f tasklist.Filter) string {
	var parts []string
	if f.ShowCompleted {
		parts = append(parts, "completed:shown")
	}
	if !f.HideFuture {
		parts = append(parts, "future:shown")
	}
	if f.DottedOnly {
		parts = append(parts, "dotted only")
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, " | ") + "]"
}
