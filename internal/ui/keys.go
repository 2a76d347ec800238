package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"dotlist/internal/config"
)

type keyMap struct {
	Quit          key.Binding
	Up            key.Binding
	Down          key.Binding
	Start         key.Binding
	End           key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
	Dot           key.Binding
	Complete      key.Binding
	Recur         key.Binding
	Snooze        key.Binding
	Unsnooze      key.Binding
	Delete        key.Binding
	Add           key.Binding
	Modify        key.Binding
	FutureFilter  key.Binding
	DottedFilter  key.Binding
	ShowCompleted key.Binding
	Help          key.Binding
	Details       key.Binding
	Confirm       key.Binding
	Cancel        key.Binding
}

func newKeyMap(k config.Keymap) keyMap {
	return keyMap{
		Quit:          binding("quit", k.Quit, "ctrl+c"),
		Up:            binding("move up", k.Up, "up"),
		Down:          binding("move down", k.Down, "down"),
		Start:         binding("move to start", k.Start, "home"),
		End:           binding("move to end", k.End, "end"),
		PageUp:        binding("page up", k.PageUp, "pgup"),
		PageDown:      binding("page down", k.PageDown, "pgdown"),
		Dot:           binding("toggle dot", k.Dot),
		Complete:      binding("mark as done", k.Complete),
		Recur:         binding("toggle daily recurring", k.Recur),
		Snooze:        binding("snooze until tomorrow", k.Snooze),
		Unsnooze:      binding("unsnooze", k.Unsnooze),
		Delete:        binding("delete task", k.Delete),
		Add:           binding("add task", k.Add),
		Modify:        binding("modify task", k.Modify),
		FutureFilter:  binding("toggle future filter", k.FutureFilter),
		DottedFilter:  binding("toggle dotted-only filter", k.DottedFilter),
		ShowCompleted: binding("toggle completed tasks", k.ShowCompleted),
		Help:          binding("toggle help pane", k.Help),
		Details:       binding("toggle details pane", k.Details),
		Confirm:       binding("save", k.Confirm),
		Cancel:        binding("cancel", k.Cancel),
	}
}

// binding builds a key.Binding whose help label is the configured key.
func binding(desc, primary string, extra ...string) key.Binding {
	keys := append([]string{primary}, extra...)
	label := primary
	if primary == " " {
		label = "space"
	}
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(label, desc),
	)
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Dot, k.Complete, k.Add, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit},
		{k.Start, k.Up, k.Down, k.End, k.PageUp, k.PageDown},
		{k.Add, k.Modify, k.Dot, k.Complete, k.Recur, k.Snooze, k.Unsnooze, k.Delete},
		{k.FutureFilter, k.DottedFilter, k.ShowCompleted},
		{k.Help, k.Details},
	}
}

func (k keyMap) editHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

// helpText renders the full keymap as the help pane body.
func helpText(k keyMap) string {
	var b strings.Builder
	b.WriteString(" Keyboard commands\n")
	b.WriteString(" -----------------\n")
	for i, group := range k.FullHelp() {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, kb := range group {
			h := kb.Help()
			b.WriteString(" ")
			b.WriteString(padRight(h.Key, 7))
			b.WriteString(" - ")
			b.WriteString(h.Desc)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
