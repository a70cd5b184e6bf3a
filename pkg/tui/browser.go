// Package tui implements the interactive connection browser: a full-screen
// list over a snapshot of the store with incremental search, selection, and
// add/edit/delete actions that suspend the display for line-mode prompts.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"connman/pkg/store"
)

// Backend is the slice of the connection service the browser drives.
// *service.Service satisfies it.
type Backend interface {
	Snapshot() ([]store.ConnectionRecord, error)
	Add() error
	Edit(aliasOrID string) error
	Delete(aliasOrID string) error
}

// Run shows the browser and blocks until the user exits. It returns the
// alias selected for connection, or "" when the user quit without one; the
// caller dispatches the actual connect after the program has torn down.
func Run(backend Backend) (string, error) {
	m, err := newModel(backend)
	if err != nil {
		return "", err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	if fm, ok := final.(model); ok {
		return fm.pending, nil
	}
	return "", nil
}

type mode int

const (
	modeBrowsing mode = iota
	modeSearching
	modeHelping
	modeConfirmDelete
)

// actionDoneMsg arrives after a suspended add/edit finished and the
// terminal is restored.
type actionDoneMsg struct {
	action string
	err    error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type model struct {
	backend Backend

	records  []store.ConnectionRecord
	filtered []store.ConnectionRecord

	mode     mode
	input    textinput.Model
	query    string // committed filter
	selected int
	status   string
	pending  string // alias handed back to the caller on exit

	width  int
	height int
}

func newModel(backend Backend) (model, error) {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search..."
	ti.CharLimit = 128

	m := model{
		backend: backend,
		input:   ti,
	}
	if err := m.refresh(); err != nil {
		return model{}, err
	}
	m.status = fmt.Sprintf("Loaded %d connections", len(m.records))
	return m, nil
}

// refresh re-reads the snapshot and re-applies the active filter.
func (m *model) refresh() error {
	records, err := m.backend.Snapshot()
	if err != nil {
		return err
	}
	m.records = records
	m.recomputeFilter()
	return nil
}

// recomputeFilter applies the live query as a case-insensitive substring
// match across alias, host, protocol and tag, then clamps the cursor.
func (m *model) recomputeFilter() {
	query := m.input.Value()
	if m.mode != modeSearching {
		query = m.query
	}
	query = strings.ToLower(strings.TrimSpace(query))

	if query == "" {
		m.filtered = m.records
	} else {
		m.filtered = nil
		for _, rec := range m.records {
			haystack := strings.ToLower(rec.Alias + " " + rec.HostOrIP + " " + rec.Protocol + " " + rec.Tag)
			if strings.Contains(haystack, query) {
				m.filtered = append(m.filtered, rec)
			}
		}
	}
	m.clampCursor()
}

func (m *model) clampCursor() {
	if m.selected >= len(m.filtered) {
		m.selected = len(m.filtered) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *model) current() *store.ConnectionRecord {
	if len(m.filtered) == 0 || m.selected >= len(m.filtered) {
		return nil
	}
	return &m.filtered[m.selected]
}

func (m model) Init() tea.Cmd {
	return nil
}

// promptExec runs a line-mode prompt flow while the program has released
// the terminal. It satisfies tea.ExecCommand; the prompt code reads
// stdin/stdout directly, so the setters are no-ops.
type promptExec struct {
	run func() error
}

func (e *promptExec) Run() error          { return e.run() }
func (e *promptExec) SetStdin(io.Reader)  {}
func (e *promptExec) SetStdout(io.Writer) {}
func (e *promptExec) SetStderr(io.Writer) {}

func (m model) suspendFor(action string, run func() error) tea.Cmd {
	return tea.Exec(&promptExec{run: run}, func(err error) tea.Msg {
		return actionDoneMsg{action: action, err: err}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Connection %s completed", msg.action)
		}
		if err := m.refresh(); err != nil {
			m.status = err.Error()
		}
		return m, tea.ClearScreen

	case tea.KeyMsg:
		switch m.mode {
		case modeSearching:
			return m.updateSearching(msg)
		case modeHelping:
			// Any key dismisses the overlay.
			m.mode = modeBrowsing
			return m, nil
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		default:
			return m.updateBrowsing(msg)
		}
	}
	return m, nil
}

func (m model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.filtered)-1 {
			m.selected++
		}
	case "home", "g":
		m.selected = 0
	case "end", "G":
		m.selected = len(m.filtered) - 1
		m.clampCursor()

	case "enter":
		if cur := m.current(); cur != nil {
			m.pending = cur.Alias
			return m, tea.Quit
		}

	case "a":
		return m, m.suspendFor("added", m.backend.Add)

	case "e":
		if cur := m.current(); cur != nil {
			alias := cur.Alias
			return m, m.suspendFor("updated", func() error { return m.backend.Edit(alias) })
		}

	case "d":
		if m.current() != nil {
			m.mode = modeConfirmDelete
		}

	case "/":
		m.mode = modeSearching
		m.input.SetValue(m.query)
		m.input.Focus()
		m.recomputeFilter()

	case "c":
		if m.query != "" {
			m.query = ""
			m.input.SetValue("")
			m.recomputeFilter()
			m.status = "Search cleared"
		}

	case "r":
		if err := m.refresh(); err != nil {
			m.status = err.Error()
		} else {
			m.status = fmt.Sprintf("Loaded %d connections", len(m.records))
		}

	case "h", "?":
		m.mode = modeHelping
	}
	return m, nil
}

func (m model) updateSearching(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.query = m.input.Value()
		m.mode = modeBrowsing
		m.input.Blur()
		m.recomputeFilter()
		return m, nil

	case "esc":
		m.query = ""
		m.input.SetValue("")
		m.mode = modeBrowsing
		m.input.Blur()
		m.recomputeFilter()
		m.status = "Search cleared"
		return m, nil

	case "ctrl+u":
		// Clear the query but stay in search mode.
		m.input.SetValue("")
		m.recomputeFilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.recomputeFilter()
	return m, cmd
}

func (m model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cur := m.current()
	m.mode = modeBrowsing
	if cur == nil {
		return m, nil
	}
	switch msg.String() {
	case "y", "Y":
		if err := m.backend.Delete(cur.Alias); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("Connection %q deleted", cur.Alias)
		if err := m.refresh(); err != nil {
			m.status = err.Error()
		}
	default:
		m.status = "Delete cancelled"
	}
	return m, nil
}

func (m model) View() string {
	if m.mode == modeHelping {
		return m.helpView()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Connection Browser"))
	b.WriteString(fmt.Sprintf("  %d/%d connections\n\n", len(m.filtered), len(m.records)))

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-4s %-16s %-8s %-28s %s", "ID", "ALIAS", "PROTO", "HOST", "TAG")))
	b.WriteString("\n")

	if len(m.filtered) == 0 {
		b.WriteString(helpStyle.Render("  no connections match\n"))
	}
	for i, rec := range m.filtered {
		line := fmt.Sprintf("%-4d %-16s %-8s %-28s %s", rec.ID, rec.Alias, rec.Protocol, rec.HostOrIP, rec.Tag)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch m.mode {
	case modeSearching:
		b.WriteString(m.input.View())
	case modeConfirmDelete:
		if cur := m.current(); cur != nil {
			b.WriteString(statusStyle.Render(fmt.Sprintf("Delete %q? (y/N)", cur.Alias)))
		}
	default:
		if m.query != "" {
			b.WriteString(statusStyle.Render(fmt.Sprintf("filter: %q  ", m.query)))
		}
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter connect · a add · e edit · d delete · / search · r refresh · h help · q quit"))
	return b.String()
}

func (m model) helpView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Help"))
	b.WriteString("\n\n")
	for _, line := range []string{
		"j/k, up/down   move selection",
		"g/G, home/end  jump to first/last",
		"enter          connect to selection",
		"a              add a connection",
		"e              edit selection",
		"d              delete selection (asks y/N)",
		"/              incremental search",
		"c              clear active filter",
		"r              reload from the store",
		"q, ctrl+c      quit",
	} {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("press any key to return"))
	return b.String()
}
