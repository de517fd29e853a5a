// Package ui provides the terminal viewer for upcoming tasks.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nibzard/tasklist/internal/todo"
)

// Loader returns the tasks to show, in due order.
type Loader func() ([]todo.Task, error)

// TUIOption configures the viewer.
type TUIOption func(*tuiConfig)

type tuiConfig struct {
	days     int
	interval time.Duration
	now      func() time.Time
	source   string
}

// WithDays sets the window length shown in the header.
func WithDays(days int) TUIOption {
	return func(c *tuiConfig) {
		c.days = days
	}
}

// WithRefreshInterval reloads the tasks periodically. Zero disables
// automatic refresh; r still reloads.
func WithRefreshInterval(d time.Duration) TUIOption {
	return func(c *tuiConfig) {
		c.interval = d
	}
}

// WithSource names the task file in the footer.
func WithSource(path string) TUIOption {
	return func(c *tuiConfig) {
		c.source = path
	}
}

// WithClock overrides the time used for relative due times.
func WithClock(now func() time.Time) TUIOption {
	return func(c *tuiConfig) {
		c.now = now
	}
}

// RunTUI shows the tasks returned by load until the user quits or ctx
// ends.
func RunTUI(ctx context.Context, load Loader, opts ...TUIOption) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	model := newTUIModel(load, opts...)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle   = lipgloss.NewStyle().Faint(true)
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	detailStyle   = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("7"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	footnoteStyle = lipgloss.NewStyle().Faint(true)
)

type tuiModel struct {
	load     Loader
	cfg      tuiConfig
	keys     keyMap
	help     help.Model
	tasks    []todo.Task
	loadErr  error
	loadedAt time.Time
	cursor   int
	width    int
}

type tickMsg time.Time

func newTUIModel(load Loader, opts ...TUIOption) *tuiModel {
	cfg := tuiConfig{
		days:     todo.DefaultUpcomingDays,
		interval: 30 * time.Second,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &tuiModel{
		load: load,
		cfg:  cfg,
		keys: defaultKeyMap,
		help: help.New(),
	}
}

func (m *tuiModel) Init() tea.Cmd {
	m.refresh()
	if m.cfg.interval <= 0 {
		return nil
	}
	return tickCmd(m.cfg.interval)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			m.refresh()
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.tasks)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	case tickMsg:
		m.refresh()
		return m, tickCmd(m.cfg.interval)
	}
	return m, nil
}

func (m *tuiModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Upcoming tasks (next %d days)", m.cfg.days)))
	b.WriteString("\n\n")

	switch {
	case m.loadErr != nil:
		b.WriteString(errorStyle.Render("Error loading tasks:"))
		b.WriteString("\n  " + m.loadErr.Error() + "\n")
	case len(m.tasks) == 0:
		b.WriteString("  Nothing due.\n")
	default:
		m.writeTasks(&b)
	}

	b.WriteString("\n")
	if m.cfg.source != "" || !m.loadedAt.IsZero() {
		b.WriteString(footnoteStyle.Render(m.footnote()))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m *tuiModel) writeTasks(b *strings.Builder) {
	now := m.cfg.now()
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-17s %-16s %-10s %s", "DUE", "WHEN", "REPEATS", "SUMMARY")))
	b.WriteString("\n")
	for i, t := range m.tasks {
		line := fmt.Sprintf("  %-17s %-16s %-10s %s",
			t.Due.Local().Format("Mon Jan 02 15:04"),
			RelativeDue(t.Due, now),
			repeats(t),
			t.Summary,
		)
		switch {
		case i == m.cursor:
			line = cursorStyle.Render(line)
		case !t.Due.After(now):
			line = overdueStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.cursor < len(m.tasks) {
		t := m.tasks[m.cursor]
		b.WriteString("\n")
		b.WriteString(detailStyle.Render(fmt.Sprintf("%s\n%s\nalerts: %s\nid: %s",
			t.Summary, t.Details, todo.FormatAlertOffsets(t.AlertOffsets), t.ID)))
		b.WriteString("\n")
	}
}

func (m *tuiModel) footnote() string {
	var parts []string
	if m.cfg.source != "" {
		parts = append(parts, m.cfg.source)
	}
	if !m.loadedAt.IsZero() {
		parts = append(parts, "loaded "+m.loadedAt.Format("15:04:05"))
	}
	if m.cfg.interval > 0 {
		parts = append(parts, "refreshing every "+m.cfg.interval.String())
	}
	return strings.Join(parts, " | ")
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *tuiModel) refresh() {
	tasks, err := m.load()
	m.loadedAt = m.cfg.now()
	if err != nil {
		m.loadErr = err
		m.tasks = nil
		m.cursor = 0
		return
	}
	m.loadErr = nil
	m.tasks = tasks
	if m.cursor >= len(tasks) {
		m.cursor = max(len(tasks)-1, 0)
	}
}

func repeats(t todo.Task) string {
	if !t.Recurrence.IsRecurring() {
		return "-"
	}
	return t.Recurrence.String()
}

// RelativeDue describes due relative to now, e.g. "3 hours from now".
func RelativeDue(due, now time.Time) string {
	return humanize.RelTime(due, now, "ago", "from now")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
