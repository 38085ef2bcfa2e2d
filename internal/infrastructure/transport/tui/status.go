// Package tui provides a narrow, read-only operator status view over the
// scheduler's snapshot. Unlike the teacher's multi-panel mesh/metrics
// dashboard, this view has exactly one job: show each supervised app's
// name, phase, PID, retry count on a ticker, nothing more.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kodflow/daemon/internal/domain/app"
)

// SnapshotFunc returns the current state of every supervised app.
type SnapshotFunc func() []app.Snapshot

const refreshInterval = 1 * time.Second

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	footerStyle = lipgloss.NewStyle().Faint(true)
	tableStyle  = table.DefaultStyles()
)

// Model is the Bubble Tea model for the status view.
type Model struct {
	snapshot SnapshotFunc
	table    table.Model
	quitting bool
}

type tickMsg time.Time

// New builds a status-view Model polling snapshot on a one-second ticker.
func New(snapshot SnapshotFunc) Model {
	columns := []table.Column{
		{Title: "APP", Width: 20},
		{Title: "PHASE", Width: 10},
		{Title: "PID", Width: 8},
		{Title: "RETRIES", Width: 8},
	}
	t := table.New(table.WithColumns(columns), table.WithFocused(false), table.WithHeight(10))
	tableStyle.Header = tableStyle.Header.Bold(true)
	t.SetStyles(tableStyle)
	return Model{snapshot: snapshot, table: t}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case tickMsg:
		m.table.SetRows(rowsFor(m.snapshot()))
		return m, tick()
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return headerStyle.Render("supervised apps") + "\n" + m.table.View() + "\n" +
		footerStyle.Render("press q to exit (supervision keeps running)")
}

func rowsFor(snaps []app.Snapshot) []table.Row {
	rows := make([]table.Row, 0, len(snaps))
	for _, s := range snaps {
		pid := pidOf(s.State)
		rows = append(rows, table.Row{s.Name, s.Phase.String(), pid, fmt.Sprintf("%d", s.Retries)})
	}
	return rows
}

// Run starts the status-view program and blocks until the user quits it
// or ctx is cancelled. Quitting the view never stops supervision: it only
// detaches the operator's terminal from Scheduler.Snapshot.
func Run(ctx context.Context, snapshot SnapshotFunc) error {
	p := tea.NewProgram(New(snapshot))
	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		done <- err
	}()
	select {
	case <-ctx.Done():
		p.Quit()
		<-done
		return nil
	case err := <-done:
		return err
	}
}

func pidOf(st app.State) string {
	switch st := st.(type) {
	case app.Starting:
		return fmt.Sprintf("%d", st.PID)
	case app.Running:
		return fmt.Sprintf("%d", st.PID)
	case app.Stopping:
		return fmt.Sprintf("%d", st.PID)
	default:
		return "-"
	}
}
