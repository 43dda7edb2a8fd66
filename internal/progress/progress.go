// Package progress implements C14: an optional live terminal view of a
// run in flight, built on charmbracelet/bubbletea and lipgloss — both
// present in the teacher's go.mod as unused indirect dependencies. This is
// their first real usage: a small Model that receives Update events off a
// channel the orchestrator's OnProgress hook feeds, and renders frontier
// size, nodes expanded, cache hits, and best wealth while the BFS runs.
package progress

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	valueStyle = lipgloss.NewStyle().Bold(true)
)

// Update is one progress snapshot emitted while a run is in flight.
type Update struct {
	FrontierSize  int
	NodesExpanded int
	CacheHits     int
	BestWealth    float64
}

// Done signals the run has finished, successfully or not.
type Done struct {
	Value          float64
	MemoryExceeded bool
}

type tickMsg time.Time

// Model is the bubbletea model driving the live view.
type Model struct {
	updates  <-chan Update
	done     <-chan Done
	latest   Update
	finished *Done
}

// New builds a Model that reads progress off updates and a terminal
// outcome off done.
func New(updates <-chan Update, done <-chan Done) Model {
	return Model{updates: updates, done: done}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case tea.KeyMsg:
		return m, tea.Quit
	case tickMsg:
		drained := m.drainNonBlocking()
		if drained.finished != nil {
			return drained, tea.Quit
		}
		return drained, tick()
	}
	return m, nil
}

func (m Model) drainNonBlocking() Model {
	for {
		select {
		case u, ok := <-m.updates:
			if !ok {
				return m
			}
			m.latest = u
		case d, ok := <-m.done:
			if !ok {
				return m
			}
			m.finished = &d
			return m
		default:
			return m
		}
	}
}

func (m Model) View() string {
	if m.finished != nil {
		if m.finished.MemoryExceeded {
			return titleStyle.Render("memory threshold exceeded") + "\n"
		}
		return titleStyle.Render("run complete") + "  " + valueStyle.Render(fmt.Sprintf("%.2f", m.finished.Value)) + "\n"
	}
	return fmt.Sprintf(
		"%s\n%s %s   %s %s   %s %s   %s %s\n",
		titleStyle.Render("cropsolver — searching"),
		labelStyle.Render("frontier:"), valueStyle.Render(fmt.Sprintf("%d", m.latest.FrontierSize)),
		labelStyle.Render("expanded:"), valueStyle.Render(fmt.Sprintf("%d", m.latest.NodesExpanded)),
		labelStyle.Render("cache hits:"), valueStyle.Render(fmt.Sprintf("%d", m.latest.CacheHits)),
		labelStyle.Render("best wealth:"), valueStyle.Render(fmt.Sprintf("%.2f", m.latest.BestWealth)),
	)
}
