package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshuapare/memkit/cmd/memtop/logger"
)

// Update handles all messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// If help is showing, handle help keys
		if m.showHelp {
			if key.Matches(msg, m.keys.Esc) || key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Quit) {
				m.showHelp = false
				return m, nil
			}
			// Ignore other keys when help is showing
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil

		case key.Matches(msg, m.keys.Tab):
			if m.focusedPane == AllocPane {
				m.focusedPane = WorkloadPane
				m.allocTable.Blur()
			} else {
				m.focusedPane = AllocPane
				m.allocTable.Focus()
			}
			return m, nil

		case key.Matches(msg, m.keys.Pause):
			paused := m.workload.togglePaused()
			logger.Debug("pause toggled", "paused", paused)
			if paused {
				m.statusMessage = "Workload paused"
			} else {
				m.statusMessage = "Workload resumed"
			}
			m.refreshSnapshot()
			return m, clearStatusCmd()

		case key.Matches(msg, m.keys.Trim):
			m.workload.trimArena()
			m.refreshSnapshot()
			m.statusMessage = fmt.Sprintf("Arena trimmed to %d chunk(s)", m.snap.Arena.Chunks)
			return m, clearStatusCmd()

		case key.Matches(msg, m.keys.Refresh):
			m.refreshSnapshot()
			return m, nil
		}

		// Unhandled keys drive the focused allocator table (cursor moves)
		if m.focusedPane == AllocPane {
			var cmd tea.Cmd
			m.allocTable, cmd = m.allocTable.Update(msg)
			return m, cmd
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.allocTable.SetWidth(max(msg.Width/2-6, 20))
		return m, nil

	case tickMsg:
		m.refreshSnapshot()
		if m.snap.Err != nil && m.err == nil {
			logger.Error("workload error surfaced", "error", m.snap.Err)
			m.err = m.snap.Err
		}
		// Keep ticking so pause state and stats stay live even after errors
		return m, tickCmd(m.interval)

	case clearStatusMsg:
		m.statusMessage = ""
		return m, nil
	}

	return m, nil
}

// refreshSnapshot pulls fresh workload state into the model and the
// allocator table.
func (m *Model) refreshSnapshot() {
	m.snap = m.workload.snapshot()
	if m.snap.Registry.HeapBytes > m.peakHeap {
		m.peakHeap = m.snap.Registry.HeapBytes
	}
	m.allocTable.SetRows(allocRows(m.snap))
}

func clearStatusCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
