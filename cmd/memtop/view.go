package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire UI
func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	// If help overlay is showing, render it
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	header := m.renderHeader()
	content := m.renderContent()
	status := m.renderStatus()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		status,
	)
}

// renderHeader renders the title bar with arena handle and refresh rate
func (m Model) renderHeader() string {
	title := "Memkit Registry Monitor"
	detail := fmt.Sprintf("arena: %s  refresh: %s", m.snap.ArenaHandle, m.interval)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		headerStyle.Render(title),
		lipgloss.NewStyle().Render("  "),
		subtitleStyle.Render(detail),
	)
}

// renderContent renders the split-pane content
func (m Model) renderContent() string {
	// Calculate pane widths (50-50 split)
	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth

	// Account for header and status bar
	paneHeight := max(m.height-8, 5)

	allocBox := m.renderPane("Allocators", m.renderAllocLines(leftWidth-6), leftWidth, paneHeight, AllocPane)
	workBox := m.renderPane("Workload", m.renderWorkloadLines(rightWidth-6), rightWidth, paneHeight, WorkloadPane)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		allocBox,
		workBox,
	)
}

// renderPane wraps pane content in a titled, focus-aware border
func (m Model) renderPane(title, content string, width, height int, pane Pane) string {
	inner := lipgloss.NewStyle().
		Width(width - 2).
		Height(height).
		Render(content)

	style := paneStyle
	if m.focusedPane == pane {
		style = activePaneStyle
	}

	return style.
		Width(width - 2).
		Height(height + 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, inner))
}

// renderAllocLines renders the allocator table with a summary underneath
func (m Model) renderAllocLines(width int) string {
	var b strings.Builder

	b.WriteString(m.allocTable.View())
	b.WriteString("\n\n")

	b.WriteString(statLine("Registered", fmt.Sprintf("%d allocators", m.snap.Registry.Registered)))
	b.WriteString("\n")
	b.WriteString(statLine("Chunks", fmt.Sprintf("%d on the arena", m.snap.Arena.Chunks)))
	b.WriteString("\n\n")

	// Heap has no fixed budget, so the gauge is sized against the
	// session peak
	b.WriteString(statLine("Heap", fmt.Sprintf("%s of %s peak", formatBytes(m.snap.Registry.HeapBytes), formatBytes(m.peakHeap))))
	b.WriteString("\n")
	b.WriteString(gaugeLine(m.snap.Registry.HeapBytes, m.peakHeap, width))

	return b.String()
}

// renderWorkloadLines renders the synthetic workload stats
func (m Model) renderWorkloadLines(width int) string {
	var b strings.Builder

	if m.snap.Paused {
		b.WriteString(statLine("Status", pausedStyle.Render("PAUSED")))
	} else {
		b.WriteString(statLine("Status", runningStyle.Render("RUNNING")))
	}
	b.WriteString("\n\n")

	b.WriteString(statLine("Frames", fmt.Sprintf("%d", m.snap.Frames)))
	b.WriteString("\n")
	b.WriteString(statLine("", dimValueStyle.Render(fmt.Sprintf("%d entries built and rewound per frame", frameKeys))))
	b.WriteString("\n\n")

	b.WriteString(statLine("Retained", fmt.Sprintf("%d of %d slots", m.snap.RetainedCount, m.snap.RetainedCap)))
	b.WriteString("\n")
	b.WriteString(statLine("", dimValueStyle.Render("long-lived map on the persistent heap")))
	b.WriteString("\n")
	b.WriteString(gaugeLine(int64(m.snap.RetainedCount), int64(m.snap.RetainedCap), width))
	b.WriteString("\n\n")

	b.WriteString(statLine("Rewinds", fmt.Sprintf("%d", m.snap.Arena.Rewinds)))
	b.WriteString("\n")
	b.WriteString(statLine("", dimValueStyle.Render("one per frame, reclaiming the whole set")))

	return b.String()
}

// statLine renders one aligned label/value pair
func statLine(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

// gaugeLine renders a usage bar aligned under the stat lines
func gaugeLine(used, total int64, width int) string {
	return labelStyle.Render("") + gauge(used, total, width-12)
}

// gauge renders a fill bar for used/total. Empty when total is unknown.
func gauge(used, total int64, width int) string {
	if total <= 0 || width < 4 {
		return ""
	}

	if used < 0 {
		used = 0
	}
	if used > total {
		used = total
	}

	filled := int(float64(width) * float64(used) / float64(total))
	if filled > width {
		filled = width
	}

	return gaugeFillStyle.Render(strings.Repeat("█", filled)) +
		gaugeEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// renderStatus renders the status bar with help text
func (m Model) renderStatus() string {
	// Show status message if set (takes priority over normal help)
	if m.statusMessage != "" {
		return statusStyle.Width(m.width).Render(
			statusInfoStyle.Render(m.statusMessage),
		)
	}

	var help strings.Builder
	help.WriteString(helpStyle.Render("tab: Switch"))
	help.WriteString(" │ ")
	if m.snap.Paused {
		help.WriteString(helpStyle.Render("p: Resume"))
	} else {
		help.WriteString(helpStyle.Render("p: Pause"))
	}
	help.WriteString(" │ ")
	help.WriteString(helpStyle.Render("t: Trim arena"))
	help.WriteString(" │ ")
	help.WriteString(helpStyle.Render("r: Refresh"))
	help.WriteString(" │ ")
	help.WriteString(helpStyle.Render("?: Help"))
	help.WriteString(" │ ")
	help.WriteString(helpStyle.Render("q: Quit"))

	var stats strings.Builder
	stats.WriteString(statusCountStyle.Render(fmt.Sprintf("%d", m.snap.Frames)))
	stats.WriteString(" frames │ heap ")
	stats.WriteString(statusCountStyle.Render(formatBytes(m.snap.Registry.HeapBytes)))
	stats.WriteString(" │ arena ")
	stats.WriteString(statusCountStyle.Render(fmt.Sprintf("%d", m.snap.Arena.Chunks)))
	stats.WriteString(" chunk(s)")

	statusLine := lipgloss.JoinHorizontal(
		lipgloss.Top,
		help.String(),
		lipgloss.NewStyle().Width(10).Render(""), // Spacer
		stats.String(),
	)

	return statusStyle.
		Width(m.width).
		Render(statusLine)
}

// renderHelpOverlay renders the help overlay
func (m Model) renderHelpOverlay() string {
	var helpContent strings.Builder

	title := helpTitleStyle.Render("Keyboard Shortcuts")
	helpContent.WriteString(title)
	helpContent.WriteString("\n\n")

	const keyWidth = 14

	writeEntry := func(keys, desc string) {
		helpContent.WriteString(helpKeyStyle.Width(keyWidth).Render(keys))
		helpContent.WriteString("  ")
		helpContent.WriteString(helpDescStyle.Render(desc))
		helpContent.WriteString("\n")
	}

	writeEntry("Tab", "Switch between allocator and workload panes")
	writeEntry("↑/↓ or j/k", "Move the allocator table cursor")
	writeEntry("p or Space", "Pause or resume the workload")
	writeEntry("t", "Trim arena chunks (rewind twice)")
	writeEntry("r or F5", "Refresh statistics immediately")
	writeEntry("?", "Show this help")
	writeEntry("q or Ctrl+C", "Quit")
	helpContent.WriteString("\n")

	helpContent.WriteString(helpStyle.Render("Press Esc, ?, or q to close this help"))

	helpBox := modalStyle.
		Width(60).
		Render(helpContent.String())

	// Calculate centering
	helpHeight := lipgloss.Height(helpBox)
	helpWidth := lipgloss.Width(helpBox)

	verticalPadding := (m.height - helpHeight) / 2
	horizontalPadding := (m.width - helpWidth) / 2

	if verticalPadding < 0 {
		verticalPadding = 0
	}
	if horizontalPadding < 0 {
		horizontalPadding = 0
	}

	return lipgloss.NewStyle().
		MarginTop(verticalPadding).
		MarginLeft(horizontalPadding).
		Render(helpBox)
}
