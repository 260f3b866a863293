package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshuapare/memkit/mem"
)

// Pane represents which pane is focused
type Pane int

const (
	AllocPane Pane = iota
	WorkloadPane
)

// Model is the main application model
type Model struct {
	workload   *workload
	keys       KeyMap
	allocTable table.Model

	interval time.Duration
	snap     workloadSnapshot
	peakHeap int64

	focusedPane Pane
	width       int
	height      int

	// Help overlay
	showHelp bool

	// Status message for temporary feedback
	statusMessage string

	err error
}

// NewModel creates a new TUI model. It starts the registry and the
// background workload; Close releases both.
func NewModel(interval time.Duration) (Model, error) {
	w, err := newWorkload()
	if err != nil {
		return Model{}, err
	}

	snap := w.snapshot()
	rows := allocRows(snap)

	columns := []table.Column{
		{Title: "Slot", Width: 4},
		{Title: "Kind", Width: 8},
		{Title: "Ver", Width: 4},
		{Title: "Bytes", Width: 17},
		{Title: "Allocs", Width: 11},
	}

	allocTable := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(len(rows)),
	)
	allocTable.SetStyles(allocTableStyles())

	return Model{
		workload:    w,
		keys:        DefaultKeyMap(),
		allocTable:  allocTable,
		interval:    interval,
		snap:        snap,
		peakHeap:    snap.Registry.HeapBytes,
		focusedPane: AllocPane,
	}, nil
}

// allocRows shapes a snapshot into one table row per registered allocator.
func allocRows(snap workloadSnapshot) []table.Row {
	reg := snap.Registry
	arena := snap.Arena

	scratchBytes := "not mapped"
	if reg.ScratchCap > 0 {
		scratchBytes = fmt.Sprintf("%s / %s", formatBytes(reg.ScratchUsed), formatBytes(reg.ScratchCap))
	}

	return []table.Row{
		{
			strconv.Itoa(mem.None.Slot()),
			mem.None.Kind().String(),
			fmt.Sprintf("v%d", mem.None.Version()),
			"-",
			"-",
		},
		{
			strconv.Itoa(mem.Scratch.Slot()),
			mem.Scratch.Kind().String(),
			fmt.Sprintf("v%d", mem.Scratch.Version()),
			scratchBytes,
			"-",
		},
		{
			strconv.Itoa(mem.Persistent.Slot()),
			mem.Persistent.Kind().String(),
			fmt.Sprintf("v%d", mem.Persistent.Version()),
			formatBytes(reg.HeapBytes),
			fmt.Sprintf("%d/%d", reg.HeapAllocs, reg.HeapFrees),
		},
		{
			strconv.Itoa(snap.ArenaHandle.Slot()),
			snap.ArenaHandle.Kind().String(),
			fmt.Sprintf("v%d", snap.ArenaHandle.Version()),
			fmt.Sprintf("%s / %s", formatBytes(arena.Used), formatBytes(arena.Reserved)),
			fmt.Sprintf("%d rw", arena.Rewinds),
		},
	}
}

// Init schedules the first refresh.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.interval)
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Close cleans up resources held by the model.
// Should be called when the TUI exits to release the registry.
func (m *Model) Close() error {
	if m.workload == nil {
		return nil
	}
	return m.workload.Close()
}

// Messages

type tickMsg time.Time

type clearStatusMsg struct{}
