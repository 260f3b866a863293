package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestHelpOverlayToggle(t *testing.T) {
	helper, err := NewTestHelper()
	if err != nil {
		t.Fatalf("Failed to create test helper: %v", err)
	}
	defer helper.Close()

	helper.SendKeyRune('?')
	if !helper.GetModel().showHelp {
		t.Error("? should open the help overlay")
	}

	helper.SendKey(tea.KeyEsc)
	if helper.GetModel().showHelp {
		t.Error("Esc should close the help overlay")
	}

	helper.SendKeyRune('?')
	helper.SendKeyRune('?')
	if helper.GetModel().showHelp {
		t.Error("? should toggle the help overlay closed")
	}

	helper.SendKeyRune('?')
	helper.SendKeyRune('q')
	if helper.GetModel().showHelp {
		t.Error("q should close the help overlay")
	}
}

func TestHelpOverlayBlocksOtherKeys(t *testing.T) {
	helper, err := NewTestHelper()
	if err != nil {
		t.Fatalf("Failed to create test helper: %v", err)
	}
	defer helper.Close()

	helper.SendKeyRune('?')
	helper.SendKey(tea.KeyTab)

	m := helper.GetModel()
	if !m.showHelp {
		t.Error("Tab should not close the help overlay")
	}
	if m.focusedPane != AllocPane {
		t.Error("Tab should not switch panes while help is showing")
	}

	helper.SendKeyRune('p')
	if helper.GetModel().snap.Paused {
		t.Error("p should not reach the workload while help is showing")
	}
}

func TestTabSwitchesPanes(t *testing.T) {
	helper, err := NewTestHelper()
	if err != nil {
		t.Fatalf("Failed to create test helper: %v", err)
	}
	defer helper.Close()

	if helper.GetModel().focusedPane != AllocPane {
		t.Fatal("allocator pane should start focused")
	}

	helper.SendKey(tea.KeyTab)
	if helper.GetModel().focusedPane != WorkloadPane {
		t.Error("Tab should focus the workload pane")
	}

	helper.SendKey(tea.KeyTab)
	if helper.GetModel().focusedPane != AllocPane {
		t.Error("Tab should cycle back to the allocator pane")
	}
}

func TestPauseKeyTogglesWorkload(t *testing.T) {
	helper, err := NewTestHelper()
	if err != nil {
		t.Fatalf("Failed to create test helper: %v", err)
	}
	defer helper.Close()

	helper.SendKeyRune('p')
	m := helper.GetModel()
	if !m.snap.Paused {
		t.Error("p should pause the workload")
	}
	if m.statusMessage != "Workload paused" {
		t.Errorf("statusMessage = %q, want %q", m.statusMessage, "Workload paused")
	}

	helper.SendKeyRune('p')
	m = helper.GetModel()
	if m.snap.Paused {
		t.Error("p should resume the workload")
	}
	if m.statusMessage != "Workload resumed" {
		t.Errorf("statusMessage = %q, want %q", m.statusMessage, "Workload resumed")
	}
}

func TestTrimKeyCollapsesArena(t *testing.T) {
	helper, err := NewTestHelper()
	if err != nil {
		t.Fatalf("Failed to create test helper: %v", err)
	}
	defer helper.Close()

	waitForFrames(t, helper.GetModel().workload, 1)

	helper.SendKeyRune('t')
	m := helper.GetModel()
	if m.snap.Arena.Chunks != 1 {
		t.Errorf("arena has %d chunk(s) after trim, want 1", m.snap.Arena.Chunks)
	}
	if m.statusMessage == "" {
		t.Error("trim should set a status message")
	}
}

func TestRefreshKeyUpdatesSnapshot(t *testing.T) {
	helper, err := NewTestHelper()
	if err != nil {
		t.Fatalf("Failed to create test helper: %v", err)
	}
	defer helper.Close()

	before := helper.GetModel().snap.Frames
	waitForFrames(t, helper.GetModel().workload, before+1)

	helper.SendKeyRune('r')
	if got := helper.GetModel().snap.Frames; got <= before {
		t.Errorf("snapshot frames = %d after refresh, want more than %d", got, before)
	}
}

func TestTickAdvancesStats(t *testing.T) {
	helper, err := NewTestHelper()
	if err != nil {
		t.Fatalf("Failed to create test helper: %v", err)
	}
	defer helper.Close()

	before := helper.GetModel().snap.Frames
	waitForFrames(t, helper.GetModel().workload, before+1)

	helper.SendMsg(tickMsg(time.Now()))
	m := helper.GetModel()
	if m.snap.Frames <= before {
		t.Errorf("snapshot frames = %d after tick, want more than %d", m.snap.Frames, before)
	}
	if m.peakHeap == 0 {
		t.Error("tick should track the heap high-water mark")
	}
}

func TestStatusMessageClears(t *testing.T) {
	helper, err := NewTestHelper()
	if err != nil {
		t.Fatalf("Failed to create test helper: %v", err)
	}
	defer helper.Close()

	helper.SendKeyRune('p')
	if helper.GetModel().statusMessage == "" {
		t.Fatal("pause should set a status message")
	}

	helper.SendMsg(clearStatusMsg{})
	if got := helper.GetModel().statusMessage; got != "" {
		t.Errorf("statusMessage = %q after clear, want empty", got)
	}
}

func TestQuitKeyReturnsQuit(t *testing.T) {
	helper, err := NewTestHelper()
	if err != nil {
		t.Fatalf("Failed to create test helper: %v", err)
	}
	defer helper.Close()

	m := helper.GetModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestAllocTableCursorFollowsFocus(t *testing.T) {
	helper, err := NewTestHelper()
	if err != nil {
		t.Fatalf("Failed to create test helper: %v", err)
	}
	defer helper.Close()

	helper.SendKey(tea.KeyDown)
	if got := helper.GetModel().allocTable.Cursor(); got != 1 {
		t.Errorf("cursor = %d with allocator pane focused, want 1", got)
	}

	helper.SendKey(tea.KeyTab)
	helper.SendKey(tea.KeyDown)
	if got := helper.GetModel().allocTable.Cursor(); got != 1 {
		t.Errorf("cursor = %d with workload pane focused, want unchanged 1", got)
	}
}

func TestViewRendersPanes(t *testing.T) {
	helper, err := NewTestHelper()
	if err != nil {
		t.Fatalf("Failed to create test helper: %v", err)
	}
	defer helper.Close()

	helper.SendWindowSize(120, 40)

	view := helper.GetModel().View()
	for _, want := range []string{"Memkit Registry Monitor", "Allocators", "Workload", "RUNNING", "Kind", "heap"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	helper.SendKeyRune('?')
	if view := helper.GetModel().View(); !strings.Contains(view, "Keyboard Shortcuts") {
		t.Error("help overlay should render the shortcut list")
	}
}

func TestViewRendersError(t *testing.T) {
	helper, err := NewTestHelper()
	if err != nil {
		t.Fatalf("Failed to create test helper: %v", err)
	}
	defer helper.Close()

	m := helper.GetModel()
	m.err = errors.New("arena unavailable")

	view := m.View()
	if !strings.Contains(view, "arena unavailable") {
		t.Error("error view should include the error text")
	}
	if !strings.Contains(view, "Press q to quit") {
		t.Error("error view should tell the user how to exit")
	}
}
