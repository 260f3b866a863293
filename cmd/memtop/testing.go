package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TestHelper wraps a Model so tests can drive it with messages without a
// terminal attached.
type TestHelper struct {
	model Model
}

// NewTestHelper creates a test helper with a running workload behind the
// model. Callers must Close it to release the registry.
func NewTestHelper() (*TestHelper, error) {
	model, err := NewModel(100 * time.Millisecond)
	if err != nil {
		return nil, err
	}
	return &TestHelper{model: model}, nil
}

// SendKey sends a key message to the model
func (h *TestHelper) SendKey(keyType tea.KeyType) {
	msg := tea.KeyMsg{Type: keyType}
	newModel, _ := h.model.Update(msg)
	h.model = newModel.(Model)
}

// SendKeyRune sends a character key to the model
func (h *TestHelper) SendKeyRune(r rune) {
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
	newModel, _ := h.model.Update(msg)
	h.model = newModel.(Model)
}

// SendWindowSize sends a window size message
func (h *TestHelper) SendWindowSize(width, height int) {
	msg := tea.WindowSizeMsg{Width: width, Height: height}
	newModel, _ := h.model.Update(msg)
	h.model = newModel.(Model)
}

// SendMsg sends an arbitrary message to the model
func (h *TestHelper) SendMsg(msg tea.Msg) {
	newModel, _ := h.model.Update(msg)
	h.model = newModel.(Model)
}

// GetModel returns the current model state
func (h *TestHelper) GetModel() Model {
	return h.model
}

// Close stops the workload and shuts the registry down.
func (h *TestHelper) Close() error {
	return h.model.Close()
}
