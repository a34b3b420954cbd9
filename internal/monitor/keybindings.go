package monitor

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Key bindings as constants for consistency.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeyRefresh     = "r"
	KeyCycleSort   = "s"
	KeyReverseSort = "S"
	KeyFilter      = "/"
	KeyToggleHelp  = "?"
	KeyExpand      = "enter"
	KeyCollapse    = "esc"
)

// handleKey processes one key press. Filter mode routes almost everything
// into the text input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.filterMode {
		return m.handleFilterKey(msg)
	}

	// Help overlay swallows every key and closes.
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return m, tea.Quit

	case KeyRefresh:
		if m.refresher != nil {
			m.refresher.RefreshNow()
		}
		return m, nil

	case KeyCycleSort:
		m.view.SortKey = m.view.SortKey.Next()
		m.pushView()
		return m, nil

	case KeyReverseSort:
		m.view.SortReversed = !m.view.SortReversed
		m.pushView()
		return m, nil

	case KeyFilter:
		m.filterMode = true
		m.filterInput.SetValue(m.view.FilterText)
		m.filterInput.Focus()
		return m, textinput.Blink

	case KeyToggleHelp:
		m.showHelp = true
		return m, nil

	case KeyExpand:
		m.view.DetailOpen = !m.view.DetailOpen
		if m.view.DetailOpen {
			m.resizeViewport()
			m.detailViewport.SetContent(m.detailContent())
		}
		m.pushView()
		return m, nil

	case KeyCollapse:
		switch {
		case m.view.DetailOpen:
			m.view.DetailOpen = false
		case m.view.FilterText != "":
			m.view.FilterText = ""
			m.clampCursor()
		}
		m.pushView()
		return m, nil

	case "j", "down":
		m.moveCursor(1)
		return m, nil
	case "k", "up":
		m.moveCursor(-1)
		return m, nil
	case "g", "home":
		m.view.CursorIndex = 0
		m.pushView()
		return m, nil
	case "G", "end":
		m.view.CursorIndex = len(m.visible()) - 1
		m.clampCursor()
		m.pushView()
		return m, nil
	case "pgdown", "ctrl+d":
		if m.view.DetailOpen {
			m.detailViewport.HalfViewDown()
			return m, nil
		}
		m.moveCursor(pageSize)
		return m, nil
	case "pgup", "ctrl+u":
		if m.view.DetailOpen {
			m.detailViewport.HalfViewUp()
			return m, nil
		}
		m.moveCursor(-pageSize)
		return m, nil
	}

	return m, nil
}

// handleFilterKey routes keys while the filter input is focused.
func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyCollapse:
		m.filterMode = false
		m.filterInput.Blur()
		m.view.FilterText = ""
		m.clampCursor()
		m.pushView()
		return m, nil

	case KeyExpand:
		m.filterMode = false
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.view.FilterText = m.filterInput.Value()
	m.clampCursor()
	m.pushView()
	return m, cmd
}

func (m *Model) moveCursor(delta int) {
	m.view.CursorIndex += delta
	m.clampCursor()
	if m.view.DetailOpen {
		m.detailViewport.SetContent(m.detailContent())
	}
	m.pushView()
}
