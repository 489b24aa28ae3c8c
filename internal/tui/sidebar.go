package tui

import (
	"fmt"
	"strings"

	"parley/internal/chat"
)

// SidebarModel renders the session list in display order.
type SidebarModel struct {
	items    []chat.Summary
	activeID string
	pending  map[string]bool
}

// NewSidebarModel creates an empty sidebar.
func NewSidebarModel() SidebarModel {
	return SidebarModel{pending: make(map[string]bool)}
}

// SetItems replaces the displayed summaries.
func (m *SidebarModel) SetItems(items []chat.Summary) {
	m.items = append([]chat.Summary(nil), items...)
}

// SetActive marks which session is highlighted.
func (m *SidebarModel) SetActive(id string) {
	m.activeID = id
}

// SetPending flags a session with an in-flight turn.
func (m *SidebarModel) SetPending(id string, pending bool) {
	if pending {
		m.pending[id] = true
		return
	}
	delete(m.pending, id)
}

// Render draws the sidebar panel.
func (m SidebarModel) Render(width, height int, theme Theme) string {
	if len(m.items) == 0 {
		content := "No chats.\n\nctrl+n: new chat"
		return renderSidebarPanel(width, height, theme, content)
	}

	lines := make([]string, 0, len(m.items))
	for _, item := range m.items {
		label := fmt.Sprintf("%s (%d)", item.Name, item.MessageCount)
		if m.pending[item.ID] {
			label += " …"
		}
		style := theme.SidebarItemStyle
		if item.ID == m.activeID {
			style = theme.SidebarActiveItemStyle
			label = "> " + label
		} else {
			label = "  " + label
		}
		lines = append(lines, style.Render(label))
	}
	return renderSidebarPanel(width, height, theme, strings.Join(lines, "\n"))
}

func renderSidebarPanel(width, height int, theme Theme, content string) string {
	style := theme.SidebarStyle
	if width > 0 {
		style = style.Width(width)
	}
	if height > 0 {
		style = style.Height(height)
	}
	return style.Render(content)
}
