package tui

import "strings"

// StatusModel renders the top status bar.
type StatusModel struct {
	Version string
	Address string
	State   string
	Notice  string
}

// NewStatusModel constructs status data for rendering.
func NewStatusModel(version, address string) StatusModel {
	return StatusModel{
		Version: strings.TrimSpace(version),
		Address: strings.TrimSpace(address),
		State:   "idle",
	}
}

// SetState updates the runtime state token.
func (m *StatusModel) SetState(state string) {
	m.State = strings.TrimSpace(state)
	if m.State == "" {
		m.State = "idle"
	}
}

// SetAddress updates the displayed endpoint address.
func (m *StatusModel) SetAddress(address string) {
	m.Address = strings.TrimSpace(address)
}

// SetNotice replaces the transient notification (latest failure wins).
func (m *StatusModel) SetNotice(notice string) {
	m.Notice = strings.TrimSpace(notice)
}

// ClearNotice removes the transient notification.
func (m *StatusModel) ClearNotice() {
	m.Notice = ""
}

// Render draws a one-line status bar.
func (m StatusModel) Render(width int, theme Theme) string {
	parts := []string{
		"parley " + fallbackText(m.Version, "dev"),
		fallbackText(m.Address, "no endpoint"),
		"state: " + fallbackText(m.State, "idle"),
	}
	if m.Notice != "" {
		parts = append(parts, theme.NoticeStyle.Render(m.Notice))
	}
	line := strings.Join(parts, " | ")
	style := theme.StatusBarStyle
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(line)
}

func fallbackText(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
