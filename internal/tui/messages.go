package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"parley/internal/chat"
)

// MessagesModel renders the active session's log with a scrollable
// viewport. The store owns the messages; this model holds only a display
// copy plus scroll state.
type MessagesModel struct {
	messages  []chat.Message
	scrollTop int

	// viewportHeight is the number of visible content lines inside the
	// panel. 0 means unconstrained.
	viewportHeight int
}

// NewMessagesModel creates an empty message pane.
func NewMessagesModel() MessagesModel {
	return MessagesModel{}
}

// SetMessages replaces the display copy, keeping the view pinned to the
// bottom when it already was there.
func (m *MessagesModel) SetMessages(messages []chat.Message) {
	wasAtBottom := m.isAtBottom()
	m.messages = append([]chat.Message(nil), messages...)
	if wasAtBottom {
		m.scrollToBottom()
		return
	}
	m.clampScrollTop()
}

// ScrollTop returns the current scroll offset for view-position memory.
func (m MessagesModel) ScrollTop() int {
	return m.scrollTop
}

// SetScrollTop restores a remembered scroll offset.
func (m *MessagesModel) SetScrollTop(offset int) {
	m.scrollTop = offset
	m.clampScrollTop()
}

// SetViewportHeight configures the visible line count.
func (m *MessagesModel) SetViewportHeight(height int) {
	if height < 0 {
		height = 0
	}
	m.viewportHeight = height
	m.clampScrollTop()
}

// PageUp scrolls one viewport up.
func (m *MessagesModel) PageUp() {
	step := m.viewportHeight
	if step <= 0 {
		step = 10
	}
	m.scrollTop -= step
	m.clampScrollTop()
}

// PageDown scrolls one viewport down.
func (m *MessagesModel) PageDown() {
	step := m.viewportHeight
	if step <= 0 {
		step = 10
	}
	m.scrollTop += step
	m.clampScrollTop()
}

// ScrollToBottom jumps to the most recent lines.
func (m *MessagesModel) ScrollToBottom() {
	m.scrollToBottom()
}

// Render draws the message panel.
func (m MessagesModel) Render(width int, theme Theme) string {
	if len(m.messages) == 0 {
		return renderPanel(width, theme.PanelStyle, "No messages yet.")
	}

	lines := make([]string, 0, len(m.messages))
	for _, message := range m.messages {
		prefix, style := senderPrefix(message.Sender, theme)
		raw := strings.Split(message.Text, "\n")
		if len(raw) == 0 {
			continue
		}
		lines = append(lines, style.Render(prefix)+" "+raw[0])
		if len(raw) > 1 {
			lines = append(lines, raw[1:]...)
		}
	}

	if m.viewportHeight > 0 && len(lines) > m.viewportHeight {
		start := m.scrollTop
		maxTop := len(lines) - m.viewportHeight
		if start < 0 {
			start = 0
		}
		if start > maxTop {
			start = maxTop
		}
		lines = lines[start : start+m.viewportHeight]
	}

	return renderPanel(width, theme.PanelStyle, strings.Join(lines, "\n"))
}

func senderPrefix(sender chat.Sender, theme Theme) (string, lipgloss.Style) {
	if sender == chat.SenderAssistant {
		return "assistant:", theme.AssistantPrefixStyle
	}
	return "you:", theme.UserPrefixStyle
}

func renderPanel(width int, style lipgloss.Style, content string) string {
	if width > 0 {
		return style.Width(width).Render(content)
	}
	return style.Render(content)
}

func (m *MessagesModel) isAtBottom() bool {
	if m.viewportHeight <= 0 {
		return true
	}
	return m.scrollTop >= m.maxScrollTop()
}

func (m *MessagesModel) maxScrollTop() int {
	if m.viewportHeight <= 0 {
		return 0
	}
	maxTop := m.totalRenderedLines() - m.viewportHeight
	if maxTop < 0 {
		return 0
	}
	return maxTop
}

func (m *MessagesModel) scrollToBottom() {
	m.scrollTop = m.maxScrollTop()
}

func (m *MessagesModel) clampScrollTop() {
	if m.scrollTop < 0 {
		m.scrollTop = 0
		return
	}
	if maxTop := m.maxScrollTop(); m.scrollTop > maxTop {
		m.scrollTop = maxTop
	}
}

func (m *MessagesModel) totalRenderedLines() int {
	total := 0
	for _, message := range m.messages {
		total += len(strings.Split(message.Text, "\n"))
	}
	return total
}
