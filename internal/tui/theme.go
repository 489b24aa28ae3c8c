package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme contains style tokens used by the terminal UI.
type Theme struct {
	Name                      string
	StatusBarStyle            lipgloss.Style
	NoticeStyle               lipgloss.Style
	PanelStyle                lipgloss.Style
	SidebarStyle              lipgloss.Style
	SidebarItemStyle          lipgloss.Style
	SidebarActiveItemStyle    lipgloss.Style
	UserPrefixStyle           lipgloss.Style
	AssistantPrefixStyle      lipgloss.Style
	InputPromptStyle          lipgloss.Style
	InputTextStyle            lipgloss.Style
	InputPlaceholderTextStyle lipgloss.Style
	SettingsTitleStyle        lipgloss.Style
	SettingsLabelStyle        lipgloss.Style
	SettingsActiveLabelStyle  lipgloss.Style
	SettingsErrorStyle        lipgloss.Style
}

// ResolveTheme returns the configured theme or the dark default.
func ResolveTheme(name string) Theme {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "light":
		return newLightTheme()
	default:
		return newDarkTheme()
	}
}

func newDarkTheme() Theme {
	border := lipgloss.Color("63")
	muted := lipgloss.Color("245")
	return Theme{
		Name: "dark",
		StatusBarStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("63")).
			Padding(0, 1),
		NoticeStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		PanelStyle: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(border).
			Padding(0, 1),
		SidebarStyle: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(border).
			Padding(0, 1),
		SidebarItemStyle:         lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		SidebarActiveItemStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
		UserPrefixStyle:          lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		AssistantPrefixStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
		InputPromptStyle:         lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		InputTextStyle:           lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		SettingsTitleStyle:       lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
		SettingsLabelStyle:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		SettingsActiveLabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		SettingsErrorStyle:       lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		InputPlaceholderTextStyle: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),
	}
}

func newLightTheme() Theme {
	border := lipgloss.Color("246")
	muted := lipgloss.Color("240")
	return Theme{
		Name: "light",
		StatusBarStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("189")).
			Padding(0, 1),
		NoticeStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("124")).Bold(true),
		PanelStyle: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(border).
			Padding(0, 1),
		SidebarStyle: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(border).
			Padding(0, 1),
		SidebarItemStyle:         lipgloss.NewStyle().Foreground(lipgloss.Color("16")),
		SidebarActiveItemStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("94")).Bold(true),
		UserPrefixStyle:          lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Bold(true),
		AssistantPrefixStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("94")).Bold(true),
		InputPromptStyle:         lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Bold(true),
		InputTextStyle:           lipgloss.NewStyle().Foreground(lipgloss.Color("16")),
		SettingsTitleStyle:       lipgloss.NewStyle().Foreground(lipgloss.Color("94")).Bold(true),
		SettingsLabelStyle:       lipgloss.NewStyle().Foreground(lipgloss.Color("16")),
		SettingsActiveLabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Bold(true),
		SettingsErrorStyle:       lipgloss.NewStyle().Foreground(lipgloss.Color("124")),
		InputPlaceholderTextStyle: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),
	}
}
