package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"parley/internal/prefs"
)

const (
	settingsFieldAddress = iota
	settingsFieldTemperature
	settingsFieldRepetitionPenalty
	settingsFieldCount
)

// SettingsModel is the modal settings form: endpoint address plus the two
// optional generation parameters. Numeric fields left blank stay unset.
type SettingsModel struct {
	fields  [settingsFieldCount]string
	cursor  int
	lastErr string
}

// NewSettingsModel seeds the form from current preferences.
func NewSettingsModel(current prefs.Preferences) SettingsModel {
	m := SettingsModel{}
	m.fields[settingsFieldAddress] = current.ServerAddress
	if current.Temperature != nil {
		m.fields[settingsFieldTemperature] = formatFloat(*current.Temperature)
	}
	if current.RepetitionPenalty != nil {
		m.fields[settingsFieldRepetitionPenalty] = formatFloat(*current.RepetitionPenalty)
	}
	return m
}

// HandleKey edits the form; submit is reported via the enter key.
func (m *SettingsModel) HandleKey(msg tea.KeyMsg) (submitted bool) {
	switch msg.Type {
	case tea.KeyEnter:
		return true
	case tea.KeyUp, tea.KeyShiftTab:
		m.cursor--
		if m.cursor < 0 {
			m.cursor = settingsFieldCount - 1
		}
		return false
	case tea.KeyDown, tea.KeyTab:
		m.cursor = (m.cursor + 1) % settingsFieldCount
		return false
	case tea.KeyBackspace, tea.KeyDelete:
		field := m.fields[m.cursor]
		if field == "" {
			return false
		}
		runes := []rune(field)
		m.fields[m.cursor] = string(runes[:len(runes)-1])
		return false
	case tea.KeySpace:
		m.fields[m.cursor] += " "
		return false
	}

	if len(msg.Runes) > 0 {
		m.fields[m.cursor] += string(msg.Runes)
	}
	return false
}

// Values parses the form into a preferences record.
func (m *SettingsModel) Values() (prefs.Preferences, error) {
	p := prefs.Preferences{
		ServerAddress: strings.TrimSpace(m.fields[settingsFieldAddress]),
	}

	temperature, err := parseOptionalFloat(m.fields[settingsFieldTemperature])
	if err != nil {
		return prefs.Preferences{}, fmt.Errorf("%w: temperature: %v", prefs.ErrInvalidPreferences, err)
	}
	p.Temperature = temperature

	penalty, err := parseOptionalFloat(m.fields[settingsFieldRepetitionPenalty])
	if err != nil {
		return prefs.Preferences{}, fmt.Errorf("%w: repetition penalty: %v", prefs.ErrInvalidPreferences, err)
	}
	p.RepetitionPenalty = penalty

	if err := p.Validate(); err != nil {
		return prefs.Preferences{}, err
	}
	return p, nil
}

// SetError records a save failure for display.
func (m *SettingsModel) SetError(message string) {
	m.lastErr = strings.TrimSpace(message)
}

// Render draws the settings panel.
func (m SettingsModel) Render(width int, theme Theme) string {
	labels := [settingsFieldCount]string{
		"Server address",
		fmt.Sprintf("Temperature (%.0f-%.0f, blank = server default)", prefs.TemperatureMin, prefs.TemperatureMax),
		fmt.Sprintf("Repetition penalty (%.1f-%.0f, blank = server default)", prefs.RepetitionPenaltyMin, prefs.RepetitionPenaltyMax),
	}

	lines := []string{
		theme.SettingsTitleStyle.Render("Settings"),
		"",
	}
	for index := 0; index < settingsFieldCount; index++ {
		style := theme.SettingsLabelStyle
		marker := "  "
		if index == m.cursor {
			style = theme.SettingsActiveLabelStyle
			marker = "> "
		}
		value := m.fields[index]
		if value == "" {
			value = "(unset)"
		}
		lines = append(lines, style.Render(marker+labels[index]+": "+value))
	}
	lines = append(lines, "", "enter: save  esc: cancel  tab: next field")
	if m.lastErr != "" {
		lines = append(lines, theme.SettingsErrorStyle.Render(m.lastErr))
	}

	return renderPanel(width, theme.PanelStyle, strings.Join(lines, "\n"))
}

func parseOptionalFloat(value string) (*float64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
