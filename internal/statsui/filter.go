package statsui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/babylog/internal/model"
)

const dateLayout = "2006-01-02"

func (m *Model) initInputs() {
	lang := m.cfg.Lang
	m.filterInputs = []textinput.Model{
		newFilterInput(t(lang, "sinceInput")),
		newFilterInput(t(lang, "untilInput")),
		newFilterInput(t(lang, "activityInput")),
	}
	m.filterInputs[2].Placeholder = "feeding"
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	if len(m.filterInputs) == 0 {
		return
	}
	m.filterInputs[0].SetValue(formatDate(m.cfg.Since))
	m.filterInputs[1].SetValue(formatDate(m.cfg.Until))
	m.filterInputs[2].SetValue(string(m.cfg.Activity))
}

func formatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(dateLayout)
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

// applyFilter validates the form and stores it in cfg. The report is not
// reloaded here.
func (m *Model) applyFilter() error {
	since, err := parseDateInput(m.filterInputs[0].Value())
	if err != nil {
		return errors.New("invalid since date (expected YYYY-MM-DD)")
	}
	until, err := parseDateInput(m.filterInputs[1].Value())
	if err != nil {
		return errors.New("invalid until date (expected YYYY-MM-DD)")
	}
	if since != nil && until != nil && until.Before(*since) {
		return errors.New("until must not be before since")
	}
	var activity model.ActivityType
	if raw := strings.TrimSpace(m.filterInputs[2].Value()); raw != "" {
		activity, err = model.ParseActivityType(strings.ToLower(raw))
		if err != nil {
			return err
		}
	}
	m.cfg.Since = since
	m.cfg.Until = until
	m.cfg.Activity = activity
	m.selected = 0
	return nil
}

func parseDateInput(input string) (*time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(dateLayout, input, time.Local)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (m *Model) renderFilterForm() string {
	lines := []string{t(m.cfg.Lang, "filterTitle")}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}
