// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/babylog/internal/model"
	"github.com/verte-zerg/babylog/internal/report"
)

const (
	tabOverview = iota
	tabActivities
	tabTrends
	tabInsights
)

const (
	plotHeight    = 8
	fallbackWidth = 80
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#5FA8D3"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	sectionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FA8D3")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Loader builds a report for the given filters.
type Loader func(ctx context.Context, cfg model.ReportConfig) (*report.Report, error)

// Model implements the Bubble Tea stats UI.
type Model struct {
	load Loader
	cfg  model.ReportConfig

	rep    *report.Report
	errMsg string

	activeTab     int
	viewports     []viewport.Model
	activityTable table.Model
	selected      int

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a stats UI model and loads the first report.
func NewModel(load Loader, cfg model.ReportConfig) *Model {
	if cfg.Lang == "" {
		cfg.Lang = "en"
	}
	m := &Model{load: load, cfg: cfg}
	m.initInputs()
	m.activityTable = newActivityTable()
	m.initViewports()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "[":
			m.moveActivity(-1)
			return m, nil
		case "]":
			m.moveActivity(1)
			return m, nil
		case "L":
			m.toggleLang()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if m.activeTab == tabActivities {
				m.activityTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabActivities {
				m.activityTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabActivities {
				var cmd tea.Cmd
				m.activityTable, cmd = m.activityTable.Update(msg)
				return m, cmd
			}
			var cmd tea.Cmd
			m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(tabNames(m.cfg.Lang)))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.activityTable.SetWidth(m.width)
	m.activityTable.SetHeight(max(bodyHeight-1, 1))
	for i := range m.filterInputs {
		m.filterInputs[i].Width = max(10, m.width-lipgloss.Width(m.filterInputs[i].Prompt)-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.viewports)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabActivities {
		m.activityTable.Focus()
	} else {
		m.activityTable.Blur()
	}
}

func (m *Model) moveActivity(delta int) {
	n := m.activityCount()
	if n == 0 {
		return
	}
	m.selected = (m.selected + delta + n) % n
	m.renderTabContents()
}

func (m *Model) toggleLang() {
	if m.cfg.Lang == "ja" {
		m.cfg.Lang = "en"
	} else {
		m.cfg.Lang = "ja"
	}
	m.initInputs()
	m.updateLayout()
	m.fillActivityTable()
	m.renderTabContents()
}

func (m *Model) activityCount() int {
	if m.rep == nil || m.rep.Analysis == nil {
		return 0
	}
	return len(m.rep.Analysis.Activities)
}

func (m *Model) refreshReport() {
	rep, err := m.load(context.Background(), m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.rep = nil
		m.fillActivityTable()
		m.renderTabContents()
		return
	}
	m.errMsg = ""
	m.rep = rep
	if m.selected >= m.activityCount() {
		m.selected = 0
	}
	m.fillActivityTable()
	m.renderTabContents()
}

func (m *Model) fillActivityTable() {
	m.activityTable.SetRows(nil)
	m.activityTable.SetColumns(activityColumns(m.cfg.Lang))
	m.activityTable.SetRows(activityRows(m.activities(), m.cfg.Lang))
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	lang := m.cfg.Lang
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent(t(lang, "loadFailed"))
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = fallbackWidth
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.rep, lang, width))
	m.viewports[tabTrends].SetContent(renderTrends(m.rep, m.selected, lang, width))
	m.viewports[tabInsights].SetContent(renderInsights(m.rep, lang))
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabActivities {
		if m.errMsg != "" {
			return fitLines(t(m.cfg.Lang, "loadFailed"), m.width, height)
		}
		if len(m.activities()) == 0 {
			return fitLines(t(m.cfg.Lang, "noRecords"), m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.activityTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}
