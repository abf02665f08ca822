package statsui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/babylog/internal/analysis"
	"github.com/verte-zerg/babylog/internal/model"
	"github.com/verte-zerg/babylog/internal/report"
)

func sampleRecords() []model.Record {
	var out []model.Record
	for i := 0; i < 7; i++ {
		day := time.Date(2024, time.March, 1+i, 0, 0, 0, 0, time.UTC)
		out = append(out,
			model.Record{ActivityType: model.ActivityFeeding, Timestamp: day.Add(7 * time.Hour), Duration: model.Float(float64(15 + i))},
			model.Record{ActivityType: model.ActivityFeeding, Timestamp: day.Add(19 * time.Hour), Quantity: model.Float(120)},
			model.Record{ActivityType: model.ActivityDiaper, Timestamp: day.Add(9 * time.Hour)},
		)
	}
	return out
}

type fakeLoader struct {
	records []model.Record
	err     error
	calls   []model.ReportConfig
}

func (f *fakeLoader) load(ctx context.Context, cfg model.ReportConfig) (*report.Report, error) {
	f.calls = append(f.calls, cfg)
	if f.err != nil {
		return nil, f.err
	}
	return report.Analyze(ctx, f.records, cfg, analysis.Options{})
}

func sized(t *testing.T, m *Model) *Model {
	t.Helper()
	_, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewShowsOverview(t *testing.T) {
	loader := &fakeLoader{records: sampleRecords()}
	m := sized(t, NewModel(loader.load, model.ReportConfig{}))

	out := m.View()
	for _, want := range []string{"Overview", "Activities", "Records", "21", "Top activity", "Feeding"} {
		assert.Contains(t, out, want)
	}
	require.Len(t, loader.calls, 1)
	assert.Equal(t, "en", loader.calls[0].Lang)
}

func TestViewBeforeResizeIsEmpty(t *testing.T) {
	loader := &fakeLoader{records: sampleRecords()}
	m := NewModel(loader.load, model.ReportConfig{})
	assert.Empty(t, m.View())
}

func TestLoadErrorShownInFooter(t *testing.T) {
	loader := &fakeLoader{err: errors.New("database is locked")}
	m := sized(t, NewModel(loader.load, model.ReportConfig{}))

	out := m.renderFooter()
	assert.Contains(t, out, "database is locked")
	assert.Contains(t, m.View(), "Failed to load report.")
}

func TestTabsWrapAround(t *testing.T) {
	loader := &fakeLoader{records: sampleRecords()}
	m := sized(t, NewModel(loader.load, model.ReportConfig{}))

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, tabInsights, m.activeTab)
	assert.Contains(t, m.View(), "Correlations")

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, tabActivities, m.activeTab)
	assert.True(t, m.activityTable.Focused())
}

func TestActivityTableRows(t *testing.T) {
	loader := &fakeLoader{records: sampleRecords()}
	m := sized(t, NewModel(loader.load, model.ReportConfig{}))

	rows := m.activityTable.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Feeding", rows[0][0])
	assert.Equal(t, "14", rows[0][1])
	assert.Equal(t, "18.0", rows[0][2])
	assert.Equal(t, "120.0 ml", rows[0][3])
	assert.Equal(t, "Diaper", rows[1][0])
	assert.Equal(t, "-", rows[1][2])
	assert.Equal(t, "09:00", rows[1][4])
}

func TestSelectActivityCycles(t *testing.T) {
	loader := &fakeLoader{records: sampleRecords()}
	m := sized(t, NewModel(loader.load, model.ReportConfig{}))

	_, _ = m.Update(key("]"))
	assert.Equal(t, 1, m.selected)
	_, _ = m.Update(key("]"))
	assert.Equal(t, 0, m.selected)
	_, _ = m.Update(key("["))
	assert.Equal(t, 1, m.selected)

	content := renderTrends(m.rep, m.selected, "en", 100)
	assert.Contains(t, content, "[Diaper]")
	assert.Contains(t, content, "Diaper frequency")
}

func TestToggleLanguage(t *testing.T) {
	loader := &fakeLoader{records: sampleRecords()}
	m := sized(t, NewModel(loader.load, model.ReportConfig{}))

	_, _ = m.Update(key("L"))
	assert.Equal(t, "ja", m.cfg.Lang)
	out := m.View()
	assert.Contains(t, out, "概要")
	assert.Contains(t, out, "活動別")
	assert.Equal(t, "授乳", m.activityTable.Rows()[0][0])

	_, _ = m.Update(key("L"))
	assert.Equal(t, "en", m.cfg.Lang)
}

func TestFilterAppliesAndReloads(t *testing.T) {
	loader := &fakeLoader{records: sampleRecords()}
	m := sized(t, NewModel(loader.load, model.ReportConfig{}))

	_, _ = m.Update(key("/"))
	require.True(t, m.filterMode)
	assert.Contains(t, m.View(), "Since (YYYY-MM-DD)")

	m.filterInputs[0].SetValue("2024-03-02")
	m.filterInputs[1].SetValue("2024-03-05")
	m.filterInputs[2].SetValue("Diaper")
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.filterMode)
	require.Len(t, loader.calls, 2)
	cfg := loader.calls[1]
	require.NotNil(t, cfg.Since)
	require.NotNil(t, cfg.Until)
	assert.Equal(t, "2024-03-02", cfg.Since.Format(dateLayout))
	assert.Equal(t, "2024-03-05", cfg.Until.Format(dateLayout))
	assert.Equal(t, model.ActivityDiaper, cfg.Activity)
	assert.Contains(t, m.renderFilterSummary(), "activity=Diaper")
}

func TestFilterRejectsInvalidInput(t *testing.T) {
	loader := &fakeLoader{records: sampleRecords()}
	m := sized(t, NewModel(loader.load, model.ReportConfig{}))

	cases := []struct {
		name  string
		since string
		until string
		act   string
		want  string
	}{
		{name: "bad since", since: "03/02/2024", want: "invalid since date"},
		{name: "bad until", until: "2024-13-01", want: "invalid until date"},
		{name: "reversed", since: "2024-03-05", until: "2024-03-01", want: "until must not be before since"},
		{name: "unknown activity", act: "nap", want: "unknown activity type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _ = m.Update(key("/"))
			m.filterInputs[0].SetValue(tc.since)
			m.filterInputs[1].SetValue(tc.until)
			m.filterInputs[2].SetValue(tc.act)
			_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
			assert.True(t, m.filterMode)
			assert.Contains(t, m.filterError, tc.want)
			_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
			assert.False(t, m.filterMode)
		})
	}
	assert.Len(t, loader.calls, 1)
}

func TestQuitKeys(t *testing.T) {
	loader := &fakeLoader{records: sampleRecords()}
	m := sized(t, NewModel(loader.load, model.ReportConfig{}))

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestEmptyReport(t *testing.T) {
	loader := &fakeLoader{}
	m := sized(t, NewModel(loader.load, model.ReportConfig{}))

	assert.Contains(t, m.View(), "No records found.")
	assert.Equal(t, "No records found.", renderInsights(m.rep, "en"))
}

func TestTruncateLine(t *testing.T) {
	assert.Equal(t, "abc", truncateLine("abc", 5))
	assert.Equal(t, "ab...", truncateLine("abcdefgh", 5))
	assert.Equal(t, "ab", truncateLine("abcdefgh", 2))
	assert.Equal(t, "授...", truncateLine("授乳授乳", 5))
	assert.Equal(t, 5, len(strings.Split(fitLines("a\nb", 3, 5), "\n")))
}
