package statsui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/babylog/internal/analysis"
	"github.com/verte-zerg/babylog/internal/correlation"
	"github.com/verte-zerg/babylog/internal/model"
	"github.com/verte-zerg/babylog/internal/report"
	"github.com/verte-zerg/babylog/internal/stats"
	"github.com/verte-zerg/babylog/internal/trend"
)

const maxInsightOutliers = 10

var texts = map[string][2]string{
	"overview":      {"Overview", "概要"},
	"activities":    {"Activities", "活動別"},
	"trends":        {"Trends", "傾向"},
	"insights":      {"Insights", "相関・外れ値"},
	"records":       {"Records", "記録数"},
	"days":          {"Days", "日数"},
	"perDay":        {"Records/day", "1日あたり"},
	"activityTypes": {"Activity types", "種類"},
	"topActivity":   {"Top activity", "最多"},
	"noRecords":     {"No records found.", "記録がありません。"},
	"loadFailed":    {"Failed to load report.", "レポートを読み込めませんでした。"},
	"activity":      {"Activity", "活動"},
	"count":         {"Count", "回数"},
	"avgDuration":   {"Avg min", "平均時間"},
	"avgQuantity":   {"Avg qty", "平均量"},
	"peak":          {"Peak", "ピーク"},
	"dayParts":      {"M/A/E/N", "朝/昼/夕/夜"},
	"correlations":  {"Correlations", "相関"},
	"noCorrelation": {"Not enough overlapping days yet.", "重なる日数がまだ足りません。"},
	"outliers":      {"Outliers", "外れ値"},
	"noOutliers":    {"No outliers found.", "外れ値はありません。"},
	"perDay2":       {"per day", "1日あたり"},
	"sinceInput":    {"Since (YYYY-MM-DD): ", "開始日 (YYYY-MM-DD): "},
	"untilInput":    {"Until (YYYY-MM-DD): ", "終了日 (YYYY-MM-DD): "},
	"activityInput": {"Activity: ", "活動: "},
	"filterTitle":   {"Filters (enter to apply, esc to cancel)", "絞り込み (enter で適用、esc で取消)"},
	"any":           {"any", "指定なし"},
	"all":           {"all", "すべて"},
	"help": {
		"Nav: left/right  Scroll: up/down  Activity: [/]  Lang: L  Filter: /  Quit: q",
		"移動: left/right  スクロール: up/down  活動: [/]  言語: L  絞り込み: /  終了: q",
	},
	"filterHelp": {
		"tab/shift+tab: next field  enter: apply  esc: cancel",
		"tab/shift+tab: 次の項目  enter: 適用  esc: 取消",
	},
}

func t(lang, key string) string {
	v, ok := texts[key]
	if !ok {
		return key
	}
	if lang == "ja" {
		return v[1]
	}
	return v[0]
}

func tabNames(lang string) []string {
	return []string{t(lang, "overview"), t(lang, "activities"), t(lang, "trends"), t(lang, "insights")}
}

func (m *Model) activities() []analysis.ActivityReport {
	if m.rep == nil || m.rep.Analysis == nil {
		return nil
	}
	return m.rep.Analysis.Activities
}

func (m *Model) renderTabs() string {
	names := tabNames(m.cfg.Lang)
	parts := make([]string, 0, len(names))
	for i, tab := range names {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	lang := m.cfg.Lang
	since, until := t(lang, "any"), t(lang, "any")
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format(dateLayout)
	}
	if m.cfg.Until != nil {
		until = m.cfg.Until.Format(dateLayout)
	}
	activity := t(lang, "all")
	if m.cfg.Activity != "" {
		activity = m.cfg.Activity.Label(lang)
	}
	summary := fmt.Sprintf("since=%s  until=%s  activity=%s  lang=%s", since, until, activity, lang)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render(t(m.cfg.Lang, "filterHelp"))
	}
	help := headerStyle.Render(truncateLine(t(m.cfg.Lang, "help"), m.width))
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	}
	return help
}

func renderOverview(rep *report.Report, lang string, width int) string {
	if rep == nil || rep.Analysis == nil || rep.Analysis.Overall.TotalRecords == 0 {
		return t(lang, "noRecords")
	}
	sections := []string{renderSummaryCards(rep.Analysis.Overall, lang, width)}
	top := stats.TopActivities(rep.Records, 1)
	if len(top) == 1 {
		for _, a := range rep.Analysis.Activities {
			if a.Stats.ActivityType == top[0] {
				sections = append(sections, renderActivityPlot(a, lang, width))
			}
		}
	}
	return strings.Join(sections, "\n\n")
}

func renderSummaryCards(o stats.OverallStats, lang string, width int) string {
	top := "-"
	best := 0
	for _, a := range model.ActivityTypes {
		if n := o.ActivityBreakdown[a]; n > best {
			best = n
			top = a.Label(lang)
		}
	}
	cards := []string{
		metricCard(t(lang, "records"), fmt.Sprintf("%d", o.TotalRecords)),
		metricCard(t(lang, "days"), fmt.Sprintf("%d", o.DateRange.DurationDays)),
		metricCard(t(lang, "perDay"), fmt.Sprintf("%.1f", o.RecordsPerDay)),
		metricCard(t(lang, "activityTypes"), fmt.Sprintf("%d", o.ActivityTypeCount)),
		metricCard(t(lang, "topActivity"), top),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderActivityPlot(a analysis.ActivityReport, lang string, width int) string {
	series, points := report.DailySeries(a, lang)
	if len(points) < 2 {
		return ""
	}
	title := a.Stats.ActivityType.Label(lang) + " " + t(lang, "perDay2")
	var b strings.Builder
	err := report.Plot(&b, title, series, report.PlotOptions{
		Width:  report.PlotWidthFor(width, 4),
		Height: plotHeight,
		Start:  points[0].Date.Format("01/02"),
		End:    points[len(points)-1].Date.Format("01/02"),
	})
	if err != nil {
		return ""
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderTrends(rep *report.Report, selected int, lang string, width int) string {
	if rep == nil || rep.Analysis == nil || len(rep.Analysis.Activities) == 0 {
		return t(lang, "noRecords")
	}
	activities := rep.Analysis.Activities
	selected = min(max(selected, 0), len(activities)-1)
	names := make([]string, len(activities))
	for i, a := range activities {
		label := a.Stats.ActivityType.Label(lang)
		if i == selected {
			label = sectionStyle.Render("[" + label + "]")
		}
		names[i] = label
	}
	lines := []string{truncateLine(strings.Join(names, " "), width), ""}
	current := activities[selected]
	for _, an := range current.Trends {
		spark := stats.Sparkline(lastValues(trend.Values(an.Points), 14))
		lines = append(lines, fmt.Sprintf("%s %s", runewidth.FillRight(spark, 14), trend.Insight(an, lang)))
	}
	if plot := renderActivityPlot(current, lang, width); plot != "" {
		lines = append(lines, "", plot)
	}
	return strings.Join(lines, "\n")
}

func lastValues(values []float64, n int) []float64 {
	if len(values) > n {
		return values[len(values)-n:]
	}
	return values
}

func renderInsights(rep *report.Report, lang string) string {
	if rep == nil || rep.Analysis == nil || rep.Analysis.Overall.TotalRecords == 0 {
		return t(lang, "noRecords")
	}
	lines := []string{sectionStyle.Render(t(lang, "correlations"))}
	if len(rep.Analysis.Correlations) == 0 {
		lines = append(lines, "  "+t(lang, "noCorrelation"))
	}
	for _, r := range rep.Analysis.Correlations {
		lines = append(lines, "  "+correlation.CorrelationInsight(r, lang))
	}
	lines = append(lines, "", sectionStyle.Render(t(lang, "outliers")))
	var outliers []correlation.Outlier
	for _, a := range rep.Analysis.Activities {
		outliers = append(outliers, a.Outliers...)
	}
	if len(outliers) == 0 {
		lines = append(lines, "  "+t(lang, "noOutliers"))
	}
	sort.SliceStable(outliers, func(i, j int) bool {
		return math.Abs(outliers[i].Score) > math.Abs(outliers[j].Score)
	})
	for i, o := range outliers {
		if i == maxInsightOutliers {
			lines = append(lines, fmt.Sprintf("  ... +%d", len(outliers)-i))
			break
		}
		lines = append(lines, "  "+correlation.OutlierInsight(o, lang))
	}
	return strings.Join(lines, "\n")
}

func newActivityTable() table.Model {
	tbl := table.New(
		table.WithColumns(activityColumns("en")),
		table.WithHeight(1),
	)
	tbl.SetStyles(activityTableStyles())
	return tbl
}

func activityTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func activityColumns(lang string) []table.Column {
	return []table.Column{
		{Title: t(lang, "activity"), Width: 12},
		{Title: t(lang, "count"), Width: 7},
		{Title: t(lang, "avgDuration"), Width: 10},
		{Title: t(lang, "avgQuantity"), Width: 12},
		{Title: t(lang, "peak"), Width: 7},
		{Title: t(lang, "dayParts"), Width: 14},
	}
}

func activityRows(activities []analysis.ActivityReport, lang string) []table.Row {
	rows := make([]table.Row, 0, len(activities))
	for _, a := range activities {
		s := a.Stats
		td := s.TimeDistribution
		rows = append(rows, table.Row{
			s.ActivityType.Label(lang),
			fmt.Sprintf("%d", s.Frequency),
			meanOf(s.Duration, ""),
			meanOf(s.Quantity, model.MetricQuantity.Unit(s.ActivityType)),
			fmt.Sprintf("%02d:00", busiestHour(td)),
			fmt.Sprintf("%d/%d/%d/%d", td.Morning, td.Afternoon, td.Evening, td.Night),
		})
	}
	return rows
}

func meanOf(s *stats.Summary, unit string) string {
	if s == nil {
		return "-"
	}
	return strings.TrimSpace(fmt.Sprintf("%.1f %s", s.Mean, unit))
}

func busiestHour(td stats.TimeDistribution) int {
	best := 0
	for h, n := range td.Hourly {
		if n > td.Hourly[best] {
			best = h
		}
	}
	return best
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// truncateLine cuts s to width display cells.
func truncateLine(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
