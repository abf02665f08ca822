package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/babylog/internal/analysis"
	"github.com/verte-zerg/babylog/internal/correlation"
	"github.com/verte-zerg/babylog/internal/model"
	"github.com/verte-zerg/babylog/internal/stats"
	"github.com/verte-zerg/babylog/internal/trend"
)

// TextOptions controls plain-text rendering.
type TextOptions struct {
	Lang        string
	Plot        bool
	Width       int
	Color       bool
	MaxOutliers int
}

const (
	defaultMaxOutliers = 10
	movingAverageDays  = 7
	sparkDays          = 14
)

var messages = map[string][2]string{
	"summary":       {"Summary", "概要"},
	"records":       {"Records", "記録数"},
	"period":        {"Period", "期間"},
	"days":          {"days", "日間"},
	"perDay":        {"Records/day", "1日あたり"},
	"activityTypes": {"Activity types", "種類"},
	"noRecords":     {"No records found.", "記録がありません。"},
	"activities":    {"Activities", "活動別"},
	"activity":      {"Activity", "活動"},
	"count":         {"Count", "回数"},
	"avgDuration":   {"Avg duration", "平均時間"},
	"avgQuantity":   {"Avg quantity", "平均量"},
	"peak":          {"Peak", "ピーク"},
	"dayParts":      {"Morn/Aft/Eve/Night", "朝/昼/夕/夜"},
	"trends":        {"Trends", "傾向"},
	"correlations":  {"Correlations", "相関"},
	"noCorrelation": {"Not enough overlapping days yet.", "重なる日数がまだ足りません。"},
	"outliers":      {"Outliers", "外れ値"},
	"noOutliers":    {"No outliers found.", "外れ値はありません。"},
	"perDaySuffix":  {"per day", "（1日あたり）"},
	"average":       {"7-day avg", "7日平均"},
	"daily":         {"daily", "日次"},
}

func msg(lang, key string) string {
	m, ok := messages[key]
	if !ok {
		return key
	}
	if lang == "ja" {
		return m[1]
	}
	return m[0]
}

// RenderText prints the report as sections of plain text.
func RenderText(w io.Writer, rep *Report, opts TextOptions) error {
	if opts.MaxOutliers <= 0 {
		opts.MaxOutliers = defaultMaxOutliers
	}
	var lines []string
	lines = append(lines, summaryLines(rep.Analysis.Overall, opts.Lang)...)
	if rep.Analysis.Overall.TotalRecords == 0 {
		return writeLines(w, lines)
	}
	lines = append(lines, "")
	lines = append(lines, activityLines(rep.Analysis.Activities, opts.Lang)...)
	lines = append(lines, "")
	lines = append(lines, trendLines(rep.Analysis.Activities, opts.Lang)...)
	lines = append(lines, "")
	lines = append(lines, correlationLines(rep.Analysis.Correlations, opts.Lang)...)
	lines = append(lines, "")
	lines = append(lines, outlierLines(rep.Analysis.Activities, opts.Lang, opts.MaxOutliers)...)
	lines = append(lines, "")
	if err := writeLines(w, lines); err != nil {
		return err
	}
	if !opts.Plot {
		return nil
	}
	return renderPlots(w, rep.Analysis.Activities, opts)
}

func writeLines(w io.Writer, lines []string) error {
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func summaryLines(o stats.OverallStats, lang string) []string {
	lines := []string{msg(lang, "summary")}
	if o.TotalRecords == 0 {
		return append(lines, msg(lang, "noRecords"))
	}
	period := fmt.Sprintf("%s – %s (%d %s)",
		o.DateRange.Earliest.Format("2006-01-02"),
		o.DateRange.Latest.Format("2006-01-02"),
		o.DateRange.DurationDays, msg(lang, "days"))
	rows := [][]string{
		{msg(lang, "records"), fmt.Sprintf("%d", o.TotalRecords)},
		{msg(lang, "period"), period},
		{msg(lang, "perDay"), fmt.Sprintf("%.2f", o.RecordsPerDay)},
		{msg(lang, "activityTypes"), fmt.Sprintf("%d", o.ActivityTypeCount)},
	}
	return append(lines, formatTable(nil, rows, nil)...)
}

func activityLines(activities []analysis.ActivityReport, lang string) []string {
	headers := []string{
		msg(lang, "activity"), msg(lang, "count"), msg(lang, "avgDuration"),
		msg(lang, "avgQuantity"), msg(lang, "peak"), msg(lang, "dayParts"),
	}
	rows := make([][]string, 0, len(activities))
	for _, a := range activities {
		s := a.Stats
		td := s.TimeDistribution
		rows = append(rows, []string{
			s.ActivityType.Label(lang),
			fmt.Sprintf("%d", s.Frequency),
			average(s.Duration, model.MetricDuration.Unit(s.ActivityType)),
			average(s.Quantity, model.MetricQuantity.Unit(s.ActivityType)),
			fmt.Sprintf("%02d:00", peakHour(td)),
			fmt.Sprintf("%d/%d/%d/%d", td.Morning, td.Afternoon, td.Evening, td.Night),
		})
	}
	lines := []string{msg(lang, "activities")}
	return append(lines, formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true})...)
}

func average(s *stats.Summary, unit string) string {
	if s == nil {
		return "-"
	}
	return strings.TrimSpace(fmt.Sprintf("%.1f %s", s.Mean, unit))
}

func peakHour(td stats.TimeDistribution) int {
	best := 0
	for h, n := range td.Hourly {
		if n > td.Hourly[best] {
			best = h
		}
	}
	return best
}

func trendLines(activities []analysis.ActivityReport, lang string) []string {
	lines := []string{msg(lang, "trends")}
	for _, a := range activities {
		for _, t := range a.Trends {
			spark := stats.Sparkline(lastN(trend.Values(t.Points), sparkDays))
			lines = append(lines, fmt.Sprintf("  %s %s", runewidth.FillRight(spark, sparkDays), trend.Insight(t, lang)))
		}
	}
	return lines
}

func lastN(values []float64, n int) []float64 {
	if len(values) > n {
		return values[len(values)-n:]
	}
	return values
}

func correlationLines(results []correlation.Result, lang string) []string {
	lines := []string{msg(lang, "correlations")}
	if len(results) == 0 {
		return append(lines, "  "+msg(lang, "noCorrelation"))
	}
	for _, r := range results {
		lines = append(lines, "  "+correlation.CorrelationInsight(r, lang))
	}
	return lines
}

func outlierLines(activities []analysis.ActivityReport, lang string, limit int) []string {
	lines := []string{msg(lang, "outliers")}
	var all []correlation.Outlier
	for _, a := range activities {
		all = append(all, a.Outliers...)
	}
	if len(all) == 0 {
		return append(lines, "  "+msg(lang, "noOutliers"))
	}
	sort.SliceStable(all, func(i, j int) bool {
		return math.Abs(all[i].Score) > math.Abs(all[j].Score)
	})
	for i, o := range all {
		if i == limit {
			lines = append(lines, fmt.Sprintf("  ... +%d", len(all)-limit))
			break
		}
		lines = append(lines, "  "+correlation.OutlierInsight(o, lang))
	}
	return lines
}

// DailySeries returns the daily frequency of an activity and its moving average.
func DailySeries(a analysis.ActivityReport, lang string) ([]Series, []trend.Point) {
	var points []trend.Point
	for _, t := range a.Trends {
		if t.Metric == model.MetricFrequency {
			points = t.Points
		}
	}
	values := trend.Values(points)
	return []Series{
		{Name: msg(lang, "daily"), Values: values},
		{Name: msg(lang, "average"), Values: stats.MovingAverage(values, movingAverageDays)},
	}, points
}

func renderPlots(w io.Writer, activities []analysis.ActivityReport, opts TextOptions) error {
	for _, a := range activities {
		series, points := DailySeries(a, opts.Lang)
		if len(points) < 2 {
			continue
		}
		title := a.Stats.ActivityType.Label(opts.Lang) + " " + msg(opts.Lang, "perDaySuffix")
		if opts.Lang == "ja" {
			title = a.Stats.ActivityType.Label(opts.Lang) + msg(opts.Lang, "perDaySuffix")
		}
		err := Plot(w, title, series, PlotOptions{
			Width: plotWidth(opts.Width),
			Color: opts.Color,
			Start: points[0].Date.Format("01/02"),
			End:   points[len(points)-1].Date.Format("01/02"),
		})
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func plotWidth(total int) int {
	if total <= 0 {
		return 0
	}
	return PlotWidthFor(total, 4)
}
