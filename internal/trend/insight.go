package trend

import (
	"fmt"

	"github.com/verte-zerg/babylog/internal/model"
)

var metricLabels = map[model.Metric][2]string{
	model.MetricFrequency: {"frequency", "回数"},
	model.MetricDuration:  {"duration", "時間"},
	model.MetricQuantity:  {"quantity", "量"},
}

var directionLabels = map[Direction][2]string{
	Increasing: {"increasing", "増加傾向"},
	Decreasing: {"decreasing", "減少傾向"},
	Stable:     {"stable", "横ばい"},
}

func pick(labels [2]string, lang string) string {
	if lang == "ja" {
		return labels[1]
	}
	return labels[0]
}

// MetricLabel names a metric in lang.
func MetricLabel(m model.Metric, lang string) string {
	labels, ok := metricLabels[m]
	if !ok {
		return string(m)
	}
	return pick(labels, lang)
}

// Insight describes a trend as one sentence in lang ("en" or "ja").
func Insight(a Analysis, lang string) string {
	activity := a.ActivityType.Label(lang)
	metric := MetricLabel(a.Metric, lang)
	if !a.HasEnoughData {
		if lang == "ja" {
			return fmt.Sprintf("%sの%sはまだデータが不足しています", activity, metric)
		}
		return fmt.Sprintf("Not enough data yet for %s %s", activity, metric)
	}
	direction := pick(directionLabels[a.Direction], lang)
	rate := fmt.Sprintf("%+.2f %s/day", a.Magnitude, unitFor(a))
	if lang == "ja" {
		return fmt.Sprintf("%sの%sは%sです（%s、R² %.2f）", activity, metric, direction, rate, a.Confidence)
	}
	return fmt.Sprintf("%s %s is %s (%s, R² %.2f)", activity, metric, direction, rate, a.Confidence)
}

func unitFor(a Analysis) string {
	if a.Metric == model.MetricFrequency {
		return "events"
	}
	return a.Metric.Unit(a.ActivityType)
}
