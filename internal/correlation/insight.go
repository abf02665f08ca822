package correlation

import (
	"fmt"
	"math"

	"github.com/verte-zerg/babylog/internal/trend"
)

var strengthLabels = map[Strength][2]string{
	VeryWeak:   {"very weak", "非常に弱い"},
	Weak:       {"weak", "弱い"},
	Moderate:   {"moderate", "中程度の"},
	Strong:     {"strong", "強い"},
	VeryStrong: {"very strong", "非常に強い"},
}

var directionLabels = map[Direction][2]string{
	Positive: {"positive", "正の"},
	Negative: {"negative", "負の"},
}

var severityLabels = map[Severity][2]string{
	SeverityMild:     {"a mild", "軽度の"},
	SeverityModerate: {"a moderate", "中程度の"},
	SeverityExtreme:  {"an extreme", "極端な"},
}

func label(labels [2]string, lang string) string {
	if lang == "ja" {
		return labels[1]
	}
	return labels[0]
}

// CorrelationInsight describes a correlation as one sentence in lang.
func CorrelationInsight(r Result, lang string) string {
	a := r.ActivityA.Label(lang)
	b := r.ActivityB.Label(lang)
	if r.Direction == None {
		if lang == "ja" {
			return fmt.Sprintf("%sと%sには目立った相関はありません（r = %.2f）", a, b, r.Coefficient)
		}
		return fmt.Sprintf("%s and %s show no meaningful correlation (r = %.2f)", a, b, r.Coefficient)
	}
	strength := label(strengthLabels[r.Strength], lang)
	direction := label(directionLabels[r.Direction], lang)
	if lang == "ja" {
		return fmt.Sprintf("%sと%sには%s%s相関があります（r = %.2f）", a, b, strength, direction, r.Coefficient)
	}
	return fmt.Sprintf("%s and %s show a %s %s correlation (r = %.2f)", a, b, strength, direction, r.Coefficient)
}

// OutlierInsight describes an outlier as one sentence in lang.
func OutlierInsight(o Outlier, lang string) string {
	when := o.Record.Timestamp.Format("2006-01-02 15:04")
	activity := o.ActivityType.Label(lang)
	metric := trend.MetricLabel(o.Metric, lang)
	value := fmt.Sprintf("%g %s", o.Value, o.Metric.Unit(o.ActivityType))
	severity := label(severityLabels[o.Severity], lang)

	var detail string
	switch o.Method {
	case MethodZScore:
		detail = fmt.Sprintf("z = %.2f", o.Score)
	default:
		if lang == "ja" {
			detail = fmt.Sprintf("範囲外 %.1f IQR", math.Abs(o.Score))
		} else {
			detail = fmt.Sprintf("%.1f× IQR beyond range", math.Abs(o.Score))
		}
	}
	if lang == "ja" {
		return fmt.Sprintf("%s の%sの%s %s は%s外れ値です（%s）", when, activity, metric, value, severity, detail)
	}
	return fmt.Sprintf("%s %s %s %s is %s outlier (%s)", when, activity, metric, value, severity, detail)
}
