package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/verte-zerg/babylog/internal/model"
)

const numberPattern = `(\d+(?:\.\d+)?)`

var (
	leftPattern   = regexp.MustCompile(`左\s*` + numberPattern + `\s*(?:分|min)`)
	rightPattern  = regexp.MustCompile(`右\s*` + numberPattern + `\s*(?:分|min)`)
	volumePattern = regexp.MustCompile(`(?i)` + numberPattern + `\s*ml`)
	weightPattern = regexp.MustCompile(`(?i)` + numberPattern + `\s*kg`)
	heightPattern = regexp.MustCompile(`(?i)` + numberPattern + `\s*cm`)
	tempPattern   = regexp.MustCompile(numberPattern + `\s*(?:°C|°c|℃|度)`)
	spanPattern   = regexp.MustCompile(`(?:(\d+)\s*時間)?\s*(?:(\d+)\s*分)?`)
)

// applyDetail fills the activity-specific fields of rec from the detail text.
func applyDetail(rec *model.Record, rule keywordRule, eventType, detail string) {
	switch rule.detail {
	case detailBreast:
		applyBreast(rec, detail)
	case detailBottle:
		if v, ok := findNumber(volumePattern, detail); ok {
			rec.Quantity = model.Float(v)
		}
		rec.Notes = orLabel(detail, eventType)
	case detailMeasurement:
		applyMeasurement(rec, eventType, detail)
	case detailSpan:
		if minutes, ok := findSpan(detail); ok {
			rec.Duration = model.Float(minutes)
		}
		rec.Notes = orLabel(detail, eventType)
	default:
		rec.Notes = orLabel(detail, eventType)
	}
}

func applyBreast(rec *model.Record, detail string) {
	left, hasLeft := findNumber(leftPattern, detail)
	right, hasRight := findNumber(rightPattern, detail)
	switch {
	case hasLeft && hasRight:
		rec.Duration = model.Float(left + right)
		rec.Notes = "左" + formatNumber(left) + "分 右" + formatNumber(right) + "分"
	case hasLeft:
		rec.Duration = model.Float(left)
		rec.Notes = "左" + formatNumber(left) + "分"
	case hasRight:
		rec.Duration = model.Float(right)
		rec.Notes = "右" + formatNumber(right) + "分"
	default:
		rec.Notes = detail
	}
}

// applyMeasurement reads the first recognised unit and lets it decide the
// activity, whichever measurement keyword led here.
func applyMeasurement(rec *model.Record, eventType, detail string) {
	rec.Notes = orLabel(detail, eventType)
	text := detail
	if text == "" {
		text = eventType
	}
	if v, ok := findNumber(weightPattern, text); ok {
		rec.ActivityType = model.ActivityWeight
		rec.Quantity = model.Float(v)
		return
	}
	if v, ok := findNumber(heightPattern, text); ok {
		rec.ActivityType = model.ActivityHeight
		rec.Quantity = model.Float(v)
		return
	}
	if v, ok := findNumber(tempPattern, text); ok {
		rec.ActivityType = model.ActivityTemperature
		rec.Quantity = model.Float(v)
	}
}

func findNumber(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// findSpan extracts "N時間M分" style durations in minutes.
func findSpan(text string) (float64, bool) {
	for _, m := range spanPattern.FindAllStringSubmatch(text, -1) {
		if m[1] == "" && m[2] == "" {
			continue
		}
		total := 0.0
		if m[1] != "" {
			h, err := strconv.Atoi(m[1])
			if err != nil {
				return 0, false
			}
			total += float64(h) * 60
		}
		if m[2] != "" {
			mins, err := strconv.Atoi(m[2])
			if err != nil {
				return 0, false
			}
			total += float64(mins)
		}
		return total, true
	}
	return 0, false
}

func orLabel(detail, label string) string {
	if strings.TrimSpace(detail) == "" {
		return label
	}
	return detail
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
