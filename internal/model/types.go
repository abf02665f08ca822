// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// ActivityType is one of the fixed set of tracked activities.
type ActivityType string

const (
	ActivityFeeding     ActivityType = "feeding"
	ActivitySleeping    ActivityType = "sleeping"
	ActivityDiaper      ActivityType = "diaper"
	ActivityTemperature ActivityType = "temperature"
	ActivityWeight      ActivityType = "weight"
	ActivityHeight      ActivityType = "height"
	ActivityBath        ActivityType = "bath"
	ActivityWalk        ActivityType = "walk"
	ActivityMedicine    ActivityType = "medicine"
	ActivityHospital    ActivityType = "hospital"
)

// ActivityTypes lists every activity type in canonical order.
var ActivityTypes = []ActivityType{
	ActivityFeeding,
	ActivitySleeping,
	ActivityDiaper,
	ActivityTemperature,
	ActivityWeight,
	ActivityHeight,
	ActivityBath,
	ActivityWalk,
	ActivityMedicine,
	ActivityHospital,
}

var activityLabels = map[ActivityType][2]string{
	ActivityFeeding:     {"Feeding", "授乳"},
	ActivitySleeping:    {"Sleep", "睡眠"},
	ActivityDiaper:      {"Diaper", "おむつ"},
	ActivityTemperature: {"Temperature", "体温"},
	ActivityWeight:      {"Weight", "体重"},
	ActivityHeight:      {"Height", "身長"},
	ActivityBath:        {"Bath", "お風呂"},
	ActivityWalk:        {"Walk", "散歩"},
	ActivityMedicine:    {"Medicine", "薬"},
	ActivityHospital:    {"Hospital", "病院"},
}

// Valid reports whether a is a member of the closed activity set.
func (a ActivityType) Valid() bool {
	_, ok := activityLabels[a]
	return ok
}

// Index returns the canonical position of a, or len(ActivityTypes) if unknown.
func (a ActivityType) Index() int {
	for i, t := range ActivityTypes {
		if t == a {
			return i
		}
	}
	return len(ActivityTypes)
}

// Label returns a display label for the given language ("en" or "ja").
func (a ActivityType) Label(lang string) string {
	labels, ok := activityLabels[a]
	if !ok {
		return string(a)
	}
	if lang == "ja" {
		return labels[1]
	}
	return labels[0]
}

// ParseActivityType resolves an activity type name.
func ParseActivityType(s string) (ActivityType, error) {
	a := ActivityType(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown activity type %q", s)
	}
	return a, nil
}

// Metric selects the numeric field of a record used by an analysis.
type Metric string

const (
	MetricFrequency Metric = "frequency"
	MetricDuration  Metric = "duration"
	MetricQuantity  Metric = "quantity"
)

// Unit returns the unit of a metric for the given activity.
func (m Metric) Unit(a ActivityType) string {
	switch m {
	case MetricFrequency:
		return "/day"
	case MetricDuration:
		return "min"
	case MetricQuantity:
		switch a {
		case ActivityFeeding:
			return "ml"
		case ActivityWeight:
			return "kg"
		case ActivityHeight:
			return "cm"
		case ActivityTemperature:
			return "°C"
		}
	}
	return ""
}

// RecordMetadata describes where a record came from.
type RecordMetadata struct {
	ImportedAt       time.Time `json:"importedAt"`
	ImportedFilename string    `json:"importedFilename"`
}

// Record is a single activity event. Duration is in minutes; Quantity's unit
// depends on the activity. Nil means absent, which differs from zero.
type Record struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	ActivityType ActivityType   `json:"activityType"`
	Duration     *float64       `json:"duration,omitempty"`
	Quantity     *float64       `json:"quantity,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	Metadata     RecordMetadata `json:"metadata"`
}

// Value returns the record's value for m. Frequency always yields 1.
func (r Record) Value(m Metric) (float64, bool) {
	switch m {
	case MetricFrequency:
		return 1, true
	case MetricDuration:
		if r.Duration != nil {
			return *r.Duration, true
		}
	case MetricQuantity:
		if r.Quantity != nil {
			return *r.Quantity, true
		}
	}
	return 0, false
}

// Float returns a pointer to v, for populating optional record fields.
func Float(v float64) *float64 {
	return &v
}

// ParseError describes a line (or CSV row) that could not be converted.
type ParseError struct {
	Line    int    `json:"line"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	RawText string `json:"rawText,omitempty"`
}

// ParseResult is the output of a parser run.
type ParseResult struct {
	Records          []Record     `json:"records"`
	Errors           []ParseError `json:"errors"`
	TotalLines       int          `json:"totalLines"`
	ParsedEventCount int          `json:"parsedEventCount"`
}

// RecordFilter selects stored records.
type RecordFilter struct {
	Since    *time.Time
	Until    *time.Time
	Activity ActivityType
}

// ImportSummary describes one stored import.
type ImportSummary struct {
	ID          int64
	Filename    string
	Format      string
	ImportedAt  time.Time
	TotalLines  int
	RecordCount int
	Inserted    int
	ErrorCount  int
}

// ReportConfig defines filters and options for report output.
type ReportConfig struct {
	Since    *time.Time
	Until    *time.Time
	Activity ActivityType
	Lang     string
	Plot     bool
}
