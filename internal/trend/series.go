// Package trend builds daily time series from records and fits linear trends.
package trend

import (
	"math"
	"sort"
	"time"

	"github.com/verte-zerg/babylog/internal/model"
)

const dateKeyLayout = "2006-01-02"

// Point is one day of a daily series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Aggregation reduces a day's values to one number.
type Aggregation string

const (
	AggregateSum     Aggregation = "sum"
	AggregateAverage Aggregation = "average"
)

// DateKey returns the calendar date of t as YYYY-MM-DD in t's own location.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// GroupByCalendarDate buckets records by DateKey.
func GroupByCalendarDate(records []model.Record) map[string][]model.Record {
	out := map[string][]model.Record{}
	for _, r := range records {
		k := DateKey(r.Timestamp)
		out[k] = append(out[k], r)
	}
	return out
}

// SortedKeys returns the keys of a date grouping in ascending order.
func SortedKeys[V any](groups map[string]V) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DailyFrequency counts records of activity per day. Days without a matching
// record are absent.
func DailyFrequency(records []model.Record, activity model.ActivityType) []Point {
	groups := GroupByCalendarDate(records)
	var out []Point
	for _, k := range SortedKeys(groups) {
		var n int
		var day time.Time
		for _, r := range groups[k] {
			if r.ActivityType == activity {
				n++
				day = r.Timestamp
			}
		}
		if n > 0 {
			out = append(out, Point{Date: midnight(day), Value: float64(n)})
		}
	}
	return out
}

// DailyAggregate reduces the metric values of activity per day. Days where no
// matching record carries the metric are absent.
func DailyAggregate(records []model.Record, activity model.ActivityType, metric model.Metric, agg Aggregation) []Point {
	groups := GroupByCalendarDate(records)
	var out []Point
	for _, k := range SortedKeys(groups) {
		var sum float64
		var n int
		var day time.Time
		for _, r := range groups[k] {
			if r.ActivityType != activity {
				continue
			}
			v, ok := r.Value(metric)
			if !ok {
				continue
			}
			sum += v
			n++
			day = r.Timestamp
		}
		if n == 0 {
			continue
		}
		value := sum
		if agg == AggregateAverage {
			value = sum / float64(n)
		}
		out = append(out, Point{Date: midnight(day), Value: value})
	}
	return out
}

// Values extracts the values of a series.
func Values(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts elapsed days between two midnights, tolerating DST shifts.
func daysBetween(from, to time.Time) float64 {
	return math.Round(to.Sub(from).Hours() / 24)
}
