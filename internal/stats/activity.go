package stats

import (
	"math"
	"time"

	"github.com/verte-zerg/babylog/internal/model"
)

// TimeDistribution counts events by hour of day and by named part of day.
type TimeDistribution struct {
	Hourly    [24]int `json:"hourly"`
	Morning   int     `json:"morning"`
	Afternoon int     `json:"afternoon"`
	Evening   int     `json:"evening"`
	Night     int     `json:"night"`
}

// Add counts one event at hour h.
func (d *TimeDistribution) Add(h int) {
	if h < 0 || h > 23 {
		return
	}
	d.Hourly[h]++
	switch {
	case h >= 6 && h < 12:
		d.Morning++
	case h >= 12 && h < 18:
		d.Afternoon++
	case h >= 18 && h < 22:
		d.Evening++
	default:
		d.Night++
	}
}

// ActivityStats summarises the records of one activity type.
type ActivityStats struct {
	ActivityType     model.ActivityType `json:"activityType"`
	Frequency        int                `json:"frequency"`
	Duration         *Summary           `json:"duration"`
	Quantity         *Summary           `json:"quantity"`
	TimeDistribution TimeDistribution   `json:"timeDistribution"`
}

// ActivityStatistics computes statistics for the records matching activity.
func ActivityStatistics(records []model.Record, activity model.ActivityType) ActivityStats {
	out := ActivityStats{ActivityType: activity}
	var durations, quantities []float64
	for _, r := range records {
		if r.ActivityType != activity {
			continue
		}
		out.Frequency++
		if r.Duration != nil {
			durations = append(durations, *r.Duration)
		}
		if r.Quantity != nil {
			quantities = append(quantities, *r.Quantity)
		}
		out.TimeDistribution.Add(r.Timestamp.Hour())
	}
	out.Duration = Summarize(durations)
	out.Quantity = Summarize(quantities)
	return out
}

// DateRange spans the records. DurationDays is at least 1 when any record exists.
type DateRange struct {
	Earliest     *time.Time `json:"earliest"`
	Latest       *time.Time `json:"latest"`
	DurationDays int        `json:"durationDays"`
}

// OverallStats summarises a whole record collection.
type OverallStats struct {
	TotalRecords      int                        `json:"totalRecords"`
	DateRange         DateRange                  `json:"dateRange"`
	ActivityTypeCount int                        `json:"activityTypeCount"`
	RecordsPerDay     float64                    `json:"recordsPerDay"`
	ActivityBreakdown map[model.ActivityType]int `json:"activityBreakdown"`
}

// OverallStatistics computes totals, the covered date range and per-activity counts.
func OverallStatistics(records []model.Record) OverallStats {
	out := OverallStats{ActivityBreakdown: map[model.ActivityType]int{}}
	if len(records) == 0 {
		return out
	}
	earliest := records[0].Timestamp
	latest := records[0].Timestamp
	for _, r := range records {
		out.ActivityBreakdown[r.ActivityType]++
		if r.Timestamp.Before(earliest) {
			earliest = r.Timestamp
		}
		if r.Timestamp.After(latest) {
			latest = r.Timestamp
		}
	}
	days := int(math.Ceil(latest.Sub(earliest).Hours() / 24))
	if days < 1 {
		days = 1
	}
	out.TotalRecords = len(records)
	out.DateRange = DateRange{Earliest: &earliest, Latest: &latest, DurationDays: days}
	out.ActivityTypeCount = len(out.ActivityBreakdown)
	out.RecordsPerDay = float64(out.TotalRecords) / float64(days)
	return out
}

// FilterByDateRange keeps records within [start, end], both optional. The end
// is extended to the last instant of its calendar day.
func FilterByDateRange(records []model.Record, start, end *time.Time) []model.Record {
	var endOfDay time.Time
	if end != nil {
		endOfDay = EndOfDay(*end)
	}
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if start != nil && r.Timestamp.Before(*start) {
			continue
		}
		if end != nil && r.Timestamp.After(endOfDay) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// EndOfDay returns 23:59:59.999 on t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// FilterByActivity keeps records of the given type; an empty type keeps all.
func FilterByActivity(records []model.Record, activity model.ActivityType) []model.Record {
	if activity == "" {
		return records
	}
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if r.ActivityType == activity {
			out = append(out, r)
		}
	}
	return out
}
