package stats

import (
	"sort"

	"github.com/verte-zerg/babylog/internal/model"
)

// UniqueActivityTypes returns the activity types present, most frequent first.
// Ties keep canonical order.
func UniqueActivityTypes(records []model.Record) []model.ActivityType {
	return TopActivities(records, 0)
}

// TopActivities returns the n most frequent activity types. n <= 0 returns all.
func TopActivities(records []model.Record, n int) []model.ActivityType {
	counts := map[model.ActivityType]int{}
	for _, r := range records {
		counts[r.ActivityType]++
	}
	out := make([]model.ActivityType, 0, len(counts))
	for a := range counts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] == counts[out[j]] {
			return out[i].Index() < out[j].Index()
		}
		return counts[out[i]] > counts[out[j]]
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
