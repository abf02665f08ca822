package correlation

import (
	"fmt"
	"math"
	"sort"

	"github.com/verte-zerg/babylog/internal/model"
	"github.com/verte-zerg/babylog/internal/stats"
)

const (
	// MinOutlierValues is the sample size below which no outliers are reported.
	MinOutlierValues       = 5
	DefaultZScoreThreshold = 3.0
	DefaultIQRMultiplier   = 1.5
)

// Method identifies the outlier test that flagged a record.
type Method string

const (
	MethodZScore Method = "zscore"
	MethodIQR    Method = "iqr"
)

// Severity grades how far a value lies from the bulk of the sample.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeverityExtreme  Severity = "extreme"
)

// QuartileMethod selects how the IQR test computes Q1 and Q3.
type QuartileMethod string

const (
	// QuartileInterpolated uses the same interpolated percentile as stats.Summarize.
	QuartileInterpolated QuartileMethod = "interpolated"
	// QuartileFloor indexes sorted values at floor(n*0.25) and floor(n*0.75).
	QuartileFloor QuartileMethod = "floor"
)

// ParseQuartileMethod resolves a quartile method name; empty means interpolated.
func ParseQuartileMethod(s string) (QuartileMethod, error) {
	switch QuartileMethod(s) {
	case "", QuartileInterpolated:
		return QuartileInterpolated, nil
	case QuartileFloor:
		return QuartileFloor, nil
	}
	return "", fmt.Errorf("unknown quartile method %q", s)
}

// Outlier is one flagged record. Score is the signed z-score for MethodZScore
// and the signed number of IQRs beyond the fence for MethodIQR, or the raw
// distance past the fence when the IQR is zero.
type Outlier struct {
	Record       model.Record       `json:"record"`
	ActivityType model.ActivityType `json:"activityType"`
	Metric       model.Metric       `json:"metric"`
	Value        float64            `json:"value"`
	Method       Method             `json:"method"`
	Score        float64            `json:"score"`
	Severity     Severity           `json:"severity"`

	// index is the record's position in the filtered sample.
	index int
}

type sample struct {
	record model.Record
	value  float64
	index  int
}

func collect(records []model.Record, activity model.ActivityType, metric model.Metric) []sample {
	var out []sample
	for _, r := range records {
		if r.ActivityType != activity {
			continue
		}
		if v, ok := r.Value(metric); ok {
			out = append(out, sample{record: r, value: v, index: len(out)})
		}
	}
	return out
}

func values(samples []sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.value
	}
	return out
}

// ZScoreOutliers flags values whose |z| exceeds threshold.
func ZScoreOutliers(records []model.Record, activity model.ActivityType, metric model.Metric, threshold float64) []Outlier {
	samples := collect(records, activity, metric)
	if len(samples) < MinOutlierValues {
		return nil
	}
	mean, sd := stats.MeanStdDev(values(samples))
	if sd == 0 {
		return nil
	}
	var out []Outlier
	for _, s := range samples {
		z := (s.value - mean) / sd
		if math.Abs(z) <= threshold {
			continue
		}
		out = append(out, Outlier{
			Record:       s.record,
			ActivityType: activity,
			Metric:       metric,
			Value:        s.value,
			Method:       MethodZScore,
			Score:        z,
			Severity:     zSeverity(z),
			index:        s.index,
		})
	}
	return out
}

func zSeverity(z float64) Severity {
	a := math.Abs(z)
	switch {
	case a > 4:
		return SeverityExtreme
	case a > 3.5:
		return SeverityModerate
	default:
		return SeverityMild
	}
}

// IQROutliers flags values outside [Q1 - m·IQR, Q3 + m·IQR]. With a zero IQR
// the fences collapse to [Q1, Q3]; anything outside is extreme and scored by
// its raw distance from the fence.
func IQROutliers(records []model.Record, activity model.ActivityType, metric model.Metric, multiplier float64, method QuartileMethod) []Outlier {
	samples := collect(records, activity, metric)
	if len(samples) < MinOutlierValues {
		return nil
	}
	q1, q3 := quartiles(values(samples), method)
	iqr := q3 - q1
	lower := q1 - multiplier*iqr
	upper := q3 + multiplier*iqr
	var out []Outlier
	for _, s := range samples {
		var dist float64
		switch {
		case s.value < lower:
			dist = s.value - lower
		case s.value > upper:
			dist = s.value - upper
		default:
			continue
		}
		score, severity := dist, SeverityExtreme
		if iqr > 0 {
			score = dist / iqr
			severity = iqrSeverity(score)
		}
		out = append(out, Outlier{
			Record:       s.record,
			ActivityType: activity,
			Metric:       metric,
			Value:        s.value,
			Method:       MethodIQR,
			Score:        score,
			Severity:     severity,
			index:        s.index,
		})
	}
	return out
}

func iqrSeverity(score float64) Severity {
	a := math.Abs(score)
	switch {
	case a > 3:
		return SeverityExtreme
	case a > 2:
		return SeverityModerate
	default:
		return SeverityMild
	}
}

func quartiles(vs []float64, method QuartileMethod) (q1, q3 float64) {
	if method == QuartileFloor {
		sorted := make([]float64, len(vs))
		copy(sorted, vs)
		sort.Float64s(sorted)
		n := float64(len(sorted))
		return sorted[int(math.Floor(n*0.25))], sorted[int(math.Floor(n*0.75))]
	}
	return stats.Percentile(vs, 25), stats.Percentile(vs, 75)
}

// Detector bundles outlier thresholds.
type Detector struct {
	ZScoreThreshold float64
	IQRMultiplier   float64
	QuartileMethod  QuartileMethod
}

// DefaultDetector returns a Detector with the default thresholds.
func DefaultDetector() Detector {
	return Detector{
		ZScoreThreshold: DefaultZScoreThreshold,
		IQRMultiplier:   DefaultIQRMultiplier,
		QuartileMethod:  QuartileInterpolated,
	}
}

// All unions the z-score and IQR results, one entry per sampled record,
// preferring the z-score result, largest |score| first.
func (d Detector) All(records []model.Record, activity model.ActivityType, metric model.Metric) []Outlier {
	z := ZScoreOutliers(records, activity, metric, d.ZScoreThreshold)
	iqr := IQROutliers(records, activity, metric, d.IQRMultiplier, d.QuartileMethod)

	seen := make(map[int]struct{}, len(z))
	out := make([]Outlier, 0, len(z)+len(iqr))
	for _, o := range z {
		seen[o.index] = struct{}{}
		out = append(out, o)
	}
	for _, o := range iqr {
		if _, ok := seen[o.index]; ok {
			continue
		}
		seen[o.index] = struct{}{}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Score) > math.Abs(out[j].Score)
	})
	return out
}

// AllOutliers runs Detector.All with default thresholds.
func AllOutliers(records []model.Record, activity model.ActivityType, metric model.Metric) []Outlier {
	return DefaultDetector().All(records, activity, metric)
}
