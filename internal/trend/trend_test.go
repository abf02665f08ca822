package trend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/babylog/internal/model"
)

func points(values ...float64) []Point {
	out := make([]Point, len(values))
	for i, v := range values {
		out[i] = Point{Date: day(1+i, 0), Value: v}
	}
	return out
}

func TestLinearRegressionDegenerate(t *testing.T) {
	assert.Nil(t, LinearRegression(nil))
	assert.Nil(t, LinearRegression(points(5)))
	assert.Nil(t, LinearRegression(points(10, 10, 10)))
}

func TestLinearRegressionPerfectFit(t *testing.T) {
	reg := LinearRegression(points(1, 3, 5, 7))
	require.NotNil(t, reg)
	assert.InDelta(t, 2, reg.Slope, 1e-9)
	assert.InDelta(t, 1, reg.Intercept, 1e-9)
	assert.InDelta(t, 1, reg.RSquared, 1e-9)
}

func TestLinearRegressionUsesElapsedDays(t *testing.T) {
	pts := []Point{
		{Date: day(1, 0), Value: 0},
		{Date: day(2, 0), Value: 1},
		{Date: day(11, 0), Value: 10},
	}
	reg := LinearRegression(pts)
	require.NotNil(t, reg)
	assert.InDelta(t, 1, reg.Slope, 1e-9)
}

func TestHasEnoughDataForTrend(t *testing.T) {
	assert.False(t, HasEnoughDataForTrend(points(1, 2, 3, 4, 5, 6)))
	assert.True(t, HasEnoughDataForTrend(points(1, 2, 3, 4, 5, 6, 7)))

	clustered := points(1, 2, 3, 4, 5, 6, 7)
	for i := range clustered {
		clustered[i].Date = day(1, 0)
	}
	clustered[6].Date = day(5, 0)
	assert.False(t, HasEnoughDataForTrend(clustered))
}

func TestClassifyDirection(t *testing.T) {
	assert.Equal(t, Stable, ClassifyDirection(0.005, DefaultThreshold))
	assert.Equal(t, Stable, ClassifyDirection(-0.005, DefaultThreshold))
	assert.Equal(t, Increasing, ClassifyDirection(0.02, DefaultThreshold))
	assert.Equal(t, Decreasing, ClassifyDirection(-0.02, DefaultThreshold))
}

func TestClassifySignificance(t *testing.T) {
	cases := []struct {
		magnitude, confidence float64
		want                  Significance
	}{
		{0.6, 0.8, SignificanceHigh},
		{-0.6, 0.8, SignificanceHigh},
		{0.1, 0.8, SignificanceMedium},
		{0.4, 0.1, SignificanceMedium},
		{0.1, 0.1, SignificanceLow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifySignificance(tc.magnitude, tc.confidence), "%+v", tc)
	}
}

func TestAnalyzeFrequencyTrendInsufficientData(t *testing.T) {
	a := AnalyzeFrequencyTrend([]model.Record{record(model.ActivityFeeding, day(1, 8))}, model.ActivityFeeding)
	assert.False(t, a.HasEnoughData)
	assert.Equal(t, Stable, a.Direction)
	assert.Zero(t, a.Magnitude)
	assert.Zero(t, a.Confidence)
	assert.Equal(t, SignificanceLow, a.Significance)
	assert.Nil(t, a.Regression)
}

func TestAnalyzeAllTrendsEndToEnd(t *testing.T) {
	var records []model.Record
	for i := 0; i < 7; i++ {
		records = append(records,
			withDuration(record(model.ActivityFeeding, day(1+i, 8)), float64(20+2*i)),
			withQuantity(record(model.ActivityWeight, day(1+i, 9)), 4.2+0.04*float64(i)),
		)
	}

	feeding := AnalyzeAllTrends(records, model.ActivityFeeding)
	require.Len(t, feeding, 2)
	assert.Equal(t, model.MetricFrequency, feeding[0].Metric)
	assert.True(t, feeding[0].HasEnoughData)
	assert.Equal(t, Stable, feeding[0].Direction)

	duration := feeding[1]
	assert.Equal(t, model.MetricDuration, duration.Metric)
	assert.Equal(t, Increasing, duration.Direction)
	assert.InDelta(t, 2, duration.Magnitude, 1e-9)
	assert.Equal(t, SignificanceHigh, duration.Significance)

	weight := AnalyzeAllTrends(records, model.ActivityWeight)
	require.Len(t, weight, 2)
	assert.Equal(t, model.MetricQuantity, weight[1].Metric)
	assert.Contains(t, []Direction{Increasing, Stable}, weight[1].Direction)
}

func TestAnalyzerThreshold(t *testing.T) {
	var records []model.Record
	for i := 0; i < 7; i++ {
		records = append(records, withQuantity(record(model.ActivityWeight, day(1+i, 9)), 4.2+0.04*float64(i)))
	}
	a := NewAnalyzer(0.1).Metric(records, model.ActivityWeight, model.MetricQuantity)
	assert.Equal(t, Stable, a.Direction)
	assert.Equal(t, DefaultThreshold, NewAnalyzer(0).Threshold)
}

func TestSignificantTrends(t *testing.T) {
	got := SignificantTrends([]Analysis{
		{Metric: model.MetricFrequency, Significance: SignificanceLow, Confidence: 0.9},
		{Metric: model.MetricDuration, Significance: SignificanceMedium, Confidence: 0.5},
		{Metric: model.MetricQuantity, Significance: SignificanceHigh, Confidence: 0.8},
	})
	require.Len(t, got, 2)
	assert.Equal(t, model.MetricQuantity, got[0].Metric)
	assert.Equal(t, model.MetricDuration, got[1].Metric)
}

func TestInsight(t *testing.T) {
	a := Analysis{
		ActivityType:  model.ActivityFeeding,
		Metric:        model.MetricDuration,
		Direction:     Increasing,
		Magnitude:     2,
		Confidence:    1,
		HasEnoughData: true,
	}
	assert.Equal(t, "Feeding duration is increasing (+2.00 min/day, R² 1.00)", Insight(a, "en"))
	assert.Equal(t, "授乳の時間は増加傾向です（+2.00 min/day、R² 1.00）", Insight(a, "ja"))

	a.HasEnoughData = false
	assert.Equal(t, "Not enough data yet for Feeding duration", Insight(a, "en"))
}
