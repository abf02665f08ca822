package correlation

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/babylog/internal/model"
)

func quantities(a model.ActivityType, values ...float64) []model.Record {
	out := make([]model.Record, len(values))
	for i, v := range values {
		out[i] = model.Record{
			ID:           fmt.Sprintf("q%d", i),
			ActivityType: a,
			Timestamp:    day(1+i%28, 8),
			Quantity:     model.Float(v),
		}
	}
	return out
}

func seq(from, to int) []float64 {
	var out []float64
	for i := from; i <= to; i++ {
		out = append(out, float64(i))
	}
	return out
}

func TestZScoreOutliers(t *testing.T) {
	values := make([]float64, 19)
	for i := range values {
		values[i] = 10
	}
	records := quantities(model.ActivityFeeding, append(values, 100)...)

	got := ZScoreOutliers(records, model.ActivityFeeding, model.MetricQuantity, DefaultZScoreThreshold)
	require.Len(t, got, 1)
	assert.Equal(t, "q19", got[0].Record.ID)
	assert.Equal(t, 100.0, got[0].Value)
	assert.Equal(t, MethodZScore, got[0].Method)
	assert.InDelta(t, 4.359, got[0].Score, 1e-3)
	assert.Equal(t, SeverityExtreme, got[0].Severity)
}

func TestZScoreSeverity(t *testing.T) {
	assert.Equal(t, SeverityMild, zSeverity(3.2))
	assert.Equal(t, SeverityModerate, zSeverity(-3.6))
	assert.Equal(t, SeverityExtreme, zSeverity(4.1))
}

func TestOutliersMinimumSample(t *testing.T) {
	records := quantities(model.ActivityFeeding, 10, 10, 10, 1000)
	assert.Empty(t, ZScoreOutliers(records, model.ActivityFeeding, model.MetricQuantity, DefaultZScoreThreshold))
	assert.Empty(t, IQROutliers(records, model.ActivityFeeding, model.MetricQuantity, DefaultIQRMultiplier, QuartileInterpolated))
	assert.Empty(t, AllOutliers(records, model.ActivityFeeding, model.MetricQuantity))
}

func TestOutliersIgnoreOtherActivitiesAndMissingValues(t *testing.T) {
	records := quantities(model.ActivityWeight, 10, 10, 10, 10, 10, 1000)
	records = append(records, model.Record{ID: "none", ActivityType: model.ActivityFeeding, Timestamp: day(1, 1)})
	assert.Empty(t, AllOutliers(records, model.ActivityFeeding, model.MetricQuantity))
	assert.Empty(t, AllOutliers(records, model.ActivityWeight, model.MetricDuration))
}

func TestIQROutliers(t *testing.T) {
	records := quantities(model.ActivityFeeding, 10, 11, 12, 13, 14, 100)
	got := IQROutliers(records, model.ActivityFeeding, model.MetricQuantity, DefaultIQRMultiplier, QuartileInterpolated)
	require.Len(t, got, 1)
	assert.Equal(t, 100.0, got[0].Value)
	assert.Equal(t, MethodIQR, got[0].Method)
	assert.InDelta(t, 33, got[0].Score, 1e-9)
	assert.Equal(t, SeverityExtreme, got[0].Severity)
}

func TestIQRQuartileMethods(t *testing.T) {
	records := quantities(model.ActivityFeeding, append(seq(1, 9), 15)...)

	interpolated := IQROutliers(records, model.ActivityFeeding, model.MetricQuantity, DefaultIQRMultiplier, QuartileInterpolated)
	require.Len(t, interpolated, 1)
	assert.Equal(t, 15.0, interpolated[0].Value)
	assert.Equal(t, SeverityMild, interpolated[0].Severity)

	floor := IQROutliers(records, model.ActivityFeeding, model.MetricQuantity, DefaultIQRMultiplier, QuartileFloor)
	assert.Empty(t, floor)
}

func TestIQRZeroSpread(t *testing.T) {
	records := quantities(model.ActivityFeeding, 10, 10, 4, 10, 10, 10, 50)
	got := IQROutliers(records, model.ActivityFeeding, model.MetricQuantity, DefaultIQRMultiplier, QuartileInterpolated)
	require.Len(t, got, 2)
	assert.Equal(t, 4.0, got[0].Value)
	assert.Equal(t, -6.0, got[0].Score)
	assert.Equal(t, 50.0, got[1].Value)
	assert.Equal(t, 40.0, got[1].Score)
	for _, o := range got {
		assert.Equal(t, SeverityExtreme, o.Severity)
		assert.False(t, math.IsInf(o.Score, 0) || math.IsNaN(o.Score))
	}
}

func TestAllOutliersZeroSpreadSpike(t *testing.T) {
	records := quantities(model.ActivityFeeding, 100, 100, 100, 100, 100, 100, 900)
	got := AllOutliers(records, model.ActivityFeeding, model.MetricQuantity)
	require.Len(t, got, 1)
	assert.Equal(t, "q6", got[0].Record.ID)
	assert.Equal(t, MethodIQR, got[0].Method)
	assert.Equal(t, 800.0, got[0].Score)
	assert.Equal(t, SeverityExtreme, got[0].Severity)
}

func TestAllOutliersWithoutRecordIDs(t *testing.T) {
	records := quantities(model.ActivityFeeding, append(seq(1, 19), 200, 300)...)
	withIDs := AllOutliers(records, model.ActivityFeeding, model.MetricQuantity)

	for i := range records {
		records[i].ID = ""
	}
	got := AllOutliers(records, model.ActivityFeeding, model.MetricQuantity)
	require.Len(t, got, 2)
	assert.Len(t, got, len(withIDs))
	assert.ElementsMatch(t, []float64{200, 300}, []float64{got[0].Value, got[1].Value})
}

func TestAllOutliersPrefersZScore(t *testing.T) {
	records := quantities(model.ActivityFeeding, append(seq(1, 19), 200)...)
	got := AllOutliers(records, model.ActivityFeeding, model.MetricQuantity)
	require.Len(t, got, 1)
	assert.Equal(t, "q19", got[0].Record.ID)
	assert.Equal(t, MethodZScore, got[0].Method)
}

func TestDetectorSortsByScore(t *testing.T) {
	records := quantities(model.ActivityFeeding, append(seq(1, 19), 60, 200)...)
	got := DefaultDetector().All(records, model.ActivityFeeding, model.MetricQuantity)
	require.NotEmpty(t, got)
	assert.Equal(t, 200.0, got[0].Value)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, abs(got[i-1].Score), abs(got[i].Score))
	}
}

func TestParseQuartileMethod(t *testing.T) {
	m, err := ParseQuartileMethod("")
	require.NoError(t, err)
	assert.Equal(t, QuartileInterpolated, m)

	m, err = ParseQuartileMethod("floor")
	require.NoError(t, err)
	assert.Equal(t, QuartileFloor, m)

	_, err = ParseQuartileMethod("median")
	assert.Error(t, err)
}
