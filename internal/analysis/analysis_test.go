package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/babylog/internal/correlation"
	"github.com/verte-zerg/babylog/internal/model"
	"github.com/verte-zerg/babylog/internal/trend"
)

func weekOfRecords() []model.Record {
	var out []model.Record
	for i := 0; i < 7; i++ {
		day := time.Date(2024, time.March, 1+i, 0, 0, 0, 0, time.UTC)
		out = append(out,
			model.Record{
				ID:           "feed-" + day.Format("0102"),
				Timestamp:    day.Add(8 * time.Hour),
				ActivityType: model.ActivityFeeding,
				Duration:     model.Float(float64(20 + 2*i)),
			},
			model.Record{
				ID:           "weight-" + day.Format("0102"),
				Timestamp:    day.Add(9 * time.Hour),
				ActivityType: model.ActivityWeight,
				Quantity:     model.Float(4.2 + 0.04*float64(i)),
			},
		)
	}
	return out
}

func TestRun(t *testing.T) {
	records := weekOfRecords()
	report, err := Run(context.Background(), records, Options{})
	require.NoError(t, err)

	assert.Equal(t, 14, report.Overall.TotalRecords)
	require.Len(t, report.Activities, 2)
	assert.Equal(t, model.ActivityFeeding, report.Activities[0].Stats.ActivityType)
	assert.Equal(t, 7, report.Activities[0].Stats.Frequency)
	require.Len(t, report.Activities[0].Trends, 2)
	assert.Equal(t, trend.Increasing, report.Activities[0].Trends[1].Direction)

	require.NotEmpty(t, report.SignificantTrends)
	assert.Equal(t, model.MetricDuration, report.SignificantTrends[0].Metric)

	assert.Empty(t, report.Correlations)
}

func TestRunRestrictsActivities(t *testing.T) {
	report, err := Run(context.Background(), weekOfRecords(), Options{
		Activities: []model.ActivityType{model.ActivityWeight},
		Detector:   correlation.Detector{QuartileMethod: correlation.QuartileFloor},
	})
	require.NoError(t, err)
	require.Len(t, report.Activities, 1)
	assert.Equal(t, model.ActivityWeight, report.Activities[0].Stats.ActivityType)
}

func TestRunEmpty(t *testing.T) {
	report, err := Run(context.Background(), nil, Options{})
	require.NoError(t, err)
	assert.Zero(t, report.Overall.TotalRecords)
	assert.Empty(t, report.Activities)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, weekOfRecords(), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunTimeout(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err := Run(ctx, weekOfRecords(), Options{})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{Detector: correlation.Detector{ZScoreThreshold: 2.5}}.withDefaults()
	assert.Equal(t, DefaultTimeout, o.Timeout)
	assert.Equal(t, 2.5, o.Detector.ZScoreThreshold)
	assert.Equal(t, correlation.DefaultIQRMultiplier, o.Detector.IQRMultiplier)
	assert.Equal(t, correlation.QuartileInterpolated, o.Detector.QuartileMethod)
	assert.NotNil(t, o.Logger)
}
