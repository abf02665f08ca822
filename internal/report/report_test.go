package report

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/babylog/internal/analysis"
	"github.com/verte-zerg/babylog/internal/model"
	"github.com/verte-zerg/babylog/internal/store"
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

type recordingSource struct {
	filter  model.RecordFilter
	records []model.Record
	err     error
}

func (s *recordingSource) ListRecords(_ context.Context, filter model.RecordFilter) ([]model.Record, error) {
	s.filter = filter
	return s.records, s.err
}

func TestBuildReportExtendsUntilToEndOfDay(t *testing.T) {
	src := &recordingSource{records: weekOfRecords()}
	since := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)

	rep, err := BuildReport(context.Background(), src, model.ReportConfig{
		Since:    &since,
		Until:    &until,
		Activity: model.ActivityFeeding,
	}, analysis.Options{})
	require.NoError(t, err)

	require.NotNil(t, src.filter.Until)
	assert.Equal(t, time.Date(2024, time.March, 7, 23, 59, 59, 999000000, time.UTC), *src.filter.Until)
	assert.Equal(t, &since, src.filter.Since)
	assert.Equal(t, model.ActivityFeeding, src.filter.Activity)
	assert.Equal(t, 14, rep.Analysis.Overall.TotalRecords)
	assert.Len(t, rep.Records, 14)
}

func TestBuildReportPropagatesErrors(t *testing.T) {
	src := &recordingSource{err: errors.New("locked")}
	_, err := BuildReport(context.Background(), src, model.ReportConfig{}, analysis.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}

func TestBuildReportFromStore(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "babylog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	_, err = st.InsertImport(ctx, model.ImportSummary{Filename: "week.txt", Format: "text", ImportedAt: time.Now()},
		model.ParseResult{Records: weekOfRecords(), TotalLines: 14})
	require.NoError(t, err)

	rep, err := BuildReport(ctx, st, model.ReportConfig{Activity: model.ActivityWeight}, analysis.Options{})
	require.NoError(t, err)
	assert.Equal(t, 7, rep.Analysis.Overall.TotalRecords)
	require.Len(t, rep.Analysis.Activities, 1)
	assert.Equal(t, model.ActivityWeight, rep.Analysis.Activities[0].Stats.ActivityType)
}

func TestRenderText(t *testing.T) {
	rep, err := Analyze(context.Background(), weekOfRecords(), model.ReportConfig{}, analysis.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, rep, TextOptions{Lang: "en"}))
	out := buf.String()
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "2024-03-01 – 2024-03-07")
	assert.Contains(t, out, "Feeding")
	assert.Contains(t, out, "26.0 min")
	assert.Contains(t, out, "Feeding duration is increasing (+2.00 min/day, R² 1.00)")
	assert.Contains(t, out, "Not enough overlapping days yet.")
	assert.Contains(t, out, "No outliers found.")
	assert.NotContains(t, out, "per day")
}

func TestRenderTextJapaneseWithPlots(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	rep, err := Analyze(context.Background(), weekOfRecords(), model.ReportConfig{}, analysis.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, rep, TextOptions{Lang: "ja", Plot: true, Width: 60}))
	out := buf.String()
	assert.Contains(t, out, "概要")
	assert.Contains(t, out, "授乳")
	assert.Contains(t, out, "授乳（1日あたり）")
	assert.Contains(t, out, "03/01")
}

func TestRenderTextEmpty(t *testing.T) {
	rep, err := Analyze(context.Background(), nil, model.ReportConfig{}, analysis.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, rep, TextOptions{}))
	assert.Equal(t, "Summary\nNo records found.\n", buf.String())
}

func TestRenderJSON(t *testing.T) {
	rep, err := Analyze(context.Background(), weekOfRecords(), model.ReportConfig{}, analysis.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, rep))

	var decoded map[string]any
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &decoded))
	assert.NotContains(t, decoded, "Records")
	an, ok := decoded["analysis"].(map[string]any)
	require.True(t, ok)
	overall, ok := an["overall"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(14), overall["totalRecords"])
}

func TestDailySeries(t *testing.T) {
	rep, err := Analyze(context.Background(), weekOfRecords(), model.ReportConfig{}, analysis.Options{})
	require.NoError(t, err)

	series, points := DailySeries(rep.Analysis.Activities[0], "en")
	require.Len(t, points, 7)
	require.Len(t, series, 2)
	assert.Equal(t, "daily", series[0].Name)
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 1, 1}, series[0].Values)
}
