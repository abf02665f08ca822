// Package analysis runs every analytics pass over a record set.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/babylog/internal/correlation"
	"github.com/verte-zerg/babylog/internal/logger"
	"github.com/verte-zerg/babylog/internal/model"
	"github.com/verte-zerg/babylog/internal/stats"
	"github.com/verte-zerg/babylog/internal/trend"
)

// DefaultTimeout bounds a full analysis run.
const DefaultTimeout = 30 * time.Second

// ErrTimeout is returned when a run does not finish within its timeout.
var ErrTimeout = errors.New("analysis timed out")

// Options configures Run. Zero values select defaults.
type Options struct {
	Timeout        time.Duration
	TrendThreshold float64
	Detector       correlation.Detector
	// Activities limits the per-activity passes; empty means every type present.
	Activities []model.ActivityType
	Logger     logger.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Detector.ZScoreThreshold <= 0 {
		o.Detector.ZScoreThreshold = correlation.DefaultZScoreThreshold
	}
	if o.Detector.IQRMultiplier <= 0 {
		o.Detector.IQRMultiplier = correlation.DefaultIQRMultiplier
	}
	if o.Detector.QuartileMethod == "" {
		o.Detector.QuartileMethod = correlation.QuartileInterpolated
	}
	if o.Logger == nil {
		o.Logger = logger.Default()
	}
	return o
}

// ActivityReport groups the results for one activity type.
type ActivityReport struct {
	Stats    stats.ActivityStats   `json:"stats"`
	Trends   []trend.Analysis      `json:"trends"`
	Outliers []correlation.Outlier `json:"outliers"`
}

// Report is the combined output of a run.
type Report struct {
	Overall           stats.OverallStats   `json:"overall"`
	Activities        []ActivityReport     `json:"activities"`
	SignificantTrends []trend.Analysis     `json:"significantTrends"`
	Correlations      []correlation.Result `json:"correlations"`
}

// Run computes statistics, trends, correlations and outliers concurrently,
// one goroutine per activity. Records are only read. If ctx ends or the
// timeout elapses first, Run stops waiting and discards partial results.
func Run(ctx context.Context, records []model.Record, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	log := opts.Logger
	start := time.Now()

	activities := opts.Activities
	if len(activities) == 0 {
		activities = stats.UniqueActivityTypes(records)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	report := &Report{Activities: make([]ActivityReport, len(activities))}
	analyzer := trend.NewAnalyzer(opts.TrendThreshold)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		report.Overall = stats.OverallStatistics(records)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		report.Correlations = correlation.AllPairwiseCorrelations(records, activities)
		return nil
	})
	for i, activity := range activities {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Activities[i] = analyzeActivity(records, activity, analyzer, opts.Detector)
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return nil, classify(err)
		}
	case <-ctx.Done():
		log.Warn("analysis abandoned",
			logger.Duration("elapsed", time.Since(start)),
			logger.Err(ctx.Err()),
		)
		return nil, classify(ctx.Err())
	}

	var trends []trend.Analysis
	for _, a := range report.Activities {
		trends = append(trends, a.Trends...)
	}
	report.SignificantTrends = trend.SignificantTrends(trends)

	log.Debug("analysis complete",
		logger.Int("records", len(records)),
		logger.Int("activities", len(activities)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

func analyzeActivity(records []model.Record, activity model.ActivityType, analyzer trend.Analyzer, detector correlation.Detector) ActivityReport {
	out := ActivityReport{
		Stats:  stats.ActivityStatistics(records, activity),
		Trends: analyzer.All(records, activity),
	}
	for _, metric := range []model.Metric{model.MetricDuration, model.MetricQuantity} {
		out.Outliers = append(out.Outliers, detector.All(records, activity, metric)...)
	}
	return out
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return fmt.Errorf("failed to run analysis: %w", err)
}
