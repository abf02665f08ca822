// Package report assembles analysis reports from stored records and renders
// them as text or JSON.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/babylog/internal/analysis"
	"github.com/verte-zerg/babylog/internal/model"
	"github.com/verte-zerg/babylog/internal/stats"
)

// RecordSource lists stored records.
type RecordSource interface {
	ListRecords(ctx context.Context, filter model.RecordFilter) ([]model.Record, error)
}

// Report contains precomputed data for rendering.
type Report struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	Since       *time.Time       `json:"since,omitempty"`
	Until       *time.Time       `json:"until,omitempty"`
	Activity    string           `json:"activity,omitempty"`
	Analysis    *analysis.Report `json:"analysis"`
	Records     []model.Record   `json:"-"`
}

// BuildReport loads the records selected by cfg and analyses them. Until
// covers its whole calendar day.
func BuildReport(ctx context.Context, src RecordSource, cfg model.ReportConfig, opts analysis.Options) (*Report, error) {
	filter := model.RecordFilter{Since: cfg.Since, Activity: cfg.Activity}
	if cfg.Until != nil {
		end := stats.EndOfDay(*cfg.Until)
		filter.Until = &end
	}
	records, err := src.ListRecords(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	return Analyze(ctx, records, cfg, opts)
}

// Analyze builds a report over records already in memory.
func Analyze(ctx context.Context, records []model.Record, cfg model.ReportConfig, opts analysis.Options) (*Report, error) {
	result, err := analysis.Run(ctx, records, opts)
	if err != nil {
		return nil, err
	}
	return &Report{
		GeneratedAt: time.Now(),
		Since:       cfg.Since,
		Until:       cfg.Until,
		Activity:    string(cfg.Activity),
		Analysis:    result,
		Records:     records,
	}, nil
}
