// Package importer reads export files, parses them and stores the result.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/verte-zerg/babylog/internal/logger"
	"github.com/verte-zerg/babylog/internal/model"
	"github.com/verte-zerg/babylog/internal/parser"
)

// ErrUnsupportedFormat is returned when a format name or file extension is not recognised.
var ErrUnsupportedFormat = errors.New("unsupported import format")

// Format names an input format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatCSV  Format = "csv"
)

// ParseFormat resolves a format name; empty means auto.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatText:
		return FormatText, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// DetectFormat resolves FormatAuto from the file extension.
func DetectFormat(path string, requested Format) (Format, error) {
	if requested != FormatAuto && requested != "" {
		return requested, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case "", ".txt", ".text", ".log":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: cannot detect format of %s", ErrUnsupportedFormat, filepath.Base(path))
}

// Recorder persists a parsed import.
type Recorder interface {
	InsertImport(ctx context.Context, summary model.ImportSummary, result model.ParseResult) (model.ImportSummary, error)
}

// Options configures an Importer.
type Options struct {
	Format   Format
	Strict   bool
	Location *time.Location
	// DryRun parses without storing.
	DryRun bool
	Now    func() time.Time
	NewID  func() string
	Logger logger.Logger
}

// Result is the outcome of one import.
type Result struct {
	Summary model.ImportSummary
	Parse   model.ParseResult
	DryRun  bool
}

// Importer drives parsing and storage.
type Importer struct {
	rec  Recorder
	opts Options
}

// New creates an Importer. rec may be nil when opts.DryRun is set.
func New(rec Recorder, opts Options) *Importer {
	if opts.Format == "" {
		opts.Format = FormatAuto
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	return &Importer{rec: rec, opts: opts}
}

// ImportFile reads and imports the file at path.
func (im *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	format, err := DetectFormat(path, im.opts.Format)
	if err != nil {
		return Result{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read import file: %w", err)
	}
	return im.Import(ctx, filepath.Base(path), format, data)
}

// Import parses data as format and stores it unless DryRun is set.
func (im *Importer) Import(ctx context.Context, filename string, format Format, data []byte) (Result, error) {
	if !utf8.Valid(data) {
		return Result{}, fmt.Errorf("%s is not valid UTF-8", filename)
	}
	importedAt := im.opts.Now()
	p, err := im.parserFor(format, importedAt)
	if err != nil {
		return Result{}, err
	}
	parsed, err := p.Parse(string(data), filename)
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	summary := model.ImportSummary{
		Filename:    filename,
		Format:      string(format),
		ImportedAt:  importedAt,
		TotalLines:  parsed.TotalLines,
		RecordCount: len(parsed.Records),
		ErrorCount:  len(parsed.Errors),
	}
	log := im.opts.Logger.With(logger.String("file", filename), logger.String("format", string(format)))

	if im.opts.DryRun {
		log.Info("dry run parsed",
			logger.Int("records", summary.RecordCount),
			logger.Int("errors", summary.ErrorCount),
		)
		return Result{Summary: summary, Parse: parsed, DryRun: true}, nil
	}
	if im.rec == nil {
		return Result{}, errors.New("importer has no store")
	}

	stored, err := im.rec.InsertImport(ctx, summary, parsed)
	if err != nil {
		return Result{}, fmt.Errorf("failed to store import: %w", err)
	}
	log.Info("import stored",
		logger.Int64("import_id", stored.ID),
		logger.Int("records", stored.RecordCount),
		logger.Int("inserted", stored.Inserted),
		logger.Int("errors", stored.ErrorCount),
	)
	return Result{Summary: stored, Parse: parsed}, nil
}

func (im *Importer) parserFor(format Format, importedAt time.Time) (parser.Parser, error) {
	opts := parser.Options{
		NewID:    im.opts.NewID,
		Now:      func() time.Time { return importedAt },
		Location: im.opts.Location,
		Strict:   im.opts.Strict,
		Logger:   im.opts.Logger,
	}
	switch format {
	case FormatText:
		return parser.NewTextParser(opts), nil
	case FormatCSV:
		return parser.NewCSVParser(opts), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}
