package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/babylog/internal/model"
)

const (
	columnDatetime = "datetime"
	columnActivity = "activity"
	columnDuration = "duration"
	columnQuantity = "quantity"
	columnNotes    = "notes"
)

var columnAliases = map[string]string{
	"datetime":  columnDatetime,
	"timestamp": columnDatetime,
	"日時":        columnDatetime,
	"activity":  columnActivity,
	"type":      columnActivity,
	"種類":        columnActivity,
	"duration":  columnDuration,
	"時間":        columnDuration,
	"quantity":  columnQuantity,
	"量":         columnQuantity,
	"notes":     columnNotes,
	"メモ":        columnNotes,
}

var csvTimeLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006/1/2 15:04",
	"2006/1/2 15:04:05",
}

// CSVParser reads a tabular export with one event per row. Errors are keyed by
// row number and column name.
type CSVParser struct {
	opts Options
}

// NewCSVParser creates a CSVParser.
func NewCSVParser(opts Options) *CSVParser {
	return &CSVParser{opts: opts.withDefaults()}
}

// Parse reads every row. A missing or incomplete header is a structural error.
func (p *CSVParser) Parse(text, filename string) (model.ParseResult, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, "\ufeff")))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	importedAt := p.opts.Now()
	result := model.ParseResult{
		Records: []model.Record{},
		Errors:  []model.ParseError{},
	}

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return result, fmt.Errorf("csv %s: missing header row", filename)
		}
		return result, fmt.Errorf("csv %s: failed to read header: %w", filename, err)
	}
	result.TotalLines = 1
	columns, err := indexColumns(header)
	if err != nil {
		return result, fmt.Errorf("csv %s: %w", filename, err)
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		result.TotalLines++
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return result, fmt.Errorf("csv %s: %w", filename, err)
			}
			result.Errors = append(result.Errors, model.ParseError{Line: perr.Line, Message: perr.Err.Error()})
			continue
		}
		if isBlankRow(row) {
			continue
		}
		line, _ := r.FieldPos(0)
		rec, perr := p.parseRow(columns, row, line)
		if perr != nil {
			perr.RawText = strings.Join(row, ",")
			result.Errors = append(result.Errors, *perr)
			continue
		}
		rec.ID = p.opts.NewID()
		rec.Metadata = model.RecordMetadata{ImportedAt: importedAt, ImportedFilename: filename}
		result.Records = append(result.Records, rec)
	}
	result.ParsedEventCount = len(result.Records)
	return result, nil
}

func indexColumns(header []string) (map[string]int, error) {
	columns := map[string]int{}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if canonical, ok := columnAliases[key]; ok {
			if _, dup := columns[canonical]; !dup {
				columns[canonical] = i
			}
		}
	}
	for _, required := range []string{columnDatetime, columnActivity} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	return columns, nil
}

func (p *CSVParser) parseRow(columns map[string]int, row []string, line int) (model.Record, *model.ParseError) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}
	fail := func(field, format string, args ...any) *model.ParseError {
		return &model.ParseError{Line: line, Field: field, Message: fmt.Sprintf(format, args...)}
	}

	rawTime := normalizeLine(cell(columnDatetime))
	ts, ok := parseCSVTime(rawTime, p.opts.Location)
	if !ok {
		return model.Record{}, fail(columnDatetime, "Invalid datetime: %s", rawTime)
	}

	rawActivity := normalizeLine(cell(columnActivity))
	activity, err := model.ParseActivityType(strings.ToLower(rawActivity))
	if err != nil {
		classified, ok := Classify(rawActivity)
		if !ok {
			return model.Record{}, fail(columnActivity, "Unknown activity type: %s", rawActivity)
		}
		activity = classified
	}

	rec := model.Record{Timestamp: ts, ActivityType: activity, Notes: cell(columnNotes)}
	for _, field := range []string{columnDuration, columnQuantity} {
		raw := normalizeLine(cell(field))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return model.Record{}, fail(field, "Invalid %s: %s", field, raw)
		}
		if field == columnDuration {
			rec.Duration = model.Float(v)
		} else {
			rec.Quantity = model.Float(v)
		}
	}
	return rec, nil
}

func parseCSVTime(value string, loc *time.Location) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	for _, layout := range csvTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
