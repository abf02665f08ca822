package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/verte-zerg/babylog/internal/logger"
	"github.com/verte-zerg/babylog/internal/model"
)

var (
	headerPattern    = regexp.MustCompile(`^【[^】]*】\s*(\d{4})年\s*(\d{1,2})月`)
	datePattern      = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})(?:\s*\([^)]*\))?`)
	childInfoPattern = regexp.MustCompile(`^.+\(\s*(?:\d+\s*歳\s*)?\d+\s*[かヶカケ]月\s*\d+\s*日\s*\)$`)
	eventPattern     = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s+(.+)$`)
	separatorPattern = regexp.MustCompile(`^[-=_*~ー─━]{3,}$`)
	fieldGapPattern  = regexp.MustCompile(`\s{2,}`)
)

// summaryMarkers identify daily totals and diary text, which carry no events.
var summaryMarkers = []string{"合計", "今日は", "メモ"}

// scanState is threaded through the line fold. It is copied, never shared.
type scanState struct {
	date    time.Time
	hasDate bool
	year    int
	month   int
}

type lineResult struct {
	record *model.Record
	err    *model.ParseError
}

// TextParser reads the line-oriented text export.
type TextParser struct {
	opts Options
}

// NewTextParser creates a TextParser.
func NewTextParser(opts Options) *TextParser {
	return &TextParser{opts: opts.withDefaults()}
}

// Parse folds over the lines of text. It never returns an error.
func (p *TextParser) Parse(text, filename string) (model.ParseResult, error) {
	lines := splitLines(text)
	importedAt := p.opts.Now()
	result := model.ParseResult{
		Records:    []model.Record{},
		Errors:     []model.ParseError{},
		TotalLines: len(lines),
	}

	state := scanState{}
	for i, raw := range lines {
		var out lineResult
		state, out = p.step(state, i+1, raw)
		if out.err != nil {
			result.Errors = append(result.Errors, *out.err)
		}
		if out.record != nil {
			rec := *out.record
			rec.ID = p.opts.NewID()
			rec.Metadata = model.RecordMetadata{ImportedAt: importedAt, ImportedFilename: filename}
			result.Records = append(result.Records, rec)
		}
	}
	result.ParsedEventCount = len(result.Records)
	return result, nil
}

// step consumes one line and returns the next state plus at most one record or error.
func (p *TextParser) step(state scanState, lineNo int, raw string) (scanState, lineResult) {
	line := strings.TrimSpace(normalizeLine(raw))
	if line == "" || separatorPattern.MatchString(line) {
		return state, lineResult{}
	}

	if m := headerPattern.FindStringSubmatch(line); m != nil {
		state.year, _ = strconv.Atoi(m[1])
		state.month, _ = strconv.Atoi(m[2])
		return state, lineResult{}
	}

	if m := datePattern.FindStringSubmatch(line); m != nil {
		return p.dateLine(state, lineNo, raw, m)
	}

	if childInfoPattern.MatchString(line) {
		return state, lineResult{}
	}

	for _, marker := range summaryMarkers {
		if strings.Contains(line, marker) {
			return state, lineResult{}
		}
	}

	if m := eventPattern.FindStringSubmatch(line); m != nil {
		return state, p.eventLine(state, lineNo, raw, m)
	}

	p.opts.Logger.Debug("ignored line", logger.Int("line", lineNo))
	return state, lineResult{}
}

func (p *TextParser) dateLine(state scanState, lineNo int, raw string, m []string) (scanState, lineResult) {
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, p.opts.Location)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		state.hasDate = false
		return state, lineResult{err: &model.ParseError{
			Line:    lineNo,
			Message: fmt.Sprintf("Invalid date: %s/%s/%s", m[1], m[2], m[3]),
			RawText: raw,
		}}
	}
	state.date = date
	state.hasDate = true
	return state, lineResult{}
}

func (p *TextParser) eventLine(state scanState, lineNo int, raw string, m []string) lineResult {
	if !state.hasDate {
		if p.opts.Strict {
			return lineResult{err: &model.ParseError{Line: lineNo, Message: "Event before date header", RawText: raw}}
		}
		p.opts.Logger.Debug("event line before date header", logger.Int("line", lineNo))
		return lineResult{}
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return lineResult{err: &model.ParseError{
			Line:    lineNo,
			Message: fmt.Sprintf("Invalid time: %s:%s", m[1], m[2]),
			RawText: raw,
		}}
	}

	eventType, detail := splitEvent(m[3])
	rule, ok := matchRule(eventType)
	if !ok {
		return lineResult{err: &model.ParseError{
			Line:    lineNo,
			Message: "Unknown activity type: " + eventType,
			RawText: raw,
		}}
	}

	d := state.date
	rec := &model.Record{
		Timestamp:    time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, d.Location()),
		ActivityType: rule.activity,
	}
	applyDetail(rec, rule, eventType, detail)
	return lineResult{record: rec}
}

// splitEvent separates the event label from its detail. The export uses runs of
// spaces as the field separator but sometimes only a single space, so a run of
// two or more wins over the first single space.
func splitEvent(rest string) (eventType, detail string) {
	rest = strings.TrimSpace(rest)
	if loc := fieldGapPattern.FindStringIndex(rest); loc != nil {
		return strings.TrimSpace(rest[:loc[0]]), strings.TrimSpace(rest[loc[1]:])
	}
	if idx := strings.IndexFunc(rest, unicode.IsSpace); idx >= 0 {
		return strings.TrimSpace(rest[:idx]), strings.TrimSpace(rest[idx:])
	}
	return rest, ""
}
