// Package parser converts exported activity logs into records.
package parser

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/width"

	"github.com/verte-zerg/babylog/internal/logger"
	"github.com/verte-zerg/babylog/internal/model"
)

// Parser turns the full content of an export into records and line-level errors.
// The returned error is reserved for structural failures; malformed lines are
// reported in ParseResult.Errors.
type Parser interface {
	Parse(text, filename string) (model.ParseResult, error)
}

// Options configures a parser.
type Options struct {
	// NewID assigns record IDs. Defaults to random UUIDs.
	NewID func() string
	// Now stamps Metadata.ImportedAt. Defaults to time.Now.
	Now func() time.Time
	// Location interprets wall-clock times in the export. Defaults to time.Local.
	Location *time.Location
	// Strict reports event lines that appear before any date header.
	Strict bool
	Logger logger.Logger
}

func (o Options) withDefaults() Options {
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Logger == nil {
		o.Logger = logger.Default()
	}
	return o
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// normalizeLine folds full-width ASCII (digits, colon, parentheses, spaces)
// to their narrow forms and strips the trailing carriage return.
func normalizeLine(line string) string {
	line = strings.TrimRight(line, "\r")
	line = width.Fold.String(line)
	return strings.ReplaceAll(line, "　", " ")
}
