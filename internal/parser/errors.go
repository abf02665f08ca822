package parser

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/babylog/internal/model"
)

// MaxReportedErrors caps how many errors FormatErrors lists verbatim.
const MaxReportedErrors = 10

// FormatErrors renders parse errors for display. Only the first
// MaxReportedErrors are listed; the remainder is summarised.
func FormatErrors(errs []model.ParseError) string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	shown := errs
	if len(shown) > MaxReportedErrors {
		shown = shown[:MaxReportedErrors]
	}
	for i, e := range shown {
		if i > 0 {
			b.WriteByte('\n')
		}
		if e.Field != "" {
			fmt.Fprintf(&b, "Line %d [%s]: %s", e.Line, e.Field, e.Message)
		} else {
			fmt.Fprintf(&b, "Line %d: %s", e.Line, e.Message)
		}
		if e.RawText != "" {
			fmt.Fprintf(&b, "\n  %q", strings.TrimRight(e.RawText, "\r"))
		}
	}
	if rest := len(errs) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "\n...and %d more errors", rest)
	}
	return b.String()
}
