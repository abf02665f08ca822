package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verte-zerg/babylog/internal/model"
)

func TestFormatErrorsEmpty(t *testing.T) {
	assert.Equal(t, "", FormatErrors(nil))
}

func TestFormatErrorsListsRawText(t *testing.T) {
	out := FormatErrors([]model.ParseError{
		{Line: 3, Message: "Unknown activity type: 謎", RawText: "09:00   謎"},
		{Line: 7, Field: "duration", Message: "Invalid duration: x"},
	})
	assert.Equal(t, "Line 3: Unknown activity type: 謎\n  \"09:00   謎\"\nLine 7 [duration]: Invalid duration: x", out)
}

func TestFormatErrorsTruncates(t *testing.T) {
	errs := make([]model.ParseError, 0, 13)
	for i := 1; i <= 13; i++ {
		errs = append(errs, model.ParseError{Line: i, Message: fmt.Sprintf("bad %d", i)})
	}
	out := FormatErrors(errs)
	lines := strings.Split(out, "\n")

	assert.Len(t, lines, MaxReportedErrors+1)
	assert.Equal(t, "Line 10: bad 10", lines[9])
	assert.Equal(t, "...and 3 more errors", lines[10])
	assert.NotContains(t, out, "bad 11")
}
