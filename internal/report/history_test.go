package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/babylog/internal/model"
)

func TestRenderImports(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	imports := []model.ImportSummary{
		{ID: 12, Filename: "育児記録.txt", Format: "text", ImportedAt: now.Add(-3 * time.Hour), TotalLines: 12500, RecordCount: 4200, Inserted: 0, ErrorCount: 3},
		{ID: 2, Filename: "a.csv", Format: "csv", ImportedAt: now.Add(-48 * time.Hour), TotalLines: 10, RecordCount: 9, Inserted: 9},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderImports(&buf, imports, now))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "育児記録.txt")
	assert.Contains(t, lines[1], "3 hours ago")
	assert.Contains(t, lines[1], "12,500")
	assert.Contains(t, lines[1], "4,200")
	assert.Contains(t, lines[2], "2 days ago")
}

func TestRenderImportsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderImports(&buf, nil, time.Now()))
	assert.Equal(t, "No imports yet.\n", buf.String())
}

func TestRenderParseErrors(t *testing.T) {
	var buf bytes.Buffer
	errs := []model.ParseError{
		{Line: 3, Message: "Event before date header", RawText: "10:00 授乳"},
		{Line: 7, Field: "datetime", Message: "Invalid date: 2024/13/01"},
	}
	require.NoError(t, RenderParseErrors(&buf, errs))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "2 parse errors\n"))
	assert.Contains(t, out, "Event before date header")
	assert.Contains(t, out, "datetime")

	buf.Reset()
	require.NoError(t, RenderParseErrors(&buf, errs[:1]))
	assert.True(t, strings.HasPrefix(buf.String(), "1 parse error\n"))

	buf.Reset()
	require.NoError(t, RenderParseErrors(&buf, nil))
	assert.Equal(t, "No parse errors.\n", buf.String())
}
