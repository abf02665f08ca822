package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/babylog/internal/model"
)

// RenderImports prints the import history, newest first, with times
// relative to now.
func RenderImports(w io.Writer, imports []model.ImportSummary, now time.Time) error {
	if len(imports) == 0 {
		_, err := io.WriteString(w, "No imports yet.\n")
		return err
	}
	headers := []string{"ID", "File", "Format", "Imported", "Lines", "Records", "New", "Errors"}
	rows := make([][]string, 0, len(imports))
	for _, imp := range imports {
		rows = append(rows, []string{
			strconv.FormatInt(imp.ID, 10),
			imp.Filename,
			imp.Format,
			humanize.RelTime(imp.ImportedAt, now, "ago", "from now"),
			humanize.Comma(int64(imp.TotalLines)),
			humanize.Comma(int64(imp.RecordCount)),
			humanize.Comma(int64(imp.Inserted)),
			humanize.Comma(int64(imp.ErrorCount)),
		})
	}
	lines := formatTable(headers, rows, map[int]bool{0: true, 4: true, 5: true, 6: true, 7: true})
	return writeLines(w, lines)
}

// RenderParseErrors prints every stored parse error of one import.
func RenderParseErrors(w io.Writer, errs []model.ParseError) error {
	if len(errs) == 0 {
		_, err := io.WriteString(w, "No parse errors.\n")
		return err
	}
	rows := make([][]string, 0, len(errs))
	for _, e := range errs {
		field := e.Field
		if field == "" {
			field = "-"
		}
		rows = append(rows, []string{strconv.Itoa(e.Line), field, e.Message, e.RawText})
	}
	lines := []string{fmt.Sprintf("%s parse %s", humanize.Comma(int64(len(errs))), plural(len(errs), "error", "errors"))}
	lines = append(lines, formatTable([]string{"Line", "Field", "Message", "Text"}, rows, map[int]bool{0: true})...)
	return writeLines(w, lines)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
