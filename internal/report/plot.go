package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series is one named line of a plot.
type Series struct {
	Name   string
	Values []float64
}

// PlotOptions controls plot geometry and color. Zero values pick defaults.
type PlotOptions struct {
	Width  int
	Height int
	// Color forces ANSI colors even when w is not a terminal.
	Color bool
	// Start and End label the first and last column.
	Start, End string
}

type dash struct {
	name   string
	period int
	on     int
}

const (
	defaultPlotHeight = 8
	minPlotWidth      = 10
	fallbackTermWidth = 80
	axisGlyph         = " │ "
	axisGlyphWidth    = 3
	colorReset        = "\x1b[0m"
)

var dashes = []dash{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
}

var palette = []string{
	"\x1b[36m",
	"\x1b[33m",
	"\x1b[35m",
	"\x1b[32m",
}

// Plot draws series as a braille line chart. A single series is labelled with
// its own values on the y axis; several series share a 0-100% axis, each
// scaled to its own range.
func Plot(w io.Writer, title string, series []Series, opts PlotOptions) error {
	series = nonEmpty(series)
	if len(series) == 0 {
		return nil
	}
	height := opts.Height
	if height <= 0 {
		height = defaultPlotHeight
	}

	ranges := make([][2]float64, len(series))
	for i, s := range series {
		lo, hi := bounds(s.Values)
		if hi-lo < 1e-9 {
			lo, hi = lo-1, hi+1
		}
		ranges[i] = [2]float64{lo, hi}
	}
	top, bottom := "100%", "0%"
	if len(series) == 1 {
		top, bottom = compact(ranges[0][1]), compact(ranges[0][0])
	}
	labelWidth := max(runewidth.StringWidth(top), runewidth.StringWidth(bottom))

	width := opts.Width
	if width <= 0 {
		width = PlotWidthFor(TerminalWidth(), labelWidth)
	}
	width = max(width, minPlotWidth)

	layers := make([][][]uint8, len(series))
	for i, s := range series {
		layers[i] = rasterize(resample(s.Values, width), ranges[i], width, height, dashes[i%len(dashes)])
	}

	color := useColor(w, opts.Color)
	var b strings.Builder
	if title != "" {
		b.WriteString(title + "\n")
	}
	for y := 0; y < height; y++ {
		label := ""
		switch y {
		case 0:
			label = top
		case height - 1:
			label = bottom
		}
		b.WriteString(runewidth.FillLeft(label, labelWidth))
		b.WriteString(axisGlyph)
		for x := 0; x < width; x++ {
			mask, owner := merge(layers, x, y)
			if color && owner >= 0 {
				b.WriteString(palette[owner%len(palette)])
				b.WriteRune(braille(mask))
				b.WriteString(colorReset)
				continue
			}
			b.WriteRune(braille(mask))
		}
		b.WriteByte('\n')
	}
	if opts.Start != "" || opts.End != "" {
		gap := width - runewidth.StringWidth(opts.Start) - runewidth.StringWidth(opts.End)
		b.WriteString(strings.Repeat(" ", labelWidth+axisGlyphWidth))
		b.WriteString(opts.Start + strings.Repeat(" ", max(gap, 1)) + opts.End + "\n")
	}
	b.WriteString(legend(series, ranges, color) + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// PlotWidthFor returns the drawable columns left in totalWidth after the y axis.
func PlotWidthFor(totalWidth, labelWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(totalWidth-labelWidth-axisGlyphWidth, minPlotWidth)
}

// TerminalWidth reports the width of stdout, or 80 when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackTermWidth
	}
	return width
}

func useColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func nonEmpty(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

func compact(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e6 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func legend(series []Series, ranges [][2]float64, color bool) string {
	parts := make([]string, len(series))
	for i, s := range series {
		part := fmt.Sprintf("%c %s (%s, %s–%s)", braille(0x07), s.Name, dashes[i%len(dashes)].name, compact(ranges[i][0]), compact(ranges[i][1]))
		if color {
			part = palette[i%len(palette)] + part + colorReset
		}
		parts[i] = part
	}
	return strings.Join(parts, "  ")
}

// resample stretches or averages values onto n columns.
func resample(values []float64, n int) []float64 {
	out := make([]float64, n)
	switch {
	case len(values) == 0 || n == 0:
		return out
	case len(values) == 1 || n == 1:
		for i := range out {
			out[i] = values[0]
		}
		return out
	case len(values) > n:
		for i := range out {
			from := i * len(values) / n
			to := max((i+1)*len(values)/n, from+1)
			var sum float64
			for _, v := range values[from:to] {
				sum += v
			}
			out[i] = sum / float64(to-from)
		}
		return out
	}
	last := len(values) - 1
	for i := range out {
		pos := float64(i) * float64(last) / float64(n-1)
		idx := min(int(pos), last-1)
		frac := pos - float64(idx)
		out[i] = values[idx] + (values[idx+1]-values[idx])*frac
	}
	return out
}

// rasterize plots values onto a braille grid; each cell holds 2x4 dots.
func rasterize(values []float64, rng [2]float64, width, height int, d dash) [][]uint8 {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	dotRows := height * 4
	toRow := func(v float64) int {
		pos := (v - rng[0]) / (rng[1] - rng[0])
		return min(max(int(math.Round((1-pos)*float64(dotRows-1))), 0), dotRows-1)
	}
	set := func(x, y int) {
		if d.period > 1 && x%d.period >= d.on {
			return
		}
		if y/4 < height && x/2 < width {
			cells[y/4][x/2] |= dotBit(x%2, y%4)
		}
	}
	px, py := -1, -1
	for i, v := range values {
		x, y := i*2, toRow(v)
		if px < 0 {
			set(x, y)
		} else {
			line(px, py, x, y, set)
		}
		px, py = x, y
	}
	return cells
}

// line walks the dots between two points (Bresenham).
func line(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func merge(layers [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	owner := -1
	for i, cells := range layers {
		if m := cells[y][x]; m != 0 {
			if owner < 0 {
				owner = i
			}
			mask |= m
		}
	}
	return mask, owner
}

// dotBit maps a dot position inside a cell to its Unicode braille bit.
func dotBit(col, row int) uint8 {
	if row == 3 {
		return 0x40 << col
	}
	return 1 << (row + 3*col)
}

func braille(mask uint8) rune {
	return rune(0x2800 + int(mask))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
