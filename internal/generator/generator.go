// Package generator builds synthetic baby-log exports for demos and tests.
package generator

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"
)

// Options controls the generated export.
type Options struct {
	Start     time.Time
	Days      int
	ChildName string
	// Birth defaults to two weeks before Start.
	Birth time.Time
}

// Generator produces randomized exports in the text log format.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator. A zero seed uses the current time.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

type event struct {
	minute int
	text   string
}

var weekdays = []string{"日", "月", "火", "水", "木", "金", "土"}

// Generate writes opts.Days consecutive days starting at opts.Start.
func (g *Generator) Generate(opts Options) string {
	if opts.Days <= 0 {
		return ""
	}
	if opts.ChildName == "" {
		opts.ChildName = "赤ちゃん"
	}
	start := time.Date(opts.Start.Year(), opts.Start.Month(), opts.Start.Day(), 0, 0, 0, 0, time.UTC)
	birth := opts.Birth
	if birth.IsZero() {
		birth = start.AddDate(0, 0, -14)
	}
	birth = time.Date(birth.Year(), birth.Month(), birth.Day(), 0, 0, 0, 0, time.UTC)

	var b strings.Builder
	month := time.Month(0)
	for i := 0; i < opts.Days; i++ {
		day := start.AddDate(0, 0, i)
		if day.Month() != month {
			month = day.Month()
			fmt.Fprintf(&b, "【ぴよログ】%d年%d月\n", day.Year(), int(day.Month()))
		}
		b.WriteString("----------\n")
		fmt.Fprintf(&b, "%d/%d/%d(%s)\n", day.Year(), int(day.Month()), day.Day(), weekdays[day.Weekday()])
		months, days := age(birth, day)
		fmt.Fprintf(&b, "%s (%dか月%d日)\n\n", opts.ChildName, months, days)
		for _, e := range g.day(i) {
			fmt.Fprintf(&b, "%02d:%02d   %s\n", e.minute/60, e.minute%60, e.text)
		}
		b.WriteString("\n")
	}
	b.WriteString("----------\n")
	return b.String()
}

// day builds the events of the n-th generated day. Volumes and weight grow
// with n so the trend analyses have something to find.
func (g *Generator) day(n int) []event {
	var events []event
	add := func(minute int, text string) {
		events = append(events, event{minute: clampMinute(minute), text: text})
	}

	minute := g.rnd.Intn(90)
	for minute < 24*60 {
		if g.pick([]float64{1, 1}) == 0 {
			add(minute, fmt.Sprintf("母乳 左%d分 ▶ 右%d分", 5+g.rnd.Intn(8), 5+g.rnd.Intn(8)))
		} else {
			ml := 60 + 2*n + 10*g.rnd.Intn(4)
			add(minute, fmt.Sprintf("ミルク %dml", ml))
		}
		minute += 150 + g.rnd.Intn(60)
	}

	diapers := 6 + g.rnd.Intn(4)
	for i := 0; i < diapers; i++ {
		label := []string{"おしっこ", "うんち"}[g.pick([]float64{3, 1})]
		add(g.rnd.Intn(24*60), label)
	}

	nap := 9*60 + g.rnd.Intn(5*60)
	napLength := 45 + g.rnd.Intn(90)
	add(nap, "寝る")
	add(nap+napLength, fmt.Sprintf("起きる (%s)", span(napLength)))

	add(18*60+30+g.rnd.Intn(90), "お風呂")
	if g.rnd.Float64() < 0.6 {
		add(10*60+g.rnd.Intn(5*60), fmt.Sprintf("散歩 (%s)", span(15+g.rnd.Intn(30))))
	}
	if g.rnd.Float64() < 0.5 {
		add(7*60+g.rnd.Intn(12*60), fmt.Sprintf("体温 %.1f°C", 36.5+0.1*float64(g.rnd.Intn(6))))
	}
	if n%7 == 0 {
		add(20*60+g.rnd.Intn(60), fmt.Sprintf("体重 %.2fkg", 3.2+0.03*float64(n)))
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].minute < events[j].minute })
	return events
}

// pick returns an index drawn with probability proportional to weights.
func (g *Generator) pick(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := g.rnd.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return i
		}
	}
	return len(weights) - 1
}

func clampMinute(m int) int {
	return min(max(m, 0), 24*60-1)
}

func span(minutes int) string {
	if minutes >= 60 {
		return fmt.Sprintf("%d時間%d分", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%d分", minutes)
}

// age returns whole months and remaining days between birth and day.
func age(birth, day time.Time) (months, days int) {
	if day.Before(birth) {
		return 0, 0
	}
	for !birth.AddDate(0, months+1, 0).After(day) {
		months++
	}
	days = int(day.Sub(birth.AddDate(0, months, 0)).Hours() / 24)
	return months, days
}
