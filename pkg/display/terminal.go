package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/s2group/batterybomber/pkg/liveview"
	"github.com/s2group/batterybomber/pkg/series"
)

var _ liveview.Display = &Terminal{}

// Terminal prints the live summary to a writer. With Redraw set, each
// summary overwrites the previous one in place, which only makes sense on an
// interactive terminal.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	redraw bool
	lines  int
}

// NewTerminal returns a Terminal writing to w.
func NewTerminal(w io.Writer, redraw bool) *Terminal {
	return &Terminal{w: w, redraw: redraw}
}

// SetSummary implements liveview.Display.
func (t *Terminal) SetSummary(summary string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.redraw && t.lines > 0 {
		// Cursor up, then clear to the end of the screen.
		fmt.Fprintf(t.w, "\033[%dA\033[J", t.lines)
	}

	header := color.New(color.Bold).Sprint(time.Now().Format(time.TimeOnly))
	out := header + "\n" + colorSummary(summary) + "\n"
	fmt.Fprint(t.w, out)
	t.lines = strings.Count(out, "\n")
}

// colorSummary highlights the draw figures of the first summary line.
func colorSummary(summary string) string {
	first, rest, found := strings.Cut(summary, "\n")
	first = color.YellowString(first)
	if !found {
		return first
	}
	return first + "\n" + color.GreenString(rest)
}

// AppendData implements liveview.Display. Points are not drawn.
func (t *Terminal) AppendData(liveview.SeriesName, series.Point, bool, int) {}

// ConfigureViewport implements liveview.Display.
func (t *Terminal) ConfigureViewport(name liveview.SeriesName, vp liveview.Viewport) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if name != liveview.SeriesPower {
		return
	}
	fmt.Fprintln(t.w, color.New(color.Bold).Sprint("Live battery view"))
	t.lines = 0
}

// Multi fans every call out to several displays, in order.
type Multi []liveview.Display

var _ liveview.Display = Multi{}

func (m Multi) SetSummary(summary string) {
	for _, d := range m {
		d.SetSummary(summary)
	}
}

func (m Multi) AppendData(name liveview.SeriesName, p series.Point, scrollToEnd bool, maxPoints int) {
	for _, d := range m {
		d.AppendData(name, p, scrollToEnd, maxPoints)
	}
}

func (m Multi) ConfigureViewport(name liveview.SeriesName, vp liveview.Viewport) {
	for _, d := range m {
		d.ConfigureViewport(name, vp)
	}
}
