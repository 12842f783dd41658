package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

var (
	styleDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// ConsoleSink is a line-oriented Sink that prints one line per job,
// indented by depth, the way the teacher's Formatter pads status lines
// (pkg/hook/formatting/formatter.go) but generalized to an arbitrary-depth
// tree instead of a flat hook-result list.
type ConsoleSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleSink builds a Sink writing to w. Pass os.Stderr for normal CLI use.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{out: w}
}

func (s *ConsoleSink) Start(body string) Job {
	j := &consoleJob{sink: s, depth: 0, body: body, props: map[string]any{}}
	j.print()
	return j
}

func (s *ConsoleSink) Flush() {
	if f, ok := s.out.(*os.File); ok {
		_ = f.Sync()
	}
}

type consoleJob struct {
	sink  *ConsoleSink
	depth int
	body  string
	props map[string]any
}

func (j *consoleJob) AddChild(body string) Job {
	c := &consoleJob{sink: j.sink, depth: j.depth + 1, body: body, props: map[string]any{}}
	c.print()
	return c
}

func (j *consoleJob) SetProp(key string, value any) {
	j.props[key] = value
}

func (j *consoleJob) SetBody(body string) {
	j.body = body
	j.print()
}

func (j *consoleJob) SetStatus(status Status) {
	if status == StatusHide {
		return
	}
	j.print(status)
}

func (j *consoleJob) print(status ...Status) {
	j.sink.mu.Lock()
	defer j.sink.mu.Unlock()
	indent := strings.Repeat("  ", j.depth)
	marker := statusMarker(status)
	fmt.Fprintf(j.sink.out, "%s%s %s\n", indent, marker, j.body)
}

func statusMarker(status []Status) string {
	if len(status) == 0 {
		return styleRunning.Render(color.New(color.Faint).Sprint("…"))
	}
	switch status[0] {
	case StatusDone:
		return styleDone.Render("✓")
	case StatusFailed:
		return styleFailed.Render("✗")
	case StatusWarn:
		return styleWarn.Render("!")
	default:
		return styleRunning.Render("…")
	}
}
