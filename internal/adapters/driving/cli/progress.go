package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"golang.org/x/term"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/logger"
)

// progressLine renders progress events. On a terminal it redraws a single
// line; otherwise, or when verbose logs share the stream, it prints one
// line per new message.
type progressLine struct {
	mu      sync.Mutex
	out     io.Writer
	bar     progress.Model
	redraw  bool
	last    string
	dirty   bool
	lastMsg string
}

func newProgressLine(out io.Writer) *progressLine {
	redraw := false
	if f, ok := out.(*os.File); ok {
		redraw = term.IsTerminal(int(f.Fd())) && !logger.IsVerbose()
	}
	return &progressLine{
		out:    out,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
		redraw: redraw,
	}
}

// update is a domain.ProgressFunc.
func (p *progressLine) update(ev domain.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	label := ev.Current.Title()
	if ev.Current == domain.StageNone {
		label = ev.Stage.Title()
	}
	line := fmt.Sprintf("%5.1f%% %s", ev.Overall, label)
	if ev.Message != "" {
		line += ": " + ev.Message
	}

	if !p.redraw {
		if ev.Message != p.lastMsg || ev.Status.Terminal() {
			fmt.Fprintln(p.out, line)
		}
		p.lastMsg = ev.Message
		return
	}

	line = p.bar.ViewAs(ev.Overall/100) + " " + line
	if line == p.last {
		return
	}
	pad := ""
	if n := len(p.last) - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprint(p.out, "\r"+line+pad)
	p.last = line
	p.dirty = true
}

// note prints a message without disturbing the progress line.
func (p *progressLine) note(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.breakLine()
	fmt.Fprintln(p.out, msg)
}

// finish ends the redrawn line.
func (p *progressLine) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.breakLine()
}

func (p *progressLine) breakLine() {
	if p.dirty {
		fmt.Fprintln(p.out)
		p.dirty = false
		p.last = ""
	}
}
