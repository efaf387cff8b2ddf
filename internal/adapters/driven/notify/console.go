package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/core/ports/driven"
)

var _ driven.NotificationSink = (*Console)(nil)

// Console writes one styled line per notification.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	styles map[domain.NotificationKind]lipgloss.Style
	body   lipgloss.Style
}

// NewConsole creates a console sink writing to out. Colour is applied only
// when the renderer detects a capable terminal.
func NewConsole(out io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	badge := r.NewStyle().Bold(true)
	return &Console{
		out: out,
		styles: map[domain.NotificationKind]lipgloss.Style{
			domain.NotifySuccess: badge.Foreground(lipgloss.Color("#A6E3A1")),
			domain.NotifyWarning: badge.Foreground(lipgloss.Color("#F9E2AF")),
			domain.NotifyError:   badge.Foreground(lipgloss.Color("#F38BA8")),
			domain.NotifyInfo:    badge.Foreground(lipgloss.Color("#06B6D4")),
		},
		body: r.NewStyle().Foreground(lipgloss.Color("#6C7086")),
	}
}

// Notify implements driven.NotificationSink.
func (c *Console) Notify(_ context.Context, n domain.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line := c.badge(n.Kind).Render(symbol(n.Kind) + " " + n.Title)
	if n.Message != "" {
		line += "  " + c.body.Render(n.Message)
	}
	fmt.Fprintln(c.out, line)
}

func (c *Console) badge(kind domain.NotificationKind) lipgloss.Style {
	if s, ok := c.styles[kind]; ok {
		return s
	}
	return c.styles[domain.NotifyInfo]
}

func symbol(kind domain.NotificationKind) string {
	switch kind {
	case domain.NotifySuccess:
		return "✓"
	case domain.NotifyWarning:
		return "!"
	case domain.NotifyError:
		return "✗"
	default:
		return "•"
	}
}
