package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/core/ports/driven"
)

var _ driven.ConfirmationGate = (*Terminal)(nil)

// Terminal asks the user on the terminal. With a TTY on both ends it shows
// a huh confirm field; otherwise it falls back to a y/N line prompt.
type Terminal struct {
	mu          sync.Mutex
	in          io.Reader
	out         io.Writer
	lines       *bufio.Reader
	interactive bool

	// answers carries lines from the single reader goroutine; it is
	// closed once the input fails or ends.
	answers    chan answer
	readerOnce sync.Once
}

// answer is one line read from the input.
type answer struct {
	text string
	err  error
}

// NewTerminal creates a gate on in/out, detecting whether both are TTYs.
func NewTerminal(in, out *os.File) *Terminal {
	interactive := term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd()))
	return &Terminal{
		in:          in,
		out:         out,
		lines:       bufio.NewReader(in),
		interactive: interactive,
	}
}

// NewLineGate creates a gate that always uses the y/N line prompt.
func NewLineGate(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:    in,
		out:   out,
		lines: bufio.NewReader(in),
	}
}

// Interactive reports whether the huh form is used.
func (t *Terminal) Interactive() bool {
	return t.interactive
}

// Confirm implements driven.ConfirmationGate. Prompts are serialised.
func (t *Terminal) Confirm(ctx context.Context, prompt domain.Prompt) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}
	if t.interactive {
		return t.form(ctx, prompt)
	}
	return t.line(ctx, prompt)
}

func (t *Terminal) form(ctx context.Context, prompt domain.Prompt) (bool, error) {
	var ok bool
	field := huh.NewConfirm().
		Title(prompt.Title).
		Description(prompt.Message).
		Affirmative(affirmative(prompt)).
		Negative(negative(prompt)).
		Value(&ok)

	err := huh.NewForm(huh.NewGroup(field)).
		WithInput(t.in).
		WithOutput(t.out).
		WithShowHelp(false).
		RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}
	return ok, nil
}

func (t *Terminal) line(ctx context.Context, prompt domain.Prompt) (bool, error) {
	fmt.Fprintln(t.out, prompt.Title)
	if prompt.Message != "" {
		fmt.Fprintln(t.out, prompt.Message)
	}
	fmt.Fprintf(t.out, "%s? [y/N]: ", affirmative(prompt))

	t.readerOnce.Do(func() {
		t.answers = make(chan answer)
		go t.readLines()
	})

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a, ok := <-t.answers:
		if !ok {
			return false, nil
		}
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return false, fmt.Errorf("reading answer: %w", a.err)
		}
		return accepted(a.text), nil
	}
}

// readLines hands each input line to the next prompt. A line read while
// no prompt is waiting is held for the next one.
func (t *Terminal) readLines() {
	defer close(t.answers)
	for {
		text, err := t.lines.ReadString('\n')
		t.answers <- answer{text: text, err: err}
		if err != nil {
			return
		}
	}
}

// accepted reports whether a typed answer approves the prompt.
func accepted(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func affirmative(p domain.Prompt) string {
	if p.Affirmative != "" {
		return p.Affirmative
	}
	if p.Destructive {
		return "Delete"
	}
	return "Continue"
}

func negative(p domain.Prompt) string {
	if p.Negative != "" {
		return p.Negative
	}
	return "Cancel"
}
