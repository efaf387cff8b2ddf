package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stagesync/internal/core/domain"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	assert.NotEmpty(t, string(theme.Primary))
	assert.NotEmpty(t, string(theme.Success))
	assert.NotEmpty(t, string(theme.Warning))
	assert.NotEmpty(t, string(theme.Error))
}

func TestDefaultTheme_StatusColoursAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	seen := make(map[lipgloss.Color]bool)
	for _, c := range []lipgloss.Color{theme.Primary, theme.Secondary, theme.Success, theme.Warning, theme.Error} {
		assert.False(t, seen[c], "duplicate colour: %s", c)
		seen[c] = true
	}
}

func TestNewStyles_NilThemeUsesDefault(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s)
	assert.Equal(t, DefaultTheme(), s.Theme())
}

func TestStyles_ForNotification(t *testing.T) {
	s := DefaultStyles()
	theme := s.Theme()

	assert.Equal(t, lipgloss.TerminalColor(theme.Success), s.ForNotification(domain.NotifySuccess).GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(theme.Warning), s.ForNotification(domain.NotifyWarning).GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(theme.Error), s.ForNotification(domain.NotifyError).GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(theme.Foreground), s.ForNotification(domain.NotifyInfo).GetForeground())
}

func TestStyles_ForOutcome(t *testing.T) {
	s := DefaultStyles()
	theme := s.Theme()

	assert.Equal(t, lipgloss.TerminalColor(theme.Warning), s.ForOutcome(domain.OutcomeStalled).GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(theme.Error), s.ForOutcome(domain.OutcomeFailed).GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(theme.Muted), s.ForOutcome(domain.OutcomeDeclined).GetForeground())
}

func TestStyles_ForStatus(t *testing.T) {
	s := DefaultStyles()
	theme := s.Theme()

	assert.Equal(t, lipgloss.TerminalColor(theme.Secondary), s.ForStatus(domain.StatusRunning).GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(theme.Muted), s.ForStatus(domain.StatusIdle).GetForeground())
}

func TestStyles_RenderText(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.Title.Render("stagesync"), "stagesync")
	assert.Contains(t, s.Modal.Render("Run?"), "Run?")
}
