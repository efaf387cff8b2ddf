package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/stagesync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/stagesync/internal/core/domain"
)

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewDetail:
		body = a.viewDetail()
	case messages.ViewHistory:
		body = a.viewHistory()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		body = a.viewDashboard()
	}

	parts := []string{a.styles.Title.Render("stagesync"), body}
	if a.confirm != nil {
		parts = append(parts, a.viewPrompt())
	}
	parts = append(parts, a.statusBar.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) viewDashboard() string {
	sections := []string{a.viewSession(), a.viewFiles()}
	if a.lastResult != nil {
		sections = append(sections, a.viewResult())
	}
	if len(a.notifications) > 0 {
		sections = append(sections, a.viewNotifications())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) viewSession() string {
	s := a.session
	var b strings.Builder

	b.WriteString(a.styles.Section.Render("Session"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s  %s", a.styles.ForStatus(s.Status).Render(s.Status.String()), s.Stage.Title())
	if s.Stage == domain.StageFull && a.current != domain.StageNone && s.Status.Active() {
		fmt.Fprintf(&b, " (%s)", a.current.Title())
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %5.1f%%", a.bar.ViewAs(s.Percentage/100), s.Percentage)
	if s.Message != "" {
		b.WriteString("\n")
		b.WriteString(a.styles.Muted.Render(s.Message))
	}
	return a.styles.Panel.Render(b.String())
}

func (a *App) viewFiles() string {
	var b strings.Builder
	b.WriteString(a.styles.Section.Render("Files"))
	b.WriteString("\n")

	if a.files == nil {
		b.WriteString(a.styles.Muted.Render("Not loaded. Press r to refresh."))
		return a.styles.Panel.Render(b.String())
	}

	fmt.Fprintf(&b, "Sync data  %s\n", a.artifact(a.files.SyncData))
	fmt.Fprintf(&b, "Manifest   %s\n", a.artifact(a.files.Manifest))
	if info := a.files.Stage1Info; info != nil {
		fmt.Fprintf(&b, "Stage 1    %d procedures, %d cases\n", info.TotalProcedures, info.TotalCases)
	}
	if st := a.files.Stage3Status; st != nil {
		state := "idle"
		if st.InProgress {
			state = "in progress"
		}
		fmt.Fprintf(&b, "Stage 3    %d of %d cases, %s\n", st.ProcessedCases, st.TotalCases, state)
	}

	b.WriteString("\n")
	for _, e := range a.eligibility.Stages {
		marker := "  "
		if e.Stage == a.eligibility.Next {
			marker = "> "
		}
		if e.Enabled {
			b.WriteString(marker + a.styles.Success.Render(e.Stage.Title()+" ready"))
		} else {
			b.WriteString(marker + a.styles.Muted.Render(e.Stage.Title()+": "+e.Reason))
		}
		b.WriteString("\n")
	}
	return a.styles.Panel.Render(strings.TrimRight(b.String(), "\n"))
}

func (a *App) artifact(info domain.ArtifactInfo) string {
	if !info.Exists {
		return a.styles.Muted.Render("missing")
	}
	if info.Date.IsZero() {
		return a.styles.Success.Render("present")
	}
	return a.styles.Success.Render("present") + a.styles.Muted.Render(" "+info.Date.Local().Format(time.DateTime))
}

func (a *App) viewResult() string {
	r := a.lastResult
	var b strings.Builder
	b.WriteString(a.styles.Section.Render("Last run"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s", r.Stage.Title(), a.styles.ForOutcome(r.Outcome).Render(string(r.Outcome)))
	if d := r.Duration(); d > 0 {
		fmt.Fprintf(&b, " in %s", d.Round(time.Second))
	}
	if r.Message != "" {
		b.WriteString("\n")
		b.WriteString(r.Message)
	}
	return a.styles.Panel.Render(b.String())
}

func (a *App) viewNotifications() string {
	lines := make([]string, 0, len(a.notifications)+1)
	lines = append(lines, a.styles.Section.Render("Notifications"))
	for i := len(a.notifications) - 1; i >= 0; i-- {
		n := a.notifications[i]
		line := a.styles.ForNotification(n.Kind).Render(n.Title)
		if n.Message != "" {
			line += "  " + n.Message
		}
		lines = append(lines, line)
	}
	return a.styles.Panel.Render(strings.Join(lines, "\n"))
}

func (a *App) viewPrompt() string {
	p := a.confirm.Prompt
	yes, no := p.Affirmative, p.Negative
	if yes == "" {
		yes = "Continue"
		if p.Destructive {
			yes = "Delete"
		}
	}
	if no == "" {
		no = "Cancel"
	}

	content := fmt.Sprintf("%s\n\n%s\n\n%s  %s",
		a.styles.Title.Render(p.Title),
		p.Message,
		a.styles.Normal.Render("[y] "+yes),
		a.styles.Muted.Render("[n] "+no),
	)
	if p.Destructive {
		return a.styles.Destructive.Render(content)
	}
	return a.styles.Modal.Render(content)
}

func (a *App) viewDetail() string {
	var b strings.Builder
	b.WriteString(a.styles.Section.Render("Detailed progress"))
	b.WriteString("\n")

	p := a.detail
	if p == nil {
		b.WriteString(a.styles.Muted.Render("Loading..."))
		return a.styles.Panel.Render(b.String())
	}

	fmt.Fprintf(&b, "Stage %d  %.1f%%\n", p.Stage, p.OverallPercentage)
	if p.CurrentStep != "" {
		fmt.Fprintf(&b, "Step       %s\n", p.CurrentStep)
	}
	if p.CurrentProcedure != "" {
		fmt.Fprintf(&b, "Procedure  %s\n", p.CurrentProcedure)
	}
	fmt.Fprintf(&b, "Procedures %s %d/%d\n",
		a.bar.ViewAs(p.ProcedureProgress.Percentage/100), p.ProcedureProgress.Current, p.ProcedureProgress.Total)
	fmt.Fprintf(&b, "Cases      %s %d/%d",
		a.bar.ViewAs(p.CaseProgress.Percentage/100), p.CaseProgress.Current, p.CaseProgress.Total)

	if len(p.RecentCases) > 0 {
		b.WriteString("\n\n")
		b.WriteString(a.styles.Muted.Render("Recent cases"))
		for _, c := range p.RecentCases {
			b.WriteString("\n  " + c.ID)
			if c.Title != "" {
				b.WriteString(" " + c.Title)
			}
			if c.Status != "" {
				b.WriteString(a.styles.Muted.Render(" [" + c.Status + "]"))
			}
		}
	}
	b.WriteString("\n\n")
	b.WriteString(a.styles.Help.Render("r refresh  esc back"))
	return a.styles.Panel.Render(b.String())
}

func (a *App) viewHistory() string {
	var b strings.Builder
	b.WriteString(a.styles.Section.Render("Recent runs"))
	b.WriteString("\n")

	switch {
	case a.ports.History == nil:
		b.WriteString(a.styles.Muted.Render("History is not available."))
	case len(a.history) == 0:
		b.WriteString(a.styles.Muted.Render("No runs recorded."))
	default:
		for _, r := range a.history {
			fmt.Fprintf(&b, "%s  %-9s  %s  %3.0f%%  %s\n",
				r.StartedAt.Local().Format(time.DateTime),
				r.Stage.Title(),
				a.styles.ForOutcome(r.Outcome).Render(fmt.Sprintf("%-9s", r.Outcome)),
				r.Percentage,
				r.Message,
			)
		}
	}
	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render("r refresh  esc back"))
	return a.styles.Panel.Render(b.String())
}

func (a *App) viewHelp() string {
	h := a.help
	h.ShowAll = true
	return a.styles.Panel.Render(a.styles.Section.Render("Keys") + "\n" + h.View(a.keymap))
}
