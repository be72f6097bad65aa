package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/upstreamed/forksync/internal/syncer"
)

// https://github.com/muesli/termenv/blob/master/ansicolors.go
var (
	red       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	green     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	yellow    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	cyan      = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	gray      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	lightGray = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
)

func kindStyle(kind syncer.OutcomeKind) lipgloss.Style {
	switch {
	case kind.Synced():
		return green
	case kind == syncer.OutcomeFailed:
		return red
	case kind == syncer.OutcomeNeedsSync:
		return yellow
	case kind == syncer.OutcomeInSync:
		return lightGray
	default:
		return gray
	}
}

// Summary renders the per-fork results and totals for the terminal.
func Summary(rep *syncer.RunReport) string {
	var sb strings.Builder

	title := fmt.Sprintf("Fork sync for %s", cyan.Bold(true).Render(rep.Owner))
	if rep.DryRun {
		title += gray.Render(" (dry run)")
	}
	sb.WriteString("\n" + title + "\n\n")

	for _, out := range rep.Outcomes {
		if out == nil || out.Record == nil {
			continue
		}
		kind := kindStyle(out.Kind).Render(fmt.Sprintf("%-17s", out.Kind))
		sb.WriteString(fmt.Sprintf("  %s %s", kind, out.Record.Name))
		if out.Detail != "" {
			sb.WriteString("  " + gray.Render(out.Detail))
		}
		sb.WriteString("\n")
	}
	if len(rep.Outcomes) > 0 {
		sb.WriteString("\n")
	}

	t := rep.Totals
	counts := fmt.Sprintf("%d considered · %d synced · %d already in sync · %d skipped · %d failed",
		t.Total, t.Synced, t.InSync, t.Skipped, t.Failed)
	if t.NeedsSync > 0 {
		counts += fmt.Sprintf(" · %d need sync", t.NeedsSync)
	}
	sb.WriteString("  " + counts + "\n")
	sb.WriteString("  " + gray.Render(fmt.Sprintf("run %s finished in %s", rep.RunID, rep.Duration().Round(time.Second))) + "\n")

	return sb.String()
}
