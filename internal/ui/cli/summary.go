package cli

import (
	"fmt"
	"strings"
	"time"

	"flatcode/internal/core/flatten"
	"flatcode/internal/data/ledger"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Width(10)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

func renderSummary(report *flatten.Report, flatDir string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render("flatcode run "+report.RunID))
	row := func(label string, value int) {
		fmt.Fprintf(&b, "%s %d\n", labelStyle.Render(label), value)
	}
	row("entries", report.Count(flatten.RoleEntry))
	row("modules", report.Count(flatten.RoleModule))
	row("siblings", report.Count(flatten.RoleSibling))
	row("reused", len(report.Reused))
	row("skipped", len(report.Skipped))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("flat dir"), flatDir)

	if len(report.Dangling) > 0 {
		fmt.Fprintf(&b, "%s\n", warnStyle.Render(fmt.Sprintf("%d unresolved references rewritten to missing paths:", len(report.Dangling))))
		for _, ref := range report.Dangling {
			fmt.Fprintf(&b, "  %s:%d %s -> %s\n", ref.File, ref.Line, ref.Module, ref.Rule)
		}
	}
	if len(report.Missing) > 0 {
		fmt.Fprintf(&b, "%s\n", warnStyle.Render(fmt.Sprintf("%d source files not found:", len(report.Missing))))
		for _, path := range report.Missing {
			fmt.Fprintf(&b, "  %s\n", path)
		}
	}
	if len(report.Clobbered) > 0 {
		fmt.Fprintf(&b, "%s\n", warnStyle.Render(fmt.Sprintf("%d destinations written from more than one source:", len(report.Clobbered))))
		for _, path := range report.Clobbered {
			fmt.Fprintf(&b, "  %s\n", path)
		}
	}
	if len(report.Dangling) == 0 && len(report.Missing) == 0 && len(report.Clobbered) == 0 {
		fmt.Fprintf(&b, "%s\n", successStyle.Render("all references resolved"))
	}
	fmt.Fprintf(&b, "%s\n", statusStyle.Render("finished in "+report.Duration().Round(time.Millisecond).String()))
	return b.String()
}

func renderHistory(runs []ledger.Run) string {
	if len(runs) == 0 {
		return statusStyle.Render("no runs recorded") + "\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(fmt.Sprintf("last %d runs", len(runs))))
	for _, run := range runs {
		line := fmt.Sprintf("%s  %s  entries=%d modules=%d siblings=%d reused=%d skipped=%d dangling=%d missing=%d",
			run.StartedAt.Local().Format(time.RFC3339),
			run.ID,
			run.Entries,
			run.Modules,
			run.Siblings,
			run.Reused,
			run.Skipped,
			run.Dangling,
			run.Missing,
		)
		if run.Dangling > 0 || run.Missing > 0 {
			line = warnStyle.Render(line)
		}
		fmt.Fprintf(&b, "%s\n", line)
	}
	return b.String()
}
