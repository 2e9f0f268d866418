package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vvka-141/csvload/internal/files/scanner"
	"github.com/vvka-141/csvload/pkg/csvload"
)

// RenderPlan formats what a load would do: each folder with its schema, each
// file with its table, and the folders and files that need attention.
func RenderPlan(plan scanner.Plan, policy csvload.CollisionPolicy, styled bool) string {
	style := func(s interface{ Render(...string) string }, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", style(TitleStyle, "Load plan for"), plan.BasePath)

	for _, f := range plan.Folders {
		schema := f.Mapping.Schema
		if schema == "" {
			schema = "(default)"
		}
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "%s %s %s\n", f.Mapping.Folder, SymbolArrowRight, style(ValueStyle, schema))

		switch {
		case f.Missing:
			fmt.Fprintf(&sb, "  %s\n", style(WarningStyle, SymbolWarning+" folder does not exist, skipped"))
			continue
		case f.Err != nil:
			fmt.Fprintf(&sb, "  %s\n", style(ErrorStyle, SymbolCross+" "+f.Err.Error()))
			continue
		case f.Empty():
			fmt.Fprintf(&sb, "  %s\n", style(WarningStyle, SymbolWarning+" no CSV files"))
			continue
		}

		for _, file := range f.Files {
			line := fmt.Sprintf("  %s %s %s", file.Name, SymbolArrowRight, file.Table)
			if file.Collides() {
				note := fmt.Sprintf("replaces the table of %s", filepath.Base(file.CollidesWith))
				if policy == csvload.CollisionSkip {
					note = fmt.Sprintf("skipped, table taken by %s", filepath.Base(file.CollidesWith))
				}
				line += "  " + style(WarningStyle, SymbolWarning+" "+note)
			}
			sb.WriteString(line + "\n")
		}
	}

	summary := fmt.Sprintf("%d folders %s %d files", len(plan.Folders), SymbolBullet, plan.FileCount())
	if n := plan.CollisionCount(); n > 0 {
		summary += fmt.Sprintf(" %s %d name collisions (%s)", SymbolBullet, n, policy)
	}
	sb.WriteString("\n" + style(MutedStyle, summary) + "\n")
	return sb.String()
}
