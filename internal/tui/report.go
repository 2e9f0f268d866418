package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/vvka-141/csvload/internal/stats"
)

const ruleWidth = 50

type reportLine struct {
	label string
	value string
}

func reportLines(snap stats.Snapshot) []reportLine {
	lines := []reportLine{
		{"Files processed", stats.FormatCount(int64(snap.FilesProcessed))},
		{"Tables created", stats.FormatCount(int64(snap.TablesCreated))},
		{"Rows inserted", stats.FormatCount(snap.RowsInserted)},
		{"Errors", stats.FormatCount(int64(snap.Errors))},
	}
	if snap.FoldersSkipped > 0 {
		lines = append(lines, reportLine{"Folders skipped", stats.FormatCount(int64(snap.FoldersSkipped))})
	}
	if snap.PartialRows > 0 {
		lines = append(lines, reportLine{"Partial rows", stats.FormatCount(snap.PartialRows)})
	}
	lines = append(lines, reportLine{"Duration", snap.Elapsed.Round(time.Millisecond).String()})
	return lines
}

func failureLine(f stats.Failure) string {
	target := f.Path
	if f.Table != "" {
		target += " " + SymbolArrowRight + " " + f.Table
	}
	return fmt.Sprintf("%s [%s] %s", target, f.Reason, f.Message)
}

// RenderReport formats the end-of-run statistics. styled draws a bordered
// box for terminals; otherwise the report is plain text suitable for logs.
func RenderReport(snap stats.Snapshot, styled bool) string {
	if !styled {
		return renderPlainReport(snap)
	}

	var body strings.Builder
	body.WriteString(TitleStyle.Render("Load statistics"))
	body.WriteString("\n\n")
	for _, l := range reportLines(snap) {
		body.WriteString(LabelStyle.Render(l.label))
		body.WriteString(ValueStyle.Render(l.value))
		body.WriteString("\n")
	}

	if len(snap.Failures) > 0 {
		body.WriteString("\n")
		body.WriteString(ErrorStyle.Render("Failures"))
		body.WriteString("\n")
		for _, f := range snap.Failures {
			body.WriteString(ErrorStyle.Render(SymbolCross) + " " + failureLine(f) + "\n")
		}
	} else {
		body.WriteString("\n" + SuccessStyle.Render(SymbolCheck+" All files loaded"))
	}

	box := BoxStyle
	if !snap.Clean() {
		box = ErrorBoxStyle
	}
	return box.Render(strings.TrimRight(body.String(), "\n")) + "\n"
}

func renderPlainReport(snap stats.Snapshot) string {
	rule := strings.Repeat("=", ruleWidth)

	var sb strings.Builder
	sb.WriteString(rule + "\n")
	sb.WriteString("LOAD STATISTICS\n")
	sb.WriteString(rule + "\n")
	for _, l := range reportLines(snap) {
		fmt.Fprintf(&sb, "%-18s%s\n", l.label+":", l.value)
	}
	if len(snap.Failures) > 0 {
		sb.WriteString("Failures:\n")
		for _, f := range snap.Failures {
			sb.WriteString("  - " + failureLine(f) + "\n")
		}
	}
	sb.WriteString(rule + "\n")
	return sb.String()
}
