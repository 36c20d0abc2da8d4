package cmd

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func printHeading(w io.Writer, title string) {
	fmt.Fprintf(w, "  %s\n", headingStyle.Render(title))
	fmt.Fprintln(w, "  ────────────────────────────────────────")
}

// printTree prints label/value rows with tree connectors, like
//
//	├─ Entities: 3
//	└─ Chunks:   1
func printTree(w io.Writer, rows [][2]string) {
	width := 0
	for _, r := range rows {
		if len(r[0]) > width {
			width = len(r[0])
		}
	}
	for i, r := range rows {
		branch := "├─"
		if i == len(rows)-1 {
			branch = "└─"
		}
		fmt.Fprintf(w, "  %s %s %s\n", branch, padRight(r[0]+":", width+1), r[1])
	}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func truncName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
