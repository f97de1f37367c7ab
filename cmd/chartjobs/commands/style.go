package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	accentFg = lipgloss.Color("#7C3AED")
	dimFg    = lipgloss.Color("#8B98A5")
	okFg     = lipgloss.Color("#22C55E")
	badFg    = lipgloss.Color("#EF4444")

	titleStyle = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(dimFg)
	keyStyle   = dimStyle.Width(12)
	okStyle    = lipgloss.NewStyle().Foreground(okFg)
	badStyle   = lipgloss.NewStyle().Foreground(badFg)
)

type kv struct {
	k string
	v any
}

// printReport writes a titled key/value block.
func printReport(w io.Writer, title string, rows []kv) {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, titleStyle.Render(title))
	for _, r := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, keyStyle.Render(r.k), fmt.Sprint(r.v)))
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func status(ok bool, text string) string {
	if ok {
		return okStyle.Render(text)
	}
	return badStyle.Render(text)
}
