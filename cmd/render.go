package cmd

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sentiview/sentiview/pkg/sentiment"
)

const barCells = 30

var (
	positiveColor = lipgloss.Color("#10b981")
	negativeColor = lipgloss.Color("#f43f5e")
	neutralColor  = lipgloss.Color("#94a3b8")

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748b"))
	errorStyle = lipgloss.NewStyle().Foreground(negativeColor).Bold(true)
)

func labelColor(l sentiment.Label) lipgloss.Color {
	switch l {
	case sentiment.Positive:
		return positiveColor
	case sentiment.Negative:
		return negativeColor
	default:
		return neutralColor
	}
}

func badge(l sentiment.Label) string {
	return lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(lipgloss.Color("#0f172a")).
		Background(labelColor(l)).
		Render(string(l))
}

// bars draws one line per score, the filled part proportional to
// round(score*100)%.
func bars(scores sentiment.Scores) string {
	var b strings.Builder
	for _, s := range scores {
		pct := int(math.Round(s.Score * 100))
		filled := pct * barCells / 100
		bar := lipgloss.NewStyle().Foreground(labelColor(s.Label)).Render(strings.Repeat("█", filled)) +
			mutedStyle.Render(strings.Repeat("░", barCells-filled))
		fmt.Fprintf(&b, "  %-8s %s %3d%%\n", s.Label, bar, pct)
	}
	return b.String()
}

func renderResult(res *sentiment.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", badge(res.Label),
		mutedStyle.Render(fmt.Sprintf("%s · %v ms", res.Model, res.LatencyMS)))
	b.WriteString(bars(res.Scores))
	return b.String()
}
