package report

import "github.com/charmbracelet/lipgloss"

// styles groups the styles of a Reporter. They are built from a renderer
// bound to the output writer, so piped output carries no escape codes.
type styles struct {
	title   lipgloss.Style
	step    lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	dim     lipgloss.Style
	answer  lipgloss.Style

	errorBlock lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true),
		step:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("4")), // blue
		success: r.NewStyle().Foreground(lipgloss.Color("2")),            // green
		warning: r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")), // yellow
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")), // red
		dim:     r.NewStyle().Foreground(lipgloss.Color("8")),            // gray
		answer:  r.NewStyle().Foreground(lipgloss.Color("6")),            // cyan

		errorBlock: r.NewStyle().
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("1")),
	}
}

const ruleWidth = 50
