package output

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// Styles holds the lipgloss styles used by the renderer.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	Critical lipgloss.Style
	High     lipgloss.Style
	Medium   lipgloss.Style
	Low      lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Header1: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: r.NewStyle().Bold(true).Underline(true),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Info:    r.NewStyle().Foreground(lipgloss.Color("14")),

		Critical: r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		High:     r.NewStyle().Foreground(lipgloss.Color("208")),
		Medium:   r.NewStyle().Foreground(lipgloss.Color("220")),
		Low:      r.NewStyle().Foreground(lipgloss.Color("33")),
	}
}

// Severity returns the style for a severity level.
func (s Styles) Severity(sev core.Severity) lipgloss.Style {
	switch sev {
	case core.SeverityCritical:
		return s.Critical
	case core.SeverityHigh:
		return s.High
	case core.SeverityMedium:
		return s.Medium
	default:
		return s.Low
	}
}

// SeverityLabel renders "[CRITICAL]" style tags.
func (s Styles) SeverityLabel(sev core.Severity) string {
	return s.Severity(sev).Render("[" + strings.ToUpper(sev.String()) + "]")
}
