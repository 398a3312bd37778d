// ABOUTME: Lipgloss style constants for CLI output plus StyleForStatus mapping lifecycle states to colors.
// ABOUTME: Shared by the table renderers and the live monitor view.
package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jkalend/custom-cicd/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(12)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	runningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	cancelledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	skippedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// StyleForStatus returns the display style for a lifecycle status.
func StyleForStatus(status engine.Status) lipgloss.Style {
	switch status {
	case engine.StatusRunning:
		return runningStyle
	case engine.StatusSuccess:
		return successStyle
	case engine.StatusFailed:
		return failedStyle
	case engine.StatusCancelled:
		return cancelledStyle
	case engine.StatusSkipped:
		return skippedStyle
	default:
		return pendingStyle
	}
}
