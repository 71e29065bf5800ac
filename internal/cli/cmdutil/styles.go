package cmdutil

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ADD8"))
	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	SuccessStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	MutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	ErrorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
)
