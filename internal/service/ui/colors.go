package ui

import "github.com/charmbracelet/lipgloss"

var (
	// TitleStyle uses ANSI cyan, readable on light and dark terminals.
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)

	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	// DescStyle is dimmed so descriptions sit behind names.
	DescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	FlagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	// ToolStyle marks tool-call notices in the chat stream.
	ToolStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Italic(true)

	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// ToolNotice renders the line shown when the model calls a tool.
func ToolNotice(name, args string) string {
	if args == "" || args == "null" {
		args = "{}"
	}
	return ToolStyle.Render("[Using tool: " + name + " with " + args + "]")
}
