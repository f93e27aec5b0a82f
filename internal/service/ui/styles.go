package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// ANSI colors only, so output follows the terminal theme.
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)
	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	DescStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	FlagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	ReplyStyle = lipgloss.NewStyle()
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	LabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
)

// RenderReply styles a dispatcher reply for the terminal. Error replies are
// highlighted.
func RenderReply(reply string) string {
	if strings.HasPrefix(reply, "Error:") {
		return ErrorStyle.Render(reply)
	}
	return ReplyStyle.Render(reply)
}
