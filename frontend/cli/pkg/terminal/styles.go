package terminal

import "github.com/charmbracelet/lipgloss"

var (
	appStyle = lipgloss.NewStyle().Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Bold(true)

	focusedLabelStyle = labelStyle.Foreground(lipgloss.Color("205"))

	stepActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	stepDoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	stepTodoStyle = subtleStyle

	errorTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	savedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	helpStyle = subtleStyle.MarginTop(1)

	boldStyle = lipgloss.NewStyle().Bold(true)
)

func Bold(s string) string {
	return boldStyle.Render(s)
}
