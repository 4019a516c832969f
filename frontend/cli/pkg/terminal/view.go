package terminal

import (
	"fmt"
	"strings"

	"github.com/furisto/debrief/backend/session"
)

func (a *App) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("debrief"))
	sb.WriteString("\n\n")

	switch a.session.State() {
	case session.Dashboard:
		sb.WriteString(a.viewDashboard())
	case session.Setup:
		sb.WriteString(a.viewSetup())
	default:
		sb.WriteString(a.viewEditor())
	}

	if a.status != "" {
		sb.WriteString("\n")
		sb.WriteString(a.status)
	}
	return appStyle.Render(sb.String())
}

func (a *App) viewDashboard() string {
	var sb strings.Builder

	if len(a.dashboard.Items()) == 0 {
		sb.WriteString(subtleStyle.Render("No debriefs yet. Press n to start your first one."))
		sb.WriteString("\n")
	} else {
		sb.WriteString(a.dashboard.View())
		sb.WriteString("\n")
	}

	help := "n: new • enter: open • d: delete • q: quit"
	if a.shareChannel != nil {
		help = "n: new • enter: open • s: share • d: delete • q: quit"
	}
	sb.WriteString(helpStyle.Render(help))
	return sb.String()
}

func (a *App) viewSetup() string {
	var sb strings.Builder

	sb.WriteString(Bold("Connect to Gemini"))
	sb.WriteString("\n\n")
	sb.WriteString("Gap suggestions and conclusions are produced by Google Gemini.\n")
	sb.WriteString("Paste an API key to continue. It is stored in your system keyring.\n")
	sb.WriteString(fmt.Sprintf("%s Billing and quotas: %s\n\n", LinkSymbol, BillingDocsURL))
	sb.WriteString(a.setup.View())
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("enter: connect • esc: quit"))
	return sb.String()
}

func (a *App) viewEditor() string {
	var sb strings.Builder
	step := a.session.Step()

	sb.WriteString(stepIndicator(step))
	sb.WriteString("\n\n")

	switch step {
	case session.StepInput:
		sb.WriteString(a.input.View())
	case session.StepGaps:
		sb.WriteString(a.viewSuggestionState(step, "Looking for gaps"))
		sb.WriteString(a.gaps.View())
	default:
		sb.WriteString(a.viewSuggestionState(step, "Deriving root causes and conclusions"))
		sb.WriteString(a.rootCauses.View())
		sb.WriteString("\n")
		sb.WriteString(a.conclusions.View())
	}

	if a.session.SavedAck(a.now()) {
		sb.WriteString("\n")
		sb.WriteString(savedStyle.Render(SuccessSymbol + " Draft saved"))
	}

	sb.WriteString(helpStyle.Render(editorHelp(step)))
	return sb.String()
}

func (a *App) viewSuggestionState(step session.Step, loadingText string) string {
	if a.session.Loading(step) {
		return fmt.Sprintf("%s %s...\n\n", a.spinner.View(), loadingText)
	}
	if err := a.session.LastError(step); err != nil {
		return errorTextStyle.Render(fmt.Sprintf("%s %s", WarningSymbol, ErrorHint(err))) + "\n\n"
	}
	return ""
}

func stepIndicator(current session.Step) string {
	steps := []struct {
		step  session.Step
		label string
	}{
		{session.StepInput, "1 What happened"},
		{session.StepGaps, "2 Gaps"},
		{session.StepConclusions, "3 Conclusions"},
	}

	parts := make([]string, len(steps))
	for i, s := range steps {
		switch {
		case s.step == current:
			parts[i] = stepActiveStyle.Render(s.label)
		case s.step < current:
			parts[i] = stepDoneStyle.Render(s.label)
		default:
			parts[i] = stepTodoStyle.Render(s.label)
		}
	}
	return strings.Join(parts, subtleStyle.Render(" › "))
}

func editorHelp(step session.Step) string {
	switch step {
	case session.StepInput:
		return "tab: next field • ctrl+t: narrative/structured • ctrl+n: next • ctrl+s: save draft • esc: back"
	case session.StepGaps:
		return "enter: add row • ctrl+d: remove row • ctrl+r: ask again • ctrl+n: next • ctrl+s: save draft • esc: back"
	default:
		return "tab: switch list • enter: add row • ctrl+d: remove row • ctrl+r: ask again • ctrl+n: finish • esc: back"
	}
}
