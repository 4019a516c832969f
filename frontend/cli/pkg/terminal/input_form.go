package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/furisto/debrief/backend/debrief"
)

type inputField int

const (
	fieldTitle inputField = iota
	fieldPlan
	fieldNarrative
	fieldFacet // first facet; facet i is fieldFacet+i
)

// inputForm holds the widgets of the input step. The outcome is either one
// narrative area or one line per facet.
type inputForm struct {
	title      textinput.Model
	plan       textarea.Model
	narrative  textarea.Model
	facets     []textinput.Model
	attach     textinput.Model
	structured bool
	focus      int
	images     int
}

func newInputForm() inputForm {
	title := textinput.New()
	title.Placeholder = "e.g. Line A outage"
	title.CharLimit = 200
	title.Width = 60

	plan := textarea.New()
	plan.Placeholder = "What was supposed to happen?"
	plan.ShowLineNumbers = false
	plan.SetHeight(3)

	narrative := textarea.New()
	narrative.Placeholder = "What actually happened?"
	narrative.ShowLineNumbers = false
	narrative.SetHeight(4)

	facets := make([]textinput.Model, len(debrief.Facets))
	for i := range facets {
		facets[i] = textinput.New()
		facets[i].CharLimit = 500
		facets[i].Width = 60
	}

	attach := textinput.New()
	attach.Placeholder = "path to an image, enter to attach"
	attach.Width = 60

	return inputForm{
		title:     title,
		plan:      plan,
		narrative: narrative,
		facets:    facets,
		attach:    attach,
	}
}

func (f *inputForm) Load(record debrief.Record) {
	f.title.SetValue(record.Title)
	f.plan.SetValue(record.WhatWasPlanned)
	f.structured = record.WhatHappened.IsStructured()
	if f.structured {
		f.narrative.SetValue("")
	} else {
		f.narrative.SetValue(record.WhatHappened.Text)
	}
	for i, facet := range debrief.Facets {
		f.facets[i].SetValue(record.WhatHappened.Facet(facet))
	}
	f.images = len(record.Images)
	f.focus = min(f.focus, len(f.fields())-1)
}

func (f *inputForm) SetWidth(width int) {
	width = max(20, width)
	f.title.Width = width
	f.plan.SetWidth(width)
	f.narrative.SetWidth(width)
	for i := range f.facets {
		f.facets[i].Width = width
	}
	f.attach.Width = width
}

// fields lists the focusable widgets in tab order. The attach field is
// the last one and is addressed as -1.
func (f inputForm) fields() []inputField {
	fields := []inputField{fieldTitle, fieldPlan}
	if f.structured {
		for i := range f.facets {
			fields = append(fields, fieldFacet+inputField(i))
		}
	} else {
		fields = append(fields, fieldNarrative)
	}
	return append(fields, -1)
}

func (f inputForm) current() inputField {
	return f.fields()[f.focus]
}

func (f *inputForm) Move(delta int) tea.Cmd {
	n := len(f.fields())
	f.focus = ((f.focus+delta)%n + n) % n
	return f.refocus()
}

func (f *inputForm) Blur() {
	f.focus = 0
	f.title.Blur()
	f.plan.Blur()
	f.narrative.Blur()
	for i := range f.facets {
		f.facets[i].Blur()
	}
	f.attach.Blur()
}

func (f *inputForm) refocus() tea.Cmd {
	current := f.current()
	var cmds []tea.Cmd

	f.title.Blur()
	f.plan.Blur()
	f.narrative.Blur()
	f.attach.Blur()
	for i := range f.facets {
		f.facets[i].Blur()
	}

	switch {
	case current == fieldTitle:
		cmds = append(cmds, f.title.Focus())
	case current == fieldPlan:
		cmds = append(cmds, f.plan.Focus())
	case current == fieldNarrative:
		cmds = append(cmds, f.narrative.Focus())
	case current >= fieldFacet:
		cmds = append(cmds, f.facets[current-fieldFacet].Focus())
	default:
		cmds = append(cmds, f.attach.Focus())
	}
	return tea.Batch(cmds...)
}

// Update routes msg to the focused widget.
func (f *inputForm) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch current := f.current(); {
	case current == fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case current == fieldPlan:
		f.plan, cmd = f.plan.Update(msg)
	case current == fieldNarrative:
		f.narrative, cmd = f.narrative.Update(msg)
	case current >= fieldFacet:
		i := current - fieldFacet
		f.facets[i], cmd = f.facets[i].Update(msg)
	default:
		f.attach, cmd = f.attach.Update(msg)
	}
	return cmd
}

func (f inputForm) OnAttach() bool {
	return f.current() == -1
}

func (f inputForm) View() string {
	var sb strings.Builder
	current := f.current()

	field := func(label string, focused bool, view string) {
		if focused {
			sb.WriteString(focusedLabelStyle.Render(label))
		} else {
			sb.WriteString(labelStyle.Render(label))
		}
		sb.WriteString("\n")
		sb.WriteString(view)
		sb.WriteString("\n\n")
	}

	field("Title", current == fieldTitle, f.title.View())
	field("What was planned", current == fieldPlan, f.plan.View())

	if f.structured {
		sb.WriteString(subtleStyle.Render("What happened (structured, ctrl+t for free text)"))
		sb.WriteString("\n\n")
		for i, facet := range debrief.Facets {
			field(facet.Label(), current == fieldFacet+inputField(i), f.facets[i].View())
		}
	} else {
		field("What happened (ctrl+t for structured)", current == fieldNarrative, f.narrative.View())
	}

	attachLabel := "Attach image"
	if f.images > 0 {
		attachLabel += fmt.Sprintf(" (%d attached)", f.images)
	}
	field(attachLabel, current == -1, f.attach.View())
	return sb.String()
}
