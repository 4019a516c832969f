package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// listEditor edits an ordered list of one line entries. Enter adds a row
// below the cursor and ctrl+d removes the current row. There is always at
// least one row.
type listEditor struct {
	label       string
	placeholder string
	rows        []textinput.Model
	cursor      int
	focused     bool
	width       int
}

func newListEditor(label, placeholder string) listEditor {
	l := listEditor{label: label, placeholder: placeholder, width: 72}
	l.SetValues(nil)
	return l
}

func (l *listEditor) newRow(value string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = l.placeholder
	ti.CharLimit = 500
	ti.Width = l.width
	ti.SetValue(value)
	return ti
}

func (l *listEditor) SetValues(values []string) {
	rows := make([]textinput.Model, 0, len(values)+1)
	for _, v := range values {
		rows = append(rows, l.newRow(v))
	}
	if len(rows) == 0 {
		rows = append(rows, l.newRow(""))
	}
	l.rows = rows
	l.cursor = min(l.cursor, len(l.rows)-1)
	l.refocus()
}

// Values returns the rows as typed, blank rows included.
func (l listEditor) Values() []string {
	values := make([]string, len(l.rows))
	for i, row := range l.rows {
		values[i] = row.Value()
	}
	return values
}

func (l *listEditor) SetWidth(width int) {
	l.width = max(20, width)
	for i := range l.rows {
		l.rows[i].Width = l.width
	}
}

func (l *listEditor) Focus() tea.Cmd {
	l.focused = true
	return l.refocus()
}

func (l *listEditor) Blur() {
	l.focused = false
	l.refocus()
}

func (l *listEditor) refocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range l.rows {
		if l.focused && i == l.cursor {
			cmd = l.rows[i].Focus()
		} else {
			l.rows[i].Blur()
		}
	}
	return cmd
}

// Update handles a key for the focused editor and reports whether the list
// content changed.
func (l *listEditor) Update(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "up":
		if l.cursor > 0 {
			l.cursor--
		}
		return false, l.refocus()
	case "down":
		if l.cursor < len(l.rows)-1 {
			l.cursor++
		}
		return false, l.refocus()
	case "enter":
		at := l.cursor + 1
		l.rows = append(l.rows[:at], append([]textinput.Model{l.newRow("")}, l.rows[at:]...)...)
		l.cursor = at
		return true, l.refocus()
	case "ctrl+d":
		if len(l.rows) == 1 {
			changed := l.rows[0].Value() != ""
			l.rows[0].SetValue("")
			return changed, nil
		}
		l.rows = append(l.rows[:l.cursor], l.rows[l.cursor+1:]...)
		l.cursor = min(l.cursor, len(l.rows)-1)
		return true, l.refocus()
	}

	before := l.rows[l.cursor].Value()
	var cmd tea.Cmd
	l.rows[l.cursor], cmd = l.rows[l.cursor].Update(msg)
	return l.rows[l.cursor].Value() != before, cmd
}

func (l listEditor) View() string {
	var sb strings.Builder

	label := labelStyle.Render(l.label)
	if l.focused {
		label = focusedLabelStyle.Render(l.label)
	}
	sb.WriteString(label)
	sb.WriteString("\n")

	for i, row := range l.rows {
		marker := " "
		if l.focused && i == l.cursor {
			marker = CursorSymbol
		}
		fmt.Fprintf(&sb, "%s %2d. %s\n", marker, i+1, row.View())
	}
	return sb.String()
}
