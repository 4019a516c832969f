package terminal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"

	"github.com/furisto/debrief/backend/debrief"
	"github.com/furisto/debrief/backend/gateway"
	"github.com/furisto/debrief/backend/session"
	"github.com/furisto/debrief/backend/share"
)

const BillingDocsURL = "https://ai.google.dev/gemini-api/docs/billing"

// suggestionMsg carries the outcome of a suggestion call started for step.
type suggestionMsg struct {
	step session.Step
	err  error
}

type savedAckExpiredMsg struct{}

type conclusionsFocus int

const (
	focusRootCauses conclusionsFocus = iota
	focusConclusions
)

type Option func(*App)

func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// WithCredentialStore persists a key entered on the setup screen before the
// session switches to it.
func WithCredentialStore(store func(key string) error) Option {
	return func(a *App) {
		a.storeCredential = store
	}
}

// WithAfterSetup runs open once a key has been provided on the setup
// screen. It moves the session to the state the program was started for.
func WithAfterSetup(open func(s *session.Session) error) Option {
	return func(a *App) {
		a.afterSetup = open
	}
}

// WithShareChannel sets the channel used by the dashboard share key.
func WithShareChannel(channel share.Channel) Option {
	return func(a *App) {
		a.shareChannel = channel
	}
}

// WithFileSystem sets where image attachments are read from.
func WithFileSystem(fs afero.Fs) Option {
	return func(a *App) {
		a.fs = fs
	}
}

// App is the full screen debrief program. It renders the session's current
// state and turns key presses into session operations; suggestion calls run
// as commands off the UI goroutine.
type App struct {
	ctx     context.Context
	session *session.Session

	now             func() time.Time
	storeCredential func(key string) error
	afterSetup      func(s *session.Session) error
	shareChannel    share.Channel
	fs              afero.Fs
	savedAckAfter   func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

	width  int
	height int

	dashboard     list.Model
	pendingDelete string
	setup         textinput.Model
	input         inputForm
	gaps          listEditor
	rootCauses    listEditor
	conclusions   listEditor
	conclFocus    conclusionsFocus
	spinner       spinner.Model

	status string
	err    error
}

type recordItem struct {
	record debrief.Record
	now    time.Time
}

func (i recordItem) Title() string {
	return StatusGlyph(i.record) + " " + share.Title(i.record)
}

func (i recordItem) Description() string {
	return DescribeRecord(i.record, i.now)
}

func (i recordItem) FilterValue() string {
	return i.record.Title
}

func NewApp(ctx context.Context, s *session.Session, opts ...Option) *App {
	dashboard := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	dashboard.Title = "Debriefs"
	dashboard.SetShowStatusBar(false)
	dashboard.SetFilteringEnabled(false)
	dashboard.SetShowHelp(false)

	setup := textinput.New()
	setup.Placeholder = "Gemini API key"
	setup.EchoMode = textinput.EchoPassword
	setup.EchoCharacter = '•'
	setup.Width = 60

	a := &App{
		ctx:           ctx,
		session:       s,
		now:           time.Now,
		fs:            afero.NewOsFs(),
		savedAckAfter: tea.Tick,
		dashboard:     dashboard,
		setup:         setup,
		input:         newInputForm(),
		gaps:          newListEditor("Gaps between plan and reality", "describe a gap"),
		rootCauses:    newListEditor("Root causes", "why did it happen?"),
		conclusions:   newListEditor("Operative conclusions", "what changes from now on?"),
		spinner:       spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(titleStyle)),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.refreshDashboard()
	return a
}

func (a *App) Init() tea.Cmd {
	return a.enterState()
}

// enterState loads the widgets for the session's current state and starts
// the suggestion call for the current step if one is needed.
func (a *App) enterState() tea.Cmd {
	switch a.session.State() {
	case session.Dashboard:
		a.refreshDashboard()
		a.setup.Blur()
		return nil
	case session.Setup:
		a.setup.Reset()
		return a.setup.Focus()
	}

	record := a.session.Record()
	a.err = nil
	a.gaps.Blur()
	a.rootCauses.Blur()
	a.conclusions.Blur()
	a.input.Blur()

	switch step := a.session.Step(); step {
	case session.StepInput:
		a.input.Load(record)
		return a.input.refocus()
	case session.StepGaps:
		a.gaps.SetValues(record.Gaps)
		return tea.Batch(a.gaps.Focus(), a.ensureSuggestions(step))
	default:
		a.rootCauses.SetValues(record.RootCauses)
		a.conclusions.SetValues(record.Conclusions)
		a.conclFocus = focusRootCauses
		return tea.Batch(a.rootCauses.Focus(), a.ensureSuggestions(step))
	}
}

func (a *App) ensureSuggestions(step session.Step) tea.Cmd {
	ctx := a.ctx
	s := a.session
	run := func() tea.Msg {
		return suggestionMsg{step: step, err: s.EnsureSuggestions(ctx)}
	}
	return tea.Batch(run, a.spinner.Tick)
}

func (a *App) refreshSuggestions(step session.Step) tea.Cmd {
	ctx := a.ctx
	s := a.session
	run := func() tea.Msg {
		return suggestionMsg{step: step, err: s.RefreshSuggestions(ctx)}
	}
	a.err = nil
	return tea.Batch(run, a.spinner.Tick)
}

func (a *App) refreshDashboard() {
	now := a.now()
	records := a.session.Records()
	items := make([]list.Item, len(records))
	for i, r := range records {
		items[i] = recordItem{record: r, now: now}
	}
	a.dashboard.SetItems(items)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case spinner.TickMsg:
		if !a.loading() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case suggestionMsg:
		return a, a.handleSuggestion(msg)

	case savedAckExpiredMsg:
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}

		switch a.session.State() {
		case session.Dashboard:
			return a, a.updateDashboard(msg)
		case session.Setup:
			return a, a.updateSetup(msg)
		default:
			return a, a.updateEditor(msg)
		}
	}
	return a, nil
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height

	inner := max(20, width-8)
	a.dashboard.SetSize(max(0, width-4), max(0, height-8))
	a.setup.Width = inner
	a.input.SetWidth(inner)
	a.gaps.SetWidth(inner)
	a.rootCauses.SetWidth(inner)
	a.conclusions.SetWidth(inner)
}

func (a *App) loading() bool {
	if a.session.State() != session.Editor {
		return false
	}
	return a.session.Loading(a.session.Step())
}

func (a *App) handleSuggestion(msg suggestionMsg) tea.Cmd {
	switch {
	case errors.Is(msg.err, session.ErrStale):
		return nil
	case a.session.State() == session.Setup:
		a.status = "A Gemini API key is required for suggestions."
		return a.enterState()
	case a.session.State() != session.Editor || a.session.Step() != msg.step:
		return nil
	}

	if msg.err != nil {
		slog.Warn("suggestion failed", "step", msg.step.String(), "error", msg.err)
		a.err = msg.err
		return nil
	}

	a.err = nil
	record := a.session.Record()
	switch msg.step {
	case session.StepGaps:
		a.gaps.SetValues(record.Gaps)
	case session.StepConclusions:
		a.rootCauses.SetValues(record.RootCauses)
		a.conclusions.SetValues(record.Conclusions)
	}
	return nil
}

func (a *App) updateDashboard(msg tea.KeyMsg) tea.Cmd {
	if a.pendingDelete != "" {
		id := a.pendingDelete
		a.pendingDelete = ""
		answer := strings.ToLower(msg.String())
		deleted, err := a.session.Delete(id, func() bool { return answer == "y" })
		switch {
		case err != nil:
			a.status = fmt.Sprintf("%s %v", ErrorSymbol, err)
		case deleted:
			a.status = "Debrief deleted."
		default:
			a.status = ""
		}
		a.refreshDashboard()
		return nil
	}

	selected, hasSelection := a.dashboard.SelectedItem().(recordItem)
	switch msg.String() {
	case "q", "esc":
		return tea.Quit
	case "n":
		if err := a.session.StartNew(); err != nil {
			a.status = err.Error()
			return nil
		}
		a.status = ""
		return a.enterState()
	case "enter":
		if !hasSelection {
			return nil
		}
		if err := a.session.SelectExisting(selected.record.ID); err != nil {
			a.status = err.Error()
			return nil
		}
		a.status = ""
		return a.enterState()
	case "d":
		if hasSelection {
			a.pendingDelete = selected.record.ID
			a.status = fmt.Sprintf("Delete %q? (y/n)", share.Title(selected.record))
		}
		return nil
	case "s":
		if !hasSelection || a.shareChannel == nil {
			return nil
		}
		channel, record := a.shareChannel, selected.record
		if err := share.Send(a.ctx, channel, record); err != nil {
			a.status = fmt.Sprintf("%s %v", ErrorSymbol, err)
		} else {
			a.status = fmt.Sprintf("%s Shared via %s", SuccessSymbol, channel.Name())
		}
		return nil
	}

	var cmd tea.Cmd
	a.dashboard, cmd = a.dashboard.Update(msg)
	return cmd
}

func (a *App) updateSetup(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		return tea.Quit
	case tea.KeyEnter:
		key := strings.TrimSpace(a.setup.Value())
		if key == "" {
			a.status = "Paste your Gemini API key to continue."
			return nil
		}
		if a.storeCredential != nil {
			if err := a.storeCredential(key); err != nil {
				a.status = fmt.Sprintf("%s failed to store key: %v", ErrorSymbol, err)
				return nil
			}
		}
		if err := a.session.CredentialProvided(key); err != nil {
			a.status = err.Error()
			return nil
		}
		a.status = fmt.Sprintf("%s Connected", SuccessSymbol)
		if open := a.afterSetup; open != nil {
			a.afterSetup = nil
			if err := open(a.session); err != nil {
				a.status = fmt.Sprintf("%s %v", ErrorSymbol, err)
			}
		}
		return a.enterState()
	}

	var cmd tea.Cmd
	a.setup, cmd = a.setup.Update(msg)
	return cmd
}

func (a *App) updateEditor(msg tea.KeyMsg) tea.Cmd {
	step := a.session.Step()

	switch msg.String() {
	case "esc":
		if err := a.session.Back(); err != nil {
			a.status = err.Error()
			return nil
		}
		a.status = ""
		return a.enterState()
	case "ctrl+n":
		return a.advance(step)
	case "ctrl+s":
		if err := a.session.SaveDraft(); err != nil {
			a.status = fmt.Sprintf("%s %v", ErrorSymbol, err)
			return nil
		}
		return a.savedAckAfter(session.SavedAckDuration, func(time.Time) tea.Msg { return savedAckExpiredMsg{} })
	case "ctrl+r":
		if step != session.StepInput {
			return a.refreshSuggestions(step)
		}
		return nil
	}

	switch step {
	case session.StepInput:
		return a.updateInput(msg)
	case session.StepGaps:
		changed, cmd := a.gaps.Update(msg)
		if changed {
			a.session.SetGaps(a.gaps.Values())
		}
		return cmd
	default:
		return a.updateConclusions(msg)
	}
}

func (a *App) advance(step session.Step) tea.Cmd {
	var err error
	if step == session.StepConclusions {
		err = a.session.Finish()
	} else {
		err = a.session.Next()
	}

	switch {
	case errors.Is(err, session.ErrIncomplete):
		a.status = incompleteHint(step)
		return nil
	case err != nil:
		a.status = fmt.Sprintf("%s %v", ErrorSymbol, err)
		return nil
	}

	a.status = ""
	if step == session.StepConclusions {
		a.status = fmt.Sprintf("%s Debrief saved", SuccessSymbol)
	}
	return a.enterState()
}

func incompleteHint(step session.Step) string {
	if step == session.StepInput {
		return "Fill in the title, the plan and what happened first."
	}
	return "Add at least one gap to continue."
}

func (a *App) updateInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab":
		return a.input.Move(1)
	case "shift+tab":
		return a.input.Move(-1)
	case "ctrl+t":
		if a.input.structured {
			a.session.UseNarrative()
		} else {
			a.session.UseStructured()
		}
		a.input.Load(a.session.Record())
		a.input.focus = min(a.input.focus, 2)
		return a.input.refocus()
	case "enter":
		if a.input.OnAttach() {
			a.attach(a.input.attach.Value())
			return nil
		}
	}

	cmd := a.input.Update(msg)
	a.syncInput()
	return cmd
}

// syncInput writes the focused widget's value to the session when it
// differs from the record.
func (a *App) syncInput() {
	record := a.session.Record()
	current := a.input.current()
	switch {
	case current == fieldTitle:
		if v := a.input.title.Value(); v != record.Title {
			a.session.SetTitle(v)
		}
	case current == fieldPlan:
		if v := a.input.plan.Value(); v != record.WhatWasPlanned {
			a.session.SetPlan(v)
		}
	case current == fieldNarrative:
		if v := a.input.narrative.Value(); v != record.WhatHappened.Text {
			a.session.SetNarrative(v)
		}
	case current >= fieldFacet:
		facet := debrief.Facets[current-fieldFacet]
		if v := a.input.facets[current-fieldFacet].Value(); v != record.WhatHappened.Facet(facet) {
			a.session.SetFacet(facet, v)
		}
	}
}

func (a *App) attach(path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}

	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		a.status = fmt.Sprintf("%s %v", ErrorSymbol, err)
		return
	}
	if err := a.session.AttachImage(data); err != nil {
		a.status = fmt.Sprintf("%s %v", ErrorSymbol, err)
		return
	}

	a.input.attach.Reset()
	a.input.images = len(a.session.Record().Images)
	a.status = fmt.Sprintf("%s Image attached", SuccessSymbol)
}

func (a *App) updateConclusions(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "tab" || msg.String() == "shift+tab" {
		if a.conclFocus == focusRootCauses {
			a.conclFocus = focusConclusions
			a.rootCauses.Blur()
			return a.conclusions.Focus()
		}
		a.conclFocus = focusRootCauses
		a.conclusions.Blur()
		return a.rootCauses.Focus()
	}

	if a.conclFocus == focusRootCauses {
		changed, cmd := a.rootCauses.Update(msg)
		if changed {
			a.session.SetRootCauses(a.rootCauses.Values())
		}
		return cmd
	}

	changed, cmd := a.conclusions.Update(msg)
	if changed {
		a.session.SetConclusions(a.conclusions.Values())
	}
	return cmd
}

// ErrorHint is the inline text shown when a suggestion call failed.
func ErrorHint(err error) string {
	switch {
	case errors.Is(err, gateway.ErrMissingCredential):
		return "A Gemini API key is required. Run `debrief connect`."
	case errors.Is(err, gateway.ErrMalformedResponse):
		return "The assistant returned an unusable answer. Press ctrl+r to retry or enter items manually."
	default:
		return "The assistant is unavailable right now. Press ctrl+r to retry or enter items manually."
	}
}
