package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/furisto/debrief/backend/debrief"
	"github.com/furisto/debrief/backend/gateway"
)

type State int

const (
	Dashboard State = iota
	Setup
	Editor
)

func (s State) String() string {
	switch s {
	case Dashboard:
		return "dashboard"
	case Setup:
		return "setup"
	case Editor:
		return "editor"
	}
	return "unknown"
}

type Step int

const (
	StepInput Step = iota
	StepGaps
	StepConclusions
)

const stepCount = 3

func (s Step) String() string {
	switch s {
	case StepInput:
		return "input"
	case StepGaps:
		return "gaps"
	case StepConclusions:
		return "conclusions"
	}
	return "unknown"
}

// SavedAckDuration is how long a draft save stays acknowledged.
const SavedAckDuration = 2 * time.Second

var (
	// ErrIncomplete blocks forward navigation while required input is missing.
	ErrIncomplete = errors.New("required fields are missing")
	// ErrStale reports a suggestion that finished after the user moved on.
	// The result has been discarded.
	ErrStale = errors.New("suggestion discarded after navigation")
	// ErrInvalidTransition is returned for operations the current state does
	// not offer.
	ErrInvalidTransition = errors.New("operation not available in the current state")
)

// Archive is the record store backing the dashboard.
type Archive interface {
	Load() []debrief.Record
	Get(id string) (debrief.Record, bool)
	Upsert(record debrief.Record) ([]debrief.Record, error)
	Remove(id string) ([]debrief.Record, error)
}

// Gateway produces the AI suggestions for the gap and conclusion steps.
type Gateway interface {
	SuggestGaps(ctx context.Context, planned string, actual debrief.ActualOutcome) ([]string, error)
	DeriveConclusions(ctx context.Context, gaps []string) (gateway.Conclusions, error)
}

// GatewayFactory builds a gateway once a credential has been provided.
type GatewayFactory func(credential string) Gateway

// Tracker receives product events. Implementations must not block.
type Tracker interface {
	Track(event string, properties map[string]any)
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

func WithGatewayFactory(factory GatewayFactory) Option {
	return func(s *Session) {
		s.gatewayFactory = factory
	}
}

func WithTracker(tracker Tracker) Option {
	return func(s *Session) {
		s.tracker = tracker
	}
}

// Session drives the three step debrief wizard over one in-progress record.
// All methods are safe for concurrent use; suggestion calls run outside the
// lock and are applied only if the session has not moved on meanwhile.
type Session struct {
	mu sync.Mutex

	archive        Archive
	gateway        Gateway
	gatewayFactory GatewayFactory
	tracker        Tracker
	now            func() time.Time
	group          singleflight.Group

	state  State
	step   Step
	record debrief.Record

	// generation changes whenever the edited record changes identity.
	generation uint64
	// visit changes whenever the editor enters a step.
	visit      [stepCount]uint64
	revision   [stepCount]uint64
	loading    [stepCount]bool
	attempted  [stepCount]bool
	lastErr    [stepCount]error
	savedAt    time.Time
}

func New(archive Archive, gw Gateway, opts ...Option) *Session {
	s := &Session{
		archive: archive,
		gateway: gw,
		now:     time.Now,
		state:   Dashboard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Record returns a copy of the record being edited.
func (s *Session) Record() debrief.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Clone()
}

// Records lists the archive for the dashboard.
func (s *Session) Records() []debrief.Record {
	return s.archive.Load()
}

// StartNew opens the editor on a fresh record.
func (s *Session) StartNew() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Dashboard {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.state)
	}
	s.enterEditor(debrief.New(s.now()))
	s.track("debrief_started", nil)
	return nil
}

// SelectExisting opens the editor on an archived record at the first step.
func (s *Session) SelectExisting(id string) error {
	record, ok := s.archive.Get(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Dashboard {
		return fmt.Errorf("%w: select from %s", ErrInvalidTransition, s.state)
	}
	if !ok {
		return fmt.Errorf("debrief %q not found", id)
	}
	s.enterEditor(record)
	s.track("debrief_opened", nil)
	return nil
}

func (s *Session) enterEditor(record debrief.Record) {
	if record.Gaps == nil {
		record.Gaps = []string{}
	}
	if record.RootCauses == nil {
		record.RootCauses = []string{}
	}
	if record.Conclusions == nil {
		record.Conclusions = []string{}
	}
	if record.Images == nil {
		record.Images = []string{}
	}

	s.state = Editor
	s.step = StepInput
	s.record = record
	s.resetEditor()
}

func (s *Session) leaveEditor(to State) {
	s.state = to
	s.step = StepInput
	s.record = debrief.Record{}
	s.resetEditor()
}

func (s *Session) resetEditor() {
	s.generation++
	s.visit = [stepCount]uint64{}
	s.revision = [stepCount]uint64{}
	s.loading = [stepCount]bool{}
	s.attempted = [stepCount]bool{}
	s.lastErr = [stepCount]error{}
	s.savedAt = time.Time{}
}

// CanAdvance reports whether Next would currently succeed.
func (s *Session) CanAdvance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canAdvance() == nil
}

func (s *Session) canAdvance() error {
	if s.state != Editor {
		return fmt.Errorf("%w: next from %s", ErrInvalidTransition, s.state)
	}

	switch s.step {
	case StepInput:
		if !s.record.Complete() {
			return fmt.Errorf("%w: title, plan and outcome are required", ErrIncomplete)
		}
	case StepGaps:
		// a failed suggestion must never trap the user on this step
		if !debrief.HasContent(s.record.Gaps) && s.lastErr[StepGaps] == nil {
			return fmt.Errorf("%w: add at least one gap", ErrIncomplete)
		}
	default:
		return fmt.Errorf("%w: the last step is left with Finish", ErrInvalidTransition)
	}
	return nil
}

// Next advances to the following step.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.canAdvance(); err != nil {
		return err
	}

	s.cleanRecord()
	s.setStep(s.step + 1)
	return nil
}

// Back returns to the previous step. Leaving the first step returns to the
// dashboard and drops unsaved changes.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state != Editor:
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, s.state)
	case s.step == StepInput:
		s.leaveEditor(Dashboard)
	default:
		s.setStep(s.step - 1)
	}
	return nil
}

func (s *Session) setStep(step Step) {
	s.loading[s.step] = false
	s.step = step
	s.visit[step]++
	s.loading[step] = false
	s.attempted[step] = false
}

// Finish archives the record and returns to the dashboard.
func (s *Session) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Editor || s.step != StepConclusions {
		return fmt.Errorf("%w: finish from %s/%s", ErrInvalidTransition, s.state, s.step)
	}

	s.cleanRecord()
	if _, err := s.archive.Upsert(s.record); err != nil {
		return fmt.Errorf("failed to archive debrief: %w", err)
	}

	s.track("debrief_finished", map[string]any{
		"gaps":        len(s.record.Gaps),
		"root_causes": len(s.record.RootCauses),
		"conclusions": len(s.record.Conclusions),
		"images":      len(s.record.Images),
		"structured":  s.record.WhatHappened.IsStructured(),
	})
	s.leaveEditor(Dashboard)
	return nil
}

// SaveDraft persists the record without leaving the editor.
func (s *Session) SaveDraft() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Editor {
		return fmt.Errorf("%w: save from %s", ErrInvalidTransition, s.state)
	}

	if _, err := s.archive.Upsert(s.record.Normalized()); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	s.savedAt = s.now()
	s.track("debrief_draft_saved", map[string]any{"step": s.step.String()})
	return nil
}

// SavedAck reports whether a draft was saved within the last two seconds.
func (s *Session) SavedAck(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.savedAt.IsZero() && now.Sub(s.savedAt) < SavedAckDuration
}

// Delete removes an archived record once confirm approves. It reports
// whether the record was deleted.
func (s *Session) Delete(id string, confirm func() bool) (bool, error) {
	if confirm == nil || !confirm() {
		return false, nil
	}

	if _, err := s.archive.Remove(id); err != nil {
		return false, fmt.Errorf("failed to delete debrief: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Editor && s.record.ID == id {
		s.leaveEditor(Dashboard)
	}
	s.track("debrief_deleted", nil)
	return true, nil
}

// CredentialMissing sends the session to the setup screen. Unsaved editor
// state is dropped.
func (s *Session) CredentialMissing() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Setup {
		return
	}
	slog.Info("credential missing, entering setup", "from", s.state.String())
	s.leaveEditor(Setup)
}

// CredentialProvided leaves the setup screen with a gateway for key.
func (s *Session) CredentialProvided(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: credential is empty", ErrIncomplete)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Setup {
		return fmt.Errorf("%w: credential outside setup", ErrInvalidTransition)
	}
	if s.gatewayFactory != nil {
		s.gateway = s.gatewayFactory(key)
	}
	s.leaveEditor(Dashboard)
	s.track("credential_connected", nil)
	return nil
}

func (s *Session) cleanRecord() {
	s.record.Gaps = debrief.CleanList(s.record.Gaps)
	s.record.RootCauses = debrief.CleanList(s.record.RootCauses)
	s.record.Conclusions = debrief.CleanList(s.record.Conclusions)
}

func (s *Session) track(event string, properties map[string]any) {
	if s.tracker != nil {
		s.tracker.Track(event, properties)
	}
}
