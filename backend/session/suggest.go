package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/furisto/debrief/backend/debrief"
	"github.com/furisto/debrief/backend/gateway"
)

// ticket identifies the editor situation a suggestion was requested for.
type ticket struct {
	generation uint64
	step       Step
	visit      uint64
	revision   uint64
}

type suggestionInput struct {
	planned string
	actual  debrief.ActualOutcome
	gaps    []string
}

// EnsureSuggestions populates the AI field of the current step when it is
// still empty. It issues at most one gateway call per step visit; calling it
// again while that call runs waits for the same call.
func (s *Session) EnsureSuggestions(ctx context.Context) error {
	return s.suggest(ctx, false)
}

// RefreshSuggestions asks again for the current step regardless of its
// content. A call already running for the step is joined, not duplicated.
func (s *Session) RefreshSuggestions(ctx context.Context) error {
	return s.suggest(ctx, true)
}

// Loading reports whether a suggestion call is running for step.
func (s *Session) Loading(step Step) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if step < 0 || step >= stepCount {
		return false
	}
	return s.loading[step]
}

// LastError returns the failure of the latest suggestion for step, if any.
func (s *Session) LastError(step Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if step < 0 || step >= stepCount {
		return nil
	}
	return s.lastErr[step]
}

func (s *Session) suggest(ctx context.Context, force bool) error {
	s.mu.Lock()
	if s.state != Editor || s.step == StepInput {
		s.mu.Unlock()
		return nil
	}
	generation, step, visit := s.generation, s.step, s.visit[s.step]
	s.mu.Unlock()

	key := fmt.Sprintf("%d/%d/%d", generation, step, visit)
	_, err, _ := s.group.Do(key, func() (any, error) {
		return nil, s.runSuggestion(ctx, generation, step, visit, force)
	})
	return err
}

func (s *Session) runSuggestion(ctx context.Context, generation uint64, step Step, visit uint64, force bool) error {
	s.mu.Lock()
	if s.state != Editor || s.generation != generation || s.step != step || s.visit[step] != visit {
		s.mu.Unlock()
		return nil
	}
	if !force && (s.attempted[step] || !s.needsSuggestion(step)) {
		s.mu.Unlock()
		return nil
	}
	if s.gateway == nil {
		s.mu.Unlock()
		s.CredentialMissing()
		return gateway.ErrMissingCredential
	}

	t := ticket{generation: generation, step: step, visit: visit, revision: s.revision[step]}
	input := suggestionInput{
		planned: s.record.WhatWasPlanned,
		actual:  s.record.WhatHappened,
		gaps:    debrief.CleanList(s.record.Gaps),
	}
	gw := s.gateway
	s.loading[step] = true
	s.attempted[step] = true
	s.mu.Unlock()

	switch step {
	case StepGaps:
		gaps, err := gw.SuggestGaps(ctx, input.planned, input.actual)
		return s.apply(t, err, func(r *debrief.Record) { r.Gaps = gaps })
	case StepConclusions:
		result, err := gw.DeriveConclusions(ctx, input.gaps)
		return s.apply(t, err, func(r *debrief.Record) {
			r.RootCauses = result.RootCauses
			r.Conclusions = result.Conclusions
		})
	}
	return nil
}

func (s *Session) needsSuggestion(step Step) bool {
	switch step {
	case StepGaps:
		return !debrief.HasContent(s.record.Gaps)
	case StepConclusions:
		return !debrief.HasContent(s.record.RootCauses) && !debrief.HasContent(s.record.Conclusions)
	}
	return false
}

// apply stores the outcome of a suggestion call unless the editor moved to
// another record, left the step or the user edited the step meanwhile.
func (s *Session) apply(t ticket, err error, update func(r *debrief.Record)) error {
	if errors.Is(err, gateway.ErrMissingCredential) {
		s.CredentialMissing()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != t.generation {
		slog.Debug("dropping suggestion for a closed record", "step", t.step.String())
		return ErrStale
	}
	if s.step != t.step || s.visit[t.step] != t.visit {
		slog.Debug("dropping suggestion for an earlier visit", "step", t.step.String())
		return ErrStale
	}
	s.loading[t.step] = false

	if s.revision[t.step] != t.revision {
		slog.Debug("dropping stale suggestion", "step", t.step.String())
		return ErrStale
	}

	if err != nil {
		s.lastErr[t.step] = err
		s.track("suggestion_failed", map[string]any{"step": t.step.String()})
		return err
	}

	update(&s.record)
	s.lastErr[t.step] = nil
	s.revision[t.step]++
	s.track("suggestion_applied", map[string]any{"step": t.step.String()})
	return nil
}
