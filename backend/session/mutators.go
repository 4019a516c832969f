package session

import (
	"fmt"
	"strings"

	"github.com/furisto/debrief/backend/debrief"
)

// edit applies fn to the working record when the editor is open and marks
// the fields owned by step as changed.
func (s *Session) edit(step Step, fn func(r *debrief.Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Editor {
		return
	}
	fn(&s.record)
	s.revision[step]++
}

func (s *Session) SetTitle(title string) {
	s.edit(StepInput, func(r *debrief.Record) { r.Title = title })
}

func (s *Session) SetPlan(plan string) {
	s.edit(StepInput, func(r *debrief.Record) { r.WhatWasPlanned = plan })
}

// SetNarrative records the outcome as free text, replacing a structured one.
func (s *Session) SetNarrative(text string) {
	s.edit(StepInput, func(r *debrief.Record) { r.WhatHappened = debrief.NewNarrative(text) })
}

// SetFacet sets one facet of a structured outcome, switching the outcome to
// the structured form first if needed.
func (s *Session) SetFacet(facet debrief.Facet, value string) {
	s.edit(StepInput, func(r *debrief.Record) {
		if !r.WhatHappened.IsStructured() {
			r.WhatHappened = toStructured(r.WhatHappened)
		}
		r.WhatHappened = r.WhatHappened.WithFacet(facet, value)
	})
}

// UseStructured switches the outcome to the six facet form. Existing
// narrative text is kept under the Other facet.
func (s *Session) UseStructured() {
	s.edit(StepInput, func(r *debrief.Record) {
		if !r.WhatHappened.IsStructured() {
			r.WhatHappened = toStructured(r.WhatHappened)
		}
	})
}

// UseNarrative switches the outcome to free text built from the facets.
func (s *Session) UseNarrative() {
	s.edit(StepInput, func(r *debrief.Record) {
		if r.WhatHappened.IsStructured() {
			r.WhatHappened = debrief.NewNarrative(r.WhatHappened.Flatten())
		}
	})
}

func toStructured(outcome debrief.ActualOutcome) debrief.ActualOutcome {
	facets := map[debrief.Facet]string{}
	if text := strings.TrimSpace(outcome.Text); text != "" {
		facets[debrief.FacetOther] = text
	}
	return debrief.NewStructured(facets)
}

func (s *Session) SetGaps(gaps []string) {
	s.edit(StepGaps, func(r *debrief.Record) { r.Gaps = append([]string{}, gaps...) })
}

func (s *Session) AddGap(gap string) {
	s.edit(StepGaps, func(r *debrief.Record) { r.Gaps = append(r.Gaps, gap) })
}

func (s *Session) SetRootCauses(causes []string) {
	s.edit(StepConclusions, func(r *debrief.Record) { r.RootCauses = append([]string{}, causes...) })
}

func (s *Session) SetConclusions(conclusions []string) {
	s.edit(StepConclusions, func(r *debrief.Record) { r.Conclusions = append([]string{}, conclusions...) })
}

// AttachImage embeds data as an image attachment.
func (s *Session) AttachImage(data []byte) error {
	uri, err := debrief.EncodeImage(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Editor {
		return fmt.Errorf("%w: attach from %s", ErrInvalidTransition, s.state)
	}
	s.record.Images = append(s.record.Images, uri)
	s.revision[StepInput]++
	return nil
}

func (s *Session) RemoveImage(index int) {
	s.edit(StepInput, func(r *debrief.Record) {
		if index < 0 || index >= len(r.Images) {
			return
		}
		r.Images = append(r.Images[:index:index], r.Images[index+1:]...)
	})
}
