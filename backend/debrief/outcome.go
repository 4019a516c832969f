package debrief

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type OutcomeKind string

const (
	OutcomeNarrative  OutcomeKind = "narrative"
	OutcomeStructured OutcomeKind = "structured"
)

type Facet string

const (
	FacetProcess    Facet = "process"
	FacetResult     Facet = "result"
	FacetAtmosphere Facet = "atmosphere"
	FacetResources  Facet = "resources"
	FacetSafety     Facet = "safety"
	FacetOther      Facet = "other"
)

// Facets lists the structured facets in display order.
var Facets = []Facet{FacetProcess, FacetResult, FacetAtmosphere, FacetResources, FacetSafety, FacetOther}

func (f Facet) Label() string {
	switch f {
	case FacetProcess:
		return "Process"
	case FacetResult:
		return "Result"
	case FacetAtmosphere:
		return "Atmosphere & morale"
	case FacetResources:
		return "Resources"
	case FacetSafety:
		return "Safety"
	case FacetOther:
		return "Other"
	}
	return string(f)
}

// ActualOutcome describes what actually happened, either as one narrative or
// broken down into the six facets. Only the fields of the active kind are used.
type ActualOutcome struct {
	Kind OutcomeKind `json:"kind"`

	Text string `json:"text,omitempty"`

	Process    string `json:"process,omitempty"`
	Result     string `json:"result,omitempty"`
	Atmosphere string `json:"atmosphere,omitempty"`
	Resources  string `json:"resources,omitempty"`
	Safety     string `json:"safety,omitempty"`
	Other      string `json:"other,omitempty"`
}

func NewNarrative(text string) ActualOutcome {
	return ActualOutcome{Kind: OutcomeNarrative, Text: text}
}

func NewStructured(facets map[Facet]string) ActualOutcome {
	out := ActualOutcome{Kind: OutcomeStructured}
	for facet, value := range facets {
		out = out.WithFacet(facet, value)
	}
	return out
}

func (o ActualOutcome) IsStructured() bool {
	return o.Kind == OutcomeStructured
}

func (o ActualOutcome) Facet(f Facet) string {
	switch f {
	case FacetProcess:
		return o.Process
	case FacetResult:
		return o.Result
	case FacetAtmosphere:
		return o.Atmosphere
	case FacetResources:
		return o.Resources
	case FacetSafety:
		return o.Safety
	case FacetOther:
		return o.Other
	}
	return ""
}

// WithFacet returns a structured copy with the facet set.
func (o ActualOutcome) WithFacet(f Facet, value string) ActualOutcome {
	o.Kind = OutcomeStructured
	switch f {
	case FacetProcess:
		o.Process = value
	case FacetResult:
		o.Result = value
	case FacetAtmosphere:
		o.Atmosphere = value
	case FacetResources:
		o.Resources = value
	case FacetSafety:
		o.Safety = value
	case FacetOther:
		o.Other = value
	}
	return o
}

// IsEmpty reports whether the active representation carries no text at all.
func (o ActualOutcome) IsEmpty() bool {
	if o.IsStructured() {
		for _, f := range Facets {
			if strings.TrimSpace(o.Facet(f)) != "" {
				return false
			}
		}
		return true
	}
	return strings.TrimSpace(o.Text) == ""
}

// Flatten renders the outcome as labeled text. Empty facets are skipped.
func (o ActualOutcome) Flatten() string {
	if !o.IsStructured() {
		return strings.TrimSpace(o.Text)
	}

	var lines []string
	for _, f := range Facets {
		value := strings.TrimSpace(o.Facet(f))
		if value == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", f.Label(), value))
	}
	return strings.Join(lines, "\n")
}

func (o ActualOutcome) MarshalJSON() ([]byte, error) {
	type plain ActualOutcome
	if o.Kind == "" {
		o.Kind = OutcomeNarrative
	}
	if o.IsStructured() {
		o.Text = ""
	} else {
		o = ActualOutcome{Kind: OutcomeNarrative, Text: o.Text}
	}
	return json.Marshal(plain(o))
}

// UnmarshalJSON accepts the tagged form as well as the untagged shapes older
// archives contain: a bare string, or an object of facets without a kind.
func (o *ActualOutcome) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = NewNarrative("")
		return nil
	}

	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*o = NewNarrative(text)
		return nil
	}

	type plain ActualOutcome
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	out := ActualOutcome(decoded)

	switch out.Kind {
	case OutcomeNarrative:
		*o = NewNarrative(out.Text)
	case OutcomeStructured:
		out.Text = ""
		*o = out
	case "":
		if out.hasFacets() {
			out.Kind = OutcomeStructured
			out.Text = ""
			*o = out
		} else {
			*o = NewNarrative(out.Text)
		}
	default:
		return fmt.Errorf("unknown outcome kind %q", out.Kind)
	}
	return nil
}

func (o ActualOutcome) hasFacets() bool {
	for _, f := range Facets {
		if o.Facet(f) != "" {
			return true
		}
	}
	return false
}
