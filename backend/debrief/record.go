package debrief

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is a single after-action review: what was planned, what actually
// happened, the gaps between the two and what was learned from them.
type Record struct {
	ID             string        `json:"id"`
	Timestamp      int64         `json:"timestamp"`
	Title          string        `json:"title"`
	WhatWasPlanned string        `json:"whatWasPlanned"`
	WhatHappened   ActualOutcome `json:"whatHappened"`
	Gaps           []string      `json:"gaps"`
	RootCauses     []string      `json:"rootCauses"`
	Conclusions    []string      `json:"conclusions"`
	Images         []string      `json:"images"`
}

// New returns an empty record stamped with a fresh id and the given creation time.
func New(now time.Time) Record {
	return Record{
		ID:           uuid.NewString(),
		Timestamp:    now.UnixMilli(),
		WhatHappened: NewNarrative(""),
		Gaps:         []string{},
		RootCauses:   []string{},
		Conclusions:  []string{},
		Images:       []string{},
	}
}

func (r Record) CreatedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Complete reports whether the input step has everything the gap analysis
// needs: a title, a plan and at least one non-empty account of the outcome.
func (r Record) Complete() bool {
	return strings.TrimSpace(r.Title) != "" &&
		strings.TrimSpace(r.WhatWasPlanned) != "" &&
		!r.WhatHappened.IsEmpty()
}

// Finished reports whether conclusions were drawn for the record.
func (r Record) Finished() bool {
	return len(CleanList(r.Conclusions)) > 0
}

// Normalized returns a deep copy with every list field cleaned of blank entries.
func (r Record) Normalized() Record {
	out := r.Clone()
	out.Gaps = CleanList(out.Gaps)
	out.RootCauses = CleanList(out.RootCauses)
	out.Conclusions = CleanList(out.Conclusions)
	if out.Images == nil {
		out.Images = []string{}
	}
	return out
}

func (r Record) Clone() Record {
	out := r
	out.Gaps = cloneList(r.Gaps)
	out.RootCauses = cloneList(r.RootCauses)
	out.Conclusions = cloneList(r.Conclusions)
	out.Images = cloneList(r.Images)
	return out
}

// CleanList drops blank entries and keeps the others as entered. The result
// is never nil.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// HasContent reports whether at least one entry is non-blank.
func HasContent(items []string) bool {
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			return true
		}
	}
	return false
}

func cloneList(items []string) []string {
	if items == nil {
		return []string{}
	}
	out := make([]string, len(items))
	copy(out, items)
	return out
}
