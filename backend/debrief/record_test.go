package debrief

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNew(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1700000000000)
	a := New(now)
	b := New(now)

	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
	if a.Timestamp != now.UnixMilli() {
		t.Errorf("timestamp = %d, want %d", a.Timestamp, now.UnixMilli())
	}
	for name, list := range map[string][]string{"gaps": a.Gaps, "rootCauses": a.RootCauses, "conclusions": a.Conclusions, "images": a.Images} {
		if list == nil || len(list) != 0 {
			t.Errorf("%s should be an empty non-nil list, got %#v", name, list)
		}
	}
	if a.Complete() {
		t.Error("fresh record must not be complete")
	}
}

func TestRecordComplete(t *testing.T) {
	t.Parallel()

	base := Record{Title: "Line A outage", WhatWasPlanned: "Ship 500 units by 5pm", WhatHappened: NewNarrative("Only 310 shipped")}

	tests := []struct {
		name   string
		mutate func(r *Record)
		want   bool
	}{
		{name: "all present", mutate: func(r *Record) {}, want: true},
		{name: "blank title", mutate: func(r *Record) { r.Title = "  " }, want: false},
		{name: "blank plan", mutate: func(r *Record) { r.WhatWasPlanned = "" }, want: false},
		{name: "blank narrative", mutate: func(r *Record) { r.WhatHappened = NewNarrative("\n") }, want: false},
		{name: "structured with one facet", mutate: func(r *Record) {
			r.WhatHappened = NewStructured(map[Facet]string{FacetSafety: "near miss at dock 3"})
		}, want: true},
		{name: "structured without facets", mutate: func(r *Record) {
			r.WhatHappened = ActualOutcome{Kind: OutcomeStructured, Text: "ignored"}
		}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base.Clone()
			tt.mutate(&r)
			if got := r.Complete(); got != tt.want {
				t.Errorf("Complete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalized(t *testing.T) {
	t.Parallel()

	r := Record{
		ID:          "abc",
		Gaps:        []string{" late start ", "", "   "},
		RootCauses:  nil,
		Conclusions: []string{"brief earlier"},
	}

	got := r.Normalized()
	want := Record{
		ID:          "abc",
		Gaps:        []string{" late start "},
		RootCauses:  []string{},
		Conclusions: []string{"brief earlier"},
		Images:      []string{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalized() mismatch (-want +got):\n%s", diff)
	}

	got.Conclusions[0] = "changed"
	if r.Conclusions[0] != "brief earlier" {
		t.Error("Normalized() must not share list storage with the source")
	}
}

func TestCleanList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		items []string
		want  []string
	}{
		{name: "nil", items: nil, want: []string{}},
		{name: "only blanks", items: []string{"", " ", "\t\n"}, want: []string{}},
		{name: "text kept as entered", items: []string{" gap ", "", "second\tgap"}, want: []string{" gap ", "second\tgap"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := CleanList(tt.items)
			if got == nil {
				t.Fatal("CleanList() returned nil")
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CleanList() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	t.Parallel()

	records := []Record{
		{
			ID:             "n1",
			Timestamp:      1700000000000,
			Title:          "Line A outage",
			WhatWasPlanned: "Ship 500 units by 5pm",
			WhatHappened:   NewNarrative("Only 310 shipped, two line stoppages"),
			Gaps:           []string{"Stoppage root cause not detected until 40 min in"},
			RootCauses:     []string{},
			Conclusions:    []string{},
			Images:         []string{"data:image/png;base64,AAAA"},
		},
		{
			ID:             "s1",
			Timestamp:      1700000000001,
			Title:          "Night shift drill",
			WhatWasPlanned: "Evacuate in 4 minutes",
			WhatHappened: NewStructured(map[Facet]string{
				FacetProcess: "alarm heard late",
				FacetResult:  "6 minutes",
				FacetSafety:  "no injuries",
			}),
			Gaps:        []string{"two minutes over"},
			RootCauses:  []string{"alarm volume"},
			Conclusions: []string{"add strobe lights"},
			Images:      []string{},
		},
	}

	data, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded []Record
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(records, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(string(data), `"kind":"structured"`) {
		t.Errorf("expected persisted discriminant, got %s", data)
	}
}

func TestActualOutcomeLegacyShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    ActualOutcome
		wantErr bool
	}{
		{name: "bare string", input: `"two line stoppages"`, want: NewNarrative("two line stoppages")},
		{name: "null", input: `null`, want: NewNarrative("")},
		{name: "untagged facets", input: `{"process":"slow","safety":"ok"}`, want: ActualOutcome{Kind: OutcomeStructured, Process: "slow", Safety: "ok"}},
		{name: "untagged text", input: `{"text":"fine"}`, want: NewNarrative("fine")},
		{name: "tagged narrative drops facets", input: `{"kind":"narrative","text":"a","process":"b"}`, want: NewNarrative("a")},
		{name: "unknown kind", input: `{"kind":"poem"}`, wantErr: true},
		{name: "number", input: `42`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ActualOutcome
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %#v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFlatten(t *testing.T) {
	t.Parallel()

	structured := NewStructured(map[Facet]string{
		FacetResult:     "310 units",
		FacetProcess:    "two stoppages",
		FacetAtmosphere: "  ",
	})
	want := "Process: two stoppages\nResult: 310 units"
	if got := structured.Flatten(); got != want {
		t.Errorf("Flatten() = %q, want %q", got, want)
	}

	if got := NewNarrative("  plain  ").Flatten(); got != "plain" {
		t.Errorf("Flatten() = %q, want %q", got, "plain")
	}
}

func TestEncodeImage(t *testing.T) {
	t.Parallel()

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	uri, err := EncodeImage(png)
	if err != nil {
		t.Fatalf("EncodeImage: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("unexpected uri prefix: %s", uri[:30])
	}
	if got := ImageMediaType(uri); got != "image/png" {
		t.Errorf("ImageMediaType() = %q", got)
	}

	_, err = EncodeImage([]byte("just some text"))
	if !errors.Is(err, ErrNotAnImage) {
		t.Errorf("expected ErrNotAnImage, got %v", err)
	}

	if _, err := EncodeImage(nil); err == nil {
		t.Error("expected error for empty attachment")
	}
}
