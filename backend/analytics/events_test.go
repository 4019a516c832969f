package analytics

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/posthog/posthog-go"
)

type recordingPosthog struct {
	posthog.Client
	mu       sync.Mutex
	captured []posthog.Capture
}

func (r *recordingPosthog) Enqueue(msg posthog.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := msg.(posthog.Capture); ok {
		r.captured = append(r.captured, c)
	}
	return nil
}

func (r *recordingPosthog) Close() error { return nil }

func TestTrack(t *testing.T) {
	t.Parallel()

	rec := &recordingPosthog{}
	client := NewWithPosthog(rec, "install-1")

	EmitDebriefShared(client, "whatsapp")
	client.Track("debrief_finished", map[string]any{"gaps": 2})

	if len(rec.captured) != 2 {
		t.Fatalf("captured %d events", len(rec.captured))
	}

	got := rec.captured[0]
	if got.DistinctId != "install-1" || got.Event != "debrief_shared" {
		t.Errorf("unexpected capture %+v", got)
	}
	if diff := cmp.Diff(posthog.Properties{"channel": "whatsapp"}, got.Properties); diff != "" {
		t.Errorf("properties mismatch (-want +got):\n%s", diff)
	}
}

func TestDisabledClient(t *testing.T) {
	t.Parallel()

	client, err := New("", "", "")
	if err != nil || client != nil {
		t.Fatalf("New without key = %v, %v", client, err)
	}

	// a nil client swallows everything
	EmitCommandExecuted(client, "list")
	if err := client.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
