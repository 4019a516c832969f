package fail

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/furisto/debrief/backend/archive"
	"github.com/furisto/debrief/backend/gateway"
)

func TestEnhanceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		context map[string]any
		message string
	}{
		{
			name:    "missing credential",
			err:     fmt.Errorf("suggest gaps: %w", gateway.ErrMissingCredential),
			message: "No Gemini API key is configured",
		},
		{
			name:    "service unavailable",
			err:     gateway.ErrServiceUnavailable,
			message: "The AI assistant is unavailable right now",
		},
		{
			name:    "malformed response",
			err:     gateway.ErrMalformedResponse,
			message: "could not be read",
		},
		{
			name:    "not found",
			err:     &archive.ErrNotFound{ID: "abcd"},
			context: map[string]any{"id": "abcd"},
			message: `No debrief matches "abcd"`,
		},
		{
			name:    "permission",
			err:     &os.PathError{Op: "open", Path: "/x", Err: os.ErrPermission},
			context: map[string]any{"path": "/x"},
			message: "Permission denied accessing /x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnhanceError(tt.err, tt.context)

			var userErr *UserError
			if !errors.As(got, &userErr) {
				t.Fatalf("expected UserError, got %T", got)
			}
			if !strings.Contains(userErr.Error(), tt.message) {
				t.Errorf("message %q not in:\n%s", tt.message, userErr.Error())
			}
			if !errors.Is(got, tt.err) {
				t.Error("UserError must unwrap to the cause")
			}
		})
	}
}

func TestEnhanceErrorPassesThrough(t *testing.T) {
	t.Parallel()

	plain := errors.New("boom")
	if got := EnhanceError(plain, nil); got != plain {
		t.Errorf("unknown errors must pass through, got %v", got)
	}
	if EnhanceError(nil, nil) != nil {
		t.Error("nil stays nil")
	}

	userErr := NewNotFoundError("x", nil)
	if got := EnhanceError(userErr, nil); got != userErr {
		t.Error("UserError must pass through unchanged")
	}
}
