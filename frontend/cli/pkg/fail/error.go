package fail

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/furisto/debrief/backend/archive"
	"github.com/furisto/debrief/backend/gateway"
	"github.com/furisto/debrief/frontend/cli/pkg/terminal"
)

const (
	apiKeyURL          = "https://aistudio.google.com/apikey"
	troubleshootingURL = "https://ai.google.dev/gemini-api/docs/troubleshooting"
)

type UserError struct {
	Cause       error
	UserMessage string
	Solutions   []string
	TechDetails string
	HelpURLs    []string
}

func (e *UserError) Error() string {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("%s %s\n\n", terminal.ErrorSymbol, terminal.Bold(e.UserMessage)))

	if len(e.Solutions) > 0 {
		msg.WriteString(fmt.Sprintf("%s Try these solutions:\n", terminal.InfoSymbol))
		for i, solution := range e.Solutions {
			msg.WriteString(fmt.Sprintf("  %d. %s\n", i+1, solution))
		}
		msg.WriteString("\n")
	}

	if e.TechDetails != "" {
		msg.WriteString(fmt.Sprintf("Technical details: %s\n", e.TechDetails))
	}

	if len(e.HelpURLs) > 0 {
		msg.WriteString("If the problem persists:\n")
		for _, url := range e.HelpURLs {
			msg.WriteString(fmt.Sprintf("%s %s\n", terminal.LinkSymbol, url))
		}
	}

	return msg.String()
}

func (e *UserError) Unwrap() error {
	return e.Cause
}

func NewMissingCredentialError(err error) *UserError {
	return &UserError{
		Cause:       err,
		UserMessage: "No Gemini API key is configured",
		Solutions: []string{
			"Store a key: debrief connect",
			"Or export GEMINI_API_KEY for this shell",
		},
		TechDetails: errorDetails(err),
		HelpURLs:    []string{apiKeyURL},
	}
}

func NewServiceUnavailableError(err error) *UserError {
	return &UserError{
		Cause:       err,
		UserMessage: "The AI assistant is unavailable right now",
		Solutions: []string{
			"Wait a moment and run the command again",
			"Check your network connection",
			"Verify the key still works: debrief connect",
		},
		TechDetails: errorDetails(err),
		HelpURLs:    []string{troubleshootingURL},
	}
}

func NewMalformedResponseError(err error) *UserError {
	return &UserError{
		Cause:       err,
		UserMessage: "The AI assistant returned an answer that could not be read",
		Solutions: []string{
			"Run the command again",
			"Try the other model: debrief config set models.deep gemini-2.5-pro",
		},
		TechDetails: errorDetails(err),
	}
}

func NewNotFoundError(id string, err error) *UserError {
	return &UserError{
		Cause:       err,
		UserMessage: fmt.Sprintf("No debrief matches %q", id),
		Solutions: []string{
			"List the archive to find the id: debrief list",
			"Use at least the first four characters of the id",
		},
		TechDetails: errorDetails(err),
	}
}

func NewPermissionError(path string, err error) *UserError {
	return &UserError{
		Cause:       err,
		UserMessage: fmt.Sprintf("Permission denied accessing %s", path),
		Solutions: []string{
			"Check file permissions and ownership",
			"Ensure you have write access to the directory",
			"Verify the path exists and is accessible",
		},
		TechDetails: fmt.Sprintf("Failed to access %s: %v", path, err),
	}
}

// EnhanceError turns known failures into a UserError. context may carry
// "path" and "id" to name what the command was working on.
func EnhanceError(err error, context map[string]any) error {
	if err == nil {
		return nil
	}

	var userErr *UserError
	if errors.As(err, &userErr) {
		return err
	}

	switch {
	case errors.Is(err, gateway.ErrMissingCredential):
		return NewMissingCredentialError(err)
	case errors.Is(err, gateway.ErrMalformedResponse):
		return NewMalformedResponseError(err)
	case errors.Is(err, gateway.ErrServiceUnavailable):
		return NewServiceUnavailableError(err)
	case errors.Is(err, &archive.ErrNotFound{}):
		id, _ := context["id"].(string)
		return NewNotFoundError(id, err)
	case os.IsPermission(err):
		if path, ok := context["path"].(string); ok {
			return NewPermissionError(path, err)
		}
	}

	return err
}

func errorDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
