package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/furisto/debrief/backend/model"
)

var (
	// ErrMissingCredential means no usable API key is configured. Callers
	// route the user to the setup screen.
	ErrMissingCredential = errors.New("no credential configured")
	// ErrServiceUnavailable covers transport failures and service side errors.
	ErrServiceUnavailable = errors.New("language model service unavailable")
	// ErrMalformedResponse means the service answered with an empty payload,
	// a payload that is not JSON, or JSON that violates the declared schema.
	ErrMalformedResponse = errors.New("malformed model response")
)

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrMissingCredential) || errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrMalformedResponse) {
		return err
	}

	var providerErr *model.ProviderError
	if errors.As(err, &providerErr) {
		switch providerErr.Kind {
		case model.ProviderErrorKindUnauthenticated:
			return fmt.Errorf("%w: %w", ErrMissingCredential, err)
		case model.ProviderErrorKindBlocked:
			return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
	}

	return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
}

func errorLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unavailable"
	}
}
