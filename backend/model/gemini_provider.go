package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"google.golang.org/genai"

	"github.com/furisto/debrief/shared/resilience"
)

const geminiProviderName = "gemini"

// GeminiContentService is the subset of the genai models service used by the
// provider.
type GeminiContentService interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiProvider struct {
	service        GeminiContentService
	retryConfig    *resilience.RetryConfig
	circuitBreaker *resilience.CircuitBreaker
	metrics        *providerMetrics
}

var _ ModelProvider = (*GeminiProvider)(nil)

func NewGeminiProvider(apiKey string, opts ...ProviderOption) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	providerOptions := DefaultProviderOptions(geminiProviderName)
	for _, opt := range opts {
		opt(providerOptions)
	}

	config := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if providerOptions.URL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: providerOptions.URL}
	}

	client, err := genai.NewClient(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newGeminiProvider(client.Models, providerOptions), nil
}

func newGeminiProvider(service GeminiContentService, options *ProviderOptions) *GeminiProvider {
	return &GeminiProvider{
		service:        service,
		retryConfig:    options.RetryConfig,
		circuitBreaker: options.CircuitBreaker,
		metrics:        newProviderMetrics(options.Metrics),
	}
}

func (p *GeminiProvider) InvokeModel(ctx context.Context, modelName, systemPrompt string, messages []*Message, opts ...InvokeModelOption) (*Message, error) {
	if err := p.validateInput(modelName, messages); err != nil {
		return nil, err
	}

	options := &InvokeModelOptions{}
	for _, opt := range opts {
		opt(options)
	}

	contents := p.transformMessages(messages)
	config := p.requestConfig(systemPrompt, options)

	if p.circuitBreaker != nil && !p.circuitBreaker.Allow() {
		err := NewProviderError(geminiProviderName, ProviderErrorKindUnavailable, resilience.ErrCircuitOpen)
		p.metrics.recordInvocation(geminiProviderName, modelName, time.Now(), err)
		return nil, err
	}

	start := time.Now()
	msg, err := backoff.Retry(ctx, func() (*Message, error) {
		msg, err := p.executeCall(ctx, modelName, contents, config)
		if err == nil {
			return msg, nil
		}

		var providerErr *ProviderError
		if errors.As(err, &providerErr) {
			if !providerErr.Retryable() {
				return nil, backoff.Permanent(err)
			}
			if providerErr.RetryAfter > 0 {
				return nil, errors.Join(err, &backoff.RetryAfterError{Duration: providerErr.RetryAfter})
			}
		}
		return nil, err
	}, p.retryOptions(ctx, options)...)

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		err = providerErr
	}

	if p.circuitBreaker != nil {
		p.circuitBreaker.RecordResult(breakerOutcome(err))
	}
	p.metrics.recordInvocation(geminiProviderName, modelName, start, err)

	if err != nil {
		slog.Debug("model invocation failed", "provider", geminiProviderName, "model", modelName, "error", err, "duration", time.Since(start))
		return nil, err
	}
	return msg, nil
}

func (p *GeminiProvider) retryOptions(ctx context.Context, options *InvokeModelOptions) []backoff.RetryOption {
	retryConfig := p.retryConfig
	if retryConfig == nil {
		retryConfig = resilience.DefaultRetryConfig()
	}

	return append(retryConfig.Options(), backoff.WithNotify(func(err error, next time.Duration) {
		kind := ProviderErrorKindUnknown
		var providerErr *ProviderError
		if errors.As(err, &providerErr) {
			kind = providerErr.Kind
		}
		p.metrics.recordRetry(geminiProviderName, kind)
		slog.Debug("retrying model invocation", "provider", geminiProviderName, "kind", kind, "next_retry", next)

		if options.RetryCallback != nil {
			options.RetryCallback(ctx, err, next)
		}
	}))
}

func (p *GeminiProvider) executeCall(ctx context.Context, modelName string, contents []*genai.Content, config *genai.GenerateContentConfig) (*Message, error) {
	resp, err := p.service.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return nil, p.parseError(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, NewProviderError(geminiProviderName, ProviderErrorKindBlocked,
			fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason))
	}

	var usage Usage
	if resp.UsageMetadata != nil {
		usage.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}

	return NewModelMessage([]ContentBlock{&TextBlock{Text: resp.Text()}}, usage), nil
}

func (p *GeminiProvider) requestConfig(systemPrompt string, options *InvokeModelOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	if options.ResponseSchema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = toGeminiSchema(options.ResponseSchema)
	}

	if options.Temperature != nil {
		config.Temperature = options.Temperature
	}

	return config
}

func (p *GeminiProvider) transformMessages(messages []*Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, message := range messages {
		role := "user"
		if message.Source == MessageSourceModel {
			role = "model"
		}

		var parts []*genai.Part
		for _, block := range message.Content {
			if text, ok := block.(*TextBlock); ok && text.Text != "" {
				parts = append(parts, &genai.Part{Text: text.Text})
			}
		}
		if len(parts) == 0 {
			continue
		}

		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents
}

func (p *GeminiProvider) validateInput(modelName string, messages []*Message) error {
	if modelName == "" {
		return fmt.Errorf("model is required")
	}
	if len(messages) == 0 {
		return fmt.Errorf("at least one message is required")
	}
	return nil
}

func (p *GeminiProvider) parseError(err error) *ProviderError {
	if errors.Is(err, context.Canceled) {
		return NewProviderError(geminiProviderName, ProviderErrorKindCanceled, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewProviderError(geminiProviderName, ProviderErrorKindTimeout, err)
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var apiErrPtr *genai.APIError
		if !errors.As(err, &apiErrPtr) {
			return NewProviderError(geminiProviderName, ProviderErrorKindUnknown, err)
		}
		apiErr = *apiErrPtr
	}

	providerErr := NewProviderError(geminiProviderName, kindFromStatus(apiErr), err)
	providerErr.StatusCode = apiErr.Code
	if apiErr.Code == http.StatusTooManyRequests {
		providerErr.RetryAfter = retryDelay(apiErr.Details)
	}
	return providerErr
}

// retryDelay reads the delay from a google.rpc.RetryInfo error detail.
func retryDelay(details []map[string]any) time.Duration {
	for _, detail := range details {
		kind, _ := detail["@type"].(string)
		if !strings.HasSuffix(kind, "google.rpc.RetryInfo") {
			continue
		}
		delay, _ := detail["retryDelay"].(string)
		if d, err := time.ParseDuration(delay); err == nil && d > 0 {
			return d
		}
	}
	return 0
}

func kindFromStatus(apiErr genai.APIError) ProviderErrorKind {
	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ProviderErrorKindUnauthenticated
	case http.StatusBadRequest:
		// An invalid key is reported as INVALID_ARGUMENT rather than 401.
		if strings.Contains(strings.ToLower(apiErr.Message), "api key") {
			return ProviderErrorKindUnauthenticated
		}
		return ProviderErrorKindInvalidRequest
	case http.StatusNotFound:
		return ProviderErrorKindInvalidRequest
	case http.StatusTooManyRequests:
		return ProviderErrorKindRateLimitExceeded
	case http.StatusServiceUnavailable:
		return ProviderErrorKindOverloaded
	case http.StatusGatewayTimeout:
		return ProviderErrorKindTimeout
	}

	if apiErr.Code >= 500 {
		return ProviderErrorKindInternal
	}
	return ProviderErrorKindUnknown
}

// breakerOutcome keeps caller mistakes and cancellations from tripping the
// circuit breaker.
func breakerOutcome(err error) error {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		switch providerErr.Kind {
		case ProviderErrorKindInvalidRequest,
			ProviderErrorKindUnauthenticated,
			ProviderErrorKindCanceled,
			ProviderErrorKindBlocked:
			return nil
		}
	}
	return err
}
