package model

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/furisto/debrief/shared/resilience"
)

type InvokeModelOptions struct {
	ResponseSchema *jsonschema.Schema
	Temperature    *float32
	RetryCallback  func(ctx context.Context, err error, nextRetry time.Duration)
}

type InvokeModelOption func(*InvokeModelOptions)

// WithResponseSchema asks the model for a JSON document conforming to schema.
func WithResponseSchema(schema *jsonschema.Schema) InvokeModelOption {
	return func(o *InvokeModelOptions) {
		o.ResponseSchema = schema
	}
}

func WithTemperature(temperature float32) InvokeModelOption {
	return func(o *InvokeModelOptions) {
		o.Temperature = &temperature
	}
}

func WithRetryCallback(handler func(ctx context.Context, err error, nextRetry time.Duration)) InvokeModelOption {
	return func(o *InvokeModelOptions) {
		o.RetryCallback = handler
	}
}

type ProviderOptions struct {
	URL            string
	RetryConfig    *resilience.RetryConfig
	CircuitBreaker *resilience.CircuitBreaker
	Metrics        *prometheus.Registry
}

type ProviderOption func(*ProviderOptions)

func WithURL(url string) ProviderOption {
	return func(options *ProviderOptions) {
		options.URL = url
	}
}

func WithRetryConfig(retryConfig *resilience.RetryConfig) ProviderOption {
	return func(options *ProviderOptions) {
		options.RetryConfig = retryConfig
	}
}

func WithCircuitBreaker(circuitBreaker *resilience.CircuitBreaker) ProviderOption {
	return func(options *ProviderOptions) {
		options.CircuitBreaker = circuitBreaker
	}
}

func WithMetrics(metrics *prometheus.Registry) ProviderOption {
	return func(o *ProviderOptions) {
		o.Metrics = metrics
	}
}

func DefaultProviderOptions(name string) *ProviderOptions {
	return &ProviderOptions{
		RetryConfig:    resilience.DefaultRetryConfig(),
		CircuitBreaker: resilience.NewCircuitBreaker(name, 5, 30*time.Second),
	}
}

//go:generate mockgen -destination=mocks/provider_mock.go -package=mocks . ModelProvider
type ModelProvider interface {
	InvokeModel(ctx context.Context, modelName, systemPrompt string, messages []*Message, opts ...InvokeModelOption) (*Message, error)
}

type MessageSource string

const (
	MessageSourceUser  MessageSource = "user"
	MessageSourceModel MessageSource = "model"
)

type Message struct {
	Source  MessageSource  `json:"source"`
	Content []ContentBlock `json:"content"`
	Usage   Usage          `json:"usage"`
}

func NewUserMessage(text string) *Message {
	return &Message{
		Source:  MessageSourceUser,
		Content: []ContentBlock{&TextBlock{Text: text}},
	}
}

func NewModelMessage(content []ContentBlock, usage Usage) *Message {
	return &Message{
		Source:  MessageSourceModel,
		Content: content,
		Usage:   usage,
	}
}

// Text concatenates all text blocks of the message.
func (m *Message) Text() string {
	if m == nil {
		return ""
	}

	var sb strings.Builder
	for _, block := range m.Content {
		if text, ok := block.(*TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String()
}

type ContentBlockType string

const (
	ContentBlockTypeText ContentBlockType = "text"
)

type ContentBlock interface {
	Type() ContentBlockType
}

type TextBlock struct {
	Text string
}

func (t *TextBlock) Type() ContentBlockType {
	return ContentBlockTypeText
}

type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

type ProviderError struct {
	Provider   string
	StatusCode int
	RetryAfter time.Duration
	Err        error
	Kind       ProviderErrorKind
}

func NewProviderError(provider string, kind ProviderErrorKind, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Kind:     kind,
		Err:      err,
	}
}

func (pe *ProviderError) Message() string {
	switch pe.Kind {
	case ProviderErrorKindInvalidRequest:
		return "Invalid request format or content"
	case ProviderErrorKindUnauthenticated:
		return "API key missing or rejected"
	case ProviderErrorKindRateLimitExceeded:
		if pe.RetryAfter > 0 {
			return fmt.Sprintf("Rate limit exceeded, retry after %s", pe.RetryAfter)
		}
		return "Rate limit exceeded"
	case ProviderErrorKindOverloaded:
		return "API temporarily overloaded"
	case ProviderErrorKindInternal:
		return "Internal server error"
	case ProviderErrorKindTimeout:
		return "Request timeout"
	case ProviderErrorKindCanceled:
		return "Request canceled"
	case ProviderErrorKindBlocked:
		return "Response blocked by safety filters"
	case ProviderErrorKindUnavailable:
		return "Service unavailable"
	default:
		return "Unknown error"
	}
}

// Retryable reports whether the same request may succeed when sent again.
func (pe *ProviderError) Retryable() bool {
	switch pe.Kind {
	case ProviderErrorKindRateLimitExceeded,
		ProviderErrorKindOverloaded,
		ProviderErrorKindInternal,
		ProviderErrorKindTimeout,
		ProviderErrorKindUnknown:
		return true
	default:
		return false
	}
}

func (pe *ProviderError) Error() string {
	if pe.Err != nil {
		return fmt.Sprintf("%s: %s: %s", pe.Provider, pe.Message(), pe.Err.Error())
	}
	return fmt.Sprintf("%s: %s", pe.Provider, pe.Message())
}

func (pe *ProviderError) Unwrap() error {
	return pe.Err
}

type ProviderErrorKind string

const (
	ProviderErrorKindInvalidRequest    ProviderErrorKind = "invalid_request"
	ProviderErrorKindUnauthenticated   ProviderErrorKind = "unauthenticated"
	ProviderErrorKindRateLimitExceeded ProviderErrorKind = "rate_limit_exceeded"
	ProviderErrorKindOverloaded        ProviderErrorKind = "overloaded"
	ProviderErrorKindInternal          ProviderErrorKind = "internal"
	ProviderErrorKindTimeout           ProviderErrorKind = "timeout"
	ProviderErrorKindCanceled          ProviderErrorKind = "canceled"
	ProviderErrorKindBlocked           ProviderErrorKind = "blocked"
	ProviderErrorKindUnavailable       ProviderErrorKind = "unavailable"
	ProviderErrorKindUnknown           ProviderErrorKind = "unknown"
)
