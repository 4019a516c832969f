package model

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/genai"

	"github.com/furisto/debrief/shared/resilience"
)

type fakeContentService struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     int
	model     string
	contents  []*genai.Content
	config    *genai.GenerateContentConfig
}

type fakeResponse struct {
	text string
	err  error
}

func (f *fakeContentService) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.model = model
	f.contents = contents
	f.config = config

	idx := min(f.calls, len(f.responses)-1)
	f.calls++
	r := f.responses[idx]
	if r.err != nil {
		return nil, r.err
	}

	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: r.text}}}},
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     12,
			CandidatesTokenCount: 34,
		},
	}, nil
}

func (f *fakeContentService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fastRetries() *resilience.RetryConfig {
	return &resilience.RetryConfig{
		MaxAttempts:       3,
		InitialDelay:      time.Millisecond,
		MaxDelay:          2 * time.Millisecond,
		BackoffMultiplier: 2,
	}
}

func newTestProvider(service GeminiContentService, opts ...ProviderOption) *GeminiProvider {
	options := DefaultProviderOptions(geminiProviderName)
	options.RetryConfig = fastRetries()
	for _, opt := range opts {
		opt(options)
	}
	return newGeminiProvider(service, options)
}

func TestNewGeminiProvider(t *testing.T) {
	t.Parallel()

	if _, err := NewGeminiProvider(""); err == nil || err.Error() != "gemini API key is required" {
		t.Errorf("expected missing key error, got %v", err)
	}

	provider, err := NewGeminiProvider("test-key", WithURL("http://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider == nil {
		t.Fatal("expected provider to be non-nil")
	}
}

func TestInvokeModelRequest(t *testing.T) {
	t.Parallel()

	service := &fakeContentService{responses: []fakeResponse{{text: `{"gaps":["late start"]}`}}}
	provider := newTestProvider(service)

	type answer struct {
		Gaps []string `json:"gaps" jsonschema_description:"the gaps"`
	}

	messages := []*Message{
		NewUserMessage("first"),
		NewModelMessage([]ContentBlock{&TextBlock{Text: "reply"}}, Usage{}),
		NewUserMessage(""),
		NewUserMessage("second"),
	}

	msg, err := provider.InvokeModel(context.Background(), FastModel, "be brief", messages,
		WithResponseSchema(SchemaFor[answer]()),
		WithTemperature(0.2),
	)
	if err != nil {
		t.Fatalf("InvokeModel: %v", err)
	}

	if msg.Text() != `{"gaps":["late start"]}` {
		t.Errorf("unexpected text %q", msg.Text())
	}
	if diff := cmp.Diff(Usage{InputTokens: 12, OutputTokens: 34}, msg.Usage); diff != "" {
		t.Errorf("usage mismatch (-want +got):\n%s", diff)
	}

	if service.model != FastModel {
		t.Errorf("model = %q", service.model)
	}

	var roles []string
	for _, c := range service.contents {
		roles = append(roles, c.Role)
	}
	if diff := cmp.Diff([]string{"user", "model", "user"}, roles); diff != "" {
		t.Errorf("empty messages must be dropped (-want +got):\n%s", diff)
	}

	config := service.config
	if config.SystemInstruction == nil || config.SystemInstruction.Parts[0].Text != "be brief" {
		t.Errorf("system instruction not set: %+v", config.SystemInstruction)
	}
	if config.ResponseMIMEType != "application/json" {
		t.Errorf("response mime type = %q", config.ResponseMIMEType)
	}
	if config.ResponseSchema == nil || config.ResponseSchema.Type != genai.TypeObject {
		t.Fatalf("response schema not translated: %+v", config.ResponseSchema)
	}
	gaps := config.ResponseSchema.Properties["gaps"]
	if gaps == nil || gaps.Type != genai.TypeArray || gaps.Items.Type != genai.TypeString {
		t.Errorf("gaps schema mismatch: %+v", gaps)
	}
	if config.Temperature == nil || *config.Temperature != 0.2 {
		t.Errorf("temperature not set")
	}
}

func TestInvokeModelValidation(t *testing.T) {
	t.Parallel()

	provider := newTestProvider(&fakeContentService{responses: []fakeResponse{{text: "x"}}})

	if _, err := provider.InvokeModel(context.Background(), "", "", []*Message{NewUserMessage("hi")}); err == nil {
		t.Error("expected error for empty model")
	}
	if _, err := provider.InvokeModel(context.Background(), FastModel, "", nil); err == nil {
		t.Error("expected error for missing messages")
	}
}

func TestInvokeModelErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantKind  ProviderErrorKind
		wantCalls int
	}{
		{
			name:      "unauthorized is not retried",
			err:       genai.APIError{Code: http.StatusUnauthorized, Message: "unauthorized"},
			wantKind:  ProviderErrorKindUnauthenticated,
			wantCalls: 1,
		},
		{
			name:      "invalid key reported as bad request",
			err:       genai.APIError{Code: http.StatusBadRequest, Message: "API key not valid. Please pass a valid API key.", Status: "INVALID_ARGUMENT"},
			wantKind:  ProviderErrorKindUnauthenticated,
			wantCalls: 1,
		},
		{
			name:      "bad request",
			err:       genai.APIError{Code: http.StatusBadRequest, Message: "schema rejected"},
			wantKind:  ProviderErrorKindInvalidRequest,
			wantCalls: 1,
		},
		{
			name:      "overloaded is retried",
			err:       genai.APIError{Code: http.StatusServiceUnavailable, Message: "overloaded"},
			wantKind:  ProviderErrorKindOverloaded,
			wantCalls: 3,
		},
		{
			name:      "rate limit is retried",
			err:       genai.APIError{Code: http.StatusTooManyRequests, Message: "slow down"},
			wantKind:  ProviderErrorKindRateLimitExceeded,
			wantCalls: 3,
		},
		{
			name:      "network failure is retried",
			err:       errors.New("dial tcp: connection refused"),
			wantKind:  ProviderErrorKindUnknown,
			wantCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service := &fakeContentService{responses: []fakeResponse{{err: tt.err}}}
			provider := newTestProvider(service)

			_, err := provider.InvokeModel(context.Background(), FastModel, "", []*Message{NewUserMessage("hi")})
			var providerErr *ProviderError
			if !errors.As(err, &providerErr) {
				t.Fatalf("expected provider error, got %v", err)
			}
			if providerErr.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", providerErr.Kind, tt.wantKind)
			}
			if service.callCount() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", service.callCount(), tt.wantCalls)
			}
		})
	}
}

func TestInvokeModelHonorsRetryDelay(t *testing.T) {
	t.Parallel()

	service := &fakeContentService{responses: []fakeResponse{
		{err: genai.APIError{
			Code:    http.StatusTooManyRequests,
			Message: "Resource has been exhausted",
			Status:  "RESOURCE_EXHAUSTED",
			Details: []map[string]any{
				{"@type": "type.googleapis.com/google.rpc.QuotaFailure"},
				{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "0.02s"},
			},
		}},
		{text: "ok"},
	}}

	var retried []time.Duration
	provider := newTestProvider(service)
	msg, err := provider.InvokeModel(context.Background(), FastModel, "", []*Message{NewUserMessage("hi")},
		WithRetryCallback(func(ctx context.Context, err error, next time.Duration) {
			retried = append(retried, next)
		}),
	)
	if err != nil {
		t.Fatalf("InvokeModel: %v", err)
	}
	if msg.Text() != "ok" {
		t.Errorf("text = %q", msg.Text())
	}
	if diff := cmp.Diff([]time.Duration{20 * time.Millisecond}, retried); diff != "" {
		t.Errorf("retry delays mismatch (-want +got):\n%s", diff)
	}
}

func TestRateLimitErrorCarriesRetryDelay(t *testing.T) {
	t.Parallel()

	service := &fakeContentService{responses: []fakeResponse{
		{err: genai.APIError{
			Code:    http.StatusTooManyRequests,
			Message: "Resource has been exhausted",
			Details: []map[string]any{
				{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "0.01s"},
			},
		}},
	}}
	provider := newTestProvider(service)

	_, err := provider.InvokeModel(context.Background(), FastModel, "", []*Message{NewUserMessage("hi")})
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if providerErr.RetryAfter != 10*time.Millisecond {
		t.Errorf("RetryAfter = %s, want 10ms", providerErr.RetryAfter)
	}
	if got, want := providerErr.Message(), "Rate limit exceeded, retry after 10ms"; got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}
	if service.callCount() != 3 {
		t.Errorf("calls = %d, want 3", service.callCount())
	}
}

func TestInvokeModelRecoversAfterRetry(t *testing.T) {
	t.Parallel()

	service := &fakeContentService{responses: []fakeResponse{
		{err: genai.APIError{Code: http.StatusInternalServerError, Message: "boom"}},
		{text: "ok"},
	}}

	var retried []time.Duration
	provider := newTestProvider(service)
	msg, err := provider.InvokeModel(context.Background(), FastModel, "", []*Message{NewUserMessage("hi")},
		WithRetryCallback(func(ctx context.Context, err error, next time.Duration) {
			retried = append(retried, next)
		}),
	)
	if err != nil {
		t.Fatalf("InvokeModel: %v", err)
	}
	if msg.Text() != "ok" {
		t.Errorf("text = %q", msg.Text())
	}
	if len(retried) != 1 {
		t.Errorf("expected one retry notification, got %d", len(retried))
	}
}

func TestInvokeModelCircuitBreaker(t *testing.T) {
	t.Parallel()

	service := &fakeContentService{responses: []fakeResponse{
		{err: genai.APIError{Code: http.StatusInternalServerError, Message: "down"}},
	}}
	breaker := resilience.NewCircuitBreaker("test", 1, time.Hour)
	provider := newTestProvider(service, WithCircuitBreaker(breaker), WithRetryConfig(&resilience.RetryConfig{
		MaxAttempts:  1,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
	}))

	if _, err := provider.InvokeModel(context.Background(), FastModel, "", []*Message{NewUserMessage("hi")}); err == nil {
		t.Fatal("expected error")
	}

	_, err := provider.InvokeModel(context.Background(), FastModel, "", []*Message{NewUserMessage("hi")})
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) || providerErr.Kind != ProviderErrorKindUnavailable {
		t.Fatalf("expected unavailable error while the circuit is open, got %v", err)
	}
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen in chain")
	}
	if service.callCount() != 1 {
		t.Errorf("open circuit must not reach the service, calls = %d", service.callCount())
	}
}

func TestInvokeModelMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	service := &fakeContentService{responses: []fakeResponse{{text: "ok"}}}
	provider := newTestProvider(service, WithMetrics(registry))
	// a second provider on the same registry shares the collectors
	_ = newTestProvider(service, WithMetrics(registry))

	for range 2 {
		if _, err := provider.InvokeModel(context.Background(), DeepModel, "", []*Message{NewUserMessage("hi")}); err != nil {
			t.Fatalf("InvokeModel: %v", err)
		}
	}

	got := testutil.ToFloat64(provider.metrics.invocations.WithLabelValues(geminiProviderName, DeepModel, "success"))
	if got != 2 {
		t.Errorf("success counter = %v, want 2", got)
	}
}

func TestLookupModel(t *testing.T) {
	t.Parallel()

	m, err := LookupModel(ProviderKindGemini, DeepModel)
	if err != nil {
		t.Fatalf("LookupModel: %v", err)
	}
	if !m.Supports(CapabilityExtendedThinking) {
		t.Errorf("deep model should support extended thinking")
	}
	if _, err := LookupModel(ProviderKindGemini, "gpt-4o"); err == nil {
		t.Error("expected error for unknown model")
	}
}
