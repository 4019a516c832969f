package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/furisto/debrief/backend/debrief"
	"github.com/furisto/debrief/backend/model"
)

// ProviderFactory builds a model provider for a credential.
type ProviderFactory func(credential string) (model.ModelProvider, error)

// GeminiFactory returns a factory creating Gemini providers with opts.
func GeminiFactory(opts ...model.ProviderOption) ProviderFactory {
	return func(credential string) (model.ModelProvider, error) {
		return model.NewGeminiProvider(credential, opts...)
	}
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of an assistant conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Gateway delegates the analytical text generation of a debrief to a
// language model. It holds no state beyond its configuration; every call is
// an independent request.
type Gateway struct {
	provider    model.ModelProvider
	providerErr error
	fastModel   string
	deepModel   string
	metrics     *gatewayMetrics
}

type Option func(*Gateway)

func WithModels(fast, deep string) Option {
	return func(g *Gateway) {
		if fast != "" {
			g.fastModel = fast
		}
		if deep != "" {
			g.deepModel = deep
		}
	}
}

func WithMetrics(registry *prometheus.Registry) Option {
	return func(g *Gateway) {
		g.metrics = newGatewayMetrics(registry)
	}
}

// New creates a gateway using credential. An empty credential yields a
// gateway on which every operation fails with ErrMissingCredential.
func New(credential string, factory ProviderFactory, opts ...Option) *Gateway {
	g := &Gateway{
		fastModel: model.FastModel,
		deepModel: model.DeepModel,
	}
	for _, opt := range opts {
		opt(g)
	}

	credential = strings.TrimSpace(credential)
	switch {
	case credential == "":
		g.providerErr = ErrMissingCredential
	case factory == nil:
		g.providerErr = fmt.Errorf("%w: no model provider configured", ErrServiceUnavailable)
	default:
		provider, err := factory(credential)
		if err != nil {
			g.providerErr = fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
		} else {
			g.provider = provider
		}
	}

	return g
}

// Connected reports whether the gateway holds a usable provider.
func (g *Gateway) Connected() bool {
	return g.provider != nil
}

// SuggestGaps asks for the three to five most significant discrepancies
// between plan and outcome. A nil slice together with an error means no
// result could be produced; an empty slice is a legitimate answer.
func (g *Gateway) SuggestGaps(ctx context.Context, planned string, actual debrief.ActualOutcome) (gaps []string, err error) {
	defer g.observe("suggest_gaps", time.Now(), &err)

	msg, err := g.invoke(ctx, g.fastModel, "", gapsPrompt(planned, actual.Flatten()), model.WithResponseSchema(gapsSchema))
	if err != nil {
		return nil, err
	}

	resp, err := decode[gapsResponse](msg.Text(), gapsSchema)
	if err != nil {
		return nil, err
	}
	return debrief.CleanList(resp.Gaps), nil
}

// DeriveConclusions infers root causes and lessons from gaps. It never
// returns nil lists: on failure both lists are empty and err tells why.
func (g *Gateway) DeriveConclusions(ctx context.Context, gaps []string) (result Conclusions, err error) {
	defer g.observe("derive_conclusions", time.Now(), &err)

	empty := Conclusions{RootCauses: []string{}, Conclusions: []string{}}

	msg, err := g.invoke(ctx, g.fastModel, "", conclusionsPrompt(debrief.CleanList(gaps)), model.WithResponseSchema(conclusionsSchema))
	if err != nil {
		return empty, err
	}

	resp, err := decode[Conclusions](msg.Text(), conclusionsSchema)
	if err != nil {
		return empty, err
	}

	return Conclusions{
		RootCauses:  debrief.CleanList(resp.RootCauses),
		Conclusions: debrief.CleanList(resp.Conclusions),
	}, nil
}

// AnalyzeDeep runs the slower analysis model over the whole debrief.
func (g *Gateway) AnalyzeDeep(ctx context.Context, planned string, actual debrief.ActualOutcome, gaps []string) (analysis *DeepAnalysis, err error) {
	defer g.observe("analyze_deep", time.Now(), &err)

	prompt := deepAnalysisPrompt(planned, actual.Flatten(), debrief.CleanList(gaps))
	msg, err := g.invoke(ctx, g.deepModel, "", prompt, model.WithResponseSchema(deepSchema))
	if err != nil {
		return nil, err
	}

	resp, err := decode[DeepAnalysis](msg.Text(), deepSchema)
	if err != nil {
		return nil, err
	}

	resp.RootCauses = debrief.CleanList(resp.RootCauses)
	resp.Recommendations = debrief.CleanList(resp.Recommendations)
	return &resp, nil
}

// Converse sends message after history to the debrief assistant. The
// returned text is always fit for display; on failure it is an apology and
// err carries the cause.
func (g *Gateway) Converse(ctx context.Context, history []Message, message string) (reply string, err error) {
	defer g.observe("converse", time.Now(), &err)

	if strings.TrimSpace(message) == "" {
		return apologyText, fmt.Errorf("message is empty")
	}

	if g.provider == nil {
		if errors.Is(g.providerErr, ErrMissingCredential) {
			return missingCredentialText, g.providerErr
		}
		return apologyText, g.providerErr
	}

	messages := make([]*model.Message, 0, len(history)+1)
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.Role == RoleAssistant {
			messages = append(messages, model.NewModelMessage([]model.ContentBlock{&model.TextBlock{Text: m.Content}}, model.Usage{}))
		} else {
			messages = append(messages, model.NewUserMessage(m.Content))
		}
	}
	messages = append(messages, model.NewUserMessage(message))

	msg, err := g.provider.InvokeModel(ctx, g.fastModel, assistantInstruction, messages)
	if err != nil {
		err = classify(err)
		if errors.Is(err, ErrMissingCredential) {
			return missingCredentialText, err
		}
		return apologyText, err
	}

	text := strings.TrimSpace(msg.Text())
	if text == "" {
		return apologyText, fmt.Errorf("%w: empty payload", ErrMalformedResponse)
	}
	return text, nil
}

func (g *Gateway) invoke(ctx context.Context, modelName, systemPrompt, prompt string, opts ...model.InvokeModelOption) (*model.Message, error) {
	if g.provider == nil {
		return nil, g.providerErr
	}

	msg, err := g.provider.InvokeModel(ctx, modelName, systemPrompt, []*model.Message{model.NewUserMessage(prompt)}, opts...)
	if err != nil {
		return nil, classify(err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: no message", ErrMalformedResponse)
	}
	return msg, nil
}

func (g *Gateway) observe(operation string, start time.Time, err *error) {
	label := errorLabel(*err)
	g.metrics.recordCall(operation, label, time.Since(start))
	if *err != nil && label != "canceled" {
		slog.Warn("gateway call failed", "operation", operation, "result", label, "error", *err)
	}
}
