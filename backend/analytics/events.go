package analytics

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/posthog/posthog-go"
)

const DefaultEndpoint = "https://eu.i.posthog.com"

// Client sends anonymous product events. A nil *Client drops every event.
type Client struct {
	posthog    posthog.Client
	distinctID string
}

// New returns a client reporting to endpoint with apiKey. An empty key
// disables analytics and yields a nil client.
func New(apiKey, endpoint, distinctID string) (*Client, error) {
	if apiKey == "" {
		return nil, nil
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if distinctID == "" {
		distinctID = uuid.NewString()
	}

	client, err := posthog.NewWithConfig(apiKey, posthog.Config{
		Endpoint: endpoint,
	})
	if err != nil {
		return nil, err
	}

	return &Client{posthog: client, distinctID: distinctID}, nil
}

// NewWithPosthog wraps an existing posthog client.
func NewWithPosthog(client posthog.Client, distinctID string) *Client {
	return &Client{posthog: client, distinctID: distinctID}
}

// Track enqueues event. It never blocks on the network.
func (c *Client) Track(event string, properties map[string]any) {
	if c == nil || c.posthog == nil {
		return
	}

	props := posthog.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}

	err := c.posthog.Enqueue(posthog.Capture{
		DistinctId: c.distinctID,
		Event:      event,
		Properties: props,
	})
	if err != nil {
		slog.Debug("failed to enqueue analytics event", "event", event, "error", err)
	}
}

func (c *Client) Close() error {
	if c == nil || c.posthog == nil {
		return nil
	}
	return c.posthog.Close()
}

func EmitCommandExecuted(client *Client, command string) {
	client.Track("command_executed", map[string]any{
		"command": command,
	})
}

func EmitDebriefShared(client *Client, channel string) {
	client.Track("debrief_shared", map[string]any{
		"channel": channel,
	})
}

func EmitDebriefAnalyzed(client *Client, model string, success bool) {
	client.Track("debrief_analyzed", map[string]any{
		"model":   model,
		"success": success,
	})
}

func EmitChatTurn(client *Client, success bool) {
	client.Track("chat_turn", map[string]any{
		"success": success,
	})
}

func EmitImageAttached(client *Client, mediaType string) {
	client.Track("image_attached", map[string]any{
		"media_type": mediaType,
	})
}
