package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/furisto/debrief/backend/model"
)

type gapsResponse struct {
	Gaps []string `json:"gaps" jsonschema_description:"The most significant gaps between plan and execution"`
}

// Conclusions is the outcome of a root cause pass over the finalized gaps.
type Conclusions struct {
	RootCauses  []string `json:"rootCauses" jsonschema_description:"Root causes behind the gaps"`
	Conclusions []string `json:"conclusions" jsonschema_description:"Operative lessons to apply next time"`
}

// DeepAnalysis is the long form analysis offered by the assistant.
type DeepAnalysis struct {
	RootCauses      []string `json:"rootCauses" jsonschema_description:"Root causes of the event"`
	Analysis        string   `json:"analysis" jsonschema_description:"Free text analysis of the situation"`
	Recommendations []string `json:"recommendations" jsonschema_description:"Operative recommendations"`
}

var (
	gapsSchema        = model.SchemaFor[gapsResponse]()
	conclusionsSchema = model.SchemaFor[Conclusions]()
	deepSchema        = model.SchemaFor[DeepAnalysis]()
)

// decode parses a structured model answer. Anything that is not a JSON
// object carrying every required field with the declared type is rejected.
func decode[T any](text string, schema *jsonschema.Schema) (T, error) {
	var zero T

	text = strings.TrimSpace(text)
	if text == "" {
		return zero, fmt.Errorf("%w: empty payload", ErrMalformedResponse)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	for _, name := range schema.Required {
		raw, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return zero, fmt.Errorf("%w: missing field %q", ErrMalformedResponse, name)
		}
	}

	var out T
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return out, nil
}
