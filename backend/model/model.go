package model

import (
	"fmt"
	"slices"
)

type Model struct {
	Provider      ProviderKind
	Name          string
	Capabilities  []Capability
	ContextWindow int64
	Pricing       ModelPricing
}

type ProviderKind string

const (
	ProviderKindGemini ProviderKind = "gemini"
)

type Capability string

const (
	CapabilityImage            Capability = "image"
	CapabilityStructuredOutput Capability = "structured_output"
	CapabilityExtendedThinking Capability = "extended_thinking"
)

type ModelPricing struct {
	Input  float64
	Output float64
}

const (
	// FastModel serves the short structured calls made while editing a debrief.
	FastModel = "gemini-3-flash-preview"
	// DeepModel serves the long-form strategic analysis.
	DeepModel = "gemini-3-pro-preview"
)

func SupportedModels(provider ProviderKind) []Model {
	switch provider {
	case ProviderKindGemini:
		return SupportedGeminiModels()
	}

	return nil
}

func SupportedGeminiModels() []Model {
	return []Model{
		{
			Provider: ProviderKindGemini,
			Name:     FastModel,
			Capabilities: []Capability{
				CapabilityImage,
				CapabilityStructuredOutput,
			},
			ContextWindow: 1048576,
			Pricing: ModelPricing{
				Input:  0.5,
				Output: 3.0,
			},
		},
		{
			Provider: ProviderKindGemini,
			Name:     DeepModel,
			Capabilities: []Capability{
				CapabilityImage,
				CapabilityStructuredOutput,
				CapabilityExtendedThinking,
			},
			ContextWindow: 1048576,
			Pricing: ModelPricing{
				Input:  2.0,
				Output: 12.0,
			},
		},
		{
			Provider: ProviderKindGemini,
			Name:     "gemini-2.5-flash",
			Capabilities: []Capability{
				CapabilityImage,
				CapabilityStructuredOutput,
			},
			ContextWindow: 1048576,
			Pricing: ModelPricing{
				Input:  0.3,
				Output: 2.5,
			},
		},
		{
			Provider: ProviderKindGemini,
			Name:     "gemini-2.5-pro",
			Capabilities: []Capability{
				CapabilityImage,
				CapabilityStructuredOutput,
				CapabilityExtendedThinking,
			},
			ContextWindow: 1048576,
			Pricing: ModelPricing{
				Input:  1.25,
				Output: 10.0,
			},
		},
	}
}

// LookupModel returns the catalog entry for name.
func LookupModel(provider ProviderKind, name string) (Model, error) {
	models := SupportedModels(provider)
	idx := slices.IndexFunc(models, func(m Model) bool { return m.Name == name })
	if idx < 0 {
		return Model{}, fmt.Errorf("unsupported %s model %q", provider, name)
	}
	return models[idx], nil
}

func (m Model) Supports(capability Capability) bool {
	return slices.Contains(m.Capabilities, capability)
}
