// Package provider defines the language model surface consumed by the
// translate engine. A provider is an opaque, fallible, metered remote call:
// it receives a rendered prompt and returns generated code or actions plus
// reasoning text. Concrete vendor clients live outside this module.
package provider

import (
	"context"

	"dirge/internal/types"
)

// Response is the provider's structured reply to one prompt.
type Response struct {
	// Code is a generated code block to run through the bridge.
	Code string `json:"code,omitempty"`
	// Actions is the action list form of the reply, used by observe() and
	// by legacy command-based providers.
	Actions []types.Action `json:"actions,omitempty"`
	// Reasoning is the provider's free-text explanation.
	Reasoning string `json:"reasoning,omitempty"`
	// Description summarizes observed state (observe only).
	Description string `json:"description,omitempty"`
	// Record is a structured extraction payload (extract only). Providers
	// without native structured output leave it nil and the engine salvages
	// a record from Code instead.
	Record map[string]any `json:"record,omitempty"`
}

// Provider generates a structured response for a rendered prompt.
type Provider interface {
	Generate(ctx context.Context, prompt string) (Response, error)
}
