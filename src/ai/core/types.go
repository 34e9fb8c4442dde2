package core

import "context"

// Options controls model behavior; fields are optional per provider.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int
	SystemPrompt        string
	// JSONOutput asks providers that support it for a JSON object reply.
	JSONOutput bool
}

// Client is a provider-agnostic interface for the completions we need.
type Client interface {
	Respond(ctx context.Context, input string, opts Options) (string, error)
}

// Merge overlays the non-zero fields of opts on top of defaults.
func Merge(defaults, opts Options) Options {
	out := defaults
	if opts.Model != "" {
		out.Model = opts.Model
	}
	if opts.Temperature != 0 {
		out.Temperature = opts.Temperature
	}
	if opts.MaxCompletionTokens != 0 {
		out.MaxCompletionTokens = opts.MaxCompletionTokens
	}
	if opts.SystemPrompt != "" {
		out.SystemPrompt = opts.SystemPrompt
	}
	if opts.JSONOutput {
		out.JSONOutput = true
	}
	return out
}
