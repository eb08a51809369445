// Package oracle wraps the external language-model service behind the narrow
// contract the workflows depend on: system instruction plus messages in, text
// out. Implementations must report transport failures as errors; callers are
// responsible for tolerating replies that do not match the requested schema.
package oracle

import "context"

// Client is the turn oracle contract.
type Client interface {
	Complete(ctx context.Context, systemInstruction string, messages []string) (string, error)
}

// Func adapts a plain function to the Client interface.
type Func func(ctx context.Context, systemInstruction string, messages []string) (string, error)

func (f Func) Complete(ctx context.Context, systemInstruction string, messages []string) (string, error) {
	return f(ctx, systemInstruction, messages)
}
