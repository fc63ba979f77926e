// Package assist asks a hosted language model to resolve scheduling phrases
// the rule-based parsers could not. It is optional and strictly best-effort.
package assist

import "context"

// Completer sends one system prompt plus one user message and returns the
// model's text reply.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}
