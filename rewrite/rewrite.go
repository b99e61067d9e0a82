// Package rewrite reworks already-injected text through a local LLM.
// The "rewrite last N words" voice command pulls the trailing words back
// out of the output stream, asks the model for a cleaned-up version, and
// the caller retypes the result.
package rewrite

import "context"

// Rewriter rewrites a fragment of dictated text. Implementations keep the
// meaning and return only the replacement text, no commentary.
type Rewriter interface {
	Rewrite(ctx context.Context, text string) (string, error)
}
