// Package llm selects between a generative text backend and the heuristic
// analysers. Backends are swappable implementations of TextGenerator.
package llm

import (
	"context"
	"errors"
)

// ErrGenerationFailure marks a backend call that produced no usable output
var ErrGenerationFailure = errors.New("generation failed")

// TextGenerator is a generative text backend
type TextGenerator interface {
	// Name identifies the backend in logs, metrics and processed records
	Name() string
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Outcome is the result of one backend attempt. A nil Err means Output
// is usable.
type Outcome struct {
	Output string
	Err    error
}

// Ok reports whether the attempt succeeded
func (o Outcome) Ok() bool {
	return o.Err == nil
}
