// Package tts defines the interface for speech synthesizers.
package tts

import (
	"context"
	"fmt"
)

// Synthesizer renders reply text into playable audio. Synthesis failure
// degrades a turn to text-only and never blocks turn completion.
type Synthesizer interface {
	// Synthesize renders text with the given voice hint (a language code
	// such as "en-IN") and returns encoded audio bytes.
	Synthesize(ctx context.Context, text, voiceHint string) ([]byte, error)
}

// SynthesisError wraps a synthesizer failure.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
