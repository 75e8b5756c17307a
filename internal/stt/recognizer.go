// Package stt defines the interface for speech-to-text recognizers.
package stt

import (
	"context"
	"fmt"
)

// Recognizer transcribes a single audio chunk. An empty transcript is a
// normal result (silence); errors cover transport and quota failures.
type Recognizer interface {
	// Recognize transcribes the chunk and returns the text, possibly "".
	Recognize(ctx context.Context, audio []byte, sampleRateHz int, languageCode string) (string, error)

	// Provider names the recognizer backend for logs and metrics.
	Provider() string
}

// RecognitionError wraps a recognizer failure with its provider.
type RecognitionError struct {
	Provider string
	Err      error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition failed (provider=%s): %v", e.Provider, e.Err)
}

func (e *RecognitionError) Unwrap() error { return e.Err }
