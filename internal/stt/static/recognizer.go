// Package static provides a deterministic recognizer for tests and
// credential-free runs. It returns a scripted sequence of transcripts,
// one per chunk, regardless of audio content.
package static

import (
	"context"
	"sync"

	"ai-voice-call-service/internal/stt"
)

// DefaultScript simulates a cooperative customer walking the capture flow.
var DefaultScript = []string{
	"Hello",
	"My name is Asha Verma",
	"My number is nine eight seven six five four three two one zero",
	"I want the family data plan",
	"Call me tomorrow after six pm",
	"Yes you can share my details",
}

// Recognizer implements stt.Recognizer with scripted transcripts.
type Recognizer struct {
	mu     sync.Mutex
	script []string
	next   int

	// Err, when set, is returned for every chunk.
	Err error
}

// New creates a recognizer that yields script entries in order and ""
// once the script is exhausted.
func New(script []string) *Recognizer {
	if script == nil {
		script = DefaultScript
	}
	return &Recognizer{script: script}
}

// Provider returns "static".
func (r *Recognizer) Provider() string { return "static" }

// Recognize returns the next scripted transcript.
func (r *Recognizer) Recognize(ctx context.Context, audio []byte, sampleRateHz int, languageCode string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", &stt.RecognitionError{Provider: r.Provider(), Err: r.Err}
	}
	if r.next >= len(r.script) {
		return "", nil
	}
	text := r.script[r.next]
	r.next++
	return text, nil
}
