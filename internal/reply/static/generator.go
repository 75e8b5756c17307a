// Package static provides a canned reply generator for tests and
// credential-free runs.
package static

import (
	"context"
	"fmt"
	"sync"

	"ai-voice-call-service/internal/reply"
)

// Generator implements reply.Generator with stage-keyed canned replies.
type Generator struct {
	mu    sync.Mutex
	calls int

	// Replies maps a stage name to its canned reply. Missing stages get
	// a generic acknowledgement.
	Replies map[string]string

	// Err, when set, is returned for every call.
	Err error
}

// New creates a static generator with no canned replies.
func New() *Generator {
	return &Generator{}
}

// Calls returns how many times Generate was invoked.
func (g *Generator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// Generate returns the canned reply for the stage.
func (g *Generator) Generate(ctx context.Context, rc reply.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.Err != nil {
		return "", &reply.GenerationError{Err: g.Err}
	}
	if text, ok := g.Replies[rc.Stage]; ok {
		return text, nil
	}
	return fmt.Sprintf("Got it. Could you tell me the next detail? (stage %s)", rc.Stage), nil
}
