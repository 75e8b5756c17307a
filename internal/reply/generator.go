// Package reply defines the interface for conversational reply generation.
package reply

import (
	"context"
	"fmt"
)

// FallbackText is spoken when the generator fails; the turn still
// completes.
const FallbackText = "Sorry, I didn't get that. Could you repeat?"

// DefaultSystemPrompt steers the generator through the capture flow.
const DefaultSystemPrompt = `You are an outbound telecom sales assistant calling customers in India.
Goal: capture lead interest in mobile and family data plans.

Flow:
1) Greet and introduce yourself from the telecom provider
2) Confirm the customer's name
3) Ask for a callback phone number
4) Ask the plan requirement (data and minutes)
5) Ask the preferred callback time
6) Ask consent to store and share details with the sales team

Rules:
- Keep responses short, one or two sentences.
- Use a friendly tone, Indian English.
- After each customer reply, ask the next required detail.
- Final message: confirm the captured info and thank the customer.`

// Context carries everything the generator needs for one reply.
type Context struct {
	SystemPrompt  string
	Stage         string   // current capture stage name
	History       []string // recent transcript lines, "Speaker: text"
	LastUtterance string   // the customer's latest transcript
}

// Generator produces the bot's next reply for a turn.
type Generator interface {
	Generate(ctx context.Context, rc Context) (string, error)
}

// GenerationError wraps a generator failure.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("reply generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
