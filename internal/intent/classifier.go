// Package intent classifies customer utterances that should influence
// call control, decoupled from the state machine's stage transitions.
package intent

import "strings"

// DefaultTerminationPhrases end the call when spoken by the customer.
var DefaultTerminationPhrases = []string{
	"goodbye",
	"bye",
	"end the call",
	"hang up",
	"not interested",
	"stop calling",
}

// Classifier matches utterances against a configured phrase set.
type Classifier struct {
	phrases []string
}

// New creates a classifier from the given phrases; nil uses the defaults.
func New(phrases []string) *Classifier {
	if phrases == nil {
		phrases = DefaultTerminationPhrases
	}
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			lowered = append(lowered, p)
		}
	}
	return &Classifier{phrases: lowered}
}

// WantsHangup reports whether the utterance asks to end the call.
func (c *Classifier) WantsHangup(text string) bool {
	text = strings.ToLower(text)
	for _, p := range c.phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
