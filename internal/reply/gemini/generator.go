// Package gemini provides a reply generator backed by the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"ai-voice-call-service/internal/reply"
)

// DefaultModel is a fast text model suited to short conversational replies.
const DefaultModel = "gemini-2.0-flash"

// Generator implements reply.Generator using google.golang.org/genai.
type Generator struct {
	client *genai.Client
	model  string
}

// New creates a Gemini generator. apiKey must be a Gemini API key; model
// may be "" to use DefaultModel.
func New(ctx context.Context, apiKey, model string) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model}, nil
}

// Generate produces a short reply for the current turn.
func (g *Generator) Generate(ctx context.Context, rc reply.Context) (string, error) {
	prompt := buildPrompt(rc)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", &reply.GenerationError{Err: err}
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &reply.GenerationError{Err: fmt.Errorf("model %s returned empty reply", g.model)}
	}
	return text, nil
}

func buildPrompt(rc reply.Context) string {
	var b strings.Builder
	system := rc.SystemPrompt
	if system == "" {
		system = reply.DefaultSystemPrompt
	}
	b.WriteString(system)
	b.WriteString("\n\nCurrent stage: ")
	b.WriteString(rc.Stage)
	if len(rc.History) > 0 {
		b.WriteString("\nRecent conversation:\n")
		b.WriteString(strings.Join(rc.History, "\n"))
	}
	b.WriteString("\nCustomer said: ")
	b.WriteString(rc.LastUtterance)
	b.WriteString("\nReply briefly and ask the next required detail.")
	return b.String()
}
