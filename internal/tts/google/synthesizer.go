// Package google provides a Google Cloud Text-to-Speech synthesizer.
package google

import (
	"context"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"

	"ai-voice-call-service/internal/tts"
)

// Synthesizer implements tts.Synthesizer producing MP3 audio.
type Synthesizer struct {
	client *texttospeech.Client
}

// New creates a Google TTS synthesizer. Requires GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context) (*Synthesizer, error) {
	c, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Synthesizer{client: c}, nil
}

// Synthesize renders text as MP3 with a neutral voice in the hinted locale.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voiceHint string) ([]byte, error) {
	if voiceHint == "" {
		voiceHint = "en-IN"
	}
	resp, err := s.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: voiceHint,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_NEUTRAL,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	})
	if err != nil {
		return nil, &tts.SynthesisError{Err: err}
	}
	return resp.AudioContent, nil
}

// Close releases the underlying client.
func (s *Synthesizer) Close() error {
	return s.client.Close()
}
