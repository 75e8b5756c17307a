// Package google provides a Google Cloud Speech-to-Text recognizer.
package google

import (
	"context"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"ai-voice-call-service/internal/stt"
)

// Recognizer implements stt.Recognizer using the synchronous Recognize
// API. Chunks are short (about 1.5s), so the one-shot call keeps latency
// acceptable without holding a streaming session per call.
type Recognizer struct {
	client *speech.Client
}

// New creates a Google recognizer. Requires GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context) (*Recognizer, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Recognizer{client: c}, nil
}

// Provider returns "google".
func (r *Recognizer) Provider() string { return "google" }

// Recognize transcribes one LINEAR16 chunk. Multiple results are joined
// in order; a silent chunk yields "".
func (r *Recognizer) Recognize(ctx context.Context, audio []byte, sampleRateHz int, languageCode string) (string, error) {
	resp, err := r.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            int32(sampleRateHz),
			LanguageCode:               languageCode,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", &stt.RecognitionError{Provider: r.Provider(), Err: err}
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		parts = append(parts, result.Alternatives[0].Transcript)
	}
	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

// Close releases the underlying client.
func (r *Recognizer) Close() error {
	return r.client.Close()
}
