// Package turn runs one conversational turn for a live call: recognize
// the chunk, advance the capture flow, generate and optionally voice the
// reply. All session mutation happens here; the stream adapter only
// reacts to the returned Outcome.
package turn

import (
	"context"
	"strings"
	"time"

	"ai-voice-call-service/internal/audiofiles"
	"ai-voice-call-service/internal/intent"
	"ai-voice-call-service/internal/observability/logging"
	"ai-voice-call-service/internal/observability/metrics"
	"ai-voice-call-service/internal/reply"
	"ai-voice-call-service/internal/session"
	"ai-voice-call-service/internal/stt"
	"ai-voice-call-service/internal/tts"
)

// Outcome is the complete, side-effect-free description of what the
// adapter must do after a turn: speak ReplyText, optionally play
// AudioURL, optionally end the call with Reason.
type Outcome struct {
	ReplyText string
	AudioURL  string
	Terminate bool
	Reason    session.TerminationReason
}

// historyWindow bounds how many transcript lines feed the generator.
const historyWindow = 10

// Config holds turn processing knobs.
type Config struct {
	SampleRateHz int
	LanguageCode string
	VoiceHint    string

	// RetryCeiling is the consecutive-silent-turn count that forces a
	// SilenceTimeout termination.
	RetryCeiling int

	// RepromptOnSilence, when set, answers a sub-ceiling silent turn
	// with RepromptText instead of staying quiet.
	RepromptOnSilence bool
	RepromptText      string

	// GoodbyeText is spoken when the customer asks to end the call.
	GoodbyeText string

	RecognizeTimeout  time.Duration
	GenerateTimeout   time.Duration
	SynthesizeTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.SampleRateHz == 0 {
		c.SampleRateHz = 8000
	}
	if c.LanguageCode == "" {
		c.LanguageCode = "en-IN"
	}
	if c.VoiceHint == "" {
		c.VoiceHint = c.LanguageCode
	}
	if c.RetryCeiling == 0 {
		c.RetryCeiling = 3
	}
	if c.RepromptText == "" {
		c.RepromptText = "Sorry, I didn't catch that. Could you say it again?"
	}
	if c.GoodbyeText == "" {
		c.GoodbyeText = "Alright, thank you for your time. Goodbye!"
	}
	if c.RecognizeTimeout == 0 {
		c.RecognizeTimeout = 15 * time.Second
	}
	if c.GenerateTimeout == 0 {
		c.GenerateTimeout = 15 * time.Second
	}
	if c.SynthesizeTimeout == 0 {
		c.SynthesizeTimeout = 10 * time.Second
	}
	return c
}

// Processor orchestrates the recognize-reply-synthesize cycle.
// synthesizer and audio may be nil; replies then degrade to text-only.
type Processor struct {
	recognizer  stt.Recognizer
	generator   reply.Generator
	synthesizer tts.Synthesizer
	audio       *audiofiles.Store
	intents     *intent.Classifier
	cfg         Config
	metrics     *metrics.Metrics
}

// NewProcessor creates a turn processor.
func NewProcessor(
	recognizer stt.Recognizer,
	generator reply.Generator,
	synthesizer tts.Synthesizer,
	audio *audiofiles.Store,
	intents *intent.Classifier,
	cfg Config,
) *Processor {
	if intents == nil {
		intents = intent.New(nil)
	}
	return &Processor{
		recognizer:  recognizer,
		generator:   generator,
		synthesizer: synthesizer,
		audio:       audio,
		intents:     intents,
		cfg:         cfg.withDefaults(),
		metrics:     metrics.DefaultMetrics,
	}
}

// ProcessTurn runs one turn for the session. The session's turn lock
// is held for the whole cycle, so a session never has two turns in
// flight even when two transports feed it; invocations for different
// sessions are independent.
func (p *Processor) ProcessTurn(ctx context.Context, s *session.CallSession, chunk []byte) Outcome {
	s.BeginTurn()
	defer s.EndTurn()

	start := time.Now()
	outcome := p.process(ctx, s, chunk)
	p.metrics.RecordTurn(outcomeLabel(outcome), time.Since(start).Seconds())
	return outcome
}

func (p *Processor) process(ctx context.Context, s *session.CallSession, chunk []byte) Outcome {
	logger := logging.WithTurn(s.ID(), s.Stage().String())

	text := p.recognize(ctx, s, chunk)

	if text == "" {
		// Recognition failure and genuine silence are indistinguishable
		// here; the distinction lives in logs and metrics only.
		retries := s.IncrementRetry()
		if retries >= p.cfg.RetryCeiling {
			logger.Info().Int("retries", retries).Msg("Silence ceiling reached, ending call")
			return Outcome{Terminate: true, Reason: session.ReasonSilenceTimeout}
		}
		logger.Debug().Int("retries", retries).Msg("Silent turn below ceiling")
		if p.cfg.RepromptOnSilence {
			out := Outcome{ReplyText: p.cfg.RepromptText}
			out.AudioURL = p.synthesize(ctx, s, out.ReplyText)
			return out
		}
		return Outcome{}
	}

	s.AppendTranscript(session.SpeakerCustomer, text)
	s.ResetRetry()
	wantsHangup := p.intents.WantsHangup(text)
	if !wantsHangup {
		// A hangup phrase is not an answer; it must never be captured
		// as the current stage's field value.
		if err := s.AdvanceStage(text); err != nil {
			logger.Warn().Err(err).Msg("Stage advance rejected")
		}
	}

	var replyText string
	switch {
	case wantsHangup:
		replyText = p.cfg.GoodbyeText
	default:
		replyText = p.generate(ctx, s, text)
	}
	s.AppendTranscript(session.SpeakerBot, replyText)

	out := Outcome{ReplyText: replyText}
	switch {
	case wantsHangup:
		out.Terminate = true
		out.Reason = session.ReasonCallerHangup
	case s.Stage() == session.StageComplete:
		out.Terminate = true
		out.Reason = session.ReasonFlowComplete
	}

	out.AudioURL = p.synthesize(ctx, s, replyText)
	return out
}

// recognize transcribes the chunk, degrading any failure to "".
func (p *Processor) recognize(ctx context.Context, s *session.CallSession, chunk []byte) string {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.RecognizeTimeout)
	defer cancel()

	text, err := p.recognizer.Recognize(ctx, chunk, p.cfg.SampleRateHz, p.cfg.LanguageCode)
	if err != nil {
		logger := logging.WithCall(s.ID(), s.PhoneNumber())
		logger.Warn().Err(err).Msg("Recognition failed, treating as silence")
		p.metrics.RecordRecognitionError(p.recognizer.Provider())
		return ""
	}
	return strings.TrimSpace(text)
}

// generate asks the generator for a reply, degrading failure to the
// fixed fallback text.
func (p *Processor) generate(ctx context.Context, s *session.CallSession, utterance string) string {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.GenerateTimeout)
	defer cancel()

	text, err := p.generator.Generate(ctx, reply.Context{
		SystemPrompt:  reply.DefaultSystemPrompt,
		Stage:         s.Stage().String(),
		History:       recentHistory(s),
		LastUtterance: utterance,
	})
	if err != nil {
		logger := logging.WithCall(s.ID(), s.PhoneNumber())
		logger.Warn().Err(err).Msg("Reply generation failed, using fallback")
		p.metrics.RecordGenerationError()
		return reply.FallbackText
	}
	return text
}

// synthesize voices the reply, degrading failure to text-only ("").
func (p *Processor) synthesize(ctx context.Context, s *session.CallSession, text string) string {
	if p.synthesizer == nil || p.audio == nil || text == "" {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.SynthesizeTimeout)
	defer cancel()

	logger := logging.WithCall(s.ID(), s.PhoneNumber())
	audio, err := p.synthesizer.Synthesize(ctx, text, p.cfg.VoiceHint)
	if err != nil {
		logger.Warn().Err(err).Msg("Synthesis failed, reply degrades to text-only")
		p.metrics.RecordSynthesisError()
		return ""
	}
	fname, err := p.audio.Save(s.ID(), audio)
	if err != nil {
		logger.Warn().Err(err).Msg("Audio save failed, reply degrades to text-only")
		p.metrics.RecordSynthesisError()
		return ""
	}
	return p.audio.URL(fname)
}

// SpeakGreeting voices the configured opening greeting for a new call.
// It performs no recognition and touches no retry or stage state.
func (p *Processor) SpeakGreeting(ctx context.Context, s *session.CallSession, greeting string) Outcome {
	if greeting == "" {
		return Outcome{}
	}
	s.BeginTurn()
	defer s.EndTurn()
	s.AppendTranscript(session.SpeakerBot, greeting)
	return Outcome{
		ReplyText: greeting,
		AudioURL:  p.synthesize(ctx, s, greeting),
	}
}

func recentHistory(s *session.CallSession) []string {
	entries := s.Transcript()
	if len(entries) > historyWindow {
		entries = entries[len(entries)-historyWindow:]
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, string(e.Speaker)+": "+e.Text)
	}
	return lines
}

func outcomeLabel(o Outcome) string {
	switch {
	case o.Terminate:
		return "terminate_" + o.Reason.String()
	case o.ReplyText == "":
		return "silent"
	default:
		return "reply"
	}
}
