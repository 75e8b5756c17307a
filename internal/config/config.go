// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Configuration holds all service configuration, grouped by concern.
type Configuration struct {
	Service       ServiceConfig
	Audio         AudioConfig
	Turn          TurnConfig
	STT           STTConfig
	Reply         ReplyConfig
	TTS           TTSConfig
	Kafka         KafkaConfig
	Postgres      PostgresConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds process-level settings.
type ServiceConfig struct {
	Principal         string
	HTTPPort          string
	ObservabilityPort string
	PublicBaseURL     string
	AudioDir          string
}

// AudioConfig describes the inbound audio format and chunking.
type AudioConfig struct {
	SampleRateHz  int
	BitDepth      int
	ChunkDuration time.Duration
	QueueCap      int
}

// ChunkBytes derives the chunk threshold from the audio format.
// 8kHz 16-bit mono at 1.5s yields 24000 bytes.
func (a AudioConfig) ChunkBytes() int {
	bytesPerSecond := a.SampleRateHz * a.BitDepth / 8
	return int(float64(bytesPerSecond) * a.ChunkDuration.Seconds())
}

// TurnConfig holds turn-taking behavior.
type TurnConfig struct {
	RetryCeiling       int
	RepromptOnSilence  bool
	RepromptText       string
	Greeting           string
	GoodbyeText        string
	TerminationPhrases []string
	RecognizeTimeout   time.Duration
	GenerateTimeout    time.Duration
	SynthesizeTimeout  time.Duration
	FinalizeTimeout    time.Duration
}

// STTConfig selects and parameterizes the recognizer.
type STTConfig struct {
	Provider     string // google, static
	LanguageCode string
}

// ReplyConfig selects and parameterizes the reply generator.
type ReplyConfig struct {
	Provider string // gemini, static
	Model    string
	APIKey   string
}

// TTSConfig selects and parameterizes the synthesizer.
type TTSConfig struct {
	Provider  string // google, none
	VoiceHint string
}

// KafkaConfig parameterizes the call.ended notifier.
type KafkaConfig struct {
	Enabled   bool
	Brokers   []string
	Topic     string
	Principal string
}

// PostgresConfig parameterizes the lead store.
type PostgresConfig struct {
	Enabled bool
	DSN     string
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, applying defaults.
func Load() *Configuration {
	return &Configuration{
		Service: ServiceConfig{
			Principal:         envOrDefault("SERVICE_PRINCIPAL", "svc-voice-call"),
			HTTPPort:          envOrDefault("HTTP_PORT", "5000"),
			ObservabilityPort: envOrDefault("OBSERVABILITY_PORT", "9090"),
			PublicBaseURL:     envOrDefault("PUBLIC_URL", "http://localhost:5000"),
			AudioDir:          envOrDefault("AUDIO_DIR", "/tmp/voicebot_tts"),
		},
		Audio: AudioConfig{
			SampleRateHz:  envInt("AUDIO_SAMPLE_RATE_HZ", 8000),
			BitDepth:      envInt("AUDIO_BIT_DEPTH", 16),
			ChunkDuration: envDuration("AUDIO_CHUNK_DURATION", 1500*time.Millisecond),
			QueueCap:      envInt("AUDIO_QUEUE_CAP", 2),
		},
		Turn: TurnConfig{
			RetryCeiling:       envInt("TURN_RETRY_CEILING", 3),
			RepromptOnSilence:  envBool("TURN_REPROMPT_ON_SILENCE", false),
			RepromptText:       envOrDefault("TURN_REPROMPT_TEXT", "Sorry, I didn't catch that. Could you say it again?"),
			Greeting:           envOrDefault("CALL_OPENING_GREETING", ""),
			GoodbyeText:        envOrDefault("TURN_GOODBYE_TEXT", "Alright, thank you for your time. Goodbye!"),
			TerminationPhrases: envList("TURN_TERMINATION_PHRASES", nil),
			RecognizeTimeout:   envDuration("TURN_RECOGNIZE_TIMEOUT", 15*time.Second),
			GenerateTimeout:    envDuration("TURN_GENERATE_TIMEOUT", 15*time.Second),
			SynthesizeTimeout:  envDuration("TURN_SYNTHESIZE_TIMEOUT", 10*time.Second),
			FinalizeTimeout:    envDuration("FINALIZE_TIMEOUT", 10*time.Second),
		},
		STT: STTConfig{
			Provider:     envOrDefault("STT_PROVIDER", "static"),
			LanguageCode: envOrDefault("STT_LANGUAGE_CODE", "en-IN"),
		},
		Reply: ReplyConfig{
			Provider: envOrDefault("REPLY_PROVIDER", "static"),
			Model:    envOrDefault("REPLY_MODEL", "gemini-2.0-flash"),
			APIKey:   os.Getenv("GEMINI_API_KEY"),
		},
		TTS: TTSConfig{
			Provider:  envOrDefault("TTS_PROVIDER", "none"),
			VoiceHint: envOrDefault("TTS_VOICE_HINT", "en-IN"),
		},
		Kafka: KafkaConfig{
			Enabled:   envBool("KAFKA_ENABLED", false),
			Brokers:   envList("KAFKA_BROKERS", nil),
			Topic:     envOrDefault("KAFKA_TOPIC_CALL_ENDED", "interaction.call.ended"),
			Principal: envOrDefault("SERVICE_PRINCIPAL", "svc-voice-call"),
		},
		Postgres: PostgresConfig{
			Enabled: envBool("POSTGRES_ENABLED", false),
			DSN:     os.Getenv("POSTGRES_DSN"),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
