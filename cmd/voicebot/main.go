package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ai-voice-call-service/internal/app"
	"ai-voice-call-service/internal/audiofiles"
	"ai-voice-call-service/internal/config"
	"ai-voice-call-service/internal/events"
	"ai-voice-call-service/internal/httpapi"
	"ai-voice-call-service/internal/intent"
	"ai-voice-call-service/internal/observability"
	"ai-voice-call-service/internal/reply"
	replygemini "ai-voice-call-service/internal/reply/gemini"
	replystatic "ai-voice-call-service/internal/reply/static"
	"ai-voice-call-service/internal/session"
	"ai-voice-call-service/internal/store"
	"ai-voice-call-service/internal/stream"
	"ai-voice-call-service/internal/stt"
	sttgoogle "ai-voice-call-service/internal/stt/google"
	sttstatic "ai-voice-call-service/internal/stt/static"
	"ai-voice-call-service/internal/tts"
	ttsgoogle "ai-voice-call-service/internal/tts/google"
	"ai-voice-call-service/internal/turn"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg := config.Load()
	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	logger := application.Logger

	ctx := context.Background()

	// Collaborators.
	recognizer := buildRecognizer(ctx, cfg)
	generator := buildGenerator(ctx, cfg)
	synthesizer := buildSynthesizer(ctx, cfg)

	audio, err := audiofiles.New(cfg.Service.AudioDir, cfg.Service.PublicBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Audio file store init failed")
	}

	leadStore := buildStore(ctx, cfg)
	defer leadStore.Close()

	notifier := events.New(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.Topic,
		Principal: cfg.Kafka.Principal,
	})
	defer notifier.Close()

	// Core engine.
	registry := session.NewRegistry()
	finalizer := session.NewFinalizer(leadStore, notifier, cfg.Turn.FinalizeTimeout)
	processor := turn.NewProcessor(
		recognizer,
		generator,
		synthesizer,
		audio,
		intent.New(cfg.Turn.TerminationPhrases),
		turn.Config{
			SampleRateHz:      cfg.Audio.SampleRateHz,
			LanguageCode:      cfg.STT.LanguageCode,
			VoiceHint:         cfg.TTS.VoiceHint,
			RetryCeiling:      cfg.Turn.RetryCeiling,
			RepromptOnSilence: cfg.Turn.RepromptOnSilence,
			RepromptText:      cfg.Turn.RepromptText,
			GoodbyeText:       cfg.Turn.GoodbyeText,
			RecognizeTimeout:  cfg.Turn.RecognizeTimeout,
			GenerateTimeout:   cfg.Turn.GenerateTimeout,
			SynthesizeTimeout: cfg.Turn.SynthesizeTimeout,
		},
	)
	adapter := stream.NewAdapter(registry, processor, finalizer, audio, stream.Config{
		ChunkBytes: cfg.Audio.ChunkBytes(),
		QueueCap:   cfg.Audio.QueueCap,
		Greeting:   cfg.Turn.Greeting,
	})

	// Observability server (/metrics, /healthz, /readyz).
	obs := observability.NewServer(":"+cfg.Service.ObservabilityPort, registry)
	obs.Start()

	// Public HTTP server.
	server := &http.Server{
		Addr:        ":" + cfg.Service.HTTPPort,
		Handler:     httpapi.NewRouter(adapter, audio, cfg.Service.PublicBaseURL),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("Voice call service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP shutdown error")
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Observability shutdown error")
	}

	// Best-effort finalization of any session still live.
	registry.Each(func(s *session.CallSession) {
		finalizer.Finalize(shutdownCtx, s, session.ReasonCallerHangup)
		registry.Remove(s.ID())
	})

	application.Shutdown()
}

func buildRecognizer(ctx context.Context, cfg *config.Configuration) stt.Recognizer {
	switch cfg.STT.Provider {
	case "google":
		r, err := sttgoogle.New(ctx)
		if err != nil {
			log.Fatalf("google recognizer init failed: %v", err)
		}
		return r
	default:
		return sttstatic.New(nil)
	}
}

func buildGenerator(ctx context.Context, cfg *config.Configuration) reply.Generator {
	switch cfg.Reply.Provider {
	case "gemini":
		g, err := replygemini.New(ctx, cfg.Reply.APIKey, cfg.Reply.Model)
		if err != nil {
			log.Fatalf("gemini generator init failed: %v", err)
		}
		return g
	default:
		return replystatic.New()
	}
}

func buildSynthesizer(ctx context.Context, cfg *config.Configuration) tts.Synthesizer {
	switch cfg.TTS.Provider {
	case "google":
		s, err := ttsgoogle.New(ctx)
		if err != nil {
			log.Fatalf("google synthesizer init failed: %v", err)
		}
		return s
	default:
		// Replies degrade to text-only.
		return nil
	}
}

func buildStore(ctx context.Context, cfg *config.Configuration) store.LeadStore {
	if !cfg.Postgres.Enabled || cfg.Postgres.DSN == "" {
		return store.Nop{}
	}
	s, err := store.NewPostgres(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("postgres store init failed: %v", err)
	}
	return s
}
