// Package httpapi constructs the public HTTP surface: the media
// websocket, synthesized-audio serving, and the TwiML bootstrap snippet.
package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ai-voice-call-service/internal/audiofiles"
	"ai-voice-call-service/internal/stream"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(adapter *stream.Adapter, audio *audiofiles.Store, publicBaseURL string) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// Carrier opens the media stream websocket here.
	r.Get("/twilio/media", adapter.HandleMedia)

	// Synthesized reply audio, fetched by opaque filename.
	r.Get("/audio/{fname}", serveAudio(audio))

	// TwiML snippet pointing the carrier at the websocket URL.
	r.Post("/twiml/start_media", serveTwiML(publicBaseURL))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status": "ok", "help": "POST /twiml/start_media for a TwiML snippet"}`))
	})

	return r
}

func serveAudio(audio *audiofiles.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if audio == nil {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		path, err := audio.Path(chi.URLParam(r, "fname"))
		if err != nil {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		http.ServeFile(w, r, path)
	}
}

func serveTwiML(publicBaseURL string) http.HandlerFunc {
	wss := strings.TrimRight(publicBaseURL, "/")
	wss = strings.Replace(wss, "https://", "wss://", 1)
	wss = strings.Replace(wss, "http://", "ws://", 1)
	twiml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Start>
    <Stream url="%s/twilio/media"/>
  </Start>
  <Say>Connecting you to the automated assistant. Please wait.</Say>
  <Pause length="60"/>
  <Say>Goodbye.</Say>
</Response>
`, wss)

	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(twiml))
	}
}
