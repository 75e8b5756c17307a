package httpapi

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ai-voice-call-service/internal/audiofiles"
	"ai-voice-call-service/internal/intent"
	replystatic "ai-voice-call-service/internal/reply/static"
	"ai-voice-call-service/internal/session"
	"ai-voice-call-service/internal/stream"
	sttstatic "ai-voice-call-service/internal/stt/static"
	"ai-voice-call-service/internal/turn"
)

func newRouter(t *testing.T, audio *audiofiles.Store, baseURL string) http.Handler {
	t.Helper()
	processor := turn.NewProcessor(
		sttstatic.New(nil), replystatic.New(), nil, audio, intent.New(nil), turn.Config{})
	adapter := stream.NewAdapter(
		session.NewRegistry(), processor, session.NewFinalizer(nil, nil, 0), audio, stream.Config{})
	return NewRouter(adapter, audio, baseURL)
}

func TestHealthEndpoints(t *testing.T) {
	router := newRouter(t, nil, "http://localhost:5000")

	for path, want := range map[string]string{
		"/v1/liveness":  "ok",
		"/v1/readiness": "ready",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d", path, rec.Code)
		}
		if got := rec.Body.String(); got != want {
			t.Errorf("GET %s body = %q, want %q", path, got, want)
		}
	}
}

func TestServeAudio(t *testing.T) {
	store, err := audiofiles.New(t.TempDir(), "http://localhost:5000")
	if err != nil {
		t.Fatalf("audiofiles.New: %v", err)
	}
	fname, err := store.Save("CA1", []byte("mp3-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	router := newRouter(t, store, "http://localhost:5000")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audio/"+fname, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "mp3-bytes" {
		t.Errorf("body = %q", body)
	}
}

func TestServeAudio_Missing(t *testing.T) {
	store, err := audiofiles.New(t.TempDir(), "http://localhost:5000")
	if err != nil {
		t.Fatalf("audiofiles.New: %v", err)
	}
	router := newRouter(t, store, "http://localhost:5000")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audio/tts_CA9_1.mp3", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServeAudio_NilStore(t *testing.T) {
	router := newRouter(t, nil, "http://localhost:5000")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audio/anything.mp3", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServeTwiML(t *testing.T) {
	router := newRouter(t, nil, "https://voicebot.example.com/")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/twiml/start_media", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `<Stream url="wss://voicebot.example.com/twilio/media"/>`) {
		t.Errorf("TwiML must point at the wss media endpoint, got:\n%s", body)
	}
	if !strings.Contains(body, "<Response>") {
		t.Errorf("missing Response element:\n%s", body)
	}
}

func TestRootStatus(t *testing.T) {
	router := newRouter(t, nil, "http://localhost:5000")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `"status": "ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}
