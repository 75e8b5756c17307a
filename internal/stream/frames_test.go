package stream

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDecodeFrame_Start(t *testing.T) {
	raw := `{"event":"start","start":{"callSid":"CA123","from":"+15550100"}}`

	f, err := DecodeFrame([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if f.Event != EventStart {
		t.Errorf("event = %q, want %q", f.Event, EventStart)
	}
	if f.Start.CallSid != "CA123" || f.Start.From != "+15550100" {
		t.Errorf("unexpected start payload %+v", f.Start)
	}
}

func TestDecodeFrame_MediaAudio(t *testing.T) {
	audio := []byte{0x01, 0x02, 0xff, 0x00}
	raw := `{"event":"media","media":{"payload":"` + base64.StdEncoding.EncodeToString(audio) + `"}}`

	f, err := DecodeFrame([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	got, err := f.Media.DecodeAudio()
	if err != nil {
		t.Fatalf("DecodeAudio: %v", err)
	}
	if string(got) != string(audio) {
		t.Errorf("decoded audio = %v, want %v", got, audio)
	}
}

func TestDecodeFrame_Malformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{"event":`},
		{"missing event", `{"start":{"callSid":"CA1"}}`},
		{"start without payload", `{"event":"start"}`},
		{"media without payload", `{"event":"media"}`},
		{"stop without payload", `{"event":"stop"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeFrame([]byte(tc.raw))
			if !errors.Is(err, ErrProtocol) {
				t.Errorf("DecodeFrame(%q) err = %v, want ErrProtocol", tc.raw, err)
			}
		})
	}
}

func TestDecodeFrame_UnknownEventPasses(t *testing.T) {
	// Unknown events are handed to the adapter, which logs and skips them.
	f, err := DecodeFrame([]byte(`{"event":"mark"}`))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if f.Event != "mark" {
		t.Errorf("event = %q, want mark", f.Event)
	}
}

func TestDecodeAudio_BadBase64(t *testing.T) {
	m := MediaPayload{Payload: "not-base64!!!"}
	if _, err := m.DecodeAudio(); !errors.Is(err, ErrProtocol) {
		t.Errorf("err = %v, want ErrProtocol", err)
	}
}

func TestBotReply_AudioURLNullWhenTextOnly(t *testing.T) {
	data, err := json.Marshal(NewBotReply("Hello there", ""))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"audio_url":null`) {
		t.Errorf("text-only reply must carry a null audio_url, got %s", data)
	}

	data, err = json.Marshal(NewBotReply("Hello", "http://host/audio/tts_CA1_1.mp3"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"audio_url":"http://host/audio/tts_CA1_1.mp3"`) {
		t.Errorf("voiced reply must carry the audio url, got %s", data)
	}
}

func TestEndCall_Encoding(t *testing.T) {
	data, err := json.Marshal(NewEndCall("silence_timeout"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"event":"end_call","reason":"silence_timeout"}`
	if string(data) != want {
		t.Errorf("encoded = %s, want %s", data, want)
	}
}
