// Package stream drives the framed control and media protocol over a
// persistent websocket connection, dispatching frames to the session
// registry and turn processor.
package stream

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound frame event names.
const (
	EventStart = "start"
	EventMedia = "media"
	EventStop  = "stop"
)

// Outbound frame event names.
const (
	EventBotReply = "bot_reply"
	EventEndCall  = "end_call"
)

// ErrProtocol marks a malformed frame. Such frames are logged and
// discarded; the connection stays open.
var ErrProtocol = errors.New("malformed frame")

// Frame is one inbound protocol message. Exactly one payload is set,
// matching Event.
type Frame struct {
	Event string        `json:"event"`
	Start *StartPayload `json:"start,omitempty"`
	Media *MediaPayload `json:"media,omitempty"`
	Stop  *StopPayload  `json:"stop,omitempty"`
}

// StartPayload opens a call session.
type StartPayload struct {
	CallSid string `json:"callSid"`
	From    string `json:"from"`
}

// MediaPayload carries base64-encoded raw audio.
type MediaPayload struct {
	Payload string `json:"payload"`
}

// StopPayload closes a call session.
type StopPayload struct {
	CallSid string `json:"callSid"`
}

// BotReply is the outbound reply frame. AudioURL is null when synthesis
// degraded to text-only.
type BotReply struct {
	Event    string  `json:"event"`
	Text     string  `json:"text"`
	AudioURL *string `json:"audio_url"`
}

// NewBotReply builds a bot_reply frame; audioURL may be "".
func NewBotReply(text, audioURL string) BotReply {
	r := BotReply{Event: EventBotReply, Text: text}
	if audioURL != "" {
		r.AudioURL = &audioURL
	}
	return r
}

// EndCall is the outbound termination frame.
type EndCall struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

// NewEndCall builds an end_call frame.
func NewEndCall(reason string) EndCall {
	return EndCall{Event: EventEndCall, Reason: reason}
}

// DecodeFrame parses and validates one inbound frame. The payload
// matching the event must be present; other payloads are ignored.
func DecodeFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	switch f.Event {
	case EventStart:
		if f.Start == nil {
			return nil, fmt.Errorf("%w: start frame without start payload", ErrProtocol)
		}
	case EventMedia:
		if f.Media == nil {
			return nil, fmt.Errorf("%w: media frame without media payload", ErrProtocol)
		}
	case EventStop:
		if f.Stop == nil {
			return nil, fmt.Errorf("%w: stop frame without stop payload", ErrProtocol)
		}
	case "":
		return nil, fmt.Errorf("%w: missing event field", ErrProtocol)
	}
	return &f, nil
}

// DecodeAudio decodes the base64 media payload.
func (m *MediaPayload) DecodeAudio() ([]byte, error) {
	audio, err := base64.StdEncoding.DecodeString(m.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: bad media payload: %v", ErrProtocol, err)
	}
	return audio, nil
}
