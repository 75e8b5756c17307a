package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ai-voice-call-service/internal/session"
)

func TestNotify_LogOnlyModeSucceeds(t *testing.T) {
	// Disabled Kafka must never make finalization fail.
	for _, cfg := range []*Config{
		nil,
		{Enabled: false, Topic: "interaction.call.ended"},
		{Enabled: true, Brokers: nil, Topic: "interaction.call.ended"},
	} {
		n := New(cfg)
		err := n.NotifyCallEnded(context.Background(), session.CallSummary{
			CallSid:     "CA1",
			PhoneNumber: "+15550100",
			Reason:      session.ReasonFlowComplete,
		})
		if err != nil {
			t.Errorf("cfg %+v: NotifyCallEnded = %v, want nil", cfg, err)
		}
		if err := n.Close(); err != nil {
			t.Errorf("cfg %+v: Close = %v, want nil", cfg, err)
		}
	}
}

func TestCallEnded_Encoding(t *testing.T) {
	started := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	ended := started.Add(90 * time.Second)

	summary := session.CallSummary{
		CallSid:     "CA42",
		PhoneNumber: "+15550100",
		Stage:       session.StageComplete,
		Reason:      session.ReasonFlowComplete,
		Fields: []session.Field{
			{Name: "name", Value: "Asha Verma"},
			{Name: "consent", Value: "yes"},
		},
		Transcript: []session.TranscriptEntry{
			{Speaker: session.SpeakerBot, Text: "Hello", Seq: 1},
			{Speaker: session.SpeakerCustomer, Text: "Hi", Seq: 2},
		},
		StartedAt: started,
		EndedAt:   ended,
	}

	fields := make(map[string]string, len(summary.Fields))
	for _, f := range summary.Fields {
		fields[f.Name] = f.Value
	}
	ev := CallEnded{
		EventType:   "call.ended",
		CallSid:     summary.CallSid,
		PhoneNumber: summary.PhoneNumber,
		Reason:      summary.Reason.String(),
		Stage:       summary.Stage.String(),
		Fields:      fields,
		Transcript:  summary.TranscriptText(),
		StartedAt:   summary.StartedAt.UnixMilli(),
		EndedAt:     summary.EndedAt.UnixMilli(),
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["eventType"] != "call.ended" {
		t.Errorf("eventType = %v", got["eventType"])
	}
	if got["reason"] != "flow_complete" {
		t.Errorf("reason = %v", got["reason"])
	}
	if got["transcript"] != "Bot: Hello\nCustomer: Hi" {
		t.Errorf("transcript = %q", got["transcript"])
	}
	if got["startedAt"] != float64(started.UnixMilli()) {
		t.Errorf("startedAt = %v", got["startedAt"])
	}
	f, _ := got["fields"].(map[string]any)
	if f["name"] != "Asha Verma" || f["consent"] != "yes" {
		t.Errorf("fields = %v", f)
	}
}
