// Package session owns the state record of a single live telephone call:
// the staged capture flow, the transcript, retry accounting, and the
// lifecycle rules that guarantee a call is finalized exactly once.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Stage is the current position in the scripted data-capture flow.
type Stage int

const (
	// StageGreeting - opening of the call, nothing captured yet.
	StageGreeting Stage = iota
	// StageCaptureName - waiting for the customer's name.
	StageCaptureName
	// StageCapturePhone - waiting for a callback phone number.
	StageCapturePhone
	// StageCapturePlan - waiting for the plan requirement.
	StageCapturePlan
	// StageCaptureSchedule - waiting for a preferred callback time.
	StageCaptureSchedule
	// StageCaptureConsent - waiting for consent to store and share details.
	StageCaptureConsent
	// StageComplete - all fields captured, flow is done.
	StageComplete
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	switch s {
	case StageGreeting:
		return "GREETING"
	case StageCaptureName:
		return "CAPTURE_NAME"
	case StageCapturePhone:
		return "CAPTURE_PHONE"
	case StageCapturePlan:
		return "CAPTURE_PLAN"
	case StageCaptureSchedule:
		return "CAPTURE_SCHEDULE"
	case StageCaptureConsent:
		return "CAPTURE_CONSENT"
	case StageComplete:
		return "COMPLETE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Field returns the name of the collected field this stage captures,
// or "" for stages that capture nothing (greeting, complete).
func (s Stage) Field() string {
	switch s {
	case StageCaptureName:
		return "name"
	case StageCapturePhone:
		return "phone"
	case StageCapturePlan:
		return "plan_details"
	case StageCaptureSchedule:
		return "callback_time"
	case StageCaptureConsent:
		return "consent"
	default:
		return ""
	}
}

// next returns the stage that follows s. StageComplete is terminal.
func (s Stage) next() Stage {
	if s >= StageComplete {
		return StageComplete
	}
	return s + 1
}

// TerminationReason records why a call ended. Set exactly once per session.
type TerminationReason int

const (
	// ReasonNone - the call has not terminated.
	ReasonNone TerminationReason = iota
	// ReasonCallerHangup - the remote party hung up or asked to end the call.
	ReasonCallerHangup
	// ReasonSilenceTimeout - too many consecutive silent turns.
	ReasonSilenceTimeout
	// ReasonFlowComplete - the capture flow reached its terminal stage.
	ReasonFlowComplete
)

// String returns the wire representation used in end_call frames and
// persisted summaries.
func (r TerminationReason) String() string {
	switch r {
	case ReasonCallerHangup:
		return "caller_hangup"
	case ReasonSilenceTimeout:
		return "silence_timeout"
	case ReasonFlowComplete:
		return "flow_complete"
	default:
		return "none"
	}
}

// State is the lifecycle state of a call session.
type State int

const (
	// StateCreated - session exists but no media processed yet.
	StateCreated State = iota
	// StateActive - session is processing media.
	StateActive
	// StateFinalizing - one caller won the race to finalize; persistence
	// and notification are in progress.
	StateFinalizing
	// StateFinalized - terminal. A session is finalized at most once.
	StateFinalized
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateActive:
		return "ACTIVE"
	case StateFinalizing:
		return "FINALIZING"
	case StateFinalized:
		return "FINALIZED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Speaker identifies who produced a transcript entry.
type Speaker string

const (
	SpeakerCustomer Speaker = "Customer"
	SpeakerBot      Speaker = "Bot"
)

// TranscriptEntry is one line of the call transcript. Sequence numbers
// are strictly increasing per session and never reused.
type TranscriptEntry struct {
	Speaker Speaker
	Text    string
	Seq     uint64
}

// Field is one captured value, in capture order.
type Field struct {
	Name  string
	Value string
}

// Errors for invalid session operations.
var (
	ErrSessionFinalized = errors.New("session is finalized")
	ErrFlowComplete     = errors.New("capture flow already complete")
)

// CallSession is the stateful record of one live call. All methods are
// safe for concurrent use. Turn processing additionally holds turnMu
// via BeginTurn/EndTurn: stage advancement and retry counting are not
// commutative, so a session never has two turns in flight even when
// two transports present the same call id.
type CallSession struct {
	mu sync.Mutex

	// turnMu serializes the recognize-reply-synthesize cycle. Held for
	// the whole turn, so it must never be acquired while holding mu.
	turnMu sync.Mutex

	id          string
	phoneNumber string
	startedAt   time.Time

	stage      Stage
	fieldOrder []string
	fields     map[string]string

	transcript []TranscriptEntry
	nextSeq    uint64

	retryCount int

	reason TerminationReason
	state  State
}

// New creates a session in CREATED state for the given call id.
func New(id, phoneNumber string) *CallSession {
	return &CallSession{
		id:          id,
		phoneNumber: phoneNumber,
		startedAt:   time.Now().UTC(),
		stage:       StageGreeting,
		fields:      make(map[string]string),
		state:       StateCreated,
	}
}

// BeginTurn blocks until no other turn is in flight for this session.
// Every BeginTurn must be paired with EndTurn.
func (c *CallSession) BeginTurn() { c.turnMu.Lock() }

// EndTurn releases the turn lock taken by BeginTurn.
func (c *CallSession) EndTurn() { c.turnMu.Unlock() }

// ID returns the call identifier.
func (c *CallSession) ID() string { return c.id }

// PhoneNumber returns the origin number seeded at start.
func (c *CallSession) PhoneNumber() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phoneNumber
}

// StartedAt returns the session creation time.
func (c *CallSession) StartedAt() time.Time { return c.startedAt }

// Stage returns the current capture stage.
func (c *CallSession) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// State returns the current lifecycle state.
func (c *CallSession) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RetryCount returns the current consecutive-silent-turn count.
func (c *CallSession) RetryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryCount
}

// Reason returns the termination reason, or ReasonNone before finalization.
func (c *CallSession) Reason() TerminationReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Activate marks the session ACTIVE on first media. No-op once
// finalization has begun.
func (c *CallSession) Activate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCreated {
		c.state = StateActive
	}
}

// AppendTranscript appends an entry for the given speaker and returns it.
// Entries are never reordered or deleted; sequence numbers are strictly
// increasing.
func (c *CallSession) AppendTranscript(speaker Speaker, text string) TranscriptEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSeq++
	e := TranscriptEntry{Speaker: speaker, Text: text, Seq: c.nextSeq}
	c.transcript = append(c.transcript, e)
	return e
}

// Transcript returns a copy of the transcript in arrival order.
func (c *CallSession) Transcript() []TranscriptEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]TranscriptEntry, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// IncrementRetry records a silent turn and returns the new count.
func (c *CallSession) IncrementRetry() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retryCount++
	return c.retryCount
}

// ResetRetry clears the silent-turn count after any non-empty turn.
func (c *CallSession) ResetRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retryCount = 0
}

// AdvanceStage writes the captured value for the current stage (if the
// stage captures a field) and moves to the next stage. A field written
// by an earlier stage is never overwritten. Returns ErrFlowComplete if
// the flow is already at its terminal stage.
func (c *CallSession) AdvanceStage(captured string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateFinalized {
		return ErrSessionFinalized
	}
	if c.stage == StageComplete {
		return ErrFlowComplete
	}
	if name := c.stage.Field(); name != "" {
		if _, exists := c.fields[name]; !exists {
			c.fields[name] = captured
			c.fieldOrder = append(c.fieldOrder, name)
		}
	}
	c.stage = c.stage.next()
	return nil
}

// Fields returns the captured fields in capture order.
func (c *CallSession) Fields() []Field {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Field, 0, len(c.fieldOrder))
	for _, name := range c.fieldOrder {
		out = append(out, Field{Name: name, Value: c.fields[name]})
	}
	return out
}

// BeginFinalize attempts to win the finalization race. It returns true
// for exactly one caller per session; that caller must follow up with
// CompleteFinalize after persistence and notification. The termination
// reason is set once, by the winner.
func (c *CallSession) BeginFinalize(reason TerminationReason) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateFinalizing || c.state == StateFinalized {
		return false
	}
	c.state = StateFinalizing
	c.reason = reason
	return true
}

// CompleteFinalize moves the session to its terminal state. Idempotent.
func (c *CallSession) CompleteFinalize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateFinalized
}

// Summary snapshots the session for persistence and notification.
func (c *CallSession) Summary() CallSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	fields := make([]Field, 0, len(c.fieldOrder))
	for _, name := range c.fieldOrder {
		fields = append(fields, Field{Name: name, Value: c.fields[name]})
	}
	transcript := make([]TranscriptEntry, len(c.transcript))
	copy(transcript, c.transcript)
	return CallSummary{
		CallSid:     c.id,
		PhoneNumber: c.phoneNumber,
		Stage:       c.stage,
		Fields:      fields,
		Transcript:  transcript,
		Reason:      c.reason,
		StartedAt:   c.startedAt,
		EndedAt:     time.Now().UTC(),
	}
}

// CallSummary is the immutable snapshot handed to the storage and
// notification collaborators at finalization.
type CallSummary struct {
	CallSid     string
	PhoneNumber string
	Stage       Stage
	Fields      []Field
	Transcript  []TranscriptEntry
	Reason      TerminationReason
	StartedAt   time.Time
	EndedAt     time.Time
}

// FieldValue returns the captured value for name, or "".
func (s CallSummary) FieldValue(name string) string {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// TranscriptText renders the transcript as "Speaker: text" lines.
func (s CallSummary) TranscriptText() string {
	var b []byte
	for i, e := range s.Transcript {
		if i > 0 {
			b = append(b, '\n')
		}
		b = append(b, string(e.Speaker)...)
		b = append(b, ": "...)
		b = append(b, e.Text...)
	}
	return string(b)
}
