package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ai-voice-call-service/internal/audiofiles"
	"ai-voice-call-service/internal/chunker"
	"ai-voice-call-service/internal/observability/logging"
	"ai-voice-call-service/internal/observability/metrics"
	"ai-voice-call-service/internal/session"
	"ai-voice-call-service/internal/turn"
)

const writeTimeout = 10 * time.Second

// Config holds stream adapter knobs.
type Config struct {
	// ChunkBytes is the audio chunk threshold handed to the chunker.
	ChunkBytes int

	// QueueCap bounds queued-but-unprocessed chunks per session. Beyond
	// the cap the oldest queued chunk is discarded: a call that talks
	// faster than the system replies degrades transcript fidelity, not
	// memory safety.
	QueueCap int

	// Greeting, when set, is spoken right after the start frame.
	Greeting string
}

func (c Config) withDefaults() Config {
	if c.ChunkBytes <= 0 {
		c.ChunkBytes = chunker.DefaultChunkBytes
	}
	if c.QueueCap <= 0 {
		c.QueueCap = 2
	}
	return c
}

// Adapter is the per-connection driver over the framed protocol. One
// connection carries one call; frames for that call are processed in
// arrival order, and turns run on a single worker per connection so a
// session never has two turns in flight.
type Adapter struct {
	registry  *session.Registry
	turns     *turn.Processor
	finalizer *session.Finalizer
	audio     *audiofiles.Store // may be nil
	cfg       Config
	metrics   *metrics.Metrics
	upgrader  websocket.Upgrader
}

// NewAdapter creates the stream adapter.
func NewAdapter(
	registry *session.Registry,
	turns *turn.Processor,
	finalizer *session.Finalizer,
	audio *audiofiles.Store,
	cfg Config,
) *Adapter {
	return &Adapter{
		registry:  registry,
		turns:     turns,
		finalizer: finalizer,
		audio:     audio,
		cfg:       cfg.withDefaults(),
		metrics:   metrics.DefaultMetrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The carrier connects from its own infrastructure.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleMedia upgrades the HTTP request and serves the media stream.
func (a *Adapter) HandleMedia(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger := logging.WithComponent("stream")
		logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	a.serve(conn)
}

// callState is the per-connection view of one live call.
type callState struct {
	sess    *session.CallSession
	chunks  *chunker.Chunker
	queue   chan []byte
	done    chan struct{}
	started time.Time
}

func (a *Adapter) serve(conn *websocket.Conn) {
	logger := logging.WithComponent("stream")
	logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("WebSocket client connected")

	// Closing the transport cancels in-flight collaborator calls.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		cs      *callState
		writeMu sync.Mutex
	)

	defer func() {
		cancel()
		conn.Close()
		if cs == nil {
			return
		}
		// Disconnect without a stop frame still finalizes, and the
		// session never leaks from the registry.
		a.finalizer.Finalize(ctx, cs.sess, session.ReasonCallerHangup)
		close(cs.queue)
		select {
		case <-cs.done:
		case <-time.After(30 * time.Second):
			logger.Warn().Str("callSid", cs.sess.ID()).Msg("Turn worker did not drain in time")
		}
		a.teardown(cs)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if cs != nil {
				callLogger := logging.WithCall(cs.sess.ID(), cs.sess.PhoneNumber())
				callLogger.Info().Err(err).Msg("WebSocket disconnected")
			} else {
				logger.Info().Err(err).Msg("WebSocket disconnected before start")
			}
			return
		}

		frame, err := DecodeFrame(data)
		if err != nil {
			// Malformed frame: discard, keep the connection open.
			logger.Warn().Err(err).Msg("Discarding malformed frame")
			a.metrics.RecordProtocolError()
			continue
		}
		a.metrics.RecordFrame(frame.Event)

		switch frame.Event {
		case EventStart:
			cs = a.handleStart(ctx, cs, frame.Start, conn, &writeMu)

		case EventMedia:
			if cs == nil {
				logger.Warn().Msg("Media frame for unknown session, ignoring")
				a.metrics.RecordUnknownSession()
				continue
			}
			a.handleMediaFrame(cs, frame.Media, logger)

		case EventStop:
			if cs == nil {
				logger.Warn().Str("callSid", frame.Stop.CallSid).
					Msg("Stop frame for unknown session, ignoring")
				a.metrics.RecordUnknownSession()
				continue
			}
			reason := session.ReasonCallerHangup
			if cs.sess.Stage() == session.StageComplete {
				reason = session.ReasonFlowComplete
			}
			callLogger := logging.WithCall(cs.sess.ID(), cs.sess.PhoneNumber())
			callLogger.Info().Str("reason", reason.String()).Msg("Stream stopped")
			a.finalizer.Finalize(ctx, cs.sess, reason)
			return

		default:
			logger.Debug().Str("event", frame.Event).Msg("Unhandled event")
		}
	}
}

// handleStart creates or re-joins the session for a start frame. A
// second start for the same call id is a no-op returning the existing
// session.
func (a *Adapter) handleStart(ctx context.Context, cs *callState, start *StartPayload, conn *websocket.Conn, writeMu *sync.Mutex) *callState {
	if cs != nil {
		logger := logging.WithCall(cs.sess.ID(), cs.sess.PhoneNumber())
		logger.Debug().Msg("Duplicate start frame, ignoring")
		return cs
	}

	callSid := start.CallSid
	if callSid == "" {
		callSid = uuid.NewString()
	}

	sess, created := a.registry.GetOrCreate(callSid, start.From)
	logger := logging.WithCall(callSid, start.From)
	if created {
		a.metrics.RecordCallStarted()
		logger.Info().Msg("Stream start")
	} else {
		logger.Debug().Msg("Start frame re-joined existing session")
	}

	cs = &callState{
		sess:    sess,
		chunks:  chunker.New(a.cfg.ChunkBytes),
		queue:   make(chan []byte, a.cfg.QueueCap),
		done:    make(chan struct{}),
		started: time.Now(),
	}
	go a.turnWorker(ctx, cs, conn, writeMu)

	if created && a.cfg.Greeting != "" {
		outcome := a.turns.SpeakGreeting(ctx, sess, a.cfg.Greeting)
		if outcome.ReplyText != "" {
			a.send(conn, writeMu, NewBotReply(outcome.ReplyText, outcome.AudioURL))
		}
	}
	return cs
}

// handleMediaFrame decodes the payload, feeds the chunker, and queues
// any chunks that became ready.
func (a *Adapter) handleMediaFrame(cs *callState, media *MediaPayload, logger zerolog.Logger) {
	cs.sess.Activate()
	if media.Payload == "" {
		return
	}
	audio, err := media.DecodeAudio()
	if err != nil {
		logger.Warn().Err(err).Msg("Discarding malformed media payload")
		a.metrics.RecordProtocolError()
		return
	}
	a.metrics.RecordAudioReceived(len(audio))

	for _, chunk := range cs.chunks.Feed(audio) {
		a.enqueue(cs, chunk)
	}
}

// enqueue adds a chunk to the turn queue, discarding the oldest queued
// chunk when the cap is hit.
func (a *Adapter) enqueue(cs *callState, chunk []byte) {
	for {
		select {
		case cs.queue <- chunk:
			a.metrics.RecordChunkEmitted()
			return
		default:
		}
		// Queue is full: block until either a slot frees up or the
		// oldest queued chunk can be taken to make room.
		select {
		case cs.queue <- chunk:
			a.metrics.RecordChunkEmitted()
			return
		case <-cs.queue:
			a.metrics.RecordChunkDropped()
			logger := logging.WithCall(cs.sess.ID(), cs.sess.PhoneNumber())
			logger.Warn().Msg("Chunk queue full, discarding oldest buffered audio")
		}
	}
}

// turnWorker processes queued chunks strictly in order, one at a time.
func (a *Adapter) turnWorker(ctx context.Context, cs *callState, conn *websocket.Conn, writeMu *sync.Mutex) {
	defer close(cs.done)

	for chunk := range cs.queue {
		if ctx.Err() != nil {
			// Transport is gone; discard remaining chunks.
			continue
		}

		outcome := a.turns.ProcessTurn(ctx, cs.sess, chunk)

		if outcome.ReplyText != "" {
			a.send(conn, writeMu, NewBotReply(outcome.ReplyText, outcome.AudioURL))
		}
		if outcome.Terminate {
			a.send(conn, writeMu, NewEndCall(outcome.Reason.String()))
			a.finalizer.Finalize(ctx, cs.sess, outcome.Reason)
			// Unblocks the read loop; its cleanup path removes the session.
			conn.Close()
			return
		}
	}
}

// teardown removes the finalized session so it cannot leak.
func (a *Adapter) teardown(cs *callState) {
	a.registry.Remove(cs.sess.ID())
	if a.audio != nil {
		a.audio.Forget(cs.sess.ID())
	}
	a.metrics.RecordCallDuration(time.Since(cs.started).Seconds())
}

func (a *Adapter) send(conn *websocket.Conn, writeMu *sync.Mutex, v any) {
	writeMu.Lock()
	defer writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(v); err != nil {
		logger := logging.WithComponent("stream")
		logger.Debug().Err(err).Msg("Outbound frame write failed")
	}
}
