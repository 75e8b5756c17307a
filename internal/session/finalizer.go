package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"ai-voice-call-service/internal/observability/metrics"
)

// SummaryStore persists a finalized call summary. One attempt per finalize.
type SummaryStore interface {
	PersistSummary(ctx context.Context, summary CallSummary) error
}

// SummaryNotifier announces a finalized call. Best-effort, one attempt.
type SummaryNotifier interface {
	NotifyCallEnded(ctx context.Context, summary CallSummary) error
}

// Finalizer performs the terminal, idempotent action of persisting and
// notifying about a completed or aborted call. Every trigger path (stop
// frame, silence ceiling, flow completion, transport disconnect) goes
// through Finalize; only the first caller per session does the work.
type Finalizer struct {
	store    SummaryStore
	notifier SummaryNotifier
	timeout  time.Duration
	metrics  *metrics.Metrics
}

// NewFinalizer creates a finalizer. store and notifier may be nil when
// the corresponding collaborator is disabled.
func NewFinalizer(store SummaryStore, notifier SummaryNotifier, timeout time.Duration) *Finalizer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Finalizer{
		store:    store,
		notifier: notifier,
		timeout:  timeout,
		metrics:  metrics.DefaultMetrics,
	}
}

// Finalize persists and notifies about the session exactly once. It
// returns true only for the call that actually performed finalization;
// racing calls are observable no-ops returning false. Storage and
// notification failures are logged, never retried here, and never
// resurrect the session.
func (f *Finalizer) Finalize(ctx context.Context, s *CallSession, reason TerminationReason) bool {
	if s == nil {
		return false
	}
	if !s.BeginFinalize(reason) {
		return false
	}

	summary := s.Summary()
	logger := log.With().
		Str("callSid", summary.CallSid).
		Str("reason", summary.Reason.String()).
		Logger()

	// Teardown must not inherit a cancelled connection context.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	if f.store != nil {
		if err := f.store.PersistSummary(ctx, summary); err != nil {
			logger.Error().Err(err).Msg("Failed to persist call summary")
			f.metrics.RecordPersist(err)
		} else {
			f.metrics.RecordPersist(nil)
		}
	}

	if f.notifier != nil {
		if err := f.notifier.NotifyCallEnded(ctx, summary); err != nil {
			logger.Error().Err(err).Msg("Failed to notify call ended")
		}
	}

	s.CompleteFinalize()
	f.metrics.RecordCallFinalized(summary.Reason.String())
	logger.Info().
		Int("transcriptEntries", len(summary.Transcript)).
		Str("stage", summary.Stage.String()).
		Msg("Call finalized")
	return true
}
