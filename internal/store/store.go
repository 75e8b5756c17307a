// Package store persists finalized call summaries as lead rows.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"ai-voice-call-service/internal/session"
)

// LeadStore is the interface consumed at finalization. The concrete
// implementation is *Postgres (pgx-backed); Nop serves disabled runs.
type LeadStore interface {
	PersistSummary(ctx context.Context, summary session.CallSummary) error
	Close()
}

const leadsSchema = `
CREATE TABLE IF NOT EXISTS voicebot_leads (
	lead_id            TEXT NOT NULL,
	phone_e164         TEXT NOT NULL DEFAULT '',
	name               TEXT NOT NULL DEFAULT '',
	plan_details       TEXT NOT NULL DEFAULT '',
	callback_time      TEXT NOT NULL DEFAULT '',
	consent            TEXT NOT NULL DEFAULT '',
	transcript         TEXT NOT NULL DEFAULT '',
	termination_reason TEXT NOT NULL DEFAULT '',
	final_stage        TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL,
	last_contacted     TIMESTAMPTZ NOT NULL
)`

// Postgres persists summaries to the voicebot_leads table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects, pings, and ensures the leads table exists.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, leadsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure leads schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// PersistSummary inserts one lead row for the finalized call. One attempt
// per finalize; the caller decides what to do with the error.
func (p *Postgres) PersistSummary(ctx context.Context, summary session.CallSummary) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO voicebot_leads (
			lead_id, phone_e164, name, plan_details, callback_time, consent,
			transcript, termination_reason, final_stage, created_at, last_contacted
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		summary.CallSid,
		summary.PhoneNumber,
		summary.FieldValue("name"),
		summary.FieldValue("plan_details"),
		summary.FieldValue("callback_time"),
		summary.FieldValue("consent"),
		summary.TranscriptText(),
		summary.Reason.String(),
		summary.Stage.String(),
		summary.StartedAt,
		summary.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead %s: %w", summary.CallSid, err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Nop is a LeadStore that only logs. Used when no database is configured.
type Nop struct{}

// PersistSummary logs the summary and succeeds.
func (Nop) PersistSummary(ctx context.Context, summary session.CallSummary) error {
	log.Info().
		Str("callSid", summary.CallSid).
		Str("reason", summary.Reason.String()).
		Int("transcriptEntries", len(summary.Transcript)).
		Msg("Lead store disabled, summary not persisted")
	return nil
}

// Close is a no-op.
func (Nop) Close() {}
