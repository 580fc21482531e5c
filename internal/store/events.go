package store

import (
	"context"
	"database/sql"
	"fmt"
)

// LLMRequestEvent records one round trip to a generative provider.
type LLMRequestEvent struct {
	Provider     string
	Model        string
	Purpose      string
	LatencyMs    int64
	Success      bool
	InputTokens  int
	OutputTokens int
	ErrorMessage string
}

// GenerationEvent records one question-generation request outcome.
type GenerationEvent struct {
	SessionID   string
	PatternID   string
	Fingerprint string
	Duplicate   bool // diversity budget exhausted, duplicate accepted
	Augmented   bool // narrative envelope attached
	Mismatch    bool // augmenter answer overridden
}

// MismatchEvent records an augmenter response whose final answer
// disagreed with the deterministic solver.
type MismatchEvent struct {
	PatternID string
	Expected  string
	Got       string
}

// EventLog is the append-side interface the pipeline records through.
// Logging failures must never fail the request being logged; callers
// treat a returned error as a warning.
type EventLog interface {
	RecordLLMRequest(ctx context.Context, ev LLMRequestEvent) error
	RecordGeneration(ctx context.Context, ev GenerationEvent) error
	RecordMismatch(ctx context.Context, ev MismatchEvent) error
}

// EventLog returns the store-backed event log.
func (s *Store) EventLog() EventLog { return &sqlLog{db: s.db} }

type sqlLog struct {
	db *sql.DB
}

func (l *sqlLog) RecordLLMRequest(ctx context.Context, ev LLMRequestEvent) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO llm_requests (provider, model, purpose, latency_ms, success, input_tokens, output_tokens, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Provider, ev.Model, ev.Purpose, ev.LatencyMs, ev.Success, ev.InputTokens, ev.OutputTokens, ev.ErrorMessage)
	if err != nil {
		return fmt.Errorf("record llm request: %w", err)
	}
	return nil
}

func (l *sqlLog) RecordGeneration(ctx context.Context, ev GenerationEvent) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO generation_events (session_id, pattern_id, fingerprint, duplicate, augmented, mismatch)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.SessionID, ev.PatternID, ev.Fingerprint, ev.Duplicate, ev.Augmented, ev.Mismatch)
	if err != nil {
		return fmt.Errorf("record generation: %w", err)
	}
	return nil
}

func (l *sqlLog) RecordMismatch(ctx context.Context, ev MismatchEvent) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO augmenter_mismatches (pattern_id, expected, got)
		 VALUES (?, ?, ?)`,
		ev.PatternID, ev.Expected, ev.Got)
	if err != nil {
		return fmt.Errorf("record mismatch: %w", err)
	}
	return nil
}

// NopLog discards every event. Used when no database is configured.
type NopLog struct{}

func (NopLog) RecordLLMRequest(context.Context, LLMRequestEvent) error { return nil }
func (NopLog) RecordGeneration(context.Context, GenerationEvent) error { return nil }
func (NopLog) RecordMismatch(context.Context, MismatchEvent) error     { return nil }
