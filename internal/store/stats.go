package store

import (
	"context"
	"fmt"
)

// Stats aggregates the event log for the stats command.
type Stats struct {
	Generations  int64
	Duplicates   int64
	Augmented    int64
	Mismatches   int64
	LLMRequests  int64
	LLMFailures  int64
	InputTokens  int64
	OutputTokens int64
}

// Stats computes aggregate counts across the event tables.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(duplicate), 0),
		COALESCE(SUM(augmented), 0),
		COALESCE(SUM(mismatch), 0)
		FROM generation_events`)
	if err := row.Scan(&st.Generations, &st.Duplicates, &st.Augmented, &st.Mismatches); err != nil {
		return Stats{}, fmt.Errorf("generation stats: %w", err)
	}

	row = s.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(input_tokens), 0),
		COALESCE(SUM(output_tokens), 0)
		FROM llm_requests`)
	if err := row.Scan(&st.LLMRequests, &st.LLMFailures, &st.InputTokens, &st.OutputTokens); err != nil {
		return Stats{}, fmt.Errorf("llm stats: %w", err)
	}
	return st, nil
}
