package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Roand-7/Lokaah-sub001/internal/store"
)

// loggingProvider decorates a Provider so every request lands in the
// event log with latency, token usage and outcome.
type loggingProvider struct {
	inner Provider
	log   store.EventLog
}

// WithLogging wraps a Provider with event logging.
func WithLogging(p Provider, log store.EventLog) Provider {
	return &loggingProvider{inner: p, log: log}
}

func (l *loggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	ev := store.LLMRequestEvent{
		Provider:  l.inner.ModelID(),
		Model:     l.inner.ModelID(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if resp != nil {
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.Model = resp.Model
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	// A logging failure must not fail the request.
	if logErr := l.log.RecordLLMRequest(ctx, ev); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log LLM request: %v\n", logErr)
	}

	return resp, err
}

func (l *loggingProvider) ModelID() string { return l.inner.ModelID() }
