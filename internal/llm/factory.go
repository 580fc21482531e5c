package llm

import (
	"context"
	"fmt"

	"github.com/Roand-7/Lokaah-sub001/internal/store"
)

// NewProvider builds the configured provider wrapped with logging and
// retry middleware: caller → retry → logging → base.
func NewProvider(ctx context.Context, cfg Config, log store.EventLog) (Provider, error) {
	if log == nil {
		log = store.NopLog{}
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithRetry(WithLogging(base, log), cfg.Retry), nil
}

// NewProviderFromEnv builds a provider from PRASHNA_* configuration,
// falling back to probing the standard API key env vars.
func NewProviderFromEnv(ctx context.Context, log store.EventLog) (Provider, error) {
	cfg := ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		discovered, ok := DiscoverConfig()
		if !ok {
			return nil, err
		}
		cfg = discovered
	}
	return NewProvider(ctx, cfg, log)
}
