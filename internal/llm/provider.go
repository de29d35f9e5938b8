package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoProvider means no API key is configured yet.
	ErrNoProvider = errors.New("llm provider not configured")

	// ErrBudgetExhausted means the daily token budget is spent.
	ErrBudgetExhausted = errors.New("daily token budget exhausted")
)

// Request is one structured-extraction call. Schema is enforced server-side
// via structured outputs, so the returned text is guaranteed-valid JSON.
type Request struct {
	System     string
	Prompt     string
	SchemaName string
	Schema     map[string]any
	MaxTokens  int
}

// Completion carries the raw JSON text plus total token usage for budgeting.
type Completion struct {
	Text   string
	Tokens int64
}

type Provider interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// HTTPError is an API-level failure. RetryAfter is populated from a 429
// Retry-After header when present.
type HTTPError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("llm returned HTTP %d: %s", e.StatusCode, e.Body)
}

// NopProvider is wired when no API key exists; every call fails fast so rows
// land in failed state instead of hanging the worker.
type NopProvider struct{}

func (NopProvider) Complete(ctx context.Context, req Request) (Completion, error) {
	return Completion{}, ErrNoProvider
}
