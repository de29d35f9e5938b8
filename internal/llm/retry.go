package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"
)

// RetryProvider retries transient failures with exponential backoff and
// jitter before delegating to the wrapped provider.
type RetryProvider struct {
	Inner      Provider
	MaxRetries int           // additional attempts after the first failure
	BaseDelay  time.Duration // delay before the first retry, doubled each time
}

func (p *RetryProvider) Complete(ctx context.Context, req Request) (Completion, error) {
	c, err := p.Inner.Complete(ctx, req)
	if err == nil {
		return c, nil
	}

	if !isRetryable(err) {
		return Completion{}, err
	}

	lastErr := err
	for attempt := 1; attempt <= p.MaxRetries; attempt++ {
		delay := p.backoffDelay(attempt, lastErr)

		log.Printf("level=warn msg=\"llm retry\" attempt=%d max_retries=%d delay=%s err=%q",
			attempt, p.MaxRetries, delay, lastErr)

		select {
		case <-ctx.Done():
			return Completion{}, fmt.Errorf("llm retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		c, err = p.Inner.Complete(ctx, req)
		if err == nil {
			return c, nil
		}
		if !isRetryable(err) {
			return Completion{}, err
		}
		lastErr = err
	}

	return Completion{}, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// A Retry-After duration from a 429 takes precedence.
func (p *RetryProvider) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}

// isRetryable reports whether the error is a transient failure worth
// retrying. Budget exhaustion and cancellation are final.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrBudgetExhausted) || errors.Is(err, ErrNoProvider) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == 429 {
			return true
		}
		if httpErr.StatusCode >= 500 {
			return true
		}
		return false
	}

	// Non-HTTP errors (network, DNS, etc.) are retryable.
	return true
}
