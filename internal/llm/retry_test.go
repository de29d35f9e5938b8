package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

// scriptedProvider returns its errs in order, then succeeds.
type scriptedProvider struct {
	errs  []error
	calls int
}

func (p *scriptedProvider) Complete(ctx context.Context, req Request) (Completion, error) {
	p.calls++
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		return Completion{}, err
	}
	return Completion{Text: "ok", Tokens: 10}, nil
}

func TestRetryProviderRecovers(t *testing.T) {
	inner := &scriptedProvider{errs: []error{
		&HTTPError{StatusCode: 500},
		&HTTPError{StatusCode: 503},
	}}
	p := &RetryProvider{Inner: inner, MaxRetries: 3, BaseDelay: time.Millisecond}

	c, err := p.Complete(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if c.Text != "ok" {
		t.Fatalf("text = %q", c.Text)
	}
	if inner.calls != 3 {
		t.Fatalf("calls = %d, want 3", inner.calls)
	}
}

func TestRetryProviderGivesUp(t *testing.T) {
	inner := &scriptedProvider{errs: []error{
		&HTTPError{StatusCode: 500},
		&HTTPError{StatusCode: 500},
		&HTTPError{StatusCode: 500},
	}}
	p := &RetryProvider{Inner: inner, MaxRetries: 2, BaseDelay: time.Millisecond}

	_, err := p.Complete(context.Background(), Request{Prompt: "x"})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 500 {
		t.Fatalf("err = %v, want final HTTP 500", err)
	}
	if inner.calls != 3 {
		t.Fatalf("calls = %d, want 1 + 2 retries", inner.calls)
	}
}

func TestRetryProviderStopsOnClientError(t *testing.T) {
	inner := &scriptedProvider{errs: []error{&HTTPError{StatusCode: 400}}}
	p := &RetryProvider{Inner: inner, MaxRetries: 5, BaseDelay: time.Millisecond}

	if _, err := p.Complete(context.Background(), Request{Prompt: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Fatalf("calls = %d, want 1 (400 is not retryable)", inner.calls)
	}
}

func TestRetryProviderStopsOnBudget(t *testing.T) {
	inner := &scriptedProvider{errs: []error{ErrBudgetExhausted}}
	p := &RetryProvider{Inner: inner, MaxRetries: 5, BaseDelay: time.Millisecond}

	_, err := p.Complete(context.Background(), Request{Prompt: "x"})
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("err = %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("calls = %d, want 1", inner.calls)
	}
}

func TestBackoffDelayRetryAfterWins(t *testing.T) {
	p := &RetryProvider{BaseDelay: time.Second}
	err := &HTTPError{StatusCode: 429, RetryAfter: 9 * time.Second}
	if d := p.backoffDelay(1, err); d != 9*time.Second {
		t.Fatalf("delay = %s, want Retry-After 9s", d)
	}
}

func TestBackoffDelayGrows(t *testing.T) {
	p := &RetryProvider{BaseDelay: time.Second}
	err := &HTTPError{StatusCode: 500}

	// ±30% jitter around 1s, 2s, 4s.
	for attempt, base := range map[int]time.Duration{1: time.Second, 2: 2 * time.Second, 3: 4 * time.Second} {
		d := p.backoffDelay(attempt, err)
		lo := time.Duration(float64(base) * 0.69)
		hi := time.Duration(float64(base) * 1.31)
		if d < lo || d > hi {
			t.Errorf("attempt %d: delay %s outside [%s, %s]", attempt, d, lo, hi)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{context.DeadlineExceeded, false},
		{ErrBudgetExhausted, false},
		{ErrNoProvider, false},
		{&HTTPError{StatusCode: 429}, true},
		{&HTTPError{StatusCode: 500}, true},
		{&HTTPError{StatusCode: 503}, true},
		{&HTTPError{StatusCode: 400}, false},
		{&HTTPError{StatusCode: 401}, false},
		{errors.New("dial tcp: connection refused"), true},
	}
	for _, c := range cases {
		if got := isRetryable(c.err); got != c.want {
			t.Errorf("isRetryable(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}
