package llm

import (
	"context"
	"sync"
	"time"
)

// TokenBudget caps total token usage per UTC day. Usage is charged from the
// API's reported usage after each call; the check happens before the call so
// an exhausted budget fails fast without burning a request.
//
// The counter is mutex-guarded: the worker parses resumes concurrently and
// the counter must stay consistent across goroutines.
type TokenBudget struct {
	mu    sync.Mutex
	limit int64
	day   string // UTC date of the current window, "2006-01-02"
	used  int64
}

func NewTokenBudget(dailyLimit int64) *TokenBudget {
	return &TokenBudget{limit: dailyLimit}
}

func (b *TokenBudget) rollover(now time.Time) {
	d := now.UTC().Format("2006-01-02")
	if d != b.day {
		b.day = d
		b.used = 0
	}
}

// Check returns ErrBudgetExhausted once the day's budget is spent.
// A limit of 0 disables the cap.
func (b *TokenBudget) Check() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover(time.Now())
	if b.limit > 0 && b.used >= b.limit {
		return ErrBudgetExhausted
	}
	return nil
}

func (b *TokenBudget) Charge(tokens int64) {
	if tokens <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover(time.Now())
	b.used += tokens
}

// Used reports tokens consumed in the current window.
func (b *TokenBudget) Used() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover(time.Now())
	return b.used
}

func (b *TokenBudget) Limit() int64 { return b.limit }

// BudgetProvider enforces a TokenBudget around an inner provider.
type BudgetProvider struct {
	Inner  Provider
	Budget *TokenBudget
}

func (p *BudgetProvider) Complete(ctx context.Context, req Request) (Completion, error) {
	if err := p.Budget.Check(); err != nil {
		return Completion{}, err
	}
	c, err := p.Inner.Complete(ctx, req)
	p.Budget.Charge(c.Tokens)
	return c, err
}
