package llm

import (
	"context"
	"errors"
	"testing"
)

func TestTokenBudgetExhaustion(t *testing.T) {
	b := NewTokenBudget(100)

	if err := b.Check(); err != nil {
		t.Fatalf("fresh budget: %v", err)
	}

	b.Charge(60)
	if err := b.Check(); err != nil {
		t.Fatalf("under budget: %v", err)
	}

	b.Charge(50)
	if err := b.Check(); !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("over budget: err = %v, want ErrBudgetExhausted", err)
	}
	if b.Used() != 110 {
		t.Fatalf("used = %d, want 110", b.Used())
	}
}

func TestTokenBudgetZeroLimitMeansUnlimited(t *testing.T) {
	b := NewTokenBudget(0)
	b.Charge(1 << 30)
	if err := b.Check(); err != nil {
		t.Fatalf("unlimited budget blocked: %v", err)
	}
}

func TestTokenBudgetDailyRollover(t *testing.T) {
	b := NewTokenBudget(100)
	b.Charge(100)
	if err := b.Check(); err == nil {
		t.Fatal("expected exhaustion")
	}

	// Simulate the UTC day flipping.
	b.mu.Lock()
	b.day = "1999-01-01"
	b.mu.Unlock()

	if err := b.Check(); err != nil {
		t.Fatalf("after rollover: %v", err)
	}
	if b.Used() != 0 {
		t.Fatalf("used = %d after rollover, want 0", b.Used())
	}
}

func TestBudgetProviderChargesEvenOnError(t *testing.T) {
	b := NewTokenBudget(1000)
	inner := &scriptedProvider{}
	p := &BudgetProvider{Inner: inner, Budget: b}

	if _, err := p.Complete(context.Background(), Request{Prompt: "x"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if b.Used() != 10 {
		t.Fatalf("used = %d, want 10", b.Used())
	}
}

func TestBudgetProviderFailsFastWhenSpent(t *testing.T) {
	b := NewTokenBudget(5)
	b.Charge(5)
	inner := &scriptedProvider{}
	p := &BudgetProvider{Inner: inner, Budget: b}

	_, err := p.Complete(context.Background(), Request{Prompt: "x"})
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("err = %v", err)
	}
	if inner.calls != 0 {
		t.Fatalf("inner called %d times, want 0", inner.calls)
	}
}
