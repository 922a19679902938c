package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	cb := newCircuitBreaker(2, time.Minute)
	cb.now = func() time.Time { return now }

	if cb.RecordFailure() {
		t.Fatal("one failure should not open the breaker")
	}
	cb.RecordSuccess()
	if cb.RecordFailure() {
		t.Fatal("a success should reset the failure streak")
	}
	if !cb.RecordFailure() {
		t.Fatal("expected the second consecutive failure to open the breaker")
	}
	if cb.CanProceed() {
		t.Fatal("open breaker should block calls")
	}

	now = now.Add(2 * time.Minute)
	if !cb.CanProceed() {
		t.Fatal("expected a trial call after the reset timeout")
	}
	if !cb.RecordFailure() {
		t.Error("a failed trial should re-open the breaker")
	}
}

type countingSuggester struct {
	calls int
	err   error
}

func (c *countingSuggester) Suggest(context.Context, string, int) ([]Suggestion, error) {
	c.calls++
	return nil, c.err
}

func TestFallbackSuggester_BypassesFailingIndex(t *testing.T) {
	primary := &countingSuggester{err: errors.New("meilisearch down")}
	secondary := stubSuggester{out: []Suggestion{{Type: SuggestionCity, Value: "Dallas"}}}
	f := NewFallbackSuggester(primary, secondary, zap.NewNop())

	for i := 0; i < 5; i++ {
		got, err := f.Suggest(context.Background(), "dal", 5)
		if err != nil || len(got) != 1 {
			t.Fatalf("call %d: expected fallback result, got %+v, %v", i, got, err)
		}
	}
	if primary.calls != 3 {
		t.Errorf("expected the index to be bypassed after 3 failures, got %d calls", primary.calls)
	}
}
