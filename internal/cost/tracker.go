package cost

import (
	"sync"

	"go.uber.org/zap"
)

// Totals is a snapshot of tracked usage.
type Totals struct {
	MessageCalls  int
	InputTokens   int64
	OutputTokens  int64
	SearchQueries int
	USD           float64
}

// Fields returns log fields describing t.
func (t Totals) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("message_calls", t.MessageCalls),
		zap.Int64("input_tokens", t.InputTokens),
		zap.Int64("output_tokens", t.OutputTokens),
		zap.Int("search_queries", t.SearchQueries),
		zap.Float64("estimated_cost_usd", t.USD),
	}
}

// Tracker accumulates usage across concurrent producers. A nil Tracker
// records nothing.
type Tracker struct {
	calc *Calculator

	mu     sync.Mutex
	totals Totals
}

// NewTracker creates a Tracker pricing usage with calc.
func NewTracker(calc *Calculator) *Tracker {
	return &Tracker{calc: calc}
}

// Message records one message call and returns its cost.
func (t *Tracker) Message(model string, input, output, cacheWrite, cacheRead int64) float64 {
	if t == nil {
		return 0
	}
	usd := t.calc.Claude(model, input, output, cacheWrite, cacheRead)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.totals.MessageCalls++
	t.totals.InputTokens += input + cacheWrite + cacheRead
	t.totals.OutputTokens += output
	t.totals.USD += usd
	return usd
}

// Search records one news search and returns its cost.
func (t *Tracker) Search() float64 {
	if t == nil {
		return 0
	}
	usd := t.calc.SearchQuery()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.totals.SearchQueries++
	t.totals.USD += usd
	return usd
}

// Totals returns the usage recorded so far.
func (t *Tracker) Totals() Totals {
	if t == nil {
		return Totals{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totals
}
