package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned while a breaker is rejecting calls.
var ErrCircuitOpen = eris.New("resilience: circuit open")

// Breaker stops calling a producer after threshold consecutive failures.
// Once the cooldown has passed it admits a single trial call; concurrent
// callers are rejected until it finishes. A successful trial closes
// the breaker and a failed one restarts the cooldown.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	failures int
	openedAt time.Time
	open     bool
	trialing bool
}

// NewBreaker creates a breaker. Non-positive values default to 5 failures
// and a 30s cooldown.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{name: name, threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Call runs fn unless the breaker is open. A nil breaker always calls fn.
func Call[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	if b == nil {
		return fn(ctx)
	}
	var zero T
	if !b.allow() {
		return zero, eris.Wrap(ErrCircuitOpen, b.name)
	}
	val, err := fn(ctx)
	b.record(err)
	return val, err
}

// Open reports whether a call made now would be rejected.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open && (b.trialing || b.now().Sub(b.openedAt) < b.cooldown)
}

// allow admits the call when closed, or claims the half-open trial slot.
func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return true
	}
	if b.trialing || b.now().Sub(b.openedAt) < b.cooldown {
		return false
	}
	b.trialing = true
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trialing = false

	if err == nil {
		if b.open {
			zap.L().Info("resilience: circuit closed", zap.String("producer", b.name))
		}
		b.failures = 0
		b.open = false
		return
	}

	b.failures++
	if b.open || b.failures >= b.threshold {
		if !b.open {
			zap.L().Warn("resilience: circuit opened",
				zap.String("producer", b.name),
				zap.Int("failures", b.failures),
			)
		}
		b.open = true
		b.openedAt = b.now()
	}
}
