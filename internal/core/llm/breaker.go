package llm

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrCircuitBreakerOpen is returned while the provider is being rested.
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// breaker stops calling the provider for a cool-down period after
// threshold failures in a row.
type breaker struct {
	threshold int
	cooldown  time.Duration
	logger    *zerolog.Logger

	mu        sync.Mutex
	failures  int
	openUntil time.Time
}

func newBreaker(threshold int, cooldown time.Duration, logger *zerolog.Logger) *breaker {
	return &breaker{threshold: threshold, cooldown: cooldown, logger: logger}
}

func (b *breaker) allow(now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Before(b.openUntil) {
		return fmt.Errorf("%w for %s", ErrCircuitBreakerOpen, b.openUntil.Sub(now).Round(time.Second))
	}

	return nil
}

// record counts err against the threshold. A nil err resets the count.
func (b *breaker) record(err error, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0

		return
	}

	b.failures++
	if b.failures < b.threshold {
		return
	}

	b.openUntil = now.Add(b.cooldown)
	b.logger.Warn().Int("failures", b.failures).Time("open_until", b.openUntil).Msg("Classifier paused after repeated failures")
}
