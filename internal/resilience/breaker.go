// Package resilience wraps outbound gateway calls with a circuit breaker
// and bounded retry so a failing settlement gateway cannot stall payment
// issuance.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker short-circuits a call without
// attempting it. Callers map it to their operation's fallback.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

type BreakerConfig struct {
	// WindowSize is the number of recent call outcomes considered.
	WindowSize int
	// FailureThreshold is the failure rate over a full window that trips
	// the breaker, in [0,1].
	FailureThreshold float64
	// Cooldown is how long the breaker stays open before admitting trials.
	Cooldown time.Duration
	// HalfOpenMax is the number of trial calls admitted while half-open.
	HalfOpenMax int
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		WindowSize:       10,
		FailureThreshold: 0.5,
		Cooldown:         45 * time.Second,
		HalfOpenMax:      2,
	}
}

// Breaker is a sliding window circuit breaker. One instance is scoped to a
// single gateway operation type and passed explicitly to its callers; the
// clock is injectable so cooldown behavior is testable.
type Breaker struct {
	mu  sync.Mutex
	cfg BreakerConfig
	now func() time.Time

	state    breakerState
	window   []bool // true = failure
	idx      int
	filled   int
	openedAt time.Time

	trialsInFlight int
	trialFailed    bool
	trialsDone     int
}

func NewBreaker(cfg BreakerConfig, now func() time.Time) *Breaker {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 10
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 0.5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 45 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 2
	}
	if now == nil {
		now = time.Now
	}
	return &Breaker{
		cfg:    cfg,
		now:    now,
		window: make([]bool, cfg.WindowSize),
	}
}

// Allow reports whether a call may proceed. While open it short-circuits
// with ErrCircuitOpen until the cooldown elapses, then admits a limited
// number of half-open trial calls.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		return nil
	case stateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return ErrCircuitOpen
		}
		b.state = stateHalfOpen
		b.trialsInFlight = 0
		b.trialFailed = false
		b.trialsDone = 0
		fallthrough
	case stateHalfOpen:
		if b.trialsInFlight+b.trialsDone >= b.cfg.HalfOpenMax {
			return ErrCircuitOpen
		}
		b.trialsInFlight++
		return nil
	}
	return nil
}

// Record feeds one call outcome back into the breaker. The window update
// and any trip decision happen under one lock so concurrent callers observe
// them consistently.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateHalfOpen:
		b.trialsInFlight--
		b.trialsDone++
		if !success {
			b.trialFailed = true
		}
		if b.trialFailed {
			b.trip()
			return
		}
		if b.trialsDone >= b.cfg.HalfOpenMax {
			b.reset()
		}
	case stateClosed:
		b.window[b.idx] = !success
		b.idx = (b.idx + 1) % b.cfg.WindowSize
		if b.filled < b.cfg.WindowSize {
			b.filled++
		}
		if b.filled == b.cfg.WindowSize && b.failureRate() >= b.cfg.FailureThreshold {
			b.trip()
		}
	case stateOpen:
		// A call admitted before the trip finished late; ignore it.
	}
}

// Forget discards a call admitted by Allow whose outcome says nothing about
// gateway health, such as caller-side cancellation. It releases a half-open
// trial slot without counting the trial.
func (b *Breaker) Forget() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == stateHalfOpen && b.trialsInFlight > 0 {
		b.trialsInFlight--
	}
}

func (b *Breaker) failureRate() float64 {
	failures := 0
	for _, failed := range b.window[:b.filled] {
		if failed {
			failures++
		}
	}
	return float64(failures) / float64(b.filled)
}

func (b *Breaker) trip() {
	b.state = stateOpen
	b.openedAt = b.now()
	for i := range b.window {
		b.window[i] = false
	}
	b.idx = 0
	b.filled = 0
}

func (b *Breaker) reset() {
	b.state = stateClosed
	for i := range b.window {
		b.window[i] = false
	}
	b.idx = 0
	b.filled = 0
}
