package router

import (
	"sync"
	"time"

	"github.com/af-corp/nova-gateway/internal/types"
)

// HealthTracker keeps one circuit breaker per upstream provider.
type HealthTracker struct {
	mu       sync.RWMutex
	breakers map[types.Provider]*CircuitBreaker

	failureThreshold      int
	recoveryProbeInterval time.Duration
}

// NewHealthTracker creates a health tracker with the given circuit breaker config.
func NewHealthTracker(failureThreshold int, recoveryProbeInterval time.Duration) *HealthTracker {
	return &HealthTracker{
		breakers:              make(map[types.Provider]*CircuitBreaker),
		failureThreshold:      failureThreshold,
		recoveryProbeInterval: recoveryProbeInterval,
	}
}

// Breaker returns (or lazily creates) the circuit breaker for a provider.
func (ht *HealthTracker) Breaker(provider types.Provider) *CircuitBreaker {
	ht.mu.RLock()
	cb, ok := ht.breakers[provider]
	ht.mu.RUnlock()
	if ok {
		return cb
	}

	ht.mu.Lock()
	defer ht.mu.Unlock()
	if cb, ok := ht.breakers[provider]; ok {
		return cb
	}
	cb = NewCircuitBreaker(ht.failureThreshold, ht.recoveryProbeInterval)
	ht.breakers[provider] = cb
	return cb
}

// IsAvailable reports whether routing may pick the provider. It does not
// claim the half-open probe; call Allow right before dispatching.
func (ht *HealthTracker) IsAvailable(provider types.Provider) bool {
	return ht.Breaker(provider).Available()
}

// Allow claims permission to send one request to the provider.
func (ht *HealthTracker) Allow(provider types.Provider) bool {
	return ht.Breaker(provider).Allow()
}

func (ht *HealthTracker) RecordSuccess(provider types.Provider) {
	ht.Breaker(provider).RecordSuccess()
}

func (ht *HealthTracker) RecordFailure(provider types.Provider) {
	ht.Breaker(provider).RecordFailure()
}

// Reset closes every breaker.
func (ht *HealthTracker) Reset() {
	ht.mu.RLock()
	defer ht.mu.RUnlock()
	for _, cb := range ht.breakers {
		cb.Reset()
	}
}

// Snapshot returns the circuit state of every provider seen so far.
func (ht *HealthTracker) Snapshot() map[types.Provider]CircuitState {
	ht.mu.RLock()
	defer ht.mu.RUnlock()

	out := make(map[types.Provider]CircuitState, len(ht.breakers))
	for p, cb := range ht.breakers {
		out[p] = cb.State()
	}
	return out
}
