package core

// slot_limiter.go bounds the number of uploads and extractions in flight.
//
// A buffered channel acts as a semaphore. When every slot is taken, callers
// wait up to maxWait before failing with ErrTooManyRequests. WaitForDrain
// lets shutdown block until in-flight work finishes.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyRequests is returned when all slots are occupied and the wait
// timeout expires. Clients should retry after a short delay.
var ErrTooManyRequests = errors.New("too many concurrent requests, please try again later")

// DefaultMaxConcurrent is the slot count used when none is configured.
const DefaultMaxConcurrent = 8

// DefaultMaxWait is how long to wait for a slot when none is configured.
const DefaultMaxWait = 10 * time.Second

// SlotLimiter controls concurrent processing using a semaphore.
type SlotLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration
	active    atomic.Int64
}

// NewSlotLimiter creates a limiter that allows at most maxConcurrent
// simultaneous holders. Callers that cannot acquire a slot within maxWait
// receive ErrTooManyRequests.
func NewSlotLimiter(maxConcurrent int, maxWait time.Duration) *SlotLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	return &SlotLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for a slot. The caller MUST call Release when done.
func (l *SlotLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.semaphore <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-timer.C:
		return ErrTooManyRequests
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot without blocking.
func (l *SlotLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *SlotLimiter) Release() {
	l.active.Add(-1)
	<-l.semaphore
}

// ActiveCount returns the number of slots currently held.
func (l *SlotLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// WaitForDrain blocks until no slots are held or ctx is done.
func (l *SlotLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of the limiter's state.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *SlotLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}
