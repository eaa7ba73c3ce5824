package core

// import_limiter.go bounds the number of imports running at once.
//
// A reload clears and rewrites the claims table, so two overlapping reloads
// would interleave their batches. The service holds a slot for the whole run;
// callers that cannot get one within the configured wait fail with
// ErrImportInProgress. WaitForDrain lets shutdown block until running imports
// finish.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrImportInProgress is returned when every import slot stays occupied for
// the whole wait period.
var ErrImportInProgress = errors.New("import already in progress")

// ImportLimiter is a counting semaphore over import runs.
type ImportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
	idle   chan struct{} // closed while active == 0
}

// NewImportLimiter allows maxConcurrent imports at once; values below one
// select a single slot. A caller waits at most maxWait for a slot; zero
// means fail immediately.
func NewImportLimiter(maxConcurrent int, maxWait time.Duration) *ImportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	idle := make(chan struct{})
	close(idle)
	return &ImportLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		idle:    idle,
	}
}

// Acquire takes a slot. The caller must call Release exactly once afterwards.
func (l *ImportLimiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		l.started()
		return nil
	default:
	}

	if l.maxWait <= 0 {
		return ErrImportInProgress
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.started()
		return nil
	case <-timer.C:
		return ErrImportInProgress
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (l *ImportLimiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	<-l.slots
}

func (l *ImportLimiter) started() {
	l.mu.Lock()
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()
}

// Active returns the number of running imports.
func (l *ImportLimiter) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// MaxConcurrent returns the number of slots.
func (l *ImportLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no import is running or ctx is done.
func (l *ImportLimiter) WaitForDrain(ctx context.Context) error {
	for {
		l.mu.Lock()
		idle, active := l.idle, l.active
		l.mu.Unlock()

		if active == 0 {
			return nil
		}

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ImportLimiterStatus is a snapshot of the limiter, exposed on the health endpoint.
type ImportLimiterStatus struct {
	Active        int `json:"active"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *ImportLimiter) Status() ImportLimiterStatus {
	return ImportLimiterStatus{
		Active:        l.Active(),
		MaxConcurrent: cap(l.slots),
	}
}
