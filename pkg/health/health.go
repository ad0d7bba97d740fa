// Package health runs background liveness and readiness probes and serves
// their state over HTTP.
//
// A probe flips to unhealthy only after FailureThreshold consecutive
// failures and back to healthy after SuccessThreshold consecutive passes.
package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports the health of one dependency. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// Option tunes a registered probe.
type Option func(p *probe)

// WithThresholds overrides the default failure (3) and success (1)
// thresholds of a probe.
func WithThresholds(failure, success int) Option {
	return func(p *probe) {
		if failure > 0 {
			p.failureThreshold = failure
		}
		if success > 0 {
			p.successThreshold = success
		}
	}
}

// WithInitialState sets the state a probe reports before its first run.
// Probes start healthy by default.
func WithInitialState(healthy bool) Option {
	return func(p *probe) {
		p.healthy.Store(healthy)
	}
}

// probe is one registered check. run is called from a single goroutine, so
// the streak counters need no locking; healthy, lastErr and ran are read
// concurrently by the endpoints.
type probe struct {
	name             string
	timeout          time.Duration
	check            CheckFunc
	failureThreshold int
	successThreshold int

	healthy atomic.Bool
	ran     atomic.Bool
	lastErr atomic.Pointer[error]

	failStreak int
	okStreak   int
}

func newProbe(name string, timeout time.Duration, check CheckFunc, opts []Option) *probe {
	p := &probe{
		name:             name,
		timeout:          timeout,
		check:            check,
		failureThreshold: 3,
		successThreshold: 1,
	}
	p.healthy.Store(true)
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *probe) lastError() error {
	if e := p.lastErr.Load(); e != nil {
		return *e
	}
	return nil
}

func (p *probe) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(ctx)
	p.lastErr.Store(&err)
	p.ran.Store(true)

	if err != nil {
		p.okStreak = 0
		p.failStreak++
		if p.failStreak >= p.failureThreshold {
			p.healthy.Store(false)
		}
		return
	}
	p.failStreak = 0
	p.okStreak++
	if p.okStreak >= p.successThreshold {
		p.healthy.Store(true)
	}
}

// Result is a point-in-time view of one probe.
type Result struct {
	// Ran is false until the probe has been executed at least once.
	Ran     bool
	Healthy bool
	// Err is the error returned by the most recent run.
	Err error
}

// Health is a registry of liveness and readiness probes plus a manual
// readiness flag.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// New creates a Health that reports not-ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe that decides whether the process should
// be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc, opts ...Option) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newProbe(name, timeout, check, opts))
}

// AddReadinessCheck registers a probe that decides whether the process should
// receive traffic.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc, opts ...Option) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newProbe(name, timeout, check, opts))
}

// Start runs every registered probe immediately and then every interval,
// each in its own goroutine, until ctx is done or Stop is called.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := make([]*probe, 0, len(h.liveness)+len(h.readiness))
	probes = append(probes, h.liveness...)
	probes = append(probes, h.readiness...)
	h.mu.Unlock()

	for _, p := range probes {
		go loop(ctx, p, interval)
	}
}

func loop(ctx context.Context, p *probe, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.run(ctx)
		}
	}
}

// Stop cancels the probe goroutines. It is idempotent.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady sets the manual readiness flag. Set it to false at the start of a
// graceful shutdown.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the manual flag is set and every readiness probe
// is healthy.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	for _, p := range h.snapshot(false) {
		if !p.healthy.Load() {
			return false
		}
	}
	return true
}

// Readiness returns the state of the named readiness probe. ok is false if
// no such probe is registered.
func (h *Health) Readiness(name string) (res Result, ok bool) {
	for _, p := range h.snapshot(false) {
		if p.name == name {
			return Result{
				Ran:     p.ran.Load(),
				Healthy: p.healthy.Load(),
				Err:     p.lastError(),
			}, true
		}
	}
	return Result{}, false
}

func (h *Health) snapshot(liveness bool) []*probe {
	h.mu.RLock()
	defer h.mu.RUnlock()

	src := h.readiness
	if liveness {
		src = h.liveness
	}
	out := make([]*probe, len(src))
	copy(out, src)
	return out
}

// failures maps the name of each unhealthy probe to its last error.
func failures(probes []*probe) map[string]string {
	out := make(map[string]string)
	for _, p := range probes {
		if p.healthy.Load() {
			continue
		}
		if err := p.lastError(); err != nil {
			out[p.name] = err.Error()
		} else {
			out[p.name] = "check is unhealthy"
		}
	}
	return out
}
