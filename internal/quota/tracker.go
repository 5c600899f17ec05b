package quota

import (
	"log/slog"
	"sync"
	"time"
)

type windowKey struct {
	endpoint string
	period   Period
}

type windowCounter struct {
	count   int
	resetAt time.Time
}

// WindowUsage is a point-in-time view of one window.
type WindowUsage struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// Usage is the per-endpoint snapshot returned by CurrentUsage. A nil
// field means the window is not configured for the endpoint under the
// active tier.
type Usage struct {
	PerMinute *WindowUsage `json:"per_minute,omitempty"`
	PerHour   *WindowUsage `json:"per_hour,omitempty"`
	PerDay    *WindowUsage `json:"per_day,omitempty"`
}

// EndpointStatus is one entry of the diagnostics dump.
type EndpointStatus struct {
	Usage            Usage `json:"usage"`
	Limited          bool  `json:"limited"`
	TimeUntilResetMs int64 `json:"time_until_reset_ms"`
}

// Tracker counts outbound calls per endpoint across the windows its
// registry configures, under one active tier. All state is in-process:
// one Tracker guards one connection to the provider, and separate
// connections get separate Trackers. Windows expire lazily; every
// access re-checks resetAt before trusting a stored count, and there is
// no background sweep.
type Tracker struct {
	mu       sync.Mutex
	registry *Registry
	tier     Tier
	windows  map[windowKey]*windowCounter
	logger   *slog.Logger

	now func() time.Time
}

func NewTracker(registry *Registry, tier Tier, logger *slog.Logger) *Tracker {
	return &Tracker{
		registry: registry,
		tier:     tier,
		windows:  make(map[windowKey]*windowCounter),
		logger:   logger,
		now:      time.Now,
	}
}

// Tier returns the active tier.
func (t *Tracker) Tier() Tier {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tier
}

// CanMakeRequest reports whether endpoint has headroom in every window
// configured for it under the active tier. Unregistered endpoints are
// not throttled: without a spec there is no limit to enforce, so the
// call is allowed and a warning is logged.
//
// CanMakeRequest followed by RecordRequest is not atomic across
// goroutines; concurrent callers sharing one Tracker should use
// TryConsume instead.
func (t *Tracker) CanMakeRequest(endpoint string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	spec, ok := t.registry.Lookup(endpoint)
	if !ok {
		t.logger.Warn("no quota spec for endpoint, allowing request", "endpoint", endpoint)
		return true
	}
	return t.canMakeLocked(spec)
}

// RecordRequest counts one completed call against every configured
// window for endpoint. It does not enforce the limit; the caller is
// expected to have asked CanMakeRequest first. The split lets a caller
// back out between asking and doing without consuming quota.
func (t *Tracker) RecordRequest(endpoint string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	spec, ok := t.registry.Lookup(endpoint)
	if !ok {
		t.logger.Warn("recording request for endpoint with no quota spec", "endpoint", endpoint)
		return
	}
	t.recordLocked(spec)
}

// TryConsume folds CanMakeRequest and RecordRequest into one atomic
// step: it records the request only when every configured window has
// headroom, and reports whether it did.
func (t *Tracker) TryConsume(endpoint string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	spec, ok := t.registry.Lookup(endpoint)
	if !ok {
		t.logger.Warn("no quota spec for endpoint, allowing request", "endpoint", endpoint)
		return true
	}
	if !t.canMakeLocked(spec) {
		return false
	}
	t.recordLocked(spec)
	return true
}

// TimeUntilReset returns how long until the most distant exhausted
// window for endpoint resets, or zero when the endpoint is not
// currently limited.
func (t *Tracker) TimeUntilReset(endpoint string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	spec, ok := t.registry.Lookup(endpoint)
	if !ok {
		return 0
	}
	return t.resetLocked(spec)
}

// CurrentUsage returns a read-only snapshot of endpoint's windows under
// the active tier.
func (t *Tracker) CurrentUsage(endpoint string) Usage {
	t.mu.Lock()
	defer t.mu.Unlock()

	spec, ok := t.registry.Lookup(endpoint)
	if !ok {
		return Usage{}
	}
	return t.usageLocked(spec)
}

// UpdateTier switches the active tier and discards every window counter
// held by this tracker. Counts accumulated under the old tier do not
// transfer; the erased history is logged since it cannot be recovered.
func (t *Tracker) UpdateTier(newTier Tier) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.logger.Info("tier updated, clearing all quota windows",
		"old_tier", t.tier.String(),
		"new_tier", newTier.String(),
		"windows_dropped", len(t.windows),
	)
	t.tier = newTier
	t.windows = make(map[windowKey]*windowCounter)
}

// Status dumps usage and reset timing for every registered endpoint.
func (t *Tracker) Status() map[string]EndpointStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]EndpointStatus, len(t.registry.specs))
	for id, spec := range t.registry.specs {
		u := t.usageLocked(spec)
		reset := t.resetLocked(spec)
		out[id] = EndpointStatus{
			Usage:            u,
			Limited:          reset > 0,
			TimeUntilResetMs: reset.Milliseconds(),
		}
	}
	return out
}

func (t *Tracker) canMakeLocked(spec EndpointSpec) bool {
	now := t.now()
	limits := spec.ByTier[t.tier]

	for _, p := range allPeriods {
		limit := limits.forPeriod(p)
		if limit == 0 {
			continue
		}
		w := t.windows[windowKey{spec.Endpoint, p}]
		if w == nil {
			continue
		}
		if !now.Before(w.resetAt) {
			// stale window, drop it rather than trust the count
			delete(t.windows, windowKey{spec.Endpoint, p})
			continue
		}
		if w.count >= limit {
			return false
		}
	}
	return true
}

func (t *Tracker) recordLocked(spec EndpointSpec) {
	now := t.now()
	limits := spec.ByTier[t.tier]

	for _, p := range allPeriods {
		if limits.forPeriod(p) == 0 {
			continue
		}
		key := windowKey{spec.Endpoint, p}
		w := t.windows[key]
		if w == nil || !now.Before(w.resetAt) {
			t.windows[key] = &windowCounter{count: 1, resetAt: now.Add(p.Window())}
			continue
		}
		w.count++
	}
}

func (t *Tracker) usageLocked(spec EndpointSpec) Usage {
	now := t.now()
	limits := spec.ByTier[t.tier]

	var u Usage
	for _, p := range allPeriods {
		limit := limits.forPeriod(p)
		if limit == 0 {
			continue
		}
		used := 0
		if w := t.windows[windowKey{spec.Endpoint, p}]; w != nil && now.Before(w.resetAt) {
			used = w.count
		}
		wu := &WindowUsage{Used: used, Limit: limit}
		switch p {
		case PeriodMinute:
			u.PerMinute = wu
		case PeriodHour:
			u.PerHour = wu
		case PeriodDay:
			u.PerDay = wu
		}
	}
	return u
}

func (t *Tracker) resetLocked(spec EndpointSpec) time.Duration {
	now := t.now()
	limits := spec.ByTier[t.tier]

	var max time.Duration
	for _, p := range allPeriods {
		limit := limits.forPeriod(p)
		if limit == 0 {
			continue
		}
		w := t.windows[windowKey{spec.Endpoint, p}]
		if w == nil || !now.Before(w.resetAt) || w.count < limit {
			continue
		}
		if d := w.resetAt.Sub(now); d > max {
			max = d
		}
	}
	return max
}
