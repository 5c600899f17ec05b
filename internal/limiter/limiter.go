package limiter

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Store is the shared counter backend. Increment must atomically add 1 to
// the counter at key and set the expiry to ttl if the key did not already
// exist, returning the post-increment value and the moment the counter
// expires.
type Store interface {
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, time.Time, error)
}

// Config describes the limit applied to one protected endpoint group.
// Immutable once constructed.
type Config struct {
	Window          time.Duration
	MaxRequests     int
	KeyPrefix       string
	StandardHeaders bool

	// FailClosed denies requests when the counter store is unreachable.
	// The default is to fail open so a storage outage does not take the
	// protected endpoint down with it.
	FailClosed bool
}

// Result is the outcome of a single Check call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter is a fixed-window request limiter. It holds no counter state of
// its own; all state lives in the Store, so one Limiter can safely be
// shared across goroutines and across processes pointing at the same
// backend.
type Limiter struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Limiter {
	return &Limiter{store: store, logger: logger}
}

// Check records one request for identity under cfg and reports whether it
// is within the window limit. A store failure is not a denial: the
// configured fail-open/fail-closed policy decides, the error is logged and
// returned for observability, and the Result remains usable.
func (l *Limiter) Check(ctx context.Context, identity string, cfg Config) (Result, error) {
	if cfg.MaxRequests <= 0 || cfg.Window <= 0 {
		return Result{}, fmt.Errorf("invalid limit config: max=%d window=%s", cfg.MaxRequests, cfg.Window)
	}

	key := cfg.KeyPrefix + identity
	counter, expiry, err := l.store.Increment(ctx, key, ceilSeconds(cfg.Window))
	if err != nil {
		l.logger.Error("counter store failure",
			"error", err,
			"key", key,
			"fail_closed", cfg.FailClosed,
		)
		res := Result{Limit: cfg.MaxRequests}
		if !cfg.FailClosed {
			res.Allowed = true
			res.Remaining = cfg.MaxRequests
		}
		return res, fmt.Errorf("rate limit store: %w", err)
	}

	remaining := cfg.MaxRequests - int(counter)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   counter <= int64(cfg.MaxRequests),
		Limit:     cfg.MaxRequests,
		Remaining: remaining,
		ResetAt:   expiry,
	}, nil
}

// ceilSeconds rounds d up to a whole second so sub-second windows still get
// a non-zero backend TTL.
func ceilSeconds(d time.Duration) time.Duration {
	if r := d % time.Second; r != 0 {
		return d + time.Second - r
	}
	return d
}
