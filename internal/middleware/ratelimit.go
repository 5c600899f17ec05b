package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/crosspost/ratelimit/internal/limiter"
	"github.com/crosspost/ratelimit/internal/metrics"
	"github.com/crosspost/ratelimit/internal/routing"
)

type RateLimitMiddleware struct {
	limiter *limiter.Limiter
	matcher *routing.Matcher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewRateLimitMiddleware(l *limiter.Limiter, matcher *routing.Matcher, m *metrics.Metrics, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: l,
		matcher: matcher,
		metrics: m,
		logger:  logger,
	}
}

// Handler wraps next with rate limiting. The store is incremented exactly
// once per request; on deny the wrapped handler never runs.
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		identity := clientIdentity(r)
		cfg, ruleName := m.matcher.Match(r.URL.Path)

		res, err := m.limiter.Check(r.Context(), identity, cfg)
		if err != nil {
			m.metrics.StoreFailures.Inc()
			m.logger.Error("rate limit check degraded",
				"error", err,
				"request_id", reqID,
				"client", identity,
				"rule", ruleName,
				"allowed", res.Allowed,
			)
		}

		if cfg.StandardHeaders {
			setRateLimitHeaders(w, res)
		}

		if !res.Allowed {
			m.metrics.Requests.WithLabelValues(ruleName, "denied").Inc()
			m.logger.Warn("rate limit exceeded",
				"request_id", reqID,
				"client", identity,
				"rule", ruleName,
				"path", r.URL.Path,
			)

			sendRateLimitError(w)
			return
		}

		m.metrics.Requests.WithLabelValues(ruleName, "allowed").Inc()
		next.ServeHTTP(w, r)
	})
}

// clientIdentity derives the counter identity for a request: the first
// hop of X-Forwarded-For, else the peer address, else "unknown". Clients
// behind one proxy share a counter under this scheme.
func clientIdentity(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}

	return "unknown"
}

func setRateLimitHeaders(w http.ResponseWriter, res limiter.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

	if !res.ResetAt.IsZero() {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	}
}

func sendRateLimitError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]string{
		"error":   "Too Many Requests",
		"message": "Rate limit exceeded. Please try again later.",
	})
}
