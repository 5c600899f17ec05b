package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/crosspost/ratelimit/internal/metrics"
	"github.com/crosspost/ratelimit/internal/quota"
)

// API serves the demo endpoints: sharing a post to the provider (which
// consumes provider quota) and a diagnostics dump of the tracker.
type API struct {
	tracker *quota.Tracker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewAPI(tracker *quota.Tracker, m *metrics.Metrics, logger *slog.Logger) *API {
	return &API{tracker: tracker, metrics: m, logger: logger}
}

type shareRequest struct {
	Text string `json:"text"`
}

// Share stands in for the outbound "create post" call. Quota is consumed
// atomically; when the provider budget is exhausted the client gets a 429
// with the backoff hint instead of us burning the provider's goodwill.
func (a *API) Share(w http.ResponseWriter, r *http.Request) {
	const endpoint = "CREATE_rest_posts"

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
		return
	}

	if !a.tracker.TryConsume(endpoint) {
		retryIn := a.tracker.TimeUntilReset(endpoint)
		a.metrics.QuotaDenials.WithLabelValues(endpoint).Inc()
		a.logger.Warn("provider quota exhausted",
			"endpoint", endpoint,
			"retry_in_ms", retryIn.Milliseconds(),
		)

		w.Header().Set("Retry-After", formatSeconds(retryIn))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":       "Too Many Requests",
			"message":     "Provider quota exhausted. Please try again later.",
			"retry_in_ms": retryIn.Milliseconds(),
		})
		return
	}

	// the real outbound call would happen here
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "shared",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Status dumps per-endpoint usage for every registered endpoint.
func (a *API) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tier":      a.tracker.Tier().String(),
		"endpoints": a.tracker.Status(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func formatSeconds(d time.Duration) string {
	secs := int64(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return strconv.FormatInt(secs, 10)
}
