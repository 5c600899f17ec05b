package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspost/ratelimit/internal/metrics"
	"github.com/crosspost/ratelimit/internal/quota"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	registry, err := quota.NewRegistry(
		quota.EndpointSpec{
			Endpoint: "CREATE_rest_posts",
			ByTier:   map[quota.Tier]quota.Limits{quota.TierStandard: {PerHour: 2}},
		},
	)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracker := quota.NewTracker(registry, quota.TierStandard, logger)
	return NewAPI(tracker, metrics.New(prometheus.NewRegistry()), logger)
}

func shareReq() *http.Request {
	return httptest.NewRequest("POST", "/api/share", strings.NewReader(`{"text":"hello"}`))
}

func TestShare(t *testing.T) {
	api := newTestAPI(t)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		api.Share(rec, shareReq())

		require.Equal(t, http.StatusOK, rec.Code, "call %d", i+1)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "shared", body["status"])
		assert.NotEmpty(t, body["timestamp"])
	}

	rec := httptest.NewRecorder()
	api.Share(rec, shareReq())

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Too Many Requests", body["error"])
	assert.Greater(t, body["retry_in_ms"], float64(0))
}

func TestShareRejectsBadBody(t *testing.T) {
	api := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.Share(rec, httptest.NewRequest("POST", "/api/share", strings.NewReader("{not json")))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	// malformed requests must not consume provider quota
	usage := api.tracker.CurrentUsage("CREATE_rest_posts")
	require.NotNil(t, usage.PerHour)
	assert.Equal(t, 0, usage.PerHour.Used)
}

func TestStatus(t *testing.T) {
	api := newTestAPI(t)
	api.tracker.RecordRequest("CREATE_rest_posts")

	rec := httptest.NewRecorder()
	api.Status(rec, httptest.NewRequest("GET", "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tier      string                          `json:"tier"`
		Endpoints map[string]quota.EndpointStatus `json:"endpoints"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "standard", body.Tier)

	ep, ok := body.Endpoints["CREATE_rest_posts"]
	require.True(t, ok)
	require.NotNil(t, ep.Usage.PerHour)
	assert.Equal(t, 1, ep.Usage.PerHour.Used)
	assert.Equal(t, 2, ep.Usage.PerHour.Limit)
}
