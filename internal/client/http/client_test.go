package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	httpClient "github.com/bituzin/stacks-boost-app/internal/client/http"
	"github.com/bituzin/stacks-boost-app/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
}

func fastRetries() *httpClient.RetryConfig {
	cfg := httpClient.DefaultRetryConfig()
	cfg.InitialInterval = time.Millisecond
	cfg.MaxInterval = 2 * time.Millisecond
	return cfg
}

type countingMetrics struct {
	requests atomic.Int32
	retries  atomic.Int32
	lastCode atomic.Int32
}

func (m *countingMetrics) ObserveRequest(method, route string, statusCode int, duration time.Duration) {
	m.requests.Add(1)
	m.lastCode.Store(int32(statusCode))
}

func (m *countingMetrics) IncRetry(method, route string) {
	m.retries.Add(1)
}

func TestClient_RetriesRetryableStatusAndResendsBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"key":"0x01"}`, string(body))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer server.Close()

	metrics := &countingMetrics{}
	client := httpClient.NewClient(
		httpClient.WithBaseURL(server.URL+"/"),
		httpClient.WithRetryConfig(fastRetries()),
		httpClient.WithMetricsCollector(metrics),
	)

	resp, err := client.Post(context.Background(), "v2/thing", map[string]string{"key": "0x01"})
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, httpClient.DecodeJSON(resp, &out))
	assert.Equal(t, "yes", out["ok"])
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int32(2), metrics.retries.Load())
	assert.Equal(t, int32(1), metrics.requests.Load())
	assert.Equal(t, int32(200), metrics.lastCode.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))
	defer server.Close()

	client := httpClient.NewClient(
		httpClient.WithBaseURL(server.URL),
		httpClient.WithRetryConfig(fastRetries()),
	)

	resp, err := client.Get(context.Background(), "/extended/v1/tx/0xabc")
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, httpClient.IsNotFound(err))
	httpErr, ok := httpClient.IsHTTPError(err)
	require.True(t, ok)
	assert.Contains(t, httpErr.Body, "not found")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := httpClient.NewClient(
		httpClient.WithBaseURL(server.URL),
		httpClient.WithRetryConfig(fastRetries()),
	)

	_, err := client.Get(context.Background(), "/x")
	require.Error(t, err)
	httpErr, ok := httpClient.IsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Equal(t, int32(4), calls.Load())
}

func TestClient_QueryParamsAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := httpClient.NewClient(
		httpClient.WithBaseURL(server.URL),
		httpClient.WithDefaultHeader("x-api-key", "secret"),
		httpClient.WithRetryConfig(nil),
	)
	resp, err := client.Get(context.Background(), "/list", httpClient.WithQueryParam("limit", "5"))
	require.NoError(t, err)
	_ = resp.Body.Close()
}

func TestClient_InvalidPathWithoutBaseURL(t *testing.T) {
	client := httpClient.NewClient()
	_, err := client.Get(context.Background(), "not a url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid path")
}
