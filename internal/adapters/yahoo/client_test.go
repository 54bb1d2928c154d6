package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"nsePaperTracker/internal/domain"
	"nsePaperTracker/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		BaseURL:       srv.URL,
		Logger:        &mockLogger{},
		Timeout:       2 * time.Second,
		MaxAttempts:   3,
		MinRetryDelay: time.Millisecond,
		MaxRetryDelay: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	return client, srv
}

const chartBody = `{
  "chart": {
    "result": [{
      "timestamp": [1767584700, 1767584760, 1767584820],
      "indicators": {
        "quote": [{
          "open":   [100.0, 100.5, null],
          "high":   [100.8, 101.2, null],
          "low":    [99.9, 100.3, null],
          "close":  [100.5, 101.0, null],
          "volume": [1200, 800, null]
        }]
      }
    }],
    "error": null
  }
}`

func TestFetchBars(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/RELIANCE.NS", r.URL.Path)
		assert.Equal(t, "1m", r.URL.Query().Get("interval"))
		assert.NotEmpty(t, r.URL.Query().Get("period1"))
		fmt.Fprint(w, chartBody)
	}))

	start := time.Unix(1767584700, 0)
	bars, err := client.FetchBars(context.Background(), "RELIANCE.NS", start, start.Add(time.Hour), domain.GranularityMinute)
	require.NoError(t, err)

	// Third bar is all nulls and must be dropped.
	require.Len(t, bars, 2)
	assert.Equal(t, time.Unix(1767584700, 0).UTC(), bars[0].Timestamp)
	assert.InDelta(t, 100.0, bars[0].Open, 1e-9)
	assert.InDelta(t, 100.8, bars[0].High, 1e-9)
	assert.InDelta(t, 99.9, bars[0].Low, 1e-9)
	assert.InDelta(t, 100.5, bars[0].Close, 1e-9)
	assert.InDelta(t, 1200.0, bars[0].Volume, 1e-9)
	assert.True(t, bars[0].Timestamp.Before(bars[1].Timestamp))
}

func TestFetchBars_NoData(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{"timestamp":[],"indicators":{"quote":[{"open":[],"high":[],"low":[],"close":[],"volume":[]}]}}],"error":null}}`)
	}))

	_, err := client.FetchBars(context.Background(), "RELIANCE.NS", time.Now().Add(-time.Hour), time.Now(), domain.GranularityMinute)
	assert.ErrorIs(t, err, ports.ErrNoData)
}

func TestFetchBars_UnknownTicker(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.FetchBars(context.Background(), "NOPE.NS", time.Now().Add(-time.Hour), time.Now(), domain.GranularityDaily)
	assert.ErrorIs(t, err, ports.ErrUnknownTicker)
}

func TestFetchBars_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, chartBody)
	}))

	bars, err := client.FetchBars(context.Background(), "RELIANCE.NS", time.Unix(1767584700, 0), time.Unix(1767588300, 0), domain.GranularityMinute)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchBars_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.FetchBars(context.Background(), "RELIANCE.NS", time.Unix(1767584700, 0), time.Unix(1767588300, 0), domain.GranularityMinute)
	assert.ErrorIs(t, err, ports.ErrRateLimited)
	assert.Equal(t, int32(3), calls.Load())
}
