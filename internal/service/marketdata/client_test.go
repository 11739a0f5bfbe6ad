package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"StockGate/pkg/logger"
	"StockGate/pkg/metrics"
)

func testClient(t *testing.T, url string) *Client {
	t.Helper()
	return New(Config{
		BaseURL:          url,
		APIKey:           "test",
		Timeout:          time.Second,
		MaxAttempts:      3,
		BackoffBase:      time.Millisecond,
		BackoffFactor:    2,
		BreakerThreshold: 10,
		BreakerCooldown:  time.Minute,
	}, metrics.Noop{}, logger.Nop())
}

func TestFetchSnapshot(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.Equal(t, "/quote", r.URL.Path)
		require.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		fmt.Fprint(w, `{"c":189.5,"h":191.2,"l":188.1,"v":52000000,"t":1756300000}`)
	}))
	defer srv.Close()

	snap, err := testClient(t, srv.URL).FetchSnapshot(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "AAPL", snap.Symbol)
	require.Equal(t, 189.5, snap.Price)
	require.Equal(t, 191.2, snap.DailyHigh)
	require.Equal(t, 188.1, snap.DailyLow)
	require.False(t, snap.Stale)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetchHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stock/candle", r.URL.Path)
		fmt.Fprint(w, `{"s":"ok","t":[1756100000,1756200000],"o":[10,11],"h":[12,13],"l":[9,10],"c":[11,12],"v":[100,200]}`)
	}))
	defer srv.Close()

	series, err := testClient(t, srv.URL).FetchHistory(context.Background(), "AAPL", 6)
	require.NoError(t, err)
	require.Len(t, series.Candles, 2)
	require.Equal(t, 11.0, series.Candles[0].Close)
	require.True(t, series.Candles[0].Date.Before(series.Candles[1].Date))
}

func TestRateLimitedIsRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"c":10,"h":11,"l":9,"v":1,"t":1756300000}`)
	}))
	defer srv.Close()

	snap, err := testClient(t, srv.URL).FetchSnapshot(context.Background(), "MSFT")
	require.NoError(t, err)
	require.Equal(t, 10.0, snap.Price)
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestNotFoundNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchSnapshot(context.Background(), "NOPE")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, FailNotFound, fe.Class)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestExhaustedRetriesReportAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchSnapshot(context.Background(), "AAPL")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, FailTransport, fe.Class)
	require.Equal(t, 3, fe.Attempts)
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestBreakerFailsFast(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{
		BaseURL:          srv.URL,
		Timeout:          time.Second,
		MaxAttempts:      3,
		BackoffBase:      time.Millisecond,
		BreakerThreshold: 2,
		BreakerCooldown:  time.Minute,
	}, metrics.Noop{}, logger.Nop())

	_, err := c.FetchSnapshot(context.Background(), "AAPL")
	require.Error(t, err)
	made := atomic.LoadInt32(&calls)
	require.EqualValues(t, 2, made)

	// breaker is open now, no further upstream calls
	_, err = c.FetchSnapshot(context.Background(), "AAPL")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, FailUnavailable, fe.Class)
	require.EqualValues(t, made, atomic.LoadInt32(&calls))
}
