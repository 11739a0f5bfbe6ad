package reasoning

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"StockGate/internal/domain/models"
	"StockGate/pkg/logger"
)

func chatBody(t *testing.T, content string) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	require.NoError(t, err)
	return b
}

func testInputs() (*models.CanonicalSymbol, *models.MarketSnapshot, *models.HistoricalSeries) {
	sym := &models.CanonicalSymbol{Symbol: "AAPL", DisplayName: "Apple Inc."}
	snap := &models.MarketSnapshot{Symbol: "AAPL", Price: 190, DailyHigh: 192, DailyLow: 188, Volume: 1e6, AsOf: time.Now()}
	hist := &models.HistoricalSeries{Symbol: "AAPL", Candles: []models.Candle{
		{Date: time.Now().AddDate(0, -6, 0), Open: 150, Close: 155, High: 156, Low: 149, Volume: 1e6},
		{Date: time.Now().AddDate(0, 0, -1), Open: 188, Close: 190, High: 192, Low: 187, Volume: 1e6},
	}, AsOf: time.Now()}
	return sym, snap, hist
}

func TestRecommend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		require.Contains(t, req.Messages[1].Content, "AAPL")
		w.Write(chatBody(t, goodOutput))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Model: "test", Timeout: time.Second}, logger.Nop())
	sym, snap, hist := testInputs()
	rec, err := c.Recommend(context.Background(), sym, snap, hist)
	require.NoError(t, err)
	require.Equal(t, models.ActionBuy, rec.Action)
	require.Equal(t, 78.0, rec.Confidence)
}

func TestRecommendMalformedOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatBody(t, "Sure! I'd say this looks like a great buy."))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Model: "test", Timeout: time.Second}, logger.Nop())
	sym, snap, hist := testInputs()
	_, err := c.Recommend(context.Background(), sym, snap, hist)
	require.Error(t, err)
	require.IsType(t, &ParseError{}, err)
}

func TestRecommendBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Model: "test", Timeout: time.Second}, logger.Nop())
	sym, snap, hist := testInputs()
	_, err := c.Recommend(context.Background(), sym, snap, hist)
	require.Error(t, err)
}

func TestRecommendTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write(chatBody(t, goodOutput))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Model: "test", Timeout: 20 * time.Millisecond}, logger.Nop())
	sym, snap, hist := testInputs()
	start := time.Now()
	_, err := c.Recommend(context.Background(), sym, snap, hist)
	require.Error(t, err)
	require.Less(t, time.Since(start), 150*time.Millisecond)
}
