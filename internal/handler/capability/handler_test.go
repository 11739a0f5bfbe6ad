package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"StockGate/internal/domain/models"
	"StockGate/internal/service/marketdata"
	"StockGate/internal/service/resolver"
	"StockGate/internal/usecase"
	xlogger "StockGate/pkg/logger"
	"StockGate/pkg/metrics"
)

type fakeQuotes struct {
	snap    *models.MarketSnapshot
	hist    *models.HistoricalSeries
	snapErr error
	histErr error
}

func (f *fakeQuotes) Snapshot(context.Context, string) (*models.MarketSnapshot, error) {
	return f.snap, f.snapErr
}

func (f *fakeQuotes) History(context.Context, string) (*models.HistoricalSeries, error) {
	return f.hist, f.histErr
}

type fakeReasoner struct {
	rec *models.Recommendation
	err error
}

func (f *fakeReasoner) Recommend(context.Context, *models.CanonicalSymbol, *models.MarketSnapshot, *models.HistoricalSeries) (*models.Recommendation, error) {
	return f.rec, f.err
}

type fakeResults struct {
	mu    sync.Mutex
	items map[string]*models.AnalysisResult
}

func (f *fakeResults) Get(_ context.Context, cid string) (*models.AnalysisResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[cid]
	return r, ok
}

func (f *fakeResults) Put(_ context.Context, cid string, res *models.AnalysisResult, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.items == nil {
		f.items = map[string]*models.AnalysisResult{}
	}
	f.items[cid] = res
	return nil
}

type nopSink struct{}

func (nopSink) Append(context.Context, *models.AuditRecord) error { return nil }

func newTestHandler(t *testing.T, quotes *fakeQuotes, reasoner *fakeReasoner) *Handler {
	t.Helper()
	res := resolver.New()
	pipe := usecase.NewPipeline(res, quotes, reasoner, &fakeResults{}, nopSink{},
		metrics.Noop{}, xlogger.Nop(), usecase.Config{})
	return NewHandler(xlogger.Nop(), pipe, quotes, res, AgentInfo{
		ID:      "stockgate",
		Name:    "StockGate",
		Version: "1.0.0",
	})
}

func goodQuotes() *fakeQuotes {
	now := time.Now().UTC()
	return &fakeQuotes{
		snap: &models.MarketSnapshot{
			Symbol: "AAPL", Price: 187.5, DailyHigh: 190, DailyLow: 185,
			Volume: 1_000_000, AsOf: now,
		},
		hist: &models.HistoricalSeries{
			Symbol: "AAPL",
			Candles: []models.Candle{
				{Date: now.AddDate(0, 0, -2), Open: 180, Close: 182, High: 183, Low: 179, Volume: 900_000},
				{Date: now.AddDate(0, 0, -1), Open: 182, Close: 187, High: 188, Low: 181, Volume: 950_000},
			},
			AsOf: now,
		},
	}
}

func goodReasoner() *fakeReasoner {
	return &fakeReasoner{rec: &models.Recommendation{
		Action:     models.ActionBuy,
		Confidence: 78,
		Reasoning:  "positive momentum with stable volume",
		KeyFactors: []string{"trend", "volume"},
	}}
}

func invoke(t *testing.T, h *Handler, path string, body interface{}) (*httptest.ResponseRecorder, *InvokeResponse) {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	resp := &InvokeResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))
	return rec, resp
}

func TestManifestListsCapabilities(t *testing.T) {
	h := newTestHandler(t, goodQuotes(), goodReasoner())
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/a2a/manifest", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	ids, ok := body["capabilities"].([]interface{})
	require.True(t, ok)
	require.ElementsMatch(t,
		[]interface{}{"analyze_stock", "get_market_data", "query", "resolve_company_name"}, ids)
}

func TestCapabilityDetailUnknown(t *testing.T) {
	h := newTestHandler(t, goodQuotes(), goodReasoner())
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/a2a/capabilities/no_such", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvokeAnalyzeStock(t *testing.T) {
	h := newTestHandler(t, goodQuotes(), goodReasoner())
	rec, resp := invoke(t, h, "/a2a/capabilities/analyze_stock/invoke", InvokeRequest{
		MessageID:  "msg-1",
		Parameters: map[string]interface{}{"company_name_or_ticker": "apple"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)
	require.Equal(t, "msg-1", resp.RequestID)
	require.Equal(t, "response", resp.MessageType)
	require.Equal(t, "AAPL", resp.Result["ticker"])
	require.Equal(t, "Buy", resp.Result["recommendation"])
	require.InDelta(t, 78, resp.Result["confidence_score"], 0.01)
	require.InDelta(t, 187.5, resp.Result["current_price"], 0.01)
}

func TestInvokeMissingParameter(t *testing.T) {
	h := newTestHandler(t, goodQuotes(), goodReasoner())
	_, resp := invoke(t, h, "/a2a/capabilities/analyze_stock/invoke", InvokeRequest{
		Parameters: map[string]interface{}{},
	})

	require.False(t, resp.Success)
	require.Equal(t, "error", resp.MessageType)
	require.Equal(t, models.ErrInvalidQuery, resp.Error.Kind)
	require.Contains(t, resp.Error.Message, "company_name_or_ticker")
}

func TestInvokeUnknownParameterRejected(t *testing.T) {
	h := newTestHandler(t, goodQuotes(), goodReasoner())
	_, resp := invoke(t, h, "/a2a/capabilities/resolve_company_name/invoke", InvokeRequest{
		Parameters: map[string]interface{}{
			"company_name": "microsoft",
			"mystery":      42,
		},
	})

	require.False(t, resp.Success)
	require.Equal(t, models.ErrInvalidQuery, resp.Error.Kind)
}

func TestInvokeUnknownCapability(t *testing.T) {
	h := newTestHandler(t, goodQuotes(), goodReasoner())
	_, resp := invoke(t, h, "/a2a/capabilities/no_such/invoke", InvokeRequest{
		Parameters: map[string]interface{}{},
	})

	require.False(t, resp.Success)
	require.Equal(t, models.ErrInvalidQuery, resp.Error.Kind)
	require.Contains(t, resp.Error.Message, "no_such")
}

func TestRequestEnvelopeRoutesByCapabilityID(t *testing.T) {
	h := newTestHandler(t, goodQuotes(), goodReasoner())
	_, resp := invoke(t, h, "/a2a/request", InvokeRequest{
		MessageID:      "msg-9",
		ConversationID: "conv-1",
		CapabilityID:   "resolve_company_name",
		Parameters:     map[string]interface{}{"company_name": "tesla"},
	})

	require.True(t, resp.Success)
	require.Equal(t, "conv-1", resp.ConversationID)
	require.Equal(t, "tesla", resp.Result["input_name"])
	require.Equal(t, "TSLA", resp.Result["ticker"])
	require.Equal(t, "Tesla, Inc.", resp.Result["resolved_company_name"])
}

func TestGetMarketDataWithHistory(t *testing.T) {
	h := newTestHandler(t, goodQuotes(), goodReasoner())
	_, resp := invoke(t, h, "/a2a/capabilities/get_market_data/invoke", InvokeRequest{
		Parameters: map[string]interface{}{"ticker": "AAPL"},
	})

	require.True(t, resp.Success)
	quote, ok := resp.Result["quote"].(map[string]interface{})
	require.True(t, ok)
	require.InDelta(t, 187.5, quote["price"], 0.01)

	histData, ok := resp.Result["historical_data"].(map[string]interface{})
	require.True(t, ok)
	candles, ok := histData["candles"].([]interface{})
	require.True(t, ok)
	require.Len(t, candles, 2)
}

func TestGetMarketDataWithoutHistory(t *testing.T) {
	h := newTestHandler(t, goodQuotes(), goodReasoner())
	_, resp := invoke(t, h, "/a2a/capabilities/get_market_data/invoke", InvokeRequest{
		Parameters: map[string]interface{}{"ticker": "AAPL", "include_historical": false},
	})

	require.True(t, resp.Success)
	require.NotContains(t, resp.Result, "historical_data")
}

func TestGetMarketDataProviderNotFound(t *testing.T) {
	quotes := goodQuotes()
	quotes.snapErr = &marketdata.FetchError{Class: marketdata.FailNotFound, Symbol: "AAPL"}
	h := newTestHandler(t, quotes, goodReasoner())
	_, resp := invoke(t, h, "/a2a/capabilities/get_market_data/invoke", InvokeRequest{
		Parameters: map[string]interface{}{"ticker": "AAPL"},
	})

	require.False(t, resp.Success)
	require.Equal(t, models.ErrSymbolNotFound, resp.Error.Kind)
}

func TestGetMarketDataUnknownTicker(t *testing.T) {
	h := newTestHandler(t, goodQuotes(), goodReasoner())
	_, resp := invoke(t, h, "/a2a/capabilities/get_market_data/invoke", InvokeRequest{
		Parameters: map[string]interface{}{"ticker": "ZZZQ"},
	})

	require.False(t, resp.Success)
	require.Equal(t, models.ErrSymbolNotFound, resp.Error.Kind)
	require.NotEmpty(t, resp.Error.Suggestions)
}

func TestQueryReturnsNaturalLanguageResponse(t *testing.T) {
	h := newTestHandler(t, goodQuotes(), goodReasoner())
	_, resp := invoke(t, h, "/a2a/capabilities/query/invoke", InvokeRequest{
		Parameters: map[string]interface{}{"query": "should I buy apple stock?"},
	})

	require.True(t, resp.Success)
	text, ok := resp.Result["response"].(string)
	require.True(t, ok)
	require.Contains(t, text, "AAPL")
	require.Contains(t, text, "Buy")
	require.Equal(t, "AAPL", resp.Result["ticker"])
}
