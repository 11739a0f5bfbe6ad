package api

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
	internalrepo "StockGate/internal/repository"
	"StockGate/internal/service/marketdata"
	"StockGate/internal/service/resolver"
	"StockGate/internal/usecase"
	xlogger "StockGate/pkg/logger"
	"StockGate/pkg/metrics"
)

type fakeQuotes struct {
	snapErr error
	delay   time.Duration
}

func (f *fakeQuotes) Snapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.snapErr != nil {
		return nil, f.snapErr
	}
	return &models.MarketSnapshot{Symbol: symbol, Price: 187.5, AsOf: time.Now().UTC()}, nil
}

func (f *fakeQuotes) History(ctx context.Context, symbol string) (*models.HistoricalSeries, error) {
	return &models.HistoricalSeries{Symbol: symbol, AsOf: time.Now().UTC()}, nil
}

type fakeReasoner struct{ err error }

func (f *fakeReasoner) Recommend(context.Context, *models.CanonicalSymbol, *models.MarketSnapshot, *models.HistoricalSeries) (*models.Recommendation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Recommendation{
		Action:     models.ActionBuy,
		Confidence: 74,
		Reasoning:  "upward trend",
		KeyFactors: []string{"momentum"},
	}, nil
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

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newHandler(t *testing.T, quotes *fakeQuotes, reasoner *fakeReasoner, ratePerMin int) *AnalyzeHandler {
	t.Helper()
	store := internalrepo.NewMemoryAuditStore(100)
	pipe := usecase.NewPipeline(resolver.New(), quotes, reasoner, &fakeResults{},
		usecase.NewStoreSink(store), metrics.Noop{}, xlogger.Nop(), usecase.Config{})
	return NewAnalyzeHandler(xlogger.Nop(), pipe, store, ratePerMin)
}

func postAnalyze(t *testing.T, h *AnalyzeHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader([]byte(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeSuccess(t *testing.T) {
	h := newHandler(t, &fakeQuotes{}, &fakeReasoner{}, 0)
	rec := postAnalyze(t, h, `{"query":"apple"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Equal(t, "AAPL", resp.Ticker)
	require.Equal(t, "Apple Inc.", resp.CompanyName)
	require.Equal(t, "Buy", resp.Recommendation)
	require.InDelta(t, 74, resp.ConfidenceScore, 0.01)
	require.InDelta(t, 187.5, resp.CurrentPrice, 0.01)
	require.NotEmpty(t, resp.AnalysisID)
}

func TestAnalyzeEmptyQuery(t *testing.T) {
	h := newHandler(t, &fakeQuotes{}, &fakeReasoner{}, 0)
	rec := postAnalyze(t, h, `{"query":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeSymbolNotFound(t *testing.T) {
	h := newHandler(t, &fakeQuotes{}, &fakeReasoner{}, 0)
	rec := postAnalyze(t, h, `{"query":"Zzyzx Nonexistent Co"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var er ErrorResponse
	require.NoError(t, json.Unmarshal(env.Data, &er))
	require.Equal(t, "SymbolNotFound", er.Kind)
	require.NotEmpty(t, er.Suggestions)
	require.NotEmpty(t, er.CorrelationID)
}

func TestAnalyzeUpstreamUnavailable(t *testing.T) {
	quotes := &fakeQuotes{snapErr: &marketdata.FetchError{
		Class: marketdata.FailUnavailable, Symbol: "AAPL",
	}}
	h := newHandler(t, quotes, &fakeReasoner{}, 0)
	rec := postAnalyze(t, h, `{"query":"AAPL"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAnalyzeReasoningFailure(t *testing.T) {
	h := newHandler(t, &fakeQuotes{}, &fakeReasoner{err: &models.AnalysisError{
		Kind: models.ErrReasoningFailure, Message: "unparsable output",
	}}, 0)
	rec := postAnalyze(t, h, `{"query":"AAPL"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestAnalyzeRateLimited(t *testing.T) {
	h := newHandler(t, &fakeQuotes{}, &fakeReasoner{}, 2)
	require.Equal(t, http.StatusOK, postAnalyze(t, h, `{"query":"AAPL"}`).Code)
	require.Equal(t, http.StatusOK, postAnalyze(t, h, `{"query":"AAPL"}`).Code)
	require.Equal(t, http.StatusTooManyRequests, postAnalyze(t, h, `{"query":"AAPL"}`).Code)
}

func TestAnalysesListsRecent(t *testing.T) {
	h := newHandler(t, &fakeQuotes{}, &fakeReasoner{}, 0)
	require.Equal(t, http.StatusOK, postAnalyze(t, h, `{"query":"apple"}`).Code)
	require.Equal(t, http.StatusOK, postAnalyze(t, h, `{"query":"microsoft"}`).Code)

	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses?symbol=AAPL", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var list struct {
		Rows  []*models.AuditRecord `json:"rows"`
		Total int64                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Equal(t, int64(1), list.Total)
	require.Equal(t, "AAPL", list.Rows[0].Outcome.Result.Symbol.Symbol)
}

func TestHealth(t *testing.T) {
	h := newHandler(t, &fakeQuotes{}, &fakeReasoner{}, 0)
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
