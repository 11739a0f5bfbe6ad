package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"StockGate/internal/domain/models"
	"StockGate/internal/service/marketdata"
	"StockGate/pkg/logger"
	"StockGate/pkg/metrics"
)

type fakeResolver struct {
	fail *models.ResolveFailure
}

func (f *fakeResolver) Resolve(query string) (*models.CanonicalSymbol, *models.ResolveFailure) {
	if f.fail != nil {
		return nil, f.fail
	}
	return &models.CanonicalSymbol{Symbol: "AAPL", DisplayName: "Apple Inc."}, nil
}

type fakeQuotes struct {
	snapCalls int32
	err       error
}

func (f *fakeQuotes) Snapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	atomic.AddInt32(&f.snapCalls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return &models.MarketSnapshot{Symbol: symbol, Price: 190, AsOf: time.Now()}, nil
}

func (f *fakeQuotes) History(ctx context.Context, symbol string) (*models.HistoricalSeries, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.HistoricalSeries{Symbol: symbol, Candles: []models.Candle{{Close: 180}}}, nil
}

type fakeReasoner struct {
	calls int32
	err   error
	delay time.Duration
}

func (f *fakeReasoner) Recommend(ctx context.Context, sym *models.CanonicalSymbol, snap *models.MarketSnapshot, hist *models.HistoricalSeries) (*models.Recommendation, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.Recommendation{Action: models.ActionBuy, Confidence: 75, Reasoning: "momentum"}, nil
}

type fakeResults struct {
	mu sync.Mutex
	m  map[string]*models.AnalysisResult
}

func newFakeResults() *fakeResults {
	return &fakeResults{m: make(map[string]*models.AnalysisResult)}
}

func (f *fakeResults) Get(ctx context.Context, cid string) (*models.AnalysisResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.m[cid]
	return r, ok
}

func (f *fakeResults) Put(ctx context.Context, cid string, res *models.AnalysisResult, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[cid] = res
	return nil
}

type captureSink struct {
	mu      sync.Mutex
	records []*models.AuditRecord
}

func (s *captureSink) Append(ctx context.Context, rec *models.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *captureSink) all() []*models.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.AuditRecord(nil), s.records...)
}

type deps struct {
	resolver *fakeResolver
	quotes   *fakeQuotes
	reasoner *fakeReasoner
	results  *fakeResults
	sink     *captureSink
}

func newPipeline(d *deps) *Pipeline {
	return NewPipeline(d.resolver, d.quotes, d.reasoner, d.results, d.sink,
		metrics.Noop{}, logger.Nop(), Config{RequestTimeout: time.Second})
}

func request(cid string) *models.AnalysisRequest {
	return &models.AnalysisRequest{
		CorrelationID:  cid,
		RawQuery:       "Apple",
		SourceProtocol: models.ProtocolREST,
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	d := &deps{resolver: &fakeResolver{}, quotes: &fakeQuotes{}, reasoner: &fakeReasoner{}, results: newFakeResults(), sink: &captureSink{}}
	p := newPipeline(d)

	res, aerr := p.Analyze(context.Background(), request("cid-1"))
	require.Nil(t, aerr)
	require.Equal(t, "cid-1", res.CorrelationID)
	require.Equal(t, "AAPL", res.Symbol.Symbol)
	require.Equal(t, models.ActionBuy, res.Recommendation.Action)
	require.GreaterOrEqual(t, res.Recommendation.Confidence, 0.0)
	require.LessOrEqual(t, res.Recommendation.Confidence, 100.0)

	recs := d.sink.all()
	require.Len(t, recs, 1)
	require.Equal(t, "cid-1", recs[0].CorrelationID)
	require.True(t, recs[0].Outcome.Success())
	require.Equal(t, models.ProtocolREST, recs[0].SourceProtocol)
}

func TestAnalyzeGeneratesCorrelationID(t *testing.T) {
	d := &deps{resolver: &fakeResolver{}, quotes: &fakeQuotes{}, reasoner: &fakeReasoner{}, results: newFakeResults(), sink: &captureSink{}}
	p := newPipeline(d)

	res, aerr := p.Analyze(context.Background(), request(""))
	require.Nil(t, aerr)
	require.NotEmpty(t, res.CorrelationID)
}

func TestAnalyzeSymbolNotFoundSkipsUpstream(t *testing.T) {
	d := &deps{
		resolver: &fakeResolver{fail: &models.ResolveFailure{
			Kind: models.ErrSymbolNotFound, Message: "no match", Suggestions: []string{"AAPL"},
		}},
		quotes: &fakeQuotes{}, reasoner: &fakeReasoner{}, results: newFakeResults(), sink: &captureSink{},
	}
	p := newPipeline(d)

	res, aerr := p.Analyze(context.Background(), request("cid-2"))
	require.Nil(t, res)
	require.NotNil(t, aerr)
	require.Equal(t, models.ErrSymbolNotFound, aerr.Kind)
	require.Equal(t, "cid-2", aerr.CorrelationID)
	require.NotEmpty(t, aerr.Suggestions)
	require.EqualValues(t, 0, atomic.LoadInt32(&d.quotes.snapCalls))
	require.EqualValues(t, 0, atomic.LoadInt32(&d.reasoner.calls))

	recs := d.sink.all()
	require.Len(t, recs, 1)
	require.False(t, recs[0].Outcome.Success())
	require.Equal(t, models.ErrSymbolNotFound, recs[0].Outcome.Error.Kind)
}

func TestAnalyzeUpstreamUnavailableSkipsReasoner(t *testing.T) {
	d := &deps{
		resolver: &fakeResolver{},
		quotes:   &fakeQuotes{err: &marketdata.FetchError{Class: marketdata.FailTimeout, Symbol: "AAPL", Attempts: 3}},
		reasoner: &fakeReasoner{}, results: newFakeResults(), sink: &captureSink{},
	}
	p := newPipeline(d)

	res, aerr := p.Analyze(context.Background(), request("cid-3"))
	require.Nil(t, res)
	require.Equal(t, models.ErrUpstreamUnavailable, aerr.Kind)
	require.EqualValues(t, 0, atomic.LoadInt32(&d.reasoner.calls))
	require.Len(t, d.sink.all(), 1)
}

func TestAnalyzeProviderNotFound(t *testing.T) {
	d := &deps{
		resolver: &fakeResolver{},
		quotes:   &fakeQuotes{err: &marketdata.FetchError{Class: marketdata.FailNotFound, Symbol: "AAPL"}},
		reasoner: &fakeReasoner{}, results: newFakeResults(), sink: &captureSink{},
	}
	p := newPipeline(d)

	_, aerr := p.Analyze(context.Background(), request("cid-4"))
	require.Equal(t, models.ErrSymbolNotFound, aerr.Kind)
}

func TestAnalyzeReasoningFailure(t *testing.T) {
	d := &deps{
		resolver: &fakeResolver{}, quotes: &fakeQuotes{},
		reasoner: &fakeReasoner{err: errors.New("unparsable output")},
		results:  newFakeResults(), sink: &captureSink{},
	}
	p := newPipeline(d)

	_, aerr := p.Analyze(context.Background(), request("cid-5"))
	require.Equal(t, models.ErrReasoningFailure, aerr.Kind)
	require.Len(t, d.sink.all(), 1)
}

func TestAnalyzeDeadlineYieldsTimeout(t *testing.T) {
	d := &deps{
		resolver: &fakeResolver{}, quotes: &fakeQuotes{},
		reasoner: &fakeReasoner{delay: time.Second},
		results:  newFakeResults(), sink: &captureSink{},
	}
	p := NewPipeline(d.resolver, d.quotes, d.reasoner, d.results, d.sink,
		metrics.Noop{}, logger.Nop(), Config{RequestTimeout: 30 * time.Millisecond})

	_, aerr := p.Analyze(context.Background(), request("cid-7"))
	require.NotNil(t, aerr)
	require.Equal(t, models.ErrTimeout, aerr.Kind)
	require.Len(t, d.sink.all(), 1)
}

func TestAnalyzeIdempotentReplay(t *testing.T) {
	d := &deps{resolver: &fakeResolver{}, quotes: &fakeQuotes{}, reasoner: &fakeReasoner{}, results: newFakeResults(), sink: &captureSink{}}
	p := newPipeline(d)

	first, aerr := p.Analyze(context.Background(), request("cid-6"))
	require.Nil(t, aerr)
	second, aerr := p.Analyze(context.Background(), request("cid-6"))
	require.Nil(t, aerr)
	require.Equal(t, first, second)

	// stages ran once, replay served from the result cache
	require.EqualValues(t, 1, atomic.LoadInt32(&d.quotes.snapCalls))
	require.EqualValues(t, 1, atomic.LoadInt32(&d.reasoner.calls))
	// every invocation leaves an audit record
	require.Len(t, d.sink.all(), 2)
}

func TestAnalyzeAuditPerInvocation(t *testing.T) {
	d := &deps{resolver: &fakeResolver{}, quotes: &fakeQuotes{}, reasoner: &fakeReasoner{}, results: newFakeResults(), sink: &captureSink{}}
	p := newPipeline(d)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := request("")
			res, aerr := p.Analyze(context.Background(), req)
			require.Nil(t, aerr)
			require.Equal(t, req.CorrelationID, res.CorrelationID)
		}(i)
	}
	wg.Wait()
	require.Len(t, d.sink.all(), n)
}
