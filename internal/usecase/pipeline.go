package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"StockGate/internal/domain/models"
	drepo "StockGate/internal/domain/repository"
	"StockGate/internal/service/marketdata"
	"StockGate/pkg/logger"
)

// AuditSink receives exactly one record per pipeline invocation.
type AuditSink interface {
	Append(ctx context.Context, rec *models.AuditRecord) error
}

// Config bounds the pipeline.
type Config struct {
	RequestTimeout time.Duration
	ResultTTL      time.Duration
	AuditRetention time.Duration
}

// Pipeline composes resolver, quote cache, and reasoner into the single
// analysis capability shared by every protocol adapter. Stages run in
// strict order per request: Received, Resolving, Fetching, Reasoning,
// then Completed or Failed.
type Pipeline struct {
	resolver drepo.Resolver
	quotes   drepo.Quotes
	reasoner drepo.Reasoner
	results  drepo.ResultCache
	audit    AuditSink
	metrics  drepo.Metrics
	log      *logger.Logger
	cfg      Config
}

// NewPipeline creates the orchestration pipeline.
func NewPipeline(
	resolver drepo.Resolver,
	quotes drepo.Quotes,
	reasoner drepo.Reasoner,
	results drepo.ResultCache,
	audit AuditSink,
	metrics drepo.Metrics,
	log *logger.Logger,
	cfg Config,
) *Pipeline {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 10 * time.Minute
	}
	if cfg.AuditRetention <= 0 {
		cfg.AuditRetention = 30 * 24 * time.Hour
	}
	return &Pipeline{
		resolver: resolver,
		quotes:   quotes,
		reasoner: reasoner,
		results:  results,
		audit:    audit,
		metrics:  metrics,
		log:      log,
		cfg:      cfg,
	}
}

// Analyze runs one request through the pipeline. It returns either a
// result or an AnalysisError, never both, and always emits one audit
// record. Replaying a correlation id returns the original result.
func (p *Pipeline) Analyze(ctx context.Context, req *models.AnalysisRequest) (res *models.AnalysisResult, aerr *models.AnalysisError) {
	start := time.Now()
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.NewString()
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = start.UTC()
	}

	if cached, ok := p.results.Get(ctx, req.CorrelationID); ok {
		p.metrics.RecordAnalysis(string(req.SourceProtocol), "replay", time.Since(start).Seconds())
		p.emitAudit(req, models.AuditOutcome{Result: cached})
		return cached, nil
	}

	cctx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("pipeline panic",
				logger.String("correlation_id", req.CorrelationID),
				logger.Any("panic", r))
			res = nil
			aerr = models.NewAnalysisError(models.ErrInternal, req.CorrelationID, "internal error").
				WithCause(fmt.Errorf("panic: %v", r))
		}
		outcome := models.AuditOutcome{Result: res, Error: aerr}
		p.emitAudit(req, outcome)
		label := "success"
		if aerr != nil {
			label = string(aerr.Kind)
			p.metrics.RecordError(string(aerr.Kind))
		}
		p.metrics.RecordAnalysis(string(req.SourceProtocol), label, time.Since(start).Seconds())
	}()

	// Resolving
	sym, aerr := p.resolve(req)
	if aerr != nil {
		return nil, aerr
	}

	// Fetching
	snap, hist, aerr := p.fetch(cctx, req, sym)
	if aerr != nil {
		return nil, aerr
	}

	// Reasoning
	rec, aerr := p.reason(cctx, req, sym, snap, hist)
	if aerr != nil {
		return nil, aerr
	}

	res = &models.AnalysisResult{
		CorrelationID:    req.CorrelationID,
		Symbol:           *sym,
		Snapshot:         snap,
		Recommendation:   *rec,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
	if err := p.results.Put(ctx, req.CorrelationID, res, p.cfg.ResultTTL); err != nil {
		p.log.Warn("result cache put failed",
			logger.String("correlation_id", req.CorrelationID),
			logger.Error(err))
	}
	return res, nil
}

func (p *Pipeline) resolve(req *models.AnalysisRequest) (*models.CanonicalSymbol, *models.AnalysisError) {
	start := time.Now()
	sym, fail := p.resolver.Resolve(req.RawQuery)
	p.metrics.RecordStageLatency("resolve", time.Since(start).Seconds())
	if fail != nil {
		return nil, models.NewAnalysisError(fail.Kind, req.CorrelationID, fail.Message).
			WithSuggestions(fail.Suggestions)
	}
	return sym, nil
}

func (p *Pipeline) fetch(ctx context.Context, req *models.AnalysisRequest, sym *models.CanonicalSymbol) (*models.MarketSnapshot, *models.HistoricalSeries, *models.AnalysisError) {
	start := time.Now()
	snap, err := p.quotes.Snapshot(ctx, sym.Symbol)
	var hist *models.HistoricalSeries
	if err == nil {
		hist, err = p.quotes.History(ctx, sym.Symbol)
	}
	p.metrics.RecordStageLatency("fetch", time.Since(start).Seconds())
	if err != nil {
		return nil, nil, p.mapFetchError(ctx, req.CorrelationID, sym, err)
	}
	return snap, hist, nil
}

func (p *Pipeline) reason(ctx context.Context, req *models.AnalysisRequest, sym *models.CanonicalSymbol, snap *models.MarketSnapshot, hist *models.HistoricalSeries) (*models.Recommendation, *models.AnalysisError) {
	start := time.Now()
	rec, err := p.reasoner.Recommend(ctx, sym, snap, hist)
	p.metrics.RecordStageLatency("reason", time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, models.NewAnalysisError(models.ErrTimeout, req.CorrelationID,
				"analysis deadline exceeded").WithCause(err)
		}
		return nil, models.NewAnalysisError(models.ErrReasoningFailure, req.CorrelationID,
			fmt.Sprintf("reasoning failed for %s", sym.Symbol)).WithCause(err)
	}
	return rec, nil
}

func (p *Pipeline) mapFetchError(ctx context.Context, correlationID string, sym *models.CanonicalSymbol, err error) *models.AnalysisError {
	if ctx.Err() == context.DeadlineExceeded {
		return models.NewAnalysisError(models.ErrTimeout, correlationID,
			"analysis deadline exceeded").WithCause(err)
	}
	var fe *marketdata.FetchError
	if errors.As(err, &fe) && fe.Class == marketdata.FailNotFound {
		return models.NewAnalysisError(models.ErrSymbolNotFound, correlationID,
			fmt.Sprintf("market data provider does not recognize %s", sym.Symbol)).WithCause(err)
	}
	return models.NewAnalysisError(models.ErrUpstreamUnavailable, correlationID,
		fmt.Sprintf("market data unavailable for %s", sym.Symbol)).WithCause(err)
}

// emitAudit writes the invocation record. The write is detached from the
// request context so a cancelled caller still leaves a trail.
func (p *Pipeline) emitAudit(req *models.AnalysisRequest, outcome models.AuditOutcome) {
	now := time.Now().UTC()
	rec := &models.AuditRecord{
		CorrelationID:      req.CorrelationID,
		SourceProtocol:     req.SourceProtocol,
		Request:            *req,
		Outcome:            outcome,
		Timestamp:          now,
		RetentionExpiresAt: now.Add(p.cfg.AuditRetention),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.audit.Append(ctx, rec); err != nil {
		p.metrics.RecordError("audit")
		p.log.Error("audit append failed",
			logger.String("correlation_id", rec.CorrelationID),
			logger.Error(err))
	}
}
