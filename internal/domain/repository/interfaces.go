package repository

import (
	"context"
	"time"

	"StockGate/internal/domain/models"
)

// Resolver turns free-form user text into a canonical ticker symbol.
type Resolver interface {
	Resolve(query string) (*models.CanonicalSymbol, *models.ResolveFailure)
}

// MarketData is the raw upstream quote provider. Implementations own
// retry and circuit-breaking; callers only see the final outcome.
type MarketData interface {
	FetchSnapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error)
	FetchHistory(ctx context.Context, symbol string, months int) (*models.HistoricalSeries, error)
}

// Quotes is the cached view over MarketData that the pipeline consumes.
type Quotes interface {
	Snapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error)
	History(ctx context.Context, symbol string) (*models.HistoricalSeries, error)
}

// Reasoner produces a recommendation from market context.
type Reasoner interface {
	Recommend(ctx context.Context, symbol *models.CanonicalSymbol, snap *models.MarketSnapshot, hist *models.HistoricalSeries) (*models.Recommendation, error)
}

// MarketStream delivers live trades used to keep cached prices warm.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Trade, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// AuditStore persists one record per invocation.
type AuditStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Append(ctx context.Context, rec *models.AuditRecord) error
	Recent(ctx context.Context, symbol string, limit int) ([]*models.AuditRecord, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// AuditPublisher ships audit records to a broker for out-of-process ingest.
type AuditPublisher interface {
	Publish(ctx context.Context, rec *models.AuditRecord) error
	Close() error
}

// ResultCache remembers completed results by correlation id so a replayed
// invocation returns the original outcome without re-running the pipeline.
type ResultCache interface {
	Get(ctx context.Context, correlationID string) (*models.AnalysisResult, bool)
	Put(ctx context.Context, correlationID string, res *models.AnalysisResult, ttl time.Duration) error
}

// PeerRegistry maps agent ids to their messaging endpoints.
type PeerRegistry interface {
	Lookup(agentID string) (endpoint string, ok bool)
}

type Metrics interface {
	RecordAnalysis(protocol string, outcome string, seconds float64)
	RecordStageLatency(stage string, seconds float64)
	RecordCacheEvent(kind, event string)
	RecordUpstreamAttempt(op, result string)
	SetBreakerState(state float64)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
}
