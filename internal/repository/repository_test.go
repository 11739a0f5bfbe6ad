package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"StockGate/internal/domain/models"
	"StockGate/pkg/cache"
)

func auditRecord(cid, symbol string, at time.Time) *models.AuditRecord {
	return &models.AuditRecord{
		CorrelationID:  cid,
		SourceProtocol: models.ProtocolREST,
		Request:        models.AnalysisRequest{CorrelationID: cid, RawQuery: symbol},
		Outcome: models.AuditOutcome{Result: &models.AnalysisResult{
			CorrelationID: cid,
			Symbol:        models.CanonicalSymbol{Symbol: symbol},
		}},
		Timestamp:          at,
		RetentionExpiresAt: at.Add(30 * 24 * time.Hour),
	}
}

func TestMemoryAuditRecentNewestFirst(t *testing.T) {
	s := NewMemoryAuditStore(100)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		rec := auditRecord(fmt.Sprintf("cid-%d", i), "AAPL", time.Now())
		require.NoError(t, s.Append(ctx, rec))
	}

	recs, err := s.Recent(ctx, "", 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, "cid-4", recs[0].CorrelationID)
	require.Equal(t, "cid-2", recs[2].CorrelationID)
}

func TestMemoryAuditSymbolFilter(t *testing.T) {
	s := NewMemoryAuditStore(100)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, auditRecord("a", "AAPL", time.Now())))
	require.NoError(t, s.Append(ctx, auditRecord("b", "MSFT", time.Now())))
	require.NoError(t, s.Append(ctx, auditRecord("c", "AAPL", time.Now())))

	recs, err := s.Recent(ctx, "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		require.Equal(t, "AAPL", r.Outcome.Result.Symbol.Symbol)
	}
}

func TestMemoryAuditRetentionExpiry(t *testing.T) {
	s := NewMemoryAuditStore(100)
	ctx := context.Background()
	expired := auditRecord("old", "AAPL", time.Now().Add(-31*24*time.Hour))
	expired.RetentionExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, s.Append(ctx, expired))
	require.NoError(t, s.Append(ctx, auditRecord("fresh", "AAPL", time.Now())))

	recs, err := s.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "fresh", recs[0].CorrelationID)
}

func TestMemoryAuditBounded(t *testing.T) {
	s := NewMemoryAuditStore(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, auditRecord(fmt.Sprintf("cid-%d", i), "AAPL", time.Now())))
	}

	recs, err := s.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, "cid-4", recs[0].CorrelationID)
}

func TestMemoryAuditFailureRecordsHaveNoSymbol(t *testing.T) {
	s := NewMemoryAuditStore(100)
	ctx := context.Background()
	rec := auditRecord("fail", "", time.Now())
	rec.Outcome = models.AuditOutcome{Error: &models.AnalysisError{
		Kind: models.ErrSymbolNotFound, CorrelationID: "fail",
	}}
	require.NoError(t, s.Append(ctx, rec))

	bySymbol, err := s.Recent(ctx, "AAPL", 10)
	require.NoError(t, err)
	require.Empty(t, bySymbol)

	all, err := s.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestCachedResultsRoundTrip(t *testing.T) {
	rc := NewCachedResults(cache.NewMemoryCache())
	ctx := context.Background()

	res := &models.AnalysisResult{
		CorrelationID: "cid-1",
		Symbol:        models.CanonicalSymbol{Symbol: "AAPL", DisplayName: "Apple Inc."},
		Snapshot:      &models.MarketSnapshot{Symbol: "AAPL", Price: 187.5},
		Recommendation: models.Recommendation{
			Action: models.ActionBuy, Confidence: 74, Reasoning: "trend",
		},
	}
	require.NoError(t, rc.Put(ctx, "cid-1", res, time.Minute))

	got, ok := rc.Get(ctx, "cid-1")
	require.True(t, ok)
	require.Equal(t, "AAPL", got.Symbol.Symbol)
	require.Equal(t, models.ActionBuy, got.Recommendation.Action)
	require.InDelta(t, 187.5, got.Snapshot.Price, 0.01)
}

func TestCachedResultsMiss(t *testing.T) {
	rc := NewCachedResults(cache.NewMemoryCache())
	_, ok := rc.Get(context.Background(), "absent")
	require.False(t, ok)
}

func TestStaticPeersLookup(t *testing.T) {
	p := NewStaticPeers(map[string]string{"research-agent": "http://peer:8080/agent/messages"})

	ep, ok := p.Lookup("research-agent")
	require.True(t, ok)
	require.Equal(t, "http://peer:8080/agent/messages", ep)

	_, ok = p.Lookup("nobody")
	require.False(t, ok)
}
