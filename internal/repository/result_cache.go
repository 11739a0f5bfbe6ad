package repository

import (
	"context"
	"encoding/json"
	"time"

	"StockGate/internal/domain/models"
	"StockGate/pkg/cache"
)

const resultKeyPrefix = "result"

// CachedResults implements ResultCache over a cache.Service, so completed
// analyses survive replays for the configured TTL. Values are stored as
// JSON strings, which both the memory and redis backends pass through
// unmodified.
type CachedResults struct {
	cache cache.Service
}

// NewCachedResults creates a ResultCache over svc.
func NewCachedResults(svc cache.Service) *CachedResults {
	return &CachedResults{cache: svc}
}

func (r *CachedResults) Get(ctx context.Context, correlationID string) (*models.AnalysisResult, bool) {
	var raw string
	if err := r.cache.Get(ctx, cache.GenerateKey(resultKeyPrefix, correlationID), &raw); err != nil {
		return nil, false
	}
	var res models.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, false
	}
	return &res, true
}

func (r *CachedResults) Put(ctx context.Context, correlationID string, res *models.AnalysisResult, ttl time.Duration) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return r.cache.Set(ctx, cache.GenerateKey(resultKeyPrefix, correlationID), string(raw), ttl)
}
