package repository

import (
	"context"
	"sync"
	"time"

	"StockGate/internal/domain/models"
	drepo "StockGate/internal/domain/repository"
)

// MemoryAuditStore is an in-process AuditStore for development and tests.
// Records past their retention window are dropped on access.
type MemoryAuditStore struct {
	mu      sync.RWMutex
	records []*models.AuditRecord
	max     int
}

// NewMemoryAuditStore creates a bounded in-memory audit store.
func NewMemoryAuditStore(max int) drepo.AuditStore {
	if max <= 0 {
		max = 10000
	}
	return &MemoryAuditStore{max: max}
}

func (s *MemoryAuditStore) Init(ctx context.Context) error { return nil }

func (s *MemoryAuditStore) Append(ctx context.Context, rec *models.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	if len(s.records) > s.max {
		s.records = s.records[len(s.records)-s.max:]
	}
	return nil
}

func (s *MemoryAuditStore) Recent(ctx context.Context, symbol string, limit int) ([]*models.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	now := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.AuditRecord, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		rec := s.records[i]
		if now.After(rec.RetentionExpiresAt) {
			continue
		}
		if symbol != "" && recordSymbol(rec) != symbol {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *MemoryAuditStore) Health(ctx context.Context) error { return nil }

func (s *MemoryAuditStore) Close() error { return nil }

// recordSymbol extracts the resolved ticker, empty if resolution failed.
func recordSymbol(rec *models.AuditRecord) string {
	if rec.Outcome.Result != nil {
		return rec.Outcome.Result.Symbol.Symbol
	}
	return ""
}
