package quotecache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"StockGate/internal/domain/models"
	drepo "StockGate/internal/domain/repository"
	"StockGate/pkg/logger"
)

const (
	kindSnapshot = "snapshot"
	kindHistory  = "history"
)

// Config controls TTLs and fetch behavior.
type Config struct {
	SnapshotTTL    time.Duration
	HistoryTTL     time.Duration
	HistoryMonths  int
	FetchTimeout   time.Duration
	StaleRetention time.Duration
}

type entry struct {
	value     interface{}
	storedAt  time.Time
	expiresAt time.Time
}

// Cache is a time-bounded quote cache over a MarketData client. Concurrent
// requests for the same key share one upstream fetch, and an upstream
// failure with an expired entry present serves the stale value instead of
// failing the caller.
type Cache struct {
	client  drepo.MarketData
	cfg     Config
	sf      singleflight.Group
	mu      sync.RWMutex
	entries map[string]*entry
	metrics drepo.Metrics
	log     *logger.Logger
}

// New creates a quote cache.
func New(client drepo.MarketData, cfg Config, metrics drepo.Metrics, log *logger.Logger) *Cache {
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 60 * time.Second
	}
	if cfg.HistoryTTL <= 0 {
		cfg.HistoryTTL = 4 * time.Hour
	}
	if cfg.HistoryMonths <= 0 {
		cfg.HistoryMonths = 6
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.StaleRetention <= 0 {
		cfg.StaleRetention = time.Hour
	}
	return &Cache{
		client:  client,
		cfg:     cfg,
		entries: make(map[string]*entry),
		metrics: metrics,
		log:     log,
	}
}

// Snapshot returns the current quote for symbol, from cache when fresh.
func (c *Cache) Snapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	v, err := c.get(ctx, kindSnapshot, symbol, func(fctx context.Context) (interface{}, error) {
		return c.client.FetchSnapshot(fctx, symbol)
	}, c.cfg.SnapshotTTL)
	if err != nil {
		return nil, err
	}
	return v.(*models.MarketSnapshot), nil
}

// History returns the trailing daily series for symbol, from cache when fresh.
func (c *Cache) History(ctx context.Context, symbol string) (*models.HistoricalSeries, error) {
	v, err := c.get(ctx, kindHistory, symbol, func(fctx context.Context) (interface{}, error) {
		return c.client.FetchHistory(fctx, symbol, c.cfg.HistoryMonths)
	}, c.cfg.HistoryTTL)
	if err != nil {
		return nil, err
	}
	return v.(*models.HistoricalSeries), nil
}

func (c *Cache) get(ctx context.Context, kind, symbol string, fetch func(context.Context) (interface{}, error), ttl time.Duration) (interface{}, error) {
	key := kind + ":" + symbol

	if v, ok := c.fresh(key); ok {
		c.metrics.RecordCacheEvent(kind, "hit")
		return v, nil
	}
	c.metrics.RecordCacheEvent(kind, "miss")

	// The fetch is detached from the caller's context so cancelling one
	// waiter does not kill the flight other waiters share.
	ch := c.sf.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.FetchTimeout)
		defer cancel()
		v, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		c.store(key, v, ttl)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err == nil {
			return res.Val, nil
		}
		if stale, age, ok := c.stale(key); ok {
			c.metrics.RecordCacheEvent(kind, "stale")
			c.log.Warn("serving stale market data",
				logger.String("key", key),
				logger.Duration("age", age),
				logger.Error(res.Err))
			return stale, nil
		}
		return nil, res.Err
	}
}

func (c *Cache) fresh(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// stale returns an expired entry, marked as stale, and its age.
func (c *Cache) stale(key string) (interface{}, time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, 0, false
	}
	age := time.Since(e.storedAt)
	switch v := e.value.(type) {
	case *models.MarketSnapshot:
		cp := *v
		cp.Stale = true
		return &cp, age, true
	case *models.HistoricalSeries:
		cp := *v
		cp.Stale = true
		return &cp, age, true
	}
	return nil, 0, false
}

func (c *Cache) store(key string, v interface{}, ttl time.Duration) {
	now := time.Now()
	c.mu.Lock()
	c.entries[key] = &entry{value: v, storedAt: now, expiresAt: now.Add(ttl)}
	c.mu.Unlock()
}

// RefreshPrice folds a live trade into the cached snapshot for symbol, if
// one exists. Fed by the market stream to keep hot symbols warm.
func (c *Cache) RefreshPrice(symbol string, price float64, at time.Time) {
	key := kindSnapshot + ":" + symbol
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	snap, ok := e.value.(*models.MarketSnapshot)
	if !ok {
		return
	}
	cp := *snap
	cp.Price = price
	if price > cp.DailyHigh {
		cp.DailyHigh = price
	}
	if cp.DailyLow == 0 || price < cp.DailyLow {
		cp.DailyLow = price
	}
	cp.AsOf = at
	cp.Stale = false
	now := time.Now()
	c.entries[key] = &entry{value: &cp, storedAt: now, expiresAt: now.Add(c.cfg.SnapshotTTL)}
	c.metrics.RecordLastPrice(symbol, price)
}

// StartSweep reclaims entries older than the stale retention window.
// Correctness does not depend on it; expired entries are kept for
// serve-stale until swept.
func (c *Cache) StartSweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

func (c *Cache) sweep() {
	cutoff := time.Now().Add(-c.cfg.StaleRetention)
	c.mu.Lock()
	for k, e := range c.entries {
		if e.expiresAt.Before(cutoff) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}
