package usecase

import (
	"context"
	"time"

	"StockGate/internal/domain/models"
	drepo "StockGate/internal/domain/repository"
	"StockGate/internal/service/quotecache"
)

// CacheWarmer consumes the live market stream and folds trades into the
// quote cache so hot symbols answer without an upstream round trip.
type CacheWarmer struct {
	stream  drepo.MarketStream
	cache   *quotecache.Cache
	metrics drepo.Metrics
}

// NewCacheWarmer creates a warmer over stream and cache.
func NewCacheWarmer(stream drepo.MarketStream, cache *quotecache.Cache, metrics drepo.Metrics) *CacheWarmer {
	return &CacheWarmer{stream: stream, cache: cache, metrics: metrics}
}

// IsConnected reports stream connectivity for health checks.
func (w *CacheWarmer) IsConnected() bool {
	return w.stream.IsConnected()
}

// Start connects, subscribes, and consumes until ctx is done.
func (w *CacheWarmer) Start(ctx context.Context) error {
	if err := w.stream.Connect(ctx); err != nil {
		return err
	}
	if err := w.stream.Subscribe(ctx); err != nil {
		return err
	}
	trCh, errCh := w.stream.Read(ctx)
	go w.consume(ctx, trCh, errCh)
	return nil
}

func (w *CacheWarmer) consume(ctx context.Context, trCh <-chan *models.Trade, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok || err != nil {
				w.metrics.RecordError("stream")
				if rerr := w.stream.Reconnect(ctx); rerr != nil {
					select {
					case <-ctx.Done():
						return
					case <-time.After(time.Second):
					}
				}
				trCh, errCh = w.stream.Read(ctx)
			}
		case t, ok := <-trCh:
			if !ok {
				trCh = nil
				continue
			}
			if t == nil {
				continue
			}
			w.cache.RefreshPrice(t.Symbol, t.Price, time.Unix(t.Timestamp, 0).UTC())
			w.metrics.RecordLastPrice(t.Symbol, t.Price)
		}
	}
}

// Stop closes the stream.
func (w *CacheWarmer) Stop() error { return w.stream.Close() }
