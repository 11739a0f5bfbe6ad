package quotecache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"StockGate/internal/domain/models"
	"StockGate/pkg/logger"
	"StockGate/pkg/metrics"
)

type fakeMarketData struct {
	mu        sync.Mutex
	snapCalls int32
	histCalls int32
	fail      bool
	delay     time.Duration
	price     float64
}

func (f *fakeMarketData) FetchSnapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	atomic.AddInt32(&f.snapCalls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	fail, price := f.fail, f.price
	f.mu.Unlock()
	if fail {
		return nil, errors.New("upstream down")
	}
	return &models.MarketSnapshot{Symbol: symbol, Price: price, AsOf: time.Now()}, nil
}

func (f *fakeMarketData) FetchHistory(ctx context.Context, symbol string, months int) (*models.HistoricalSeries, error) {
	atomic.AddInt32(&f.histCalls, 1)
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return nil, errors.New("upstream down")
	}
	return &models.HistoricalSeries{Symbol: symbol, Candles: []models.Candle{{Close: 10}}, AsOf: time.Now()}, nil
}

func (f *fakeMarketData) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func newCache(fd *fakeMarketData, cfg Config) *Cache {
	return New(fd, cfg, metrics.Noop{}, logger.Nop())
}

func TestSnapshotCached(t *testing.T) {
	fd := &fakeMarketData{price: 100}
	c := newCache(fd, Config{SnapshotTTL: time.Minute})

	first, err := c.Snapshot(context.Background(), "AAPL")
	require.NoError(t, err)
	second, err := c.Snapshot(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.EqualValues(t, 1, atomic.LoadInt32(&fd.snapCalls))
}

func TestSingleFlight(t *testing.T) {
	fd := &fakeMarketData{price: 100, delay: 50 * time.Millisecond}
	c := newCache(fd, Config{SnapshotTTL: time.Minute})

	const n = 20
	var wg sync.WaitGroup
	results := make([]*models.MarketSnapshot, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := c.Snapshot(context.Background(), "AAPL")
			require.NoError(t, err)
			results[i] = snap
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, atomic.LoadInt32(&fd.snapCalls))
	for i := 1; i < n; i++ {
		require.Equal(t, results[0], results[i])
	}
}

func TestExpiredEntryRefetched(t *testing.T) {
	fd := &fakeMarketData{price: 100}
	c := newCache(fd, Config{SnapshotTTL: 10 * time.Millisecond})

	_, err := c.Snapshot(context.Background(), "AAPL")
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = c.Snapshot(context.Background(), "AAPL")
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&fd.snapCalls))
}

func TestServeStaleOnError(t *testing.T) {
	fd := &fakeMarketData{price: 100}
	c := newCache(fd, Config{SnapshotTTL: 10 * time.Millisecond})

	fresh, err := c.Snapshot(context.Background(), "AAPL")
	require.NoError(t, err)
	require.False(t, fresh.Stale)

	time.Sleep(20 * time.Millisecond)
	fd.setFail(true)

	stale, err := c.Snapshot(context.Background(), "AAPL")
	require.NoError(t, err)
	require.True(t, stale.Stale)
	require.Equal(t, fresh.Price, stale.Price)
}

func TestNoEntryPropagatesFailure(t *testing.T) {
	fd := &fakeMarketData{fail: true}
	c := newCache(fd, Config{})

	_, err := c.Snapshot(context.Background(), "AAPL")
	require.Error(t, err)

	_, err = c.History(context.Background(), "AAPL")
	require.Error(t, err)
}

func TestCancelledWaiterDoesNotKillFlight(t *testing.T) {
	fd := &fakeMarketData{price: 100, delay: 80 * time.Millisecond}
	c := newCache(fd, Config{SnapshotTTL: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Snapshot(ctx, "AAPL")
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// the shared flight keeps running and populates the cache
	require.Eventually(t, func() bool {
		_, ok := c.fresh("snapshot:AAPL")
		return ok
	}, time.Second, 10*time.Millisecond)
	require.EqualValues(t, 1, atomic.LoadInt32(&fd.snapCalls))
}

func TestHistoryCachedSeparately(t *testing.T) {
	fd := &fakeMarketData{price: 100}
	c := newCache(fd, Config{})

	_, err := c.Snapshot(context.Background(), "AAPL")
	require.NoError(t, err)
	_, err = c.History(context.Background(), "AAPL")
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(&fd.snapCalls))
	require.EqualValues(t, 1, atomic.LoadInt32(&fd.histCalls))
}

func TestRefreshPrice(t *testing.T) {
	fd := &fakeMarketData{price: 100}
	c := newCache(fd, Config{SnapshotTTL: time.Minute})

	_, err := c.Snapshot(context.Background(), "AAPL")
	require.NoError(t, err)

	at := time.Now()
	c.RefreshPrice("AAPL", 105.5, at)

	snap, err := c.Snapshot(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, 105.5, snap.Price)
	require.Equal(t, 105.5, snap.DailyHigh)
	require.EqualValues(t, 1, atomic.LoadInt32(&fd.snapCalls))

	// no entry for unseen symbols
	c.RefreshPrice("MSFT", 50, at)
	_, ok := c.fresh("snapshot:MSFT")
	require.False(t, ok)
}
