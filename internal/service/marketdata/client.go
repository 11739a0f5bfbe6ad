package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"StockGate/internal/domain/models"
	drepo "StockGate/internal/domain/repository"
	"StockGate/pkg/logger"
)

// Config controls the client's transport and resilience behavior.
type Config struct {
	BaseURL          string
	APIKey           string
	Timeout          time.Duration
	MaxAttempts      int
	BackoffBase      time.Duration
	BackoffFactor    float64
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Client is a resilient MarketData implementation over the provider's
// HTTP API. Each call retries transient failures with jittered backoff
// behind a shared circuit breaker.
type Client struct {
	http    *resty.Client
	apiKey  string
	breaker *Breaker
	cfg     Config
	metrics drepo.Metrics
	log     *logger.Logger
}

// New creates a MarketData client.
func New(cfg Config, metrics drepo.Metrics, log *logger.Logger) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 200 * time.Millisecond
	}
	if cfg.BackoffFactor <= 1 {
		cfg.BackoffFactor = 2
	}
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	hc := resty.New().SetBaseURL(cfg.BaseURL)
	if cfg.Timeout > 0 {
		hc.SetTimeout(cfg.Timeout)
	}
	return &Client{
		http:    hc,
		apiKey:  cfg.APIKey,
		breaker: NewBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
		cfg:     cfg,
		metrics: metrics,
		log:     log,
	}
}

type quoteResponse struct {
	Current float64 `json:"c"`
	High    float64 `json:"h"`
	Low     float64 `json:"l"`
	Volume  float64 `json:"v"`
	At      int64   `json:"t"`
}

type candleResponse struct {
	Status  string    `json:"s"`
	Times   []int64   `json:"t"`
	Opens   []float64 `json:"o"`
	Highs   []float64 `json:"h"`
	Lows    []float64 `json:"l"`
	Closes  []float64 `json:"c"`
	Volumes []float64 `json:"v"`
}

// FetchSnapshot retrieves the current quote for symbol.
func (c *Client) FetchSnapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	var snap *models.MarketSnapshot
	err := c.execute(ctx, "snapshot", symbol, func(ctx context.Context) error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{"symbol": symbol, "token": c.apiKey}).
			Get("/quote")
		if err != nil {
			return err
		}
		if fe := c.statusError(resp, symbol); fe != nil {
			return fe
		}
		var q quoteResponse
		if err := json.Unmarshal(resp.Body(), &q); err != nil {
			return fmt.Errorf("decode quote: %w", err)
		}
		if q.At == 0 && q.Current == 0 {
			return &FetchError{Class: FailNotFound, Symbol: symbol}
		}
		snap = &models.MarketSnapshot{
			Symbol:    symbol,
			Price:     q.Current,
			DailyHigh: q.High,
			DailyLow:  q.Low,
			Volume:    q.Volume,
			AsOf:      time.Unix(q.At, 0).UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// FetchHistory retrieves months of daily candles for symbol, oldest first.
func (c *Client) FetchHistory(ctx context.Context, symbol string, months int) (*models.HistoricalSeries, error) {
	if months <= 0 {
		months = 6
	}
	to := time.Now().UTC()
	from := to.AddDate(0, -months, 0)

	var series *models.HistoricalSeries
	err := c.execute(ctx, "history", symbol, func(ctx context.Context) error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"symbol":     symbol,
				"resolution": "D",
				"from":       fmt.Sprintf("%d", from.Unix()),
				"to":         fmt.Sprintf("%d", to.Unix()),
				"token":      c.apiKey,
			}).
			Get("/stock/candle")
		if err != nil {
			return err
		}
		if fe := c.statusError(resp, symbol); fe != nil {
			return fe
		}
		var cr candleResponse
		if err := json.Unmarshal(resp.Body(), &cr); err != nil {
			return fmt.Errorf("decode candles: %w", err)
		}
		if cr.Status == "no_data" {
			return &FetchError{Class: FailNotFound, Symbol: symbol}
		}
		if cr.Status != "ok" {
			return fmt.Errorf("candle status %q", cr.Status)
		}
		candles := make([]models.Candle, 0, len(cr.Times))
		for i := range cr.Times {
			candles = append(candles, models.Candle{
				Date:   time.Unix(cr.Times[i], 0).UTC(),
				Open:   cr.Opens[i],
				Close:  cr.Closes[i],
				High:   cr.Highs[i],
				Low:    cr.Lows[i],
				Volume: cr.Volumes[i],
			})
		}
		series = &models.HistoricalSeries{Symbol: symbol, Candles: candles, AsOf: time.Now().UTC()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}

func (c *Client) statusError(resp *resty.Response, symbol string) *FetchError {
	switch {
	case resp.StatusCode() == http.StatusOK:
		return nil
	case resp.StatusCode() == http.StatusNotFound:
		return &FetchError{Class: FailNotFound, Symbol: symbol}
	case resp.StatusCode() == http.StatusTooManyRequests:
		return &FetchError{Class: FailRateLimited, Symbol: symbol}
	default:
		return &FetchError{Class: FailTransport, Symbol: symbol, Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
}

// execute runs call behind the breaker with retry and jittered backoff.
// NotFound is returned immediately and never counts against the breaker.
func (c *Client) execute(ctx context.Context, op, symbol string, call func(context.Context) error) error {
	if !c.breaker.Allow() {
		c.metrics.RecordUpstreamAttempt(op, "breaker_open")
		return &FetchError{Class: FailUnavailable, Symbol: symbol}
	}

	start := time.Now()
	backoff := c.cfg.BackoffBase
	var last *FetchError
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		err := call(ctx)
		if err == nil {
			c.breaker.Success()
			c.metrics.SetBreakerState(c.breaker.State())
			c.metrics.RecordUpstreamAttempt(op, "success")
			return nil
		}

		fe := classify(err, symbol)
		fe.Attempts = attempt
		fe.Elapsed = time.Since(start)
		c.metrics.RecordUpstreamAttempt(op, string(fe.Class))

		if fe.Class == FailNotFound {
			// the upstream answered; not a provider health problem
			c.breaker.Success()
			return fe
		}

		c.breaker.Failure()
		c.metrics.SetBreakerState(c.breaker.State())
		c.log.Warn("market data attempt failed",
			logger.String("op", op),
			logger.String("symbol", symbol),
			logger.String("class", string(fe.Class)),
			logger.Int("attempt", attempt),
			logger.Error(fe))
		last = fe

		if !fe.Retriable() || attempt == c.cfg.MaxAttempts {
			break
		}
		if !c.breaker.Allow() {
			break
		}
		select {
		case <-ctx.Done():
			fe := classify(ctx.Err(), symbol)
			fe.Attempts = attempt
			fe.Elapsed = time.Since(start)
			return fe
		case <-time.After(jittered(backoff)):
		}
		backoff = time.Duration(float64(backoff) * c.cfg.BackoffFactor)
	}
	return last
}

// jittered spreads the delay over [d/2, d) to avoid retry alignment.
func jittered(d time.Duration) time.Duration {
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}
