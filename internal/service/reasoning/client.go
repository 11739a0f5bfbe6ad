package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"StockGate/internal/domain/models"
	"StockGate/pkg/logger"
)

// Config for the reasoning backend connection.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
}

// Client wraps the generative reasoning backend behind a chat-completions
// API. One bounded call per recommendation, never retried; regenerating
// is expensive and non-idempotent in cost.
type Client struct {
	http *resty.Client
	cfg  Config
	log  *logger.Logger
}

// New creates a reasoning client.
func New(cfg Config, log *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	hc := resty.New().SetBaseURL(cfg.BaseURL)
	if cfg.APIKey != "" {
		hc.SetAuthToken(cfg.APIKey)
	}
	return &Client{http: hc, cfg: cfg, log: log}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Recommend asks the backend for a verdict on the given market context.
func (c *Client) Recommend(ctx context.Context, symbol *models.CanonicalSymbol, snap *models.MarketSnapshot, hist *models.HistoricalSeries) (*models.Recommendation, error) {
	cctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body := chatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(symbol, snap, hist)},
		},
	}

	resp, err := c.http.R().
		SetContext(cctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/v1/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("reasoning call: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reasoning backend status %d", resp.StatusCode())
	}

	var cr chatResponse
	if err := json.Unmarshal(resp.Body(), &cr); err != nil {
		return nil, fmt.Errorf("decode reasoning response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, &ParseError{Reason: "empty choices"}
	}

	rec, err := parseRecommendation(cr.Choices[0].Message.Content)
	if err != nil {
		c.log.Warn("rejecting malformed reasoning output",
			logger.String("symbol", symbol.Symbol),
			logger.Error(err))
		return nil, err
	}
	return rec, nil
}
