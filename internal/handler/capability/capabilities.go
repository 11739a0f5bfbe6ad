package capability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockGate/internal/domain/models"
	"StockGate/internal/service/marketdata"
)

func (h *Handler) registerCapabilities() {
	h.registry.Register(Capability{
		ID:          "analyze_stock",
		Name:        "Stock Analysis",
		Description: "Full analysis of a stock with a Buy, Hold, or Sell recommendation",
		Type:        "analysis",
		InputSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"company_name_or_ticker": {
					Type:        "string",
					Description: "Company name or ticker symbol to analyze",
				},
			},
			Required: []string{"company_name_or_ticker"},
		},
		OutputSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"ticker":           {Type: "string"},
				"company_name":     {Type: "string"},
				"recommendation":   {Type: "string", Enum: []string{"Buy", "Hold", "Sell"}},
				"confidence_score": {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(100)},
				"current_price":    {Type: "number"},
				"reasoning":        {Type: "string"},
			},
		},
	}, h.analyzeStock)

	h.registry.Register(Capability{
		ID:          "get_market_data",
		Name:        "Market Data",
		Description: "Current quote and optional six-month daily history for a ticker",
		Type:        "data",
		InputSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"ticker": {
					Type:        "string",
					Description: "Ticker symbol",
				},
				"include_historical": {
					Type:        "boolean",
					Description: "Include the trailing daily candle series",
					Default:     true,
				},
			},
			Required: []string{"ticker"},
		},
		OutputSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"ticker":          {Type: "string"},
				"quote":           {Type: "object"},
				"historical_data": {Type: "object"},
			},
		},
	}, h.getMarketData)

	h.registry.Register(Capability{
		ID:          "resolve_company_name",
		Name:        "Company Name Resolution",
		Description: "Resolve a company name to its ticker symbol",
		Type:        "data",
		InputSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"company_name": {
					Type:        "string",
					Description: "Company name to resolve",
				},
			},
			Required: []string{"company_name"},
		},
		OutputSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"input_name":            {Type: "string"},
				"ticker":                {Type: "string"},
				"resolved_company_name": {Type: "string"},
			},
		},
	}, h.resolveCompanyName)

	h.registry.Register(Capability{
		ID:          "query",
		Name:        "Natural Language Query",
		Description: "Answer a free-form stock question with a recommendation",
		Type:        "analysis",
		InputSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "Natural language question about a stock",
				},
			},
			Required: []string{"query"},
		},
		OutputSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"response":         {Type: "string"},
				"ticker":           {Type: "string"},
				"recommendation":   {Type: "string"},
				"confidence_score": {Type: "number"},
			},
		},
	}, h.query)
}

func (h *Handler) analyzeStock(ctx context.Context, params map[string]interface{}) (map[string]interface{}, *InvokeError) {
	res, aerr := h.pipeline.Analyze(ctx, &models.AnalysisRequest{
		RawQuery:       StringParam(params, "company_name_or_ticker", ""),
		SourceProtocol: models.ProtocolCapability,
	})
	if aerr != nil {
		return nil, fromAnalysisError(aerr)
	}
	return map[string]interface{}{
		"ticker":           res.Symbol.Symbol,
		"company_name":     res.Symbol.DisplayName,
		"recommendation":   string(res.Recommendation.Action),
		"confidence_score": res.Recommendation.Confidence,
		"current_price":    res.Snapshot.Price,
		"price_stale":      res.Snapshot.Stale,
		"reasoning":        res.Recommendation.Reasoning,
		"key_factors":      res.Recommendation.KeyFactors,
		"analysis_id":      res.CorrelationID,
	}, nil
}

func (h *Handler) getMarketData(ctx context.Context, params map[string]interface{}) (map[string]interface{}, *InvokeError) {
	sym, rf := h.resolver.Resolve(StringParam(params, "ticker", ""))
	if rf != nil {
		return nil, fromResolveFailure(rf)
	}

	snap, err := h.quotes.Snapshot(ctx, sym.Symbol)
	if err != nil {
		return nil, fromFetchError(sym.Symbol, err)
	}
	result := map[string]interface{}{
		"ticker": sym.Symbol,
		"quote": map[string]interface{}{
			"price":      snap.Price,
			"daily_high": snap.DailyHigh,
			"daily_low":  snap.DailyLow,
			"volume":     snap.Volume,
			"as_of":      snap.AsOf.UTC().Format(time.RFC3339),
			"stale":      snap.Stale,
		},
	}

	if BoolParam(params, "include_historical", true) {
		hist, err := h.quotes.History(ctx, sym.Symbol)
		if err != nil {
			return nil, fromFetchError(sym.Symbol, err)
		}
		candles := make([]map[string]interface{}, 0, len(hist.Candles))
		for _, cd := range hist.Candles {
			candles = append(candles, map[string]interface{}{
				"date":   cd.Date.UTC().Format("2006-01-02"),
				"open":   cd.Open,
				"close":  cd.Close,
				"high":   cd.High,
				"low":    cd.Low,
				"volume": cd.Volume,
			})
		}
		result["historical_data"] = map[string]interface{}{
			"candles": candles,
			"as_of":   hist.AsOf.UTC().Format(time.RFC3339),
			"stale":   hist.Stale,
		}
	}
	return result, nil
}

func (h *Handler) resolveCompanyName(_ context.Context, params map[string]interface{}) (map[string]interface{}, *InvokeError) {
	input := StringParam(params, "company_name", "")
	sym, rf := h.resolver.Resolve(input)
	if rf != nil {
		return nil, fromResolveFailure(rf)
	}
	return map[string]interface{}{
		"input_name":            input,
		"ticker":                sym.Symbol,
		"resolved_company_name": sym.DisplayName,
	}, nil
}

func (h *Handler) query(ctx context.Context, params map[string]interface{}) (map[string]interface{}, *InvokeError) {
	res, aerr := h.pipeline.Analyze(ctx, &models.AnalysisRequest{
		RawQuery:       StringParam(params, "query", ""),
		SourceProtocol: models.ProtocolCapability,
	})
	if aerr != nil {
		return nil, fromAnalysisError(aerr)
	}
	text := fmt.Sprintf("%s (%s): %s with %.0f%% confidence. %s",
		res.Symbol.DisplayName, res.Symbol.Symbol,
		res.Recommendation.Action, res.Recommendation.Confidence,
		res.Recommendation.Reasoning)
	return map[string]interface{}{
		"response":         text,
		"ticker":           res.Symbol.Symbol,
		"recommendation":   string(res.Recommendation.Action),
		"confidence_score": res.Recommendation.Confidence,
	}, nil
}

func fromAnalysisError(aerr *models.AnalysisError) *InvokeError {
	return &InvokeError{
		Kind:        aerr.Kind,
		Message:     aerr.Message,
		Suggestions: aerr.Suggestions,
	}
}

func fromResolveFailure(rf *models.ResolveFailure) *InvokeError {
	return &InvokeError{
		Kind:        rf.Kind,
		Message:     rf.Message,
		Suggestions: rf.Suggestions,
	}
}

func fromFetchError(symbol string, err error) *InvokeError {
	var fe *marketdata.FetchError
	if errors.As(err, &fe) && fe.Class == marketdata.FailNotFound {
		return &InvokeError{
			Kind:    models.ErrSymbolNotFound,
			Message: "no market data for " + symbol,
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &InvokeError{
			Kind:    models.ErrTimeout,
			Message: "market data request timed out for " + symbol,
		}
	}
	return &InvokeError{
		Kind:    models.ErrUpstreamUnavailable,
		Message: "market data unavailable for " + symbol,
	}
}

func floatPtr(v float64) *float64 { return &v }
