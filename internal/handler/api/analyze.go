package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"StockGate/internal/domain/models"
	drepo "StockGate/internal/domain/repository"
	"StockGate/internal/service/ratelimit"
	"StockGate/internal/usecase"
	xhttp "StockGate/pkg/http"
	xlogger "StockGate/pkg/logger"
)

// AnalyzeHandler is the synchronous request adapter: one query in, one
// flat analysis response out, with each error variant mapped to its own
// status code.
type AnalyzeHandler struct {
	logger   *xlogger.Logger
	pipeline *usecase.Pipeline
	audit    drepo.AuditStore
	rl       *ratelimit.Limiter
	rlPerMin float64
	started  time.Time
}

// NewAnalyzeHandler creates the REST adapter. A non-positive ratePerMin
// disables rate limiting.
func NewAnalyzeHandler(logger *xlogger.Logger, pipeline *usecase.Pipeline, audit drepo.AuditStore, ratePerMin int) *AnalyzeHandler {
	h := &AnalyzeHandler{
		logger:   logger,
		pipeline: pipeline,
		audit:    audit,
		started:  time.Now(),
	}
	if ratePerMin > 0 {
		h.rl = ratelimit.New()
		h.rlPerMin = float64(ratePerMin)
	}
	return h
}

func (h *AnalyzeHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	g := e.Group("/api/v1")
	g.POST("/analyze", h.Analyze)
	g.GET("/analyses", h.Analyses)
}

// AnalyzeRequest is the wire format of the synchronous surface.
type AnalyzeRequest struct {
	Query         string `json:"query" validate:"required,min=1,max=200"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// AnalyzeResponse is the flat result shape.
type AnalyzeResponse struct {
	Ticker           string   `json:"ticker"`
	CompanyName      string   `json:"companyName"`
	Recommendation   string   `json:"recommendation"`
	ConfidenceScore  float64  `json:"confidenceScore"`
	CurrentPrice     float64  `json:"currentPrice"`
	PriceStale       bool     `json:"priceStale,omitempty"`
	Reasoning        string   `json:"reasoning"`
	KeyFactors       []string `json:"keyFactors,omitempty"`
	AnalysisID       string   `json:"analysisId"`
	ProcessingTimeMs int64    `json:"processingTimeMs"`
}

// ErrorResponse is the structured error shape.
type ErrorResponse struct {
	Kind          string   `json:"kind"`
	Message       string   `json:"message"`
	CorrelationID string   `json:"correlationId"`
	Suggestions   []string `json:"suggestions,omitempty"`
}

func (h *AnalyzeHandler) Analyze(c echo.Context) error {
	req := &AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return c.JSON(http.StatusBadRequest, xhttp.APIResponse{
			Status:  http.StatusBadRequest,
			Message: http.StatusText(http.StatusBadRequest),
			Data:    verr,
		})
	}
	if h.rl != nil && !h.rl.Allow(c.RealIP()+":analyze", h.rlPerMin, h.rlPerMin/60) {
		return c.JSON(http.StatusTooManyRequests, xhttp.APIResponse{
			Status:  http.StatusTooManyRequests,
			Message: "rate limit exceeded",
		})
	}

	cid := req.CorrelationID
	if cid == "" {
		cid = c.Request().Header.Get("X-Correlation-ID")
	}
	res, aerr := h.pipeline.Analyze(c.Request().Context(), &models.AnalysisRequest{
		CorrelationID:  cid,
		RawQuery:       req.Query,
		RequestedAt:    time.Now().UTC(),
		SourceProtocol: models.ProtocolREST,
	})
	if aerr != nil {
		h.logger.Warn("analysis failed",
			xlogger.String("correlation_id", aerr.CorrelationID),
			xlogger.String("kind", string(aerr.Kind)))
		return WriteAnalysisError(c, aerr)
	}

	return xhttp.SuccessResponse(c, FlattenResult(res))
}

// FlattenResult converts the canonical result into the flat wire shape.
func FlattenResult(res *models.AnalysisResult) *AnalyzeResponse {
	out := &AnalyzeResponse{
		Ticker:           res.Symbol.Symbol,
		CompanyName:      res.Symbol.DisplayName,
		Recommendation:   string(res.Recommendation.Action),
		ConfidenceScore:  res.Recommendation.Confidence,
		Reasoning:        res.Recommendation.Reasoning,
		KeyFactors:       res.Recommendation.KeyFactors,
		AnalysisID:       res.CorrelationID,
		ProcessingTimeMs: res.ProcessingTimeMs,
	}
	if res.Snapshot != nil {
		out.CurrentPrice = res.Snapshot.Price
		out.PriceStale = res.Snapshot.Stale
	}
	return out
}

// WriteAnalysisError maps an error variant to its status code and writes
// the structured error body.
func WriteAnalysisError(c echo.Context, aerr *models.AnalysisError) error {
	status := StatusForKind(aerr.Kind)
	return c.JSON(status, xhttp.APIResponse{
		Status:  status,
		Message: http.StatusText(status),
		Data: &ErrorResponse{
			Kind:          string(aerr.Kind),
			Message:       aerr.Message,
			CorrelationID: aerr.CorrelationID,
			Suggestions:   aerr.Suggestions,
		},
	})
}

// StatusForKind maps each error variant to a distinct status code.
func StatusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.ErrInvalidQuery:
		return http.StatusBadRequest
	case models.ErrSymbolNotFound:
		return http.StatusNotFound
	case models.ErrUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case models.ErrReasoningFailure:
		return http.StatusBadGateway
	case models.ErrTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Analyses lists recent audit entries, optionally filtered by symbol.
func (h *AnalyzeHandler) Analyses(c echo.Context) error {
	symbol := c.QueryParam("symbol")
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 50)
	if limit > 500 {
		limit = 500
	}
	recs, err := h.audit.Recent(c.Request().Context(), symbol, limit)
	if err != nil {
		h.logger.Error("audit query failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if since := xhttp.ParseTimeDefault(c.QueryParam("since"), time.Time{}); !since.IsZero() {
		filtered := recs[:0]
		for _, r := range recs {
			if !r.Timestamp.Before(since) {
				filtered = append(filtered, r)
			}
		}
		recs = filtered
	}
	return xhttp.ListResponse(c, recs, int64(len(recs)))
}

// Health reports process and dependency status.
func (h *AnalyzeHandler) Health(c echo.Context) error {
	components := map[string]string{"audit_store": "ok"}
	status := http.StatusOK
	ctx := c.Request().Context()
	if err := h.audit.Health(ctx); err != nil {
		components["audit_store"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, map[string]interface{}{
		"status":     http.StatusText(status),
		"uptime_sec": int64(time.Since(h.started).Seconds()),
		"components": components,
	})
}
