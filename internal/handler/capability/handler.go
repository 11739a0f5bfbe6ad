package capability

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"StockGate/internal/domain/models"
	drepo "StockGate/internal/domain/repository"
	"StockGate/internal/usecase"
	xlogger "StockGate/pkg/logger"
)

// AgentInfo describes this agent on the capability surface.
type AgentInfo struct {
	ID          string `json:"agent_id"`
	Name        string `json:"agent_name"`
	Version     string `json:"agent_version"`
	Description string `json:"agent_description"`
}

// InvokeError is a capability failure before or during execution.
type InvokeError struct {
	Kind        models.ErrorKind `json:"kind"`
	Message     string           `json:"message"`
	Suggestions []string         `json:"suggestions,omitempty"`
}

// InvokeRequest is the invocation envelope.
type InvokeRequest struct {
	MessageID      string                 `json:"message_id,omitempty"`
	SenderAgentID  string                 `json:"sender_agent_id,omitempty"`
	ConversationID string                 `json:"conversation_id,omitempty"`
	CapabilityID   string                 `json:"capability_id,omitempty"`
	Parameters     map[string]interface{} `json:"parameters"`
	TimeoutSeconds int                    `json:"timeout_seconds,omitempty"`
}

// InvokeResponse is the response envelope.
type InvokeResponse struct {
	MessageID        string                 `json:"message_id"`
	MessageType      string                 `json:"message_type"`
	Timestamp        string                 `json:"timestamp"`
	ConversationID   string                 `json:"conversation_id,omitempty"`
	RequestID        string                 `json:"request_id"`
	Success          bool                   `json:"success"`
	Result           map[string]interface{} `json:"result,omitempty"`
	Error            *InvokeError           `json:"error,omitempty"`
	ProcessingTimeMs int64                  `json:"processing_time_ms"`
}

// Handler is the capability-invocation adapter.
type Handler struct {
	logger   *xlogger.Logger
	pipeline *usecase.Pipeline
	quotes   drepo.Quotes
	resolver drepo.Resolver
	agent    AgentInfo
	registry *Registry
}

// NewHandler creates the capability adapter and registers the built-in
// capability set.
func NewHandler(logger *xlogger.Logger, pipeline *usecase.Pipeline, quotes drepo.Quotes, resolver drepo.Resolver, agent AgentInfo) *Handler {
	h := &Handler{
		logger:   logger,
		pipeline: pipeline,
		quotes:   quotes,
		resolver: resolver,
		agent:    agent,
		registry: NewRegistry(),
	}
	h.registerCapabilities()
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/a2a")
	g.GET("/manifest", h.Manifest)
	g.GET("/capabilities", h.Capabilities)
	g.GET("/capabilities/:id", h.CapabilityDetail)
	g.POST("/capabilities/:id/invoke", h.Invoke)
	g.POST("/request", h.Request)
}

// Manifest describes the agent and its capability set.
func (h *Handler) Manifest(c echo.Context) error {
	caps := h.registry.List()
	ids := make([]string, 0, len(caps))
	for _, cp := range caps {
		ids = append(ids, cp.ID)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"agent":        h.agent,
		"protocol":     "a2a/1.0",
		"capabilities": ids,
		"endpoints": map[string]string{
			"capabilities": "/a2a/capabilities",
			"invoke":       "/a2a/capabilities/{id}/invoke",
			"request":      "/a2a/request",
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Capabilities lists the full capability definitions.
func (h *Handler) Capabilities(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"capabilities": h.registry.List(),
		"count":        len(h.registry.List()),
	})
}

// CapabilityDetail returns one capability definition.
func (h *Handler) CapabilityDetail(c echo.Context) error {
	cp, ok := h.registry.Get(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "unknown capability " + c.Param("id"),
		})
	}
	return c.JSON(http.StatusOK, cp)
}

// Invoke executes the capability named in the path.
func (h *Handler) Invoke(c echo.Context) error {
	req := &InvokeRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	req.CapabilityID = c.Param("id")
	return h.execute(c, req)
}

// Request executes the capability named in the envelope.
func (h *Handler) Request(c echo.Context) error {
	req := &InvokeRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	return h.execute(c, req)
}

func (h *Handler) execute(c echo.Context, req *InvokeRequest) error {
	start := time.Now()
	if req.Parameters == nil {
		req.Parameters = map[string]interface{}{}
	}

	cp, ok := h.registry.Get(req.CapabilityID)
	if !ok {
		return h.respond(c, req, start, nil, &InvokeError{
			Kind:    models.ErrInvalidQuery,
			Message: "unknown capability " + req.CapabilityID,
		})
	}

	if violations := cp.InputSchema.Validate(req.Parameters); len(violations) > 0 {
		return h.respond(c, req, start, nil, &InvokeError{
			Kind:    models.ErrInvalidQuery,
			Message: "parameter validation failed: " + violations[0],
		})
	}

	result, ierr := cp.execute(c.Request().Context(), req.Parameters)
	if ierr != nil {
		h.logger.Warn("capability failed",
			xlogger.String("capability", cp.ID),
			xlogger.String("kind", string(ierr.Kind)))
	}
	return h.respond(c, req, start, result, ierr)
}

func (h *Handler) respond(c echo.Context, req *InvokeRequest, start time.Time, result map[string]interface{}, ierr *InvokeError) error {
	resp := &InvokeResponse{
		MessageID:        uuid.NewString(),
		MessageType:      "response",
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		ConversationID:   req.ConversationID,
		RequestID:        req.MessageID,
		Success:          ierr == nil,
		Result:           result,
		Error:            ierr,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
	if ierr != nil {
		resp.MessageType = "error"
	}
	// protocol errors ride inside the envelope, transport stays 200
	return c.JSON(http.StatusOK, resp)
}
