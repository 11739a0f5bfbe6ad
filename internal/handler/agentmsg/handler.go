package agentmsg

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"StockGate/internal/domain/models"
	drepo "StockGate/internal/domain/repository"
	"StockGate/internal/usecase"
	xlogger "StockGate/pkg/logger"
)

// Content is the typed body of a conversational message.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Message is the conversational envelope. Replies carry role "agent" and
// point back at the inbound message through ParentMessageID.
type Message struct {
	Role            string  `json:"role"`
	Content         Content `json:"content"`
	ConversationID  string  `json:"conversationId,omitempty"`
	MessageID       string  `json:"messageId,omitempty"`
	ParentMessageID string  `json:"parentMessageId,omitempty"`
}

// Config identifies this agent on the messaging surface.
type Config struct {
	AgentID        string
	AgentName      string
	Version        string
	ResponsePrefix string
	ForwardTimeout time.Duration
}

// Handler is the agent-messaging adapter. Inbound text is classified as a
// command, a directed peer-forward, or a stock query; only stock queries
// reach the pipeline.
type Handler struct {
	logger   *xlogger.Logger
	pipeline *usecase.Pipeline
	peers    drepo.PeerRegistry
	outbound *resty.Client
	cfg      Config
	started  time.Time
}

// NewHandler creates the messaging adapter.
func NewHandler(logger *xlogger.Logger, pipeline *usecase.Pipeline, peers drepo.PeerRegistry, cfg Config) *Handler {
	if cfg.ResponsePrefix == "" {
		cfg.ResponsePrefix = "[" + cfg.AgentName + "]"
	}
	if cfg.ForwardTimeout <= 0 {
		cfg.ForwardTimeout = 30 * time.Second
	}
	return &Handler{
		logger:   logger,
		pipeline: pipeline,
		peers:    peers,
		outbound: resty.New().SetTimeout(cfg.ForwardTimeout),
		cfg:      cfg,
		started:  time.Now(),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/agent")
	g.GET("/info", h.Info)
	g.POST("/messages", h.HandleMessage)
}

// Info describes the agent for peers and registries.
func (h *Handler) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"agent_id":      h.cfg.AgentID,
		"agent_name":    h.cfg.AgentName,
		"agent_version": h.cfg.Version,
		"commands":      []string{"/help", "/status"},
		"uptime":        time.Since(h.started).Round(time.Second).String(),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleMessage answers one conversational message.
func (h *Handler) HandleMessage(c echo.Context) error {
	msg := &Message{}
	if err := c.Bind(msg); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed message"})
	}
	text := strings.TrimSpace(msg.Content.Text)
	if msg.Content.Type != "" && msg.Content.Type != "text" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "unsupported content type " + msg.Content.Type,
		})
	}
	if text == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "empty message text"})
	}

	var reply string
	switch classify(text) {
	case kindCommand:
		reply = h.runCommand(text)
	case kindForward:
		reply = h.forward(c.Request().Context(), msg, text)
	default:
		reply = h.answerQuery(c.Request().Context(), msg, text)
	}
	return c.JSON(http.StatusOK, h.reply(msg, reply))
}

type messageKind int

const (
	kindQuery messageKind = iota
	kindCommand
	kindForward
)

func classify(text string) messageKind {
	switch {
	case strings.HasPrefix(text, "/"):
		return kindCommand
	case strings.HasPrefix(text, "@"):
		return kindForward
	}
	return kindQuery
}

func (h *Handler) runCommand(text string) string {
	cmd := strings.Fields(text)[0]
	switch cmd {
	case "/help":
		return "Ask about any listed stock by name or ticker, for example " +
			"\"Should I buy Apple?\" or \"MSFT\". Send @agent-id <text> to " +
			"forward a message to another agent. Commands: /help, /status."
	case "/status":
		return fmt.Sprintf("%s v%s online, uptime %s.",
			h.cfg.AgentName, h.cfg.Version, time.Since(h.started).Round(time.Second))
	}
	return fmt.Sprintf("Unknown command %s. Try /help.", cmd)
}

// forward relays @agent-id messages to the registered peer endpoint and
// returns the peer's reply text. The pipeline is never involved.
func (h *Handler) forward(ctx context.Context, msg *Message, text string) string {
	fields := strings.Fields(text)
	peerID := strings.TrimPrefix(fields[0], "@")
	body := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))
	if peerID == "" || body == "" {
		return "Forward format is @agent-id <message>."
	}

	endpoint, ok := h.peers.Lookup(peerID)
	if !ok {
		return fmt.Sprintf("Unknown agent %q. No forwarding endpoint is registered.", peerID)
	}

	out := &Message{
		Role:           "agent",
		Content:        Content{Type: "text", Text: body},
		ConversationID: msg.ConversationID,
		MessageID:      uuid.NewString(),
	}
	peerReply := &Message{}
	resp, err := h.outbound.R().
		SetContext(ctx).
		SetBody(out).
		SetResult(peerReply).
		Post(endpoint)
	if err != nil {
		h.logger.Warn("peer forward failed",
			xlogger.String("peer", peerID),
			xlogger.Error(err))
		return fmt.Sprintf("Could not reach agent %q.", peerID)
	}
	if resp.StatusCode() != http.StatusOK {
		h.logger.Warn("peer forward rejected",
			xlogger.String("peer", peerID),
			xlogger.Int("status", resp.StatusCode()))
		return fmt.Sprintf("Could not reach agent %q.", peerID)
	}
	return fmt.Sprintf("%s replied: %s", peerID, peerReply.Content.Text)
}

func (h *Handler) answerQuery(ctx context.Context, msg *Message, text string) string {
	res, aerr := h.pipeline.Analyze(ctx, &models.AnalysisRequest{
		CorrelationID:  msg.MessageID,
		RawQuery:       text,
		SourceProtocol: models.ProtocolAgent,
	})
	if aerr != nil {
		return h.describeError(aerr)
	}
	return fmt.Sprintf("%s (%s) is a %s with %.0f%% confidence at $%.2f. %s",
		res.Symbol.DisplayName, res.Symbol.Symbol,
		res.Recommendation.Action, res.Recommendation.Confidence,
		res.Snapshot.Price, res.Recommendation.Reasoning)
}

func (h *Handler) describeError(aerr *models.AnalysisError) string {
	switch aerr.Kind {
	case models.ErrSymbolNotFound:
		if len(aerr.Suggestions) > 0 {
			return fmt.Sprintf("I could not find that symbol. Did you mean %s?",
				strings.Join(aerr.Suggestions, ", "))
		}
		return "I could not find that symbol."
	case models.ErrInvalidQuery:
		return "Please name a company or ticker symbol, for example \"Apple\" or \"AAPL\"."
	case models.ErrUpstreamUnavailable:
		return "Market data is temporarily unavailable. Please try again shortly."
	case models.ErrReasoningFailure:
		return "I could not complete the analysis this time. Please try again."
	case models.ErrTimeout:
		return "The analysis took too long and was cancelled. Please try again."
	}
	return "Something went wrong handling that request. Reference id: " + aerr.CorrelationID
}

func (h *Handler) reply(in *Message, text string) *Message {
	return &Message{
		Role:            "agent",
		Content:         Content{Type: "text", Text: h.cfg.ResponsePrefix + " " + text},
		ConversationID:  in.ConversationID,
		MessageID:       uuid.NewString(),
		ParentMessageID: in.MessageID,
	}
}
