package models

import "time"

// Protocol identifies which adapter originated a request.
type Protocol string

const (
	ProtocolREST       Protocol = "rest"
	ProtocolCapability Protocol = "capability"
	ProtocolAgent      Protocol = "agent"
)

// Action is the recommendation verdict.
type Action string

const (
	ActionBuy  Action = "Buy"
	ActionHold Action = "Hold"
	ActionSell Action = "Sell"
)

// ValidAction reports whether a is one of the three allowed verdicts.
func ValidAction(a Action) bool {
	return a == ActionBuy || a == ActionHold || a == ActionSell
}

// AnalysisRequest is the canonical request all adapters translate into.
// Immutable once created at the adapter boundary.
type AnalysisRequest struct {
	CorrelationID  string    `json:"correlation_id"`
	RawQuery       string    `json:"raw_query"`
	RequestedAt    time.Time `json:"requested_at"`
	SourceProtocol Protocol  `json:"source_protocol"`
}

// Recommendation is the parsed output of the reasoning backend.
type Recommendation struct {
	Action     Action   `json:"action"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	KeyFactors []string `json:"key_factors"`
}

// AnalysisResult is created once per successful pipeline run.
type AnalysisResult struct {
	CorrelationID    string          `json:"correlation_id"`
	Symbol           CanonicalSymbol `json:"symbol"`
	Snapshot         *MarketSnapshot `json:"snapshot"`
	Recommendation   Recommendation  `json:"recommendation"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
}

// AuditOutcome is the terminal state of one pipeline invocation.
type AuditOutcome struct {
	Result *AnalysisResult `json:"result,omitempty"`
	Error  *AnalysisError  `json:"error,omitempty"`
}

// Success reports whether the invocation completed with a result.
func (o AuditOutcome) Success() bool { return o.Result != nil }

// AuditRecord is appended after every pipeline invocation, win or lose.
// Ownership is exclusively the audit sink's; retention is 30 days.
type AuditRecord struct {
	CorrelationID      string          `json:"correlation_id"`
	SourceProtocol     Protocol        `json:"source_protocol"`
	Request            AnalysisRequest `json:"request"`
	Outcome            AuditOutcome    `json:"outcome"`
	Timestamp          time.Time       `json:"timestamp"`
	RetentionExpiresAt time.Time       `json:"retention_expires_at"`
}
