package models

import "fmt"

// ErrorKind is the closed taxonomy every stage failure is translated into
// before it crosses the pipeline boundary. Adapters never see raw upstream
// errors.
type ErrorKind string

const (
	ErrInvalidQuery        ErrorKind = "InvalidQuery"
	ErrSymbolNotFound      ErrorKind = "SymbolNotFound"
	ErrUpstreamUnavailable ErrorKind = "UpstreamUnavailable"
	ErrReasoningFailure    ErrorKind = "ReasoningFailure"
	ErrTimeout             ErrorKind = "Timeout"
	ErrInternal            ErrorKind = "Internal"
)

// AnalysisError is the uniform error type returned by the pipeline. It
// always carries the correlation id for support lookup.
type AnalysisError struct {
	Kind          ErrorKind `json:"kind"`
	CorrelationID string    `json:"correlation_id"`
	Message       string    `json:"message"`
	Suggestions   []string  `json:"suggestions,omitempty"`
	Err           error     `json:"-"`
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// NewAnalysisError builds an AnalysisError for the given kind.
func NewAnalysisError(kind ErrorKind, correlationID, message string) *AnalysisError {
	return &AnalysisError{Kind: kind, CorrelationID: correlationID, Message: message}
}

// WithSuggestions attaches ranked ticker suggestions (SymbolNotFound).
func (e *AnalysisError) WithSuggestions(s []string) *AnalysisError {
	e.Suggestions = s
	return e
}

// WithCause attaches the underlying error. The cause stays out of wire
// responses; it is for the audit trail and logs only.
func (e *AnalysisError) WithCause(err error) *AnalysisError {
	e.Err = err
	return e
}

// ResolveFailure describes why a query could not be mapped to a symbol.
// Kind is either ErrInvalidQuery or ErrSymbolNotFound.
type ResolveFailure struct {
	Kind        ErrorKind
	Message     string
	Suggestions []string
}
