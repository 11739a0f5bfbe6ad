package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// FailClass is the typed failure reported by the market data client.
type FailClass string

const (
	FailTimeout     FailClass = "timeout"
	FailRateLimited FailClass = "rate_limited"
	FailNotFound    FailClass = "not_found"
	FailTransport   FailClass = "transport"
	FailUnavailable FailClass = "unavailable" // circuit open, no call attempted
)

// FetchError carries the failure class plus enough context for the audit
// trail: symbol, attempts made, and elapsed time.
type FetchError struct {
	Class    FailClass
	Symbol   string
	Attempts int
	Elapsed  time.Duration
	Err      error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("market data %s: %s (attempts=%d elapsed=%s)", e.Symbol, e.Class, e.Attempts, e.Elapsed.Round(time.Millisecond))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retriable reports whether another attempt may succeed.
func (e *FetchError) Retriable() bool {
	switch e.Class {
	case FailTimeout, FailRateLimited, FailTransport:
		return true
	}
	return false
}

// classify wraps an arbitrary error into a FetchError.
func classify(err error, symbol string) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	class := FailTransport
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		class = FailTimeout
	case errors.As(err, &ne) && ne.Timeout():
		class = FailTimeout
	}
	return &FetchError{Class: class, Symbol: symbol, Err: err}
}
