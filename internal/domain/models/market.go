package models

import "time"

// CanonicalSymbol is the normalized exchange ticker for an instrument,
// produced by the resolver and used as the key everywhere downstream.
type CanonicalSymbol struct {
	Symbol      string `json:"symbol"`
	DisplayName string `json:"display_name"`
}

// MarketSnapshot is a point-in-time quote. Values are immutable; a refresh
// replaces the whole snapshot.
type MarketSnapshot struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	DailyHigh float64   `json:"daily_high"`
	DailyLow  float64   `json:"daily_low"`
	Volume    float64   `json:"volume"`
	AsOf      time.Time `json:"as_of"`

	// Stale marks a snapshot served from an expired cache entry after an
	// upstream failure. Age is derivable from AsOf.
	Stale bool `json:"stale,omitempty"`
}

// Age returns how old the snapshot is.
func (s *MarketSnapshot) Age() time.Duration {
	return time.Since(s.AsOf)
}

// Candle is one daily bar of a historical series.
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	Close  float64   `json:"close"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Volume float64   `json:"volume"`
}

// HistoricalSeries is an ordered (oldest first) sequence of daily candles
// covering a trailing window. Replaced wholesale on refresh, never patched.
type HistoricalSeries struct {
	Symbol  string    `json:"symbol"`
	Candles []Candle  `json:"candles"`
	AsOf    time.Time `json:"as_of"`
	Stale   bool      `json:"stale,omitempty"`
}

// Trade is a single tick from the live market stream.
type Trade struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"t"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
}
