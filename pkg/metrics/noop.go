package metrics

// Noop is a Metrics implementation that records nothing. promauto
// registers on the default registry, so tests use Noop instead of New.
type Noop struct{}

func (Noop) RecordAnalysis(protocol, outcome string, seconds float64) {}
func (Noop) RecordStageLatency(stage string, seconds float64)         {}
func (Noop) RecordCacheEvent(kind, event string)                      {}
func (Noop) RecordUpstreamAttempt(op, result string)                  {}
func (Noop) SetBreakerState(state float64)                            {}
func (Noop) RecordError(kind string)                                  {}
func (Noop) RecordLastPrice(symbol string, price float64)             {}
