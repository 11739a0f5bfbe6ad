package reasoning

import (
	"fmt"
	"strconv"
	"strings"

	"StockGate/internal/domain/models"
)

// ParseError reports backend output that does not satisfy the expected
// section grammar. The parser never guesses a missing field.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "malformed reasoning output: " + e.Reason
}

const (
	markerRecommendation = "RECOMMENDATION:"
	markerConfidence     = "CONFIDENCE:"
	markerReasoning      = "REASONING:"
	markerKeyFactors     = "KEY FACTORS:"
)

// parseRecommendation extracts a Recommendation from the backend's
// free-text response. Action and confidence and a non-empty reasoning
// section are required; key factors are optional. Confidence outside
// [0,100] is clamped, non-numeric confidence is rejected.
func parseRecommendation(text string) (*models.Recommendation, error) {
	rec := &models.Recommendation{}
	var (
		haveAction     bool
		haveConfidence bool
		section        string
		reasoning      []string
	)

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		upper := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(upper, markerRecommendation):
			val := strings.TrimSpace(line[len(markerRecommendation):])
			action, ok := matchAction(val)
			if !ok {
				return nil, &ParseError{Reason: fmt.Sprintf("unknown action %q", val)}
			}
			rec.Action = action
			haveAction = true
			section = ""
		case strings.HasPrefix(upper, markerConfidence):
			val := strings.TrimSpace(line[len(markerConfidence):])
			val = strings.TrimSuffix(val, "%")
			n, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				return nil, &ParseError{Reason: fmt.Sprintf("confidence %q is not numeric", val)}
			}
			rec.Confidence = clamp(n, 0, 100)
			haveConfidence = true
			section = ""
		case strings.HasPrefix(upper, markerReasoning):
			section = "reasoning"
			if rest := strings.TrimSpace(line[len(markerReasoning):]); rest != "" {
				reasoning = append(reasoning, rest)
			}
		case strings.HasPrefix(upper, markerKeyFactors):
			section = "factors"
		default:
			switch section {
			case "reasoning":
				if line != "" {
					reasoning = append(reasoning, line)
				}
			case "factors":
				if f := strings.TrimLeft(line, "-* \t"); f != "" {
					rec.KeyFactors = append(rec.KeyFactors, f)
				}
			}
		}
	}

	if !haveAction {
		return nil, &ParseError{Reason: "missing RECOMMENDATION section"}
	}
	if !haveConfidence {
		return nil, &ParseError{Reason: "missing CONFIDENCE section"}
	}
	rec.Reasoning = strings.Join(reasoning, " ")
	if rec.Reasoning == "" {
		return nil, &ParseError{Reason: "missing REASONING section"}
	}
	return rec, nil
}

func matchAction(val string) (models.Action, bool) {
	switch strings.ToLower(val) {
	case "buy":
		return models.ActionBuy, true
	case "hold":
		return models.ActionHold, true
	case "sell":
		return models.ActionSell, true
	}
	return "", false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
