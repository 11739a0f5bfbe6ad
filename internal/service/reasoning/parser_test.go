package reasoning

import (
	"testing"

	"github.com/stretchr/testify/require"

	"StockGate/internal/domain/models"
)

const goodOutput = `RECOMMENDATION: Buy
CONFIDENCE: 78
REASONING:
Strong upward momentum over the trailing window.
Volume supports the move.
KEY FACTORS:
- 12% six month gain
- volume above average
`

func TestParseWellFormed(t *testing.T) {
	rec, err := parseRecommendation(goodOutput)
	require.NoError(t, err)
	require.Equal(t, models.ActionBuy, rec.Action)
	require.Equal(t, 78.0, rec.Confidence)
	require.Contains(t, rec.Reasoning, "upward momentum")
	require.Equal(t, []string{"12% six month gain", "volume above average"}, rec.KeyFactors)
}

func TestParseActionCaseInsensitive(t *testing.T) {
	rec, err := parseRecommendation("recommendation: SELL\nconfidence: 55\nreasoning: overextended rally")
	require.NoError(t, err)
	require.Equal(t, models.ActionSell, rec.Action)
	require.Equal(t, "overextended rally", rec.Reasoning)
}

func TestParseConfidenceClamped(t *testing.T) {
	rec, err := parseRecommendation("RECOMMENDATION: Hold\nCONFIDENCE: 120\nREASONING: mixed signals")
	require.NoError(t, err)
	require.Equal(t, 100.0, rec.Confidence)

	rec, err = parseRecommendation("RECOMMENDATION: Hold\nCONFIDENCE: -5\nREASONING: mixed signals")
	require.NoError(t, err)
	require.Equal(t, 0.0, rec.Confidence)
}

func TestParseConfidencePercentSign(t *testing.T) {
	rec, err := parseRecommendation("RECOMMENDATION: Hold\nCONFIDENCE: 63%\nREASONING: sideways trend")
	require.NoError(t, err)
	require.Equal(t, 63.0, rec.Confidence)
}

func TestParseKeyFactorsOptional(t *testing.T) {
	rec, err := parseRecommendation("RECOMMENDATION: Hold\nCONFIDENCE: 50\nREASONING: no clear signal")
	require.NoError(t, err)
	require.Empty(t, rec.KeyFactors)
}

func TestParseMalformedRejected(t *testing.T) {
	cases := map[string]string{
		"missing action":      "CONFIDENCE: 50\nREASONING: text",
		"missing confidence":  "RECOMMENDATION: Buy\nREASONING: text",
		"missing reasoning":   "RECOMMENDATION: Buy\nCONFIDENCE: 50",
		"bad action":          "RECOMMENDATION: Maybe\nCONFIDENCE: 50\nREASONING: text",
		"bad confidence":      "RECOMMENDATION: Buy\nCONFIDENCE: high\nREASONING: text",
		"free text":           "I think you should probably buy this stock, it looks great.",
		"empty":               "",
	}
	for name, text := range cases {
		_, err := parseRecommendation(text)
		require.Error(t, err, name)
		require.IsType(t, &ParseError{}, err, name)
	}
}
